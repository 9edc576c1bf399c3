package database

import (
	"testing"

	"github.com/ViableSystemsGlobal/lms-backend/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// The schema must migrate on sqlite as well as postgres: ids come from the
// BeforeCreate hooks, so no model tag may carry a database-side default that
// only one dialect understands.
func TestMigrationModelsOnSqlite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:migrate_test?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(MigrationModels()...))

	user := models.User{FullName: "Ama Mensah", Email: "ama@example.com", Password: "x"}
	require.NoError(t, db.Create(&user).Error)
	assert.NotEqual(t, uuid.Nil, user.ID)

	cert := models.Certificate{
		Number:    "CERT-1-AABBCCDDEE",
		UserID:    user.ID,
		CourseID:  uuid.New(),
		IssuedAt:  user.CreatedAt,
		PdfURL:    "/files/certificates/CERT-1-AABBCCDDEE.pdf",
		QRCodeURL: "/files/qrcodes/CERT-1-AABBCCDDEE.png",
	}
	require.NoError(t, db.Create(&cert).Error)
	assert.NotEqual(t, uuid.Nil, cert.ID)
}
