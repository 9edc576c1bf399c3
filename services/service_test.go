package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ViableSystemsGlobal/lms-backend/database"
	"github.com/ViableSystemsGlobal/lms-backend/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.MigrationModels()...))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name, email string) models.User {
	t.Helper()

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		FullName: name,
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleStudent,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// useFakePDFRenderer swaps the chromedp pipeline for a stub so tests never
// spawn a browser.
func useFakePDFRenderer(t *testing.T) {
	t.Helper()

	original := renderPDF
	renderPDF = func(html string) ([]byte, error) {
		return []byte("%PDF-1.4 test artifact"), nil
	}
	t.Cleanup(func() { renderPDF = original })
}

// useArtifactDirs points the artifact directories at per-test temp dirs.
func useArtifactDirs(t *testing.T) (certDir, qrDir string) {
	t.Helper()

	certDir = t.TempDir()
	qrDir = t.TempDir()
	t.Setenv("CERTIFICATE_DIR", certDir)
	t.Setenv("QRCODE_DIR", qrDir)
	return certDir, qrDir
}
