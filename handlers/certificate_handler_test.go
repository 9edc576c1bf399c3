package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ViableSystemsGlobal/lms-backend/database"
	"github.com/ViableSystemsGlobal/lms-backend/middleware"
	"github.com/ViableSystemsGlobal/lms-backend/models"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// useTestDB swaps the package-global connection for an isolated in-memory
// database carrying the production schema.
func useTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(database.MigrationModels()...))

	previous := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = previous })
	return db
}

// newCertificateApp wires the certificate surface the same way the route
// registrar does.
func newCertificateApp() *fiber.App {
	app := fiber.New()
	app.Get("/certificates/verify/:number", VerifyCertificatePage)
	app.Get("/api/v1/certificates/verify/:number", VerifyCertificate)

	admin := app.Group("/api/v1/admin/certificates", middleware.Protected(), middleware.AdminRequired())
	admin.Patch("/:certificateId", RevokeCertificate)
	return app
}

func signToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func seedCertificate(t *testing.T, db *gorm.DB) models.Certificate {
	t.Helper()

	user := models.User{FullName: "Ama Mensah", Email: t.Name() + "@example.com", Password: "x", Role: models.RoleStudent}
	require.NoError(t, db.Create(&user).Error)
	course := models.Course{Title: "Workplace Safety", PassMark: 70}
	require.NoError(t, db.Create(&course).Error)

	cert := models.Certificate{
		Number:    "CERT-1756684800123-4F9A1C02BD",
		UserID:    user.ID,
		CourseID:  course.ID,
		Score:     9,
		MaxScore:  10,
		IssuedAt:  time.Now(),
		PdfURL:    "/files/certificates/CERT-1756684800123-4F9A1C02BD.pdf",
		QRCodeURL: "/files/qrcodes/CERT-1756684800123-4F9A1C02BD.png",
	}
	require.NoError(t, db.Create(&cert).Error)
	return cert
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestVerifyCertificateActive(t *testing.T) {
	db := useTestDB(t)
	cert := seedCertificate(t, db)
	app := newCertificateApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/certificates/verify/"+cert.Number, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, models.CertificateStatusActive, body["status"])
	assert.Equal(t, false, body["is_revoked"])
	assert.Equal(t, false, body["is_expired"])
}

func TestVerifyCertificateUnknownNumber(t *testing.T) {
	useTestDB(t)
	app := newCertificateApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/certificates/verify/CERT-1-AABBCCDDEE", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["valid"])
}

func TestVerifyCertificateMalformedNumber(t *testing.T) {
	useTestDB(t)
	app := newCertificateApp()

	// Numbers that fail the format check never reach the database.
	for _, number := range []string{"not-a-number", "CERT-abc-ZZ", "cert-1-aabbccddee"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/certificates/verify/"+number, nil))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, "number %q", number)
	}
}

func TestVerifyCertificateRevoked(t *testing.T) {
	db := useTestDB(t)
	cert := seedCertificate(t, db)
	now := time.Now()
	reason := "issued in error"
	require.NoError(t, db.Model(&cert).Updates(map[string]interface{}{
		"revoked_at":    &now,
		"revoke_reason": &reason,
	}).Error)
	app := newCertificateApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/certificates/verify/"+cert.Number, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, models.CertificateStatusRevoked, body["status"])
	assert.Equal(t, true, body["is_revoked"])
}

func TestVerifyCertificateExpired(t *testing.T) {
	db := useTestDB(t)
	cert := seedCertificate(t, db)
	expired := time.Now().Add(-24 * time.Hour)
	require.NoError(t, db.Model(&cert).Update("expiry_at", &expired).Error)
	app := newCertificateApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/certificates/verify/"+cert.Number, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, models.CertificateStatusExpired, body["status"])
	assert.Equal(t, true, body["is_expired"])
}

func TestVerifyCertificatePage(t *testing.T) {
	db := useTestDB(t)
	cert := seedCertificate(t, db)
	app := newCertificateApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/certificates/verify/"+cert.Number, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Ama Mensah")
	assert.Contains(t, string(page), "Workplace Safety")
	assert.Contains(t, string(page), cert.Number)
}

func TestVerifyCertificatePageUnknownNumber(t *testing.T) {
	useTestDB(t)
	app := newCertificateApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/certificates/verify/CERT-1-AABBCCDDEE", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "text/html")
}

func TestRevokeCertificateEndpoint(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := useTestDB(t)
	cert := seedCertificate(t, db)
	app := newCertificateApp()
	token := signToken(t, uuid.New(), models.RoleAdmin)

	revoke := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPatch,
			"/api/v1/admin/certificates/"+cert.ID.String(),
			bytes.NewReader([]byte(body)))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	resp := revoke(`{"reason":"policy violation"}`)
	defer resp.Body.Close()
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, models.CertificateStatusRevoked, body["status"])

	// Revocation is terminal.
	again := revoke(`{"reason":"second attempt"}`)
	defer again.Body.Close()
	assert.Equal(t, fiber.StatusConflict, again.StatusCode)

	// A missing reason is rejected before touching the ledger.
	missing := revoke(`{}`)
	defer missing.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, missing.StatusCode)
}

func TestRevokeCertificateRequiresAdmin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := useTestDB(t)
	cert := seedCertificate(t, db)
	app := newCertificateApp()

	req := httptest.NewRequest(http.MethodPatch,
		"/api/v1/admin/certificates/"+cert.ID.String(),
		bytes.NewReader([]byte(`{"reason":"nope"}`)))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, uuid.New(), models.RoleStudent))

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// No token at all.
	bare := httptest.NewRequest(http.MethodPatch,
		"/api/v1/admin/certificates/"+cert.ID.String(),
		bytes.NewReader([]byte(`{"reason":"nope"}`)))
	bare.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	bareResp, err := app.Test(bare)
	require.NoError(t, err)
	defer bareResp.Body.Close()
	assert.Equal(t, fiber.StatusBadRequest, bareResp.StatusCode)
}
