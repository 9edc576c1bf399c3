package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	config "github.com/ViableSystemsGlobal/lms-backend/configs"
)

const (
	certNumberPrefix      = "CERT"
	certNumberRandomBytes = 5
)

// GenerateCertificateNumber builds a verification number from a millisecond
// timestamp and a random hex suffix, e.g. CERT-1756684800123-4F9A1C02BD.
// The timestamp keeps numbers sortable by issuance time; the suffix makes a
// collision practically unreachable without a ledger round-trip. Callers still
// retry once if the ledger's unique constraint disagrees.
func GenerateCertificateNumber() (string, error) {
	suffix := make([]byte, certNumberRandomBytes)
	if _, err := rand.Read(suffix); err != nil {
		return "", fmt.Errorf("read random suffix: %w", err)
	}
	return fmt.Sprintf("%s-%d-%s",
		certNumberPrefix,
		time.Now().UnixMilli(),
		strings.ToUpper(hex.EncodeToString(suffix)),
	), nil
}

// VerificationURL derives the public verification link encoded into the QR code.
func VerificationURL(number string) string {
	base := strings.TrimRight(config.ConfigOr("BASE_URL", "http://localhost:8080"), "/")
	return fmt.Sprintf("%s/certificates/verify/%s", base, number)
}
