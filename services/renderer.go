package services

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"math"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	qrcode "github.com/skip2/go-qrcode"
)

//go:embed templates/certificate.html
var templateFS embed.FS

var certificateTmpl = template.Must(template.ParseFS(templateFS, "templates/certificate.html"))

const qrImageSize = 256

// CertificateData is everything the renderer needs to lay out one credential.
// Branding is passed in explicitly so rendering stays decoupled from the
// settings store and testable with fixed inputs.
type CertificateData struct {
	RecipientName string
	CourseTitle   string
	Score         int
	MaxScore      int
	Number        string
	IssuedAt      time.Time
	VerifyURL     string
}

// GenerateQRCode renders the verification URL as a PNG. Medium error
// correction is enough for a printed or on-screen credential.
func GenerateQRCode(verifyURL string) ([]byte, error) {
	return qrcode.Encode(verifyURL, qrcode.Medium, qrImageSize)
}

// FormatScore renders "earned/possible (pct%)". A zero max score has no
// defined percentage and is shown as N/A instead of dividing by zero.
func FormatScore(score, maxScore int) string {
	if maxScore <= 0 {
		return fmt.Sprintf("%d/%d (N/A)", score, maxScore)
	}
	pct := int(math.Round(float64(score) / float64(maxScore) * 100))
	return fmt.Sprintf("%d/%d (%d%%)", score, maxScore, pct)
}

func renderCertificateHTML(data CertificateData, branding BrandingSettings, qrPNG []byte) (string, error) {
	view := struct {
		RecipientName string
		CourseTitle   string
		ScoreLine     string
		Number        string
		IssuedOn      string
		CompanyName   string
		PrimaryColor  string
		LogoURL       string
		QRDataURI     template.URL
	}{
		RecipientName: data.RecipientName,
		CourseTitle:   data.CourseTitle,
		ScoreLine:     FormatScore(data.Score, data.MaxScore),
		Number:        data.Number,
		IssuedOn:      data.IssuedAt.Format("January 2, 2006"),
		CompanyName:   branding.CompanyName,
		PrimaryColor:  branding.PrimaryColor,
		LogoURL:       branding.LogoURL,
		QRDataURI:     template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(qrPNG)),
	}

	var rendered bytes.Buffer
	if err := certificateTmpl.Execute(&rendered, view); err != nil {
		return "", err
	}
	return rendered.String(), nil
}

// renderPDF is swapped out in tests to avoid spawning a browser.
var renderPDF = generatePDFFromHTML

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}
