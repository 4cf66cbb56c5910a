package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"regexp"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/jung-kurt/gofpdf"

	"github.com/claiminsight/claiminsight-api/internal/models"
)

const (
	// PlaceholderDescription substitutes an empty description.
	PlaceholderDescription = "No description provided."

	headerText = "Professional Loss Description"

	// Bounding box for the embedded photo on its own page.
	imageBoxWidth  = 500.0
	imageBoxHeight = 400.0
)

var (
	dataURIPattern    = regexp.MustCompile(`^data:(image/\w+);base64,(.+)$`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Filename builds the download name for a report: whitespace runs in the
// category collapse to single underscores, an empty category falls back
// to "report".
func Filename(damageType string) string {
	category := damageType
	if category == "" {
		category = "report"
	}
	return "loss_description_" + whitespacePattern.ReplaceAllString(category, "_") + ".pdf"
}

// Render produces the loss report PDF: an underlined header and the
// description on the first page and, when the image payload decodes, the
// photo fit within a 500x400 box centered on a second page. An
// undecodable payload degrades to a text-only report, never an error.
func Render(req *models.ReportRequest) ([]byte, error) {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(72, 72, 72)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "BU", 18)
	pdf.MultiCell(0, 22, headerText, "", "L", false)
	pdf.Ln(10)

	description := req.Description
	if description == "" {
		description = PlaceholderDescription
	}
	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(0, 16, description, "", "L", false)

	if req.ImageData != "" {
		if img, ok := decodeImage(req.ImageData); ok {
			addImagePage(pdf, img)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to build PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// decodeImage accepts either a data URI or a bare base64 string.
// Whitespace inside the payload is dropped so wrapped base64 decodes.
func decodeImage(imageData string) ([]byte, bool) {
	payload := imageData
	if matches := dataURIPattern.FindStringSubmatch(imageData); matches != nil {
		payload = matches[2]
	}
	payload = whitespacePattern.ReplaceAllString(payload, "")

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, false
	}
	return decoded, true
}

// addImagePage appends a page holding the photo scaled into the bounding
// box and centered on both axes. Anything wrong with the image bytes is
// swallowed; the document stays text-only.
func addImagePage(pdf *gofpdf.Fpdf, img []byte) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return
	}

	var imageType string
	switch format {
	case "jpeg":
		imageType = "JPG"
	case "png":
		imageType = "PNG"
	case "gif":
		imageType = "GIF"
	default:
		return
	}

	// Register before adding the page so a parse failure inside gofpdf
	// cannot leave a dangling blank page behind.
	opts := gofpdf.ImageOptions{ImageType: imageType}
	info := pdf.RegisterImageOptionsReader("claim-photo", opts, bytes.NewReader(img))
	if pdf.Err() {
		pdf.ClearError()
		return
	}
	if info == nil {
		return
	}

	scale := imageBoxWidth / float64(cfg.Width)
	if h := imageBoxHeight / float64(cfg.Height); h < scale {
		scale = h
	}
	w := float64(cfg.Width) * scale
	h := float64(cfg.Height) * scale

	pageWidth, pageHeight := pdf.GetPageSize()
	x := (pageWidth - w) / 2
	y := (pageHeight - h) / 2

	pdf.AddPage()
	pdf.ImageOptions("claim-photo", x, y, w, h, false, opts, 0, "")
}
