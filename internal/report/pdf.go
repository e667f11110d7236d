package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFOptions controls optional PDF content.
type PDFOptions struct {
	// QRSize is the pixel size of the report QR code; zero disables it.
	QRSize int
}

// SavePDF renders the given validation report into a PDF document.
func SavePDF(rep Report, out string, opts PDFOptions) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Token Checksum Report", false)
	pdf.SetAuthor("tokenctl", false)
	pdf.SetCreator("tokenctl", false)
	pdf.SetMargins(15, 20, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	addPDFTitle(pdf, "Token Checksum Report")
	if err := addSummarySection(pdf, rep, opts); err != nil {
		return err
	}
	addChecksSection(pdf, rep.Checks)

	if pdf.Err() {
		return pdf.Error()
	}
	return pdf.OutputFileAndClose(out)
}

func addPDFTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, title)
	pdf.Ln(12)
}

func addSummarySection(pdf *gofpdf.Fpdf, rep Report, opts PDFOptions) error {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Summary")
	pdf.Ln(8)

	top := pdf.GetY()
	pdf.SetFont("Helvetica", "", 11)
	items := []struct {
		label string
		value string
	}{
		{label: "Image", value: emptyFallback(rep.File, "-")},
		{label: "Size", value: strconv.FormatInt(rep.Size, 10) + " bytes"},
		{label: "SHA-256", value: emptyFallback(shortHash(rep.Sha256), "-")},
		{label: "Type 4 Mode", value: emptyFallback(rep.Type4Mode, "-")},
		{label: "Mode", value: modeLabel(rep.Overwrite)},
		{label: "Checks", value: strconv.Itoa(len(rep.Checks))},
		{label: "Mismatches", value: strconv.Itoa(rep.Mismatches())},
		{label: "Overall", value: passLabel(rep.Pass)},
	}
	if !rep.CreatedAt.IsZero() {
		items = append(items, struct {
			label string
			value string
		}{label: "Created", value: rep.CreatedAt.Format(time.RFC3339)})
	}
	for _, item := range items {
		pdf.CellFormat(40, 6, item.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(100, 6, item.value, "", 1, "L", false, 0, "")
	}
	bottom := pdf.GetY()

	if opts.QRSize > 0 && rep.Sha256 != "" {
		png, err := ReportQR(rep, opts.QRSize)
		if err != nil {
			return fmt.Errorf("render report qr: %w", err)
		}
		name := "report-qr"
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
		pdf.ImageOptions(name, 160, top, 35, 35, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		if top+37 > bottom {
			bottom = top + 37
		}
	}
	pdf.SetY(bottom)
	pdf.Ln(4)
	return nil
}

func addChecksSection(pdf *gofpdf.Fpdf, rows []Check) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Checksums")
	pdf.Ln(9)

	if len(rows) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 6, "No checks recorded.", "", "L", false)
		return
	}

	headers := []string{"Area", "Type", "Offset", "Stored", "Computed", "Result"}
	widths := []float64{22, 22, 34, 34, 34, 34}

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		result := passLabel(row.Match)
		if row.Written {
			result += " (written)"
		}
		values := []string{
			strconv.Itoa(row.Area),
			strconv.Itoa(row.Type),
			row.Offset,
			row.Stored,
			row.Computed,
			result,
		}
		for i, v := range values {
			pdf.CellFormat(widths[i], 6, emptyFallback(v, "-"), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func passLabel(pass bool) string {
	if pass {
		return "PASS"
	}
	return "FAIL"
}

func modeLabel(overwrite bool) string {
	if overwrite {
		return "regenerate"
	}
	return "validate"
}

func shortHash(h string) string {
	if len(h) > 32 {
		return h[:32] + "..."
	}
	return h
}

func emptyFallback(val, fallback string) string {
	if strings.TrimSpace(val) == "" {
		return fallback
	}
	return val
}
