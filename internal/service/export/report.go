package export

import (
	"bytes"
	"fmt"
	"time"

	"invoicely-service/internal/domain/analytics"

	"github.com/go-pdf/fpdf"
)

// Stat is a labelled headline figure on a report.
type Stat struct {
	Label string
	Value string
}

// Report describes the content of a rendered analytics report.
type Report struct {
	Title       string
	Subtitle    string
	GeneratedAt time.Time
	Currency    string
	Stats       []Stat
	Buckets     []analytics.MonthlyBucket
	TopClients  []analytics.TopClient
}

// RenderPDF lays the report out on A4 pages.
func RenderPDF(r Report) ([]byte, error) {
	return renderReport(fpdf.New("P", "mm", "A4", ""), r)
}

// renderReport writes r into pdf. The core fonts are cp1252, so every string
// goes through tr on the way in.
func renderReport(pdf *fpdf.Fpdf, r Report) ([]byte, error) {
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle(r.Title, true)
	pdf.SetCreator("Invoicely", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr(r.Title))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(100, 100, 100)
	if r.Subtitle != "" {
		pdf.Cell(0, 6, tr(r.Subtitle))
		pdf.Ln(6)
	}
	pdf.Cell(0, 6, "Generated "+r.GeneratedAt.UTC().Format("02 Jan 2006 15:04 MST"))
	pdf.Ln(10)
	pdf.SetTextColor(0, 0, 0)

	if len(r.Stats) > 0 {
		section(pdf, tr, "Summary")
		pdf.SetFont("Helvetica", "", 10)
		for _, s := range r.Stats {
			pdf.CellFormat(70, 7, tr(s.Label), "B", 0, "L", false, 0, "")
			pdf.CellFormat(0, 7, tr(s.Value), "B", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	if len(r.Buckets) > 0 {
		section(pdf, tr, "Monthly revenue")
		revenue := "Revenue"
		if r.Currency != "" {
			revenue += " (" + r.Currency + ")"
		}
		header(pdf, tr, []string{"Month", "Invoices", revenue}, []float64{60, 50, 0})
		pdf.SetFont("Helvetica", "", 10)
		for _, b := range r.Buckets {
			pdf.CellFormat(60, 7, tr(b.Month), "B", 0, "L", false, 0, "")
			pdf.CellFormat(50, 7, fmt.Sprintf("%d", b.InvoiceCount), "B", 0, "R", false, 0, "")
			pdf.CellFormat(0, 7, b.Revenue.StringFixed(2), "B", 1, "R", false, 0, "")
		}
		pdf.Ln(6)
	}

	if len(r.TopClients) > 0 {
		section(pdf, tr, "Top clients")
		header(pdf, tr, []string{"Client", "Email", "Invoices", "Revenue"}, []float64{50, 70, 25, 0})
		pdf.SetFont("Helvetica", "", 10)
		for _, c := range r.TopClients {
			pdf.CellFormat(50, 7, tr(c.ClientName), "B", 0, "L", false, 0, "")
			pdf.CellFormat(70, 7, tr(c.ClientEmail), "B", 0, "L", false, 0, "")
			pdf.CellFormat(25, 7, fmt.Sprintf("%d", c.InvoiceCount), "B", 0, "R", false, 0, "")
			pdf.CellFormat(0, 7, c.Revenue.StringFixed(2), "B", 1, "R", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// PDFFile renders a report into a downloadable pdf file.
func PDFFile(name string, r Report) (*File, error) {
	body, err := RenderPDF(r)
	if err != nil {
		return nil, err
	}
	return &File{Name: Filename(name, "pdf", r.GeneratedAt), ContentType: ContentTypePDF, Body: body}, nil
}

func section(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, tr(title))
	pdf.Ln(9)
}

func header(pdf *fpdf.Fpdf, tr func(string) string, cols []string, widths []float64) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	for i, col := range cols {
		ln := 0
		align := "R"
		if i == 0 {
			align = "L"
		}
		if i == len(cols)-1 {
			ln = 1
		}
		pdf.CellFormat(widths[i], 7, tr(col), "B", ln, align, true, 0, "")
	}
}
