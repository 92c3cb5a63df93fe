// Package statement renders a monthly transaction statement as a PDF
// document.
package statement

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"tally/internal/core"
)

// Chart is an optional pre-rendered PNG to embed in the statement. At most
// two are drawn, side by side.
type Chart struct {
	Name string
	PNG  []byte
}

// Data is everything a statement needs. Totals are passed in rather than
// recomputed so the document always matches what the caller showed.
type Data struct {
	Period       string
	GeneratedAt  time.Time
	Transactions []core.Transaction
	IncomeTotal  core.Amount
	ExpenseTotal core.Amount
	Balance      core.Amount
	Charts       []Chart
}

// Filename derives the download name from the period label, replacing every
// non-alphanumeric character.
func Filename(period string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, period)
	return fmt.Sprintf("Transaction_Statement_%s.pdf", sanitized)
}

const (
	pageMargin   = 10.0
	contentWidth = 190.0 // A4 portrait minus both margins
	rowHeight    = 7.0
	chartGap     = 6.0
)

// Render writes the statement PDF to w.
func Render(w io.Writer, d Data) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	writeHeader(pdf, d)
	writeSummary(pdf, d)
	writeCharts(pdf, d.Charts)
	writeTransactionTable(pdf, d.Transactions)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render statement pdf: %w", err)
	}
	return nil
}

func writeHeader(pdf *fpdf.Fpdf, d Data) {
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentWidth, 12, "Transaction Statement", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(contentWidth, 6, fmt.Sprintf("Period: %s", d.Period), "", 1, "C", false, 0, "")
	pdf.CellFormat(contentWidth, 6,
		fmt.Sprintf("Generated: %s", d.GeneratedAt.Format("2006-01-02 15:04")),
		"", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)
}

func writeSummary(pdf *fpdf.Fpdf, d Data) {
	rows := []struct {
		label string
		value core.Amount
	}{
		{"Total Income", d.IncomeTotal},
		{"Total Expenses", d.ExpenseTotal},
		{"Balance", d.Balance},
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(52, 73, 94)
	pdf.SetTextColor(255, 255, 255)
	pdf.CellFormat(contentWidth, rowHeight, "Summary", "1", 1, "L", true, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(245, 245, 245)
	for i, r := range rows {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(contentWidth/2, rowHeight, r.label, "1", 0, "L", i%2 == 1, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(contentWidth/2, rowHeight, r.value.String(), "1", 1, "R", i%2 == 1, 0, "")
	}
	pdf.Ln(6)
}

// writeCharts draws up to two charts side by side, breaking to a new page
// first when the current one lacks vertical room.
func writeCharts(pdf *fpdf.Fpdf, charts []Chart) {
	if len(charts) == 0 {
		return
	}
	if len(charts) > 2 {
		charts = charts[:2]
	}

	imgWidth := (contentWidth - chartGap) / 2
	var maxHeight float64
	infos := make([]*fpdf.ImageInfoType, len(charts))
	for i, c := range charts {
		opt := fpdf.ImageOptions{ImageType: "PNG"}
		infos[i] = pdf.RegisterImageOptionsReader(c.Name, opt, bytes.NewReader(c.PNG))
		if infos[i] == nil {
			continue
		}
		h := imgWidth * infos[i].Height() / infos[i].Width()
		if h > maxHeight {
			maxHeight = h
		}
	}
	if maxHeight == 0 {
		return
	}

	_, pageHeight := pdf.GetPageSize()
	if pdf.GetY()+maxHeight > pageHeight-pageMargin-15 {
		pdf.AddPage()
	}

	y := pdf.GetY()
	x := pageMargin
	for i, c := range charts {
		if infos[i] == nil {
			continue
		}
		opt := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.ImageOptions(c.Name, x, y, imgWidth, 0, false, opt, 0, "")
		x += imgWidth + chartGap
	}
	pdf.SetY(y + maxHeight)
	pdf.Ln(6)
}

var tableColumns = []struct {
	title string
	width float64
	align string
}{
	{"Date", 25, "L"},
	{"Description", 70, "L"},
	{"Category", 35, "L"},
	{"Income", 30, "R"},
	{"Expense", 30, "R"},
}

func writeTransactionTable(pdf *fpdf.Fpdf, txs []core.Transaction) {
	writeTableHeader(pdf)

	_, pageHeight := pdf.GetPageSize()
	for i, tx := range txs {
		if pdf.GetY()+rowHeight > pageHeight-pageMargin-15 {
			pdf.AddPage()
			writeTableHeader(pdf)
		}

		fill := i%2 == 1
		pdf.SetFillColor(245, 245, 245)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(tableColumns[0].width, rowHeight, tx.Date.String(), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(tableColumns[1].width, rowHeight, truncate(tx.Description, 48), "1", 0, "L", fill, 0, "")
		pdf.CellFormat(tableColumns[2].width, rowHeight, string(tx.Category), "1", 0, "L", fill, 0, "")

		income, expense := "", ""
		if tx.Type == core.Income {
			income = tx.Amount.String()
		} else {
			expense = tx.Amount.String()
		}
		pdf.SetTextColor(39, 174, 96)
		pdf.CellFormat(tableColumns[3].width, rowHeight, income, "1", 0, "R", fill, 0, "")
		pdf.SetTextColor(192, 57, 43)
		pdf.CellFormat(tableColumns[4].width, rowHeight, expense, "1", 1, "R", fill, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
}

func writeTableHeader(pdf *fpdf.Fpdf) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(52, 73, 94)
	pdf.SetTextColor(255, 255, 255)
	for i, col := range tableColumns {
		ln := 0
		if i == len(tableColumns)-1 {
			ln = 1
		}
		pdf.CellFormat(col.width, rowHeight, col.title, "1", ln, col.align, true, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
