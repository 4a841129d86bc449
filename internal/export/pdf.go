package export

import (
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"docanalyst/internal/domain"
)

// writePDF lays out an A4 document with the core Helvetica font. Text goes
// through the cp1252 translator; characters outside it render as '.'.
func writePDF(w io.Writer, r *domain.AnalysisResult) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(r.FileName, true)
	pdf.SetCreator("docanalyst", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr("Analysis Results"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	for _, kv := range header(r) {
		pdf.CellFormat(0, 6, tr(kv[0]+": "+kv[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, tr("Result"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	for _, para := range strings.Split(r.AnalyzedText, "\n") {
		if strings.TrimSpace(para) == "" {
			pdf.Ln(3)
			continue
		}
		pdf.MultiCell(0, 5.5, tr(para), "", "L", false)
	}

	return pdf.Output(w)
}
