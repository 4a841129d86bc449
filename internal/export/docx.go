package export

import (
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"docanalyst/internal/domain"
)

func writeDOCX(w io.Writer, r *domain.AnalysisResult) error {
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().AddText("Analysis Results").Bold().Size("32")
	for _, kv := range header(r) {
		p := doc.AddParagraph()
		p.AddText(kv[0] + ": ").Bold()
		p.AddText(kv[1])
	}

	doc.AddParagraph().AddText("Result").Bold().Size("28")
	for _, line := range strings.Split(r.AnalyzedText, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		doc.AddParagraph().AddText(line)
	}

	_, err := doc.WriteTo(w)
	return err
}
