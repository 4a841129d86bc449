package export

import (
	"encoding/json"
	"io"
	"strings"

	"docanalyst/internal/domain"
)

type jsonFallback struct {
	AnalyzedText string `json:"analyzed_text"`
	FileName     string `json:"file_name"`
	AnalysisType string `json:"analysis_type"`
	Timestamp    string `json:"timestamp"`
}

// writeJSON emits the analyzed text itself when it is JSON (optionally inside
// a code fence), and a wrapper object otherwise.
func writeJSON(w io.Writer, r *domain.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	dec := json.NewDecoder(strings.NewReader(domain.StripCodeFences(r.AnalyzedText)))
	dec.UseNumber()
	var parsed any
	if err := dec.Decode(&parsed); err == nil && !dec.More() {
		return enc.Encode(parsed)
	}

	return enc.Encode(jsonFallback{
		AnalyzedText: r.AnalyzedText,
		FileName:     r.FileName,
		AnalysisType: r.AnalysisType,
		Timestamp:    formatTimestamp(r.Timestamp),
	})
}
