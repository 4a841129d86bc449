package export

import (
	"bufio"
	"fmt"
	"io"

	"docanalyst/internal/domain"
)

func writeText(w io.Writer, r *domain.AnalysisResult) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "Analysis Results")
	fmt.Fprintln(bw, "================")
	fmt.Fprintln(bw)
	for _, kv := range header(r) {
		fmt.Fprintf(bw, "%s: %s\n", kv[0], kv[1])
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "Result:")
	fmt.Fprintln(bw, "-------")
	fmt.Fprint(bw, r.AnalyzedText)
	return bw.Flush()
}

func writeMarkdown(w io.Writer, r *domain.AnalysisResult) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Analysis: %s\n\n", r.FileName)
	for _, kv := range header(r) {
		fmt.Fprintf(bw, "- **%s:** %s\n", kv[0], kv[1])
	}
	fmt.Fprint(bw, "\n## Result\n\n")
	fmt.Fprint(bw, r.AnalyzedText)
	fmt.Fprintln(bw)
	return bw.Flush()
}
