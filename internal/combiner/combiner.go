// Package combiner merges several analysis results into one.
package combiner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docanalyst/internal/domain"
)

const (
	sequentialJSONFile = "combined_results.json"
	sequentialTextFile = "combined_results.txt"
	summaryFile        = "combined_summary.txt"

	// summaryExcerptLength is the number of characters kept per part in a summary.
	summaryExcerptLength = 200

	mixed = "mixed"
)

// listKeys are the top-level JSON keys whose arrays are concatenated by the
// sequential strategy, in lookup order.
var listKeys = []string{"soru-cevaplar", "qa_pairs", "questions", "items"}

// StrategyInfo describes a combine strategy for catalogue listings.
type StrategyInfo struct {
	ID          domain.CombineStrategy `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
}

// Strategies lists the supported combine strategies.
func Strategies() []StrategyInfo {
	return []StrategyInfo{
		{ID: domain.CombineSequential, Name: "Sequential", Description: "Merges all results in order; JSON question lists are concatenated"},
		{ID: domain.CombineSummarize, Name: "Summarize", Description: "Builds a digest with an excerpt of each result"},
	}
}

// Combiner merges analysis results.
type Combiner struct {
	log *zap.Logger
	now func() time.Time
}

// New creates a Combiner. log may be nil.
func New(log *zap.Logger) *Combiner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Combiner{log: log, now: time.Now}
}

// Combine merges results with strategy. A single result is returned unchanged
// whatever the strategy.
func (c *Combiner) Combine(results []*domain.AnalysisResult, strategy domain.CombineStrategy) (*domain.AnalysisResult, error) {
	if len(results) == 0 {
		return nil, domain.ErrEmptyCombineInput
	}
	if len(results) == 1 {
		return results[0], nil
	}
	if strategy != domain.CombineSequential && strategy != domain.CombineSummarize {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCombineStrategy, strategy)
	}

	out := c.base(results)
	switch strategy {
	case domain.CombineSequential:
		c.sequential(results, out)
	case domain.CombineSummarize:
		c.summarize(results, out)
	}
	return out, nil
}

// base fills the fields shared by every strategy.
func (c *Combiner) base(results []*domain.AnalysisResult) *domain.AnalysisResult {
	metas := make([]map[string]any, 0, len(results))
	files := make([]string, 0, len(results))
	for _, r := range results {
		metas = append(metas, r.Metadata)
		files = append(files, r.FileName)
	}
	meta := MergeMetadata(metas...)
	meta["source_files"] = files
	meta["result_count"] = len(results)

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &domain.AnalysisResult{
		ID:           id,
		FileType:     common(results, func(r *domain.AnalysisResult) string { return r.FileType }, ""),
		AnalysisType: common(results, func(r *domain.AnalysisResult) string { return r.AnalysisType }, mixed),
		Provider:     joinDistinct(results, func(r *domain.AnalysisResult) string { return r.Provider }),
		Model:        common(results, func(r *domain.AnalysisResult) string { return r.Model }, ""),
		OriginalText: fmt.Sprintf("[combined from %d results]", len(results)),
		Metadata:     meta,
		Timestamp:    c.now(),
	}
}

func (c *Combiner) sequential(results []*domain.AnalysisResult, out *domain.AnalysisResult) {
	if merged, ok := mergeJSONLists(results); ok {
		out.AnalyzedText = merged
		out.FileName = sequentialJSONFile
		return
	}

	c.log.Warn("combiner.Combine: results are not mergeable JSON lists, concatenating text",
		zap.Int("results", len(results)))
	parts := make([]string, 0, len(results))
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("## Part %d: %s\n\n%s", i+1, r.FileName, strings.TrimSpace(r.AnalyzedText)))
	}
	out.AnalyzedText = strings.Join(parts, "\n\n")
	out.FileName = sequentialTextFile
}

func (c *Combiner) summarize(results []*domain.AnalysisResult, out *domain.AnalysisResult) {
	var b strings.Builder
	fmt.Fprintf(&b, "# Combined Summary of %d Results\n\n", len(results))
	fmt.Fprintf(&b, "Analysis type: %s\n", out.AnalysisType)
	for i, r := range results {
		fmt.Fprintf(&b, "\n## Part %d: %s\n\n%s\n", i+1, r.FileName,
			domain.Truncate(strings.TrimSpace(r.AnalyzedText), summaryExcerptLength))
	}

	b.WriteString("\n## Metadata Summary\n\n")
	keys := make([]string, 0, len(out.Metadata))
	for k := range out.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, out.Metadata[k])
	}

	out.AnalyzedText = b.String()
	out.FileName = summaryFile
}

// mergeJSONLists concatenates the recognised list of every result under the
// first result's key. Other keys come from the first object. It reports false
// unless every result carries such a list.
func mergeJSONLists(results []*domain.AnalysisResult) (string, bool) {
	var (
		first map[string]any
		key   string
		items []any
	)
	for i, r := range results {
		obj, ok := parseObject(r.AnalyzedText)
		if !ok {
			return "", false
		}
		k, list, ok := findList(obj)
		if !ok {
			return "", false
		}
		if i == 0 {
			first, key = obj, k
		}
		items = append(items, list...)
	}
	first[key] = items

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(first); err != nil {
		return "", false
	}
	return strings.TrimRight(buf.String(), "\n"), true
}

func parseObject(text string) (map[string]any, bool) {
	dec := json.NewDecoder(strings.NewReader(domain.StripCodeFences(text)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func findList(obj map[string]any) (string, []any, bool) {
	for _, k := range listKeys {
		if list, ok := obj[k].([]any); ok {
			return k, list, true
		}
	}
	return "", nil, false
}

func common(results []*domain.AnalysisResult, field func(*domain.AnalysisResult) string, fallback string) string {
	v := field(results[0])
	for _, r := range results[1:] {
		if field(r) != v {
			return fallback
		}
	}
	return v
}

func joinDistinct(results []*domain.AnalysisResult, field func(*domain.AnalysisResult) string) string {
	var seen []string
	for _, r := range results {
		if v := field(r); v != "" && !slices.Contains(seen, v) {
			seen = append(seen, v)
		}
	}
	return strings.Join(seen, ", ")
}
