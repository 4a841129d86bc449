package processor

import (
	"strings"
	"unicode/utf8"

	"docanalyst/internal/domain"
)

const (
	// charsPerToken is the rough characters-per-token ratio used for budgets.
	charsPerToken = 4
	// wordsPerVirtualPage sizes the synthetic pages of flowing text formats.
	wordsPerVirtualPage = 500
	// csvRowsPerPage is the number of data rows in one CSV page.
	csvRowsPerPage = 50
)

// EstimateTokens approximates the token count of s as characters/4.
func EstimateTokens(s string) int {
	return utf8.RuneCountInString(s) / charsPerToken
}

// units is an ordered list of structural pieces and the separator that
// restores the original text when they are joined.
type units struct {
	items []string
	sep   string
}

// unitSource lazily produces units for one split method.
type unitSource func() (units, error)

// applyPolicy runs the chunking policy shared by every format. A nil source
// for the requested method, or an unknown method, yields whole as one chunk.
func applyPolicy(opts domain.SplitOptions, whole string, page, token unitSource) ([]string, error) {
	var (
		src  unitSource
		pack func(units) []string
	)
	switch opts.Method {
	case domain.SplitMethodPage:
		src = page
		pack = func(u units) []string { return GroupByCount(u.items, u.sep, opts.ChunkSize) }
	case domain.SplitMethodToken:
		src = token
		pack = func(u units) []string { return PackByTokens(u.items, u.sep, opts.ChunkSize) }
	default:
		return []string{whole}, nil
	}
	if opts.ChunkSize < 1 {
		return nil, domain.ErrInvalidChunkSize
	}
	if src == nil {
		return []string{whole}, nil
	}
	u, err := src()
	if err != nil {
		return nil, err
	}
	return pack(u), nil
}

// GroupByCount places per consecutive units in each chunk.
// The result has ceil(len(items)/per) chunks; empty input yields one empty chunk.
func GroupByCount(items []string, sep string, per int) []string {
	if len(items) == 0 {
		return []string{""}
	}
	if per < 1 {
		per = 1
	}
	chunks := make([]string, 0, (len(items)+per-1)/per)
	for start := 0; start < len(items); start += per {
		end := start + per
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, strings.Join(items[start:end], sep))
	}
	return chunks
}

// PackByTokens accumulates units into chunks whose estimated token count stays
// within budget. A unit is never split: one that alone exceeds the budget
// becomes its own chunk. Empty units only add a separator and are carried
// into the next chunk until a non-empty unit joins them, so no chunk is empty
// unless the input is.
func PackByTokens(items []string, sep string, budget int) []string {
	if len(items) == 0 {
		return []string{""}
	}
	sepLen := utf8.RuneCountInString(sep)

	var (
		chunks     []string
		buf        []string
		chars      int
		hasContent bool
	)
	for _, item := range items {
		add := utf8.RuneCountInString(item)
		if len(buf) > 0 {
			add += sepLen
		}
		if hasContent && item != "" && (chars+add)/charsPerToken > budget {
			chunks = append(chunks, strings.Join(buf, sep))
			buf = buf[:0]
			chars = 0
			hasContent = false
			add = utf8.RuneCountInString(item)
		}
		buf = append(buf, item)
		chars += add
		if item != "" {
			hasContent = true
		}
	}
	return append(chunks, strings.Join(buf, sep))
}

// virtualPages groups units into pages of roughly wordsPerVirtualPage words.
// A page closes once it reaches the word target.
func virtualPages(items []string, sep string) []string {
	var (
		pages []string
		buf   []string
		words int
	)
	for _, item := range items {
		buf = append(buf, item)
		words += len(strings.Fields(item))
		if words >= wordsPerVirtualPage {
			pages = append(pages, strings.Join(buf, sep))
			buf = nil
			words = 0
		}
	}
	if len(buf) > 0 {
		pages = append(pages, strings.Join(buf, sep))
	}
	return pages
}

// lines splits s on newlines, keeping empty lines so joins are lossless.
func lines(s string) []string {
	return strings.Split(s, "\n")
}

// nonEmptyLines returns the trimmed, non-blank lines of s.
func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
