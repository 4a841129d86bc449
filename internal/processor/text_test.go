package processor_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyst/internal/domain"
	"docanalyst/internal/processor"
)

// twelvePages builds a text whose lines are exactly one virtual page each.
func twelvePages() string {
	var pages []string
	for i := 1; i <= 12; i++ {
		words := make([]string, 500)
		for j := range words {
			words[j] = fmt.Sprintf("p%dw%d", i, j)
		}
		pages = append(pages, strings.Join(words, " "))
	}
	return strings.Join(pages, "\n")
}

func TestText_SplitByPage(t *testing.T) {
	path := writeTemp(t, "long.txt", []byte(twelvePages()))

	chunks, err := processor.NewText().Split(context.Background(), path, domain.SplitOptions{
		Method:    domain.SplitMethodPage,
		ChunkSize: 5,
	})

	require.NoError(t, err)
	require.Len(t, chunks, 3)
	sizes := []int{}
	for _, c := range chunks {
		sizes = append(sizes, len(strings.Split(c, "\n")))
	}
	assert.Equal(t, []int{5, 5, 2}, sizes)
	assert.True(t, strings.HasPrefix(chunks[0], "p1w0 "))
	assert.True(t, strings.HasPrefix(chunks[2], "p11w0 "))
}

func TestText_SplitByFormFeed(t *testing.T) {
	path := writeTemp(t, "ff.txt", []byte("one\fTwo\fthree"))

	chunks, err := processor.NewText().Split(context.Background(), path, domain.SplitOptions{
		Method:    domain.SplitMethodPage,
		ChunkSize: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"one\fTwo", "three"}, chunks)
}

func TestText_SplitByToken_PreservesLineOrder(t *testing.T) {
	var ls []string
	for i := 0; i < 300; i++ {
		ls = append(ls, fmt.Sprintf("line number %d of the document", i))
	}
	text := strings.Join(ls, "\n")
	path := writeTemp(t, "lines.txt", []byte(text))

	chunks, err := processor.NewText().Split(context.Background(), path, domain.SplitOptions{
		Method:    domain.SplitMethodToken,
		ChunkSize: 100,
	})

	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, processor.EstimateTokens(c), 100)
	}
	assert.Equal(t, text, strings.Join(chunks, "\n"))
}

func TestText_SplitUnknownMethodReturnsWhole(t *testing.T) {
	path := writeTemp(t, "short.txt", []byte("alpha\nbeta"))

	for _, method := range []domain.SplitMethod{"", "paragraph"} {
		chunks, err := processor.NewText().Split(context.Background(), path, domain.SplitOptions{Method: method, ChunkSize: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"alpha\nbeta"}, chunks)
	}
}

func TestText_SplitInvalidChunkSize(t *testing.T) {
	path := writeTemp(t, "short.txt", []byte("alpha"))

	_, err := processor.NewText().Split(context.Background(), path, domain.SplitOptions{Method: domain.SplitMethodToken})

	assert.True(t, errors.Is(err, domain.ErrInvalidChunkSize))
}

func TestText_SplitBelowBudgetSingleChunk(t *testing.T) {
	path := writeTemp(t, "short.txt", []byte("a small note"))

	chunks, err := processor.NewText().Split(context.Background(), path, domain.SplitOptions{
		Method:    domain.SplitMethodToken,
		ChunkSize: 1000,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a small note"}, chunks)
}

func TestText_Latin1Fallback(t *testing.T) {
	data := []byte{'c', 'a', 'f', 0xE9}
	p := processor.NewText()

	text, err := p.ExtractText(context.Background(), strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, "café", text)

	meta, err := p.Metadata(context.Background(), strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, "latin-1", meta["encoding"])
	assert.Equal(t, 4, meta["size_bytes"])
}

func TestText_UTF8Metadata(t *testing.T) {
	meta, err := processor.NewText().Metadata(context.Background(), strings.NewReader("hello world\nsecond line"))

	require.NoError(t, err)
	assert.Equal(t, "utf-8", meta["encoding"])
	assert.Equal(t, 2, meta["line_count"])
	assert.Equal(t, 4, meta["word_count"])
}

func TestText_SplitByToken_LeadingBlankLine(t *testing.T) {
	path := writeTemp(t, "lead.txt", []byte("\n"+strings.Repeat("x", 100)))

	chunks, err := processor.NewText().Split(context.Background(), path, domain.SplitOptions{
		Method:    domain.SplitMethodToken,
		ChunkSize: 10,
	})

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.NotEmpty(t, strings.TrimSpace(chunks[0]))
}
