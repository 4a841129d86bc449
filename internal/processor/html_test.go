package processor_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyst/internal/domain"
	"docanalyst/internal/processor"
)

const samplePage = `<html><head><title> Quarterly Report </title>
<meta name="description" content="Q3 numbers"><meta property="og:type" content="article">
<style>body{color:red}</style><script>var hidden = 1;</script></head>
<body>
<h1>Results</h1>
<div><p>Revenue grew by <b>12%</b>.</p><p>Costs were flat.</p></div>
<ul><li>North</li><li>South</li></ul>
<a href="/a">A</a><a href="/b">B</a><img src="x.png">
<noscript>enable js</noscript>
</body></html>`

func TestHTML_ExtractTextDropsScriptsAndStyles(t *testing.T) {
	text, err := processor.NewHTML().ExtractText(context.Background(), strings.NewReader(samplePage))

	require.NoError(t, err)
	assert.Contains(t, text, "Results")
	assert.Contains(t, text, "Revenue grew by\n12%\n.")
	assert.NotContains(t, text, "hidden")
	assert.NotContains(t, text, "color:red")
	assert.NotContains(t, text, "enable js")
}

func TestHTML_Metadata(t *testing.T) {
	meta, err := processor.NewHTML().Metadata(context.Background(), strings.NewReader(samplePage))

	require.NoError(t, err)
	assert.Equal(t, "Quarterly Report", meta["title"])
	assert.Equal(t, map[string]string{"description": "Q3 numbers", "og:type": "article"}, meta["meta_tags"])
	assert.Equal(t, 2, meta["links"])
	assert.Equal(t, 1, meta["images"])
	assert.Equal(t, 2, meta["paragraphs"])
}

func TestHTML_SplitByTokenUsesLeafBlocks(t *testing.T) {
	path := writeTemp(t, "page.html", []byte(samplePage))

	chunks, err := processor.NewHTML().Split(context.Background(), path, domain.SplitOptions{
		Method:    domain.SplitMethodToken,
		ChunkSize: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Results", "Revenue grew by\n12%\n.", "Costs were flat.", "North", "South"}, chunks)
}

func TestHTML_SplitByPageKeepsWholePage(t *testing.T) {
	path := writeTemp(t, "page.html", []byte(samplePage))

	chunks, err := processor.NewHTML().Split(context.Background(), path, domain.SplitOptions{
		Method:    domain.SplitMethodPage,
		ChunkSize: 1,
	})

	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}
