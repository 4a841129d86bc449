package processor_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docanalyst/internal/processor"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, processor.EstimateTokens(""))
	assert.Equal(t, 2, processor.EstimateTokens("12345678"))
	assert.Equal(t, 1, processor.EstimateTokens("çğüşöı"))
}

func TestGroupByCount(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g"}

	chunks := processor.GroupByCount(items, "|", 3)

	assert.Equal(t, []string{"a|b|c", "d|e|f", "g"}, chunks)
}

func TestGroupByCount_Empty(t *testing.T) {
	assert.Equal(t, []string{""}, processor.GroupByCount(nil, "\n", 3))
}

func TestPackByTokens_RespectsBudgetAndOrder(t *testing.T) {
	var items []string
	for i := 0; i < 200; i++ {
		items = append(items, fmt.Sprintf("line %03d with some padding text", i))
	}
	budget := 50

	chunks := processor.PackByTokens(items, "\n", budget)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.NotEmpty(t, c)
		assert.LessOrEqual(t, processor.EstimateTokens(c), budget)
	}
	assert.Equal(t, strings.Join(items, "\n"), strings.Join(chunks, "\n"))
}

func TestPackByTokens_OversizedUnitStandsAlone(t *testing.T) {
	huge := strings.Repeat("x", 400)
	items := []string{"short", huge, "tail"}

	chunks := processor.PackByTokens(items, "\n", 10)

	assert.Equal(t, []string{"short", huge, "tail"}, chunks)
}

func TestPackByTokens_SmallInputSingleChunk(t *testing.T) {
	chunks := processor.PackByTokens([]string{"one", "two"}, "\n", 1000)

	assert.Equal(t, []string{"one\ntwo"}, chunks)
}

func TestPackByTokens_EmptyLinesNeverOpenChunks(t *testing.T) {
	items := []string{strings.Repeat("a", 40), "", "", strings.Repeat("b", 40), ""}

	chunks := processor.PackByTokens(items, "\n", 10)

	for _, c := range chunks {
		assert.NotEqual(t, "", strings.TrimSpace(c))
	}
	assert.Equal(t, strings.Join(items, "\n"), strings.Join(chunks, "\n"))
}

func TestPackByTokens_LeadingBlanksJoinFirstChunk(t *testing.T) {
	long := strings.Repeat("y", 80)

	chunks := processor.PackByTokens([]string{"", "", long}, "\n", 5)

	assert.Equal(t, []string{"\n\n" + long}, chunks)
}

func TestPackByTokens_EmptyInput(t *testing.T) {
	assert.Equal(t, []string{""}, processor.PackByTokens(nil, "\n", 10))
}
