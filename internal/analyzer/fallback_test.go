package analyzer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docanalyst/internal/analyzer"
	"docanalyst/internal/port"
	"docanalyst/mocks"
)

var fallbackInput = port.AnalyzeInput{Text: "some text", Prompt: "Summarize."}

func output(provider string) *port.AnalyzeOutput {
	return &port.AnalyzeOutput{Text: "summary", Provider: provider, Model: provider + "-model"}
}

func TestFallbackAnalyzer_FirstSucceeds(t *testing.T) {
	a1 := new(mocks.MockAnalyzer)
	a2 := new(mocks.MockAnalyzer)
	a1.On("Analyze", mock.Anything, fallbackInput).Return(output("claude"), nil)

	fa := analyzer.NewFallbackAnalyzer([]port.Analyzer{a1, a2}, []string{"claude", "openai"}, nil)

	out, err := fa.Analyze(context.Background(), fallbackInput)

	require.NoError(t, err)
	assert.Equal(t, "claude", out.Provider)
	a2.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestFallbackAnalyzer_GenericErrorFallsThrough(t *testing.T) {
	a1 := new(mocks.MockAnalyzer)
	a2 := new(mocks.MockAnalyzer)
	a1.On("Analyze", mock.Anything, fallbackInput).Return(nil, errors.New("generic error"))
	a2.On("Analyze", mock.Anything, fallbackInput).Return(output("openai"), nil)

	fa := analyzer.NewFallbackAnalyzer([]port.Analyzer{a1, a2}, []string{"claude", "openai"}, nil)

	out, err := fa.Analyze(context.Background(), fallbackInput)

	require.NoError(t, err)
	assert.Equal(t, "openai", out.Provider)
}

func TestFallbackAnalyzer_RateLimitOpensCircuit(t *testing.T) {
	a1 := new(mocks.MockAnalyzer)
	a2 := new(mocks.MockAnalyzer)
	a1.On("Analyze", mock.Anything, fallbackInput).
		Return(nil, analyzer.NewRateLimitError("claude", errors.New("429"), 60)).Once()
	a2.On("Analyze", mock.Anything, fallbackInput).Return(output("openai"), nil)

	fa := analyzer.NewFallbackAnalyzer([]port.Analyzer{a1, a2}, []string{"claude", "openai"}, nil)

	_, err := fa.Analyze(context.Background(), fallbackInput)
	require.NoError(t, err)
	_, err = fa.Analyze(context.Background(), fallbackInput)
	require.NoError(t, err)

	a1.AssertNumberOfCalls(t, "Analyze", 1)
	a2.AssertNumberOfCalls(t, "Analyze", 2)
}

func TestFallbackAnalyzer_AllRateLimited(t *testing.T) {
	a1 := new(mocks.MockAnalyzer)
	a2 := new(mocks.MockAnalyzer)
	a1.On("Analyze", mock.Anything, fallbackInput).Return(nil, analyzer.NewRateLimitError("claude", errors.New("429"), 30))
	a2.On("Analyze", mock.Anything, fallbackInput).Return(nil, analyzer.NewRateLimitError("openai", errors.New("429"), 90))

	fa := analyzer.NewFallbackAnalyzer([]port.Analyzer{a1, a2}, []string{"claude", "openai"}, nil)

	_, err := fa.Analyze(context.Background(), fallbackInput)

	var rl *analyzer.RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, "all", rl.Provider)

	// both circuits are open now, so nothing is called
	_, err = fa.Analyze(context.Background(), fallbackInput)
	require.ErrorAs(t, err, &rl)
	a1.AssertNumberOfCalls(t, "Analyze", 1)
	a2.AssertNumberOfCalls(t, "Analyze", 1)
}

func TestFallbackAnalyzer_AllFailReturnsLastError(t *testing.T) {
	a1 := new(mocks.MockAnalyzer)
	a2 := new(mocks.MockAnalyzer)
	a1.On("Analyze", mock.Anything, fallbackInput).Return(nil, errors.New("first"))
	a2.On("Analyze", mock.Anything, fallbackInput).Return(nil, errors.New("second"))

	fa := analyzer.NewFallbackAnalyzer([]port.Analyzer{a1, a2}, []string{"claude", "openai"}, nil)

	_, err := fa.Analyze(context.Background(), fallbackInput)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "second")
	var rl *analyzer.RateLimitError
	assert.False(t, errors.As(err, &rl))
}
