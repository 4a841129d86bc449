package port

import "context"

// AnalyzeInput is the text and prompt template sent to an AI backend.
type AnalyzeInput struct {
	Text   string
	Prompt string
}

// AnalyzeOutput is the backend's reply.
type AnalyzeOutput struct {
	Text     string
	Provider string
	Model    string
}

// Analyzer is the AI backend capability contract. Implementations are
// interchangeable and make a single best-effort attempt per call.
type Analyzer interface {
	Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeOutput, error)
}
