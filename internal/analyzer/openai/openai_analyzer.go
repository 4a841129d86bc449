package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"docanalyst/internal/analyzer"
	"docanalyst/internal/config"
	"docanalyst/internal/port"
	"docanalyst/internal/prompt"
)

const (
	apiURL         = "https://api.openai.com/v1/chat/completions"
	deepseekAPIURL = "https://api.deepseek.com/v1/chat/completions"
)

func init() {
	analyzer.RegisterProvider("openai", func(cfg *config.ProviderConfig) (port.Analyzer, error) {
		return NewAnalyzer(cfg), nil
	})
	analyzer.RegisterProvider("deepseek", func(cfg *config.ProviderConfig) (port.Analyzer, error) {
		return NewAnalyzer(cfg), nil
	})
}

// Analyzer implements port.Analyzer using the OpenAI Chat Completions API.
// DeepSeek speaks the same protocol and is served by this client.
type Analyzer struct {
	provider    string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
	endpoint    string
	client      *http.Client
}

// NewAnalyzer creates a chat-completions analyzer from a provider config.
func NewAnalyzer(cfg *config.ProviderConfig) *Analyzer {
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = apiURL
		if cfg.Provider == "deepseek" {
			endpoint = deepseekAPIURL
		}
	}
	return newAnalyzer(cfg, endpoint)
}

// NewAnalyzerWithEndpoint creates an analyzer pointing at a custom API endpoint (for testing).
func NewAnalyzerWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Analyzer {
	return newAnalyzer(cfg, endpoint)
}

func newAnalyzer(cfg *config.ProviderConfig, endpoint string) *Analyzer {
	provider := cfg.Provider
	if provider == "" {
		provider = "openai"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o"
		if provider == "deepseek" {
			model = "deepseek-chat"
		}
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Analyzer{
		provider:    provider,
		apiKey:      cfg.APIKey,
		model:       model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		endpoint:    endpoint,
		client:      &http.Client{Timeout: timeout},
	}
}

func (a *Analyzer) Analyze(ctx context.Context, input port.AnalyzeInput) (*port.AnalyzeOutput, error) {
	system, user := prompt.Assemble(input.Prompt, input.Text)

	messages := make([]map[string]interface{}, 0, 2)
	if system != "" {
		messages = append(messages, map[string]interface{}{"role": "system", "content": system})
	}
	messages = append(messages, map[string]interface{}{"role": "user", "content": user})

	reqBody := map[string]interface{}{
		"model":       a.model,
		"messages":    messages,
		"temperature": a.temperature,
	}
	if a.maxTokens > 0 {
		reqBody["max_tokens"] = a.maxTokens
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s API: %w", a.provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, analyzer.StatusError(a.provider, a.provider, resp.StatusCode, respBody, resp.Header.Get("Retry-After"))
	}

	text, err := parseResponse(respBody)
	if err != nil {
		return nil, err
	}
	return &port.AnalyzeOutput{Text: text, Provider: a.provider, Model: a.model}, nil
}

// apiResponse models the OpenAI Chat Completions API response.
type apiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func parseResponse(body []byte) (string, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from API: no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
