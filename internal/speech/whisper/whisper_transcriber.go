// Package whisper transcribes audio through an OpenAI-compatible
// /audio/transcriptions endpoint.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docanalyst/internal/config"
	"docanalyst/internal/port"
)

const apiURL = "https://api.openai.com/v1/audio/transcriptions"

// ErrNoAPIKey is returned when the transcriber has no API key configured.
var ErrNoAPIKey = errors.New("speech API key not configured")

// Transcriber implements port.Transcriber.
type Transcriber struct {
	apiKey   string
	model    string
	language string
	endpoint string
	client   *http.Client
}

var _ port.Transcriber = (*Transcriber)(nil)

// NewTranscriber creates a transcriber from config. BaseURL, when set,
// replaces the API root (".../v1").
func NewTranscriber(cfg *config.SpeechConfig) *Transcriber {
	endpoint := apiURL
	if cfg.BaseURL != "" {
		endpoint = strings.TrimRight(cfg.BaseURL, "/") + "/audio/transcriptions"
	}
	model := cfg.Model
	if model == "" {
		model = "whisper-1"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 300 * time.Second
	}
	return &Transcriber{
		apiKey:   cfg.APIKey,
		model:    model,
		language: cfg.Language,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (t *Transcriber) Transcribe(ctx context.Context, path string) (string, error) {
	if t.apiKey == "" {
		return "", ErrNoAPIKey
	}

	body, contentType, err := t.buildForm(path)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling speech API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("speech API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("parsing speech response: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}

func (t *Transcriber) buildForm(path string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening audio: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("building form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("reading audio: %w", err)
	}

	fields := map[string]string{"model": t.model, "response_format": "json"}
	if t.language != "" {
		fields["language"] = t.language
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("building form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("building form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
