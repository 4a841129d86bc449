package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-audio/wav"

	"docanalyst/internal/domain"
	"docanalyst/internal/port"
)

var errNoTranscriber = errors.New("transcriber not configured")

// Audio extracts speech as text through a transcriber. The stream is staged in
// a temporary file, which is removed before ExtractText returns.
type Audio struct {
	transcriber port.Transcriber
	tempDir     string
}

// NewAudio creates the audio processor. transcriber may be nil.
func NewAudio(transcriber port.Transcriber) *Audio { return &Audio{transcriber: transcriber} }

// WithTempDir stages audio files under dir instead of the OS default.
func (p *Audio) WithTempDir(dir string) *Audio {
	p.tempDir = dir
	return p
}

func (p *Audio) Format() string       { return "Audio" }
func (p *Audio) Extensions() []string { return []string{"mp3", "wav", "m4a", "flac"} }

func (p *Audio) ExtractText(ctx context.Context, r io.Reader) (string, error) {
	if p.transcriber == nil {
		return "", errNoTranscriber
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	if len(data) == 0 {
		return "", nil
	}

	tmp, err := os.CreateTemp(p.tempDir, "docanalyst-audio-*."+detectAudioFormat(data))
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("staging audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("staging audio: %w", err)
	}

	text, err := p.transcriber.Transcribe(ctx, tmp.Name())
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (p *Audio) Metadata(_ context.Context, r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	format := detectAudioFormat(data)
	meta := map[string]any{
		"format":     format,
		"size_bytes": len(data),
	}
	if format != "wav" {
		return meta, nil
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid wav header")
	}
	meta["channels"] = int(dec.NumChans)
	meta["sample_width"] = int(dec.BitDepth) / 8
	meta["frame_rate"] = int(dec.SampleRate)
	if d, err := dec.Duration(); err == nil {
		meta["duration_seconds"] = d.Seconds()
	}
	return meta, nil
}

// Split always returns the transcript as a single chunk.
func (p *Audio) Split(ctx context.Context, path string, _ domain.SplitOptions) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	text, err := p.ExtractText(ctx, f)
	if err != nil {
		return nil, err
	}
	return []string{text}, nil
}

// detectAudioFormat sniffs the container from magic bytes.
func detectAudioFormat(data []byte) string {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return "wav"
	case bytes.HasPrefix(data, []byte("fLaC")):
		return "flac"
	case len(data) >= 8 && string(data[4:8]) == "ftyp":
		return "m4a"
	case bytes.HasPrefix(data, []byte("ID3")),
		len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return "mp3"
	default:
		return "bin"
	}
}
