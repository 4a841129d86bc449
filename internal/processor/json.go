package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"docanalyst/internal/domain"
)

const jsonIndent = "  "

// JSON handles JSON documents, rendered as indented text in source key order.
type JSON struct{}

// NewJSON creates the JSON processor.
func NewJSON() *JSON { return &JSON{} }

func (p *JSON) Format() string       { return "JSON" }
func (p *JSON) Extensions() []string { return []string{"json"} }

func (p *JSON) ExtractText(_ context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return prettyJSON(data)
}

func (p *JSON) Metadata(_ context.Context, r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON document")
	}

	meta := map[string]any{"size_bytes": len(data)}
	switch data[0] {
	case '{':
		members, err := jsonMembers(data)
		if err != nil {
			return nil, err
		}
		keys := make([]string, len(members))
		for i, m := range members {
			keys[i] = m.key
		}
		meta["type"] = "object"
		meta["keys"] = keys
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("decoding array: %w", err)
		}
		meta["type"] = "array"
		meta["length"] = len(items)
	case '"':
		meta["type"] = "string"
	case 't', 'f':
		meta["type"] = "boolean"
	case 'n':
		meta["type"] = "null"
	default:
		meta["type"] = "number"
	}
	return meta, nil
}

// Split pages over top-level array items or object members; token chunks are
// built from lines of the indented rendering.
func (p *JSON) Split(_ context.Context, path string, opts domain.SplitOptions) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	text, err := prettyJSON(data)
	if err != nil {
		return nil, err
	}
	return applyPolicy(opts, text,
		func() (units, error) { return jsonTopLevel(data, text) },
		func() (units, error) { return units{items: lines(text), sep: "\n"}, nil },
	)
}

func prettyJSON(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	var buf bytes.Buffer
	if err := json.Indent(&buf, bytes.TrimSpace(data), "", jsonIndent); err != nil {
		return "", fmt.Errorf("invalid JSON document: %w", err)
	}
	return buf.String(), nil
}

type jsonMember struct {
	key   string
	value json.RawMessage
}

// jsonMembers decodes the top-level members of an object in source order.
func jsonMembers(data []byte) ([]jsonMember, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decoding object: %w", err)
	}
	var members []jsonMember
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decoding key: %w", err)
		}
		key, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decoding value of %q: %w", key, err)
		}
		members = append(members, jsonMember{key: key, value: value})
	}
	return members, nil
}

func jsonTopLevel(data []byte, whole string) (units, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))
	if len(data) == 0 {
		return units{items: []string{whole}}, nil
	}
	switch data[0] {
	case '{':
		members, err := jsonMembers(data)
		if err != nil {
			return units{}, err
		}
		items := make([]string, 0, len(members))
		for _, m := range members {
			key, _ := json.Marshal(m.key)
			value, err := prettyJSON(m.value)
			if err != nil {
				return units{}, err
			}
			items = append(items, string(key)+": "+value)
		}
		return units{items: items, sep: ",\n"}, nil
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return units{}, fmt.Errorf("decoding array: %w", err)
		}
		items := make([]string, 0, len(raw))
		for _, item := range raw {
			value, err := prettyJSON(item)
			if err != nil {
				return units{}, err
			}
			items = append(items, value)
		}
		return units{items: items, sep: ",\n"}, nil
	default:
		return units{items: []string{strings.TrimSpace(whole)}}, nil
	}
}
