// Package prompt resolves analysis types to prompt templates.
package prompt

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"

	"docanalyst/internal/domain"
)

// Resolver maps analysis type names to prompt templates. Built-in types are
// fixed; custom types can be added and removed at runtime.
type Resolver struct {
	mu     sync.RWMutex
	custom map[string]domain.AnalysisType
}

// NewResolver creates a Resolver holding only the built-in types.
func NewResolver() *Resolver {
	return &Resolver{custom: make(map[string]domain.AnalysisType)}
}

// Prompt returns the template for analysisType. Names match case-insensitively,
// or by slug ("summary-report"). An empty name yields DefaultPrompt.
func (r *Resolver) Prompt(analysisType string) (string, error) {
	key := slug(analysisType)
	if key == "" {
		return DefaultPrompt, nil
	}
	if t, ok := builtin(key); ok {
		return t.PromptTemplate, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.custom[key]; ok {
		return t.PromptTemplate, nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnknownAnalysisType, analysisType)
}

// Types lists every known type sorted by name. Templates are omitted.
func (r *Resolver) Types() []domain.AnalysisType {
	out := make([]domain.AnalysisType, 0, len(builtins))
	for _, t := range builtins {
		out = append(out, domain.AnalysisType{Name: t.Name, Description: t.Description, Builtin: true})
	}

	r.mu.RLock()
	for _, t := range r.custom {
		out = append(out, domain.AnalysisType{Name: t.Name, Description: t.Description})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// AddCustom registers or replaces a custom type.
func (r *Resolver) AddCustom(t domain.AnalysisType) error {
	t.Name = strings.TrimSpace(t.Name)
	key := slug(t.Name)
	if key == "" {
		return fmt.Errorf("analysis type name is required")
	}
	if strings.TrimSpace(t.PromptTemplate) == "" {
		return fmt.Errorf("analysis type %q has an empty prompt template", t.Name)
	}
	if _, ok := builtin(key); ok {
		return fmt.Errorf("%w: %s", domain.ErrBuiltinAnalysisType, t.Name)
	}
	t.Builtin = false

	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom[key] = t
	return nil
}

// RemoveCustom deletes a custom type.
func (r *Resolver) RemoveCustom(name string) error {
	key := slug(name)
	if _, ok := builtin(key); ok {
		return fmt.Errorf("%w: %s", domain.ErrBuiltinAnalysisType, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.custom[key]; !ok {
		return domain.ErrNotFound
	}
	delete(r.custom, key)
	return nil
}

// LoadFile reads custom types from a YAML file and registers them.
func (r *Resolver) LoadFile(path string) error {
	types, err := LoadCustomTypes(path)
	if err != nil {
		return err
	}
	for _, t := range types {
		if err := r.AddCustom(t); err != nil {
			return fmt.Errorf("loading %s: %w", path, err)
		}
	}
	return nil
}

type customTypesFile struct {
	AnalysisTypes []domain.AnalysisType `yaml:"analysis_types"`
}

// LoadCustomTypes parses a YAML document of the form:
//
//	analysis_types:
//	  - name: Contract Review
//	    description: Flags risky clauses
//	    prompt_template: "Review this contract: {text}"
func LoadCustomTypes(path string) ([]domain.AnalysisType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading custom analysis types: %w", err)
	}
	var f customTypesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing custom analysis types: %w", err)
	}
	return f.AnalysisTypes, nil
}

func builtin(key string) (domain.AnalysisType, bool) {
	for _, t := range builtins {
		if slug(t.Name) == key {
			return t, true
		}
	}
	return domain.AnalysisType{}, false
}

// slug lowercases s and collapses every run of non-alphanumerics to "-".
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
