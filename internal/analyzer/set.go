package analyzer

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"docanalyst/internal/config"
	"docanalyst/internal/domain"
	"docanalyst/internal/port"
)

// Set resolves provider names to analyzers. The empty name resolves to the
// default, which is the fallback chain when one is configured.
type Set struct {
	byName      map[string]port.Analyzer
	defaultName string
	def         port.Analyzer
}

// NewSet builds analyzers for every configured provider that has an API key.
func NewSet(cfg *config.AIConfig, log *zap.Logger) (*Set, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Set{byName: make(map[string]port.Analyzer), defaultName: cfg.DefaultProvider}

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pc, _ := cfg.Provider(name)
		if pc.APIKey == "" {
			log.Debug("analyzer.NewSet: provider has no API key, skipping", zap.String("provider", name))
			continue
		}
		a, err := NewAnalyzer(pc)
		if err != nil {
			return nil, fmt.Errorf("creating %s analyzer: %w", name, err)
		}
		s.byName[name] = a
	}

	var chain []port.Analyzer
	var chainNames []string
	for _, pc := range cfg.Chain() {
		if a, ok := s.byName[pc.Provider]; ok {
			chain = append(chain, a)
			chainNames = append(chainNames, pc.Provider)
		}
	}
	switch {
	case len(chain) > 1:
		s.def = NewFallbackAnalyzer(chain, chainNames, log)
	case len(chain) == 1:
		s.def = chain[0]
	}
	return s, nil
}

// NewStaticSet wraps prebuilt analyzers. The analyzer named def is the default.
func NewStaticSet(analyzers map[string]port.Analyzer, def string) *Set {
	s := &Set{byName: make(map[string]port.Analyzer, len(analyzers)), defaultName: def}
	for name, a := range analyzers {
		s.byName[name] = a
	}
	s.def = s.byName[def]
	return s
}

// Get returns the analyzer for name and the resolved provider name.
func (s *Set) Get(name string) (port.Analyzer, string, error) {
	if name == "" {
		if s.def == nil {
			return nil, "", fmt.Errorf("%w: no provider configured", domain.ErrUnknownProvider)
		}
		return s.def, s.defaultName, nil
	}
	a, ok := s.byName[name]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", domain.ErrUnknownProvider, name)
	}
	return a, name, nil
}

// Names lists the available providers in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
