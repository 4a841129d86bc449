// Package analyzer builds AI backends from configuration and composes them
// into fallback chains.
package analyzer

import (
	"fmt"
	"sort"
	"sync"

	"docanalyst/internal/config"
	"docanalyst/internal/port"
)

// ProviderFactory creates an Analyzer from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.Analyzer, error)

// registry of provider factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var (
	mu        sync.RWMutex
	providers = map[string]ProviderFactory{}
)

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	mu.Lock()
	defer mu.Unlock()
	providers[name] = factory
}

// Registered lists the registered provider names in sorted order.
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewAnalyzer creates an Analyzer from a provider config using the registered factory.
func NewAnalyzer(cfg *config.ProviderConfig) (port.Analyzer, error) {
	mu.RLock()
	factory, ok := providers[cfg.Provider]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown AI provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
