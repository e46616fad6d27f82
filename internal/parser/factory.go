package parser

import (
	"fmt"

	"github.com/zuma-group/bill-integration-platform/internal/config"
	"github.com/zuma-group/bill-integration-platform/internal/port"
)

// ProviderFactory creates an InvoiceExtractor from a provider config.
type ProviderFactory func(cfg *config.ParserProviderConfig) (port.InvoiceExtractor, error)

// registry of provider factories, populated via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewExtractor creates an InvoiceExtractor from a provider config using the registered factory.
func NewExtractor(cfg *config.ParserProviderConfig) (port.InvoiceExtractor, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown parser provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewFromConfig builds the primary extractor and, when a secondary provider
// is configured, wraps both in a FallbackExtractor.
func NewFromConfig(cfg *config.ParserConfig) (port.InvoiceExtractor, error) {
	primaryCfg := cfg.PrimaryConfig()
	primary, err := NewExtractor(primaryCfg)
	if err != nil {
		return nil, fmt.Errorf("creating primary extractor: %w", err)
	}
	secondaryCfg := cfg.SecondaryConfig()
	if secondaryCfg == nil {
		return primary, nil
	}
	secondary, err := NewExtractor(secondaryCfg)
	if err != nil {
		return nil, fmt.Errorf("creating secondary extractor: %w", err)
	}
	return NewFallbackExtractor(
		[]port.InvoiceExtractor{primary, secondary},
		[]string{primaryCfg.Provider + ":" + primaryCfg.DefaultModel, secondaryCfg.Provider + ":" + secondaryCfg.DefaultModel},
	), nil
}
