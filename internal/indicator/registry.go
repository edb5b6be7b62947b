package indicator

import (
	"sort"
	"sync"

	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// IndicatorRegistry manages all available indicators.
type IndicatorRegistry interface {
	RegisterIndicator(indicator Indicator) error
	GetIndicator(name types.IndicatorType) (Indicator, error)
	ListIndicators() []types.IndicatorType
	RemoveIndicator(name types.IndicatorType) error
}

// IndicatorRegistryV1 manages all available indicators.
type IndicatorRegistryV1 struct {
	indicators map[types.IndicatorType]Indicator
	mu         sync.RWMutex
}

// NewIndicatorRegistry creates a new, empty indicator registry.
func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		indicators: make(map[types.IndicatorType]Indicator),
		mu:         sync.RWMutex{},
	}
}

// NewDefaultRegistry creates a registry holding every built-in indicator.
func NewDefaultRegistry() IndicatorRegistry {
	registry := NewIndicatorRegistry()

	for _, indicator := range []Indicator{NewMA(), NewEMA(), NewRSI(), NewMACD(), NewBollingerBands(), NewATR()} {
		// names are distinct, registration cannot fail
		_ = registry.RegisterIndicator(indicator)
	}

	return registry
}

// RegisterIndicator adds an indicator to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(indicator Indicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := indicator.Name()
	if _, exists := r.indicators[name]; exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "RegisterIndicator: indicator with name %s already registered", name)
	}

	r.indicators[name] = indicator

	return nil
}

// GetIndicator retrieves an indicator by name.
func (r *IndicatorRegistryV1) GetIndicator(name types.IndicatorType) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicator, exists := r.indicators[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "GetIndicator: indicator with name %s not found", name)
	}

	return indicator, nil
}

// ListIndicators returns the registered indicator names in lexical order.
func (r *IndicatorRegistryV1) ListIndicators() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, 0, len(r.indicators))
	for name := range r.indicators {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

// RemoveIndicator removes an indicator from the registry.
func (r *IndicatorRegistryV1) RemoveIndicator(name types.IndicatorType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.indicators[name]; !exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "RemoveIndicator: indicator with name %s not found", name)
	}

	delete(r.indicators, name)

	return nil
}
