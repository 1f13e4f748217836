package indicator

import (
	"sync"

	"github.com/rxtech-lab/argo-ablation/internal/types"
	"github.com/rxtech-lab/argo-ablation/pkg/errors"
)

// IndicatorRegistry manages the indicators owned by one simulation run.
type IndicatorRegistry interface {
	RegisterIndicator(indicator Indicator) error
	GetIndicator(name types.IndicatorType) (Indicator, error)
	// ListIndicators returns names in registration order
	ListIndicators() []types.IndicatorType
}

// Periods holds the lookbacks of the standard indicator set.
type Periods struct {
	RSIPeriod         int
	ShortCompositeRSI int
	LongCompositeRSI  int
	HurstWindow       int
}

// IndicatorRegistryV1 manages all available indicators.
type IndicatorRegistryV1 struct {
	indicators map[types.IndicatorType]Indicator
	order      []types.IndicatorType
	mu         sync.RWMutex
}

// NewIndicatorRegistry creates a new indicator registry.
func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{
		indicators: make(map[types.IndicatorType]Indicator),
		order:      make([]types.IndicatorType, 0, len(types.AllIndicatorTypes)),
		mu:         sync.RWMutex{},
	}
}

// NewStandardRegistry creates a registry holding fresh RSI, composite RSI and Hurst estimators.
func NewStandardRegistry(periods Periods) (IndicatorRegistry, error) {
	rsi, err := NewRSI(periods.RSIPeriod)
	if err != nil {
		return nil, err
	}

	composite, err := NewCompositeRSI(periods.ShortCompositeRSI, periods.LongCompositeRSI)
	if err != nil {
		return nil, err
	}

	hurst, err := NewHurst(periods.HurstWindow)
	if err != nil {
		return nil, err
	}

	registry := NewIndicatorRegistry()
	for _, ind := range []Indicator{rsi, composite, hurst} {
		if err := registry.RegisterIndicator(ind); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// RegisterIndicator adds an indicator to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(indicator Indicator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := indicator.Name()
	if _, exists := r.indicators[name]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "indicator with name %s already registered", name)
	}

	r.indicators[name] = indicator
	r.order = append(r.order, name)

	return nil
}

// GetIndicator retrieves an indicator by name.
func (r *IndicatorRegistryV1) GetIndicator(name types.IndicatorType) (Indicator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	indicator, exists := r.indicators[name]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator with name %s not found", name)
	}

	return indicator, nil
}

// ListIndicators returns the registered indicator names in registration order.
func (r *IndicatorRegistryV1) ListIndicators() []types.IndicatorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]types.IndicatorType, len(r.order))
	copy(names, r.order)

	return names
}
