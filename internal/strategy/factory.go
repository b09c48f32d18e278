package strategy

import (
	"fmt"
	"strings"
)

// Type enumerates the closed set of strategy variants.
type Type int

const (
	TypeMarketMaking Type = iota
	TypeMeanReversion
	TypeMomentum
	TypeScalping
)

func (t Type) String() string {
	switch t {
	case TypeMarketMaking:
		return "market_making"
	case TypeMeanReversion:
		return "mean_reversion"
	case TypeMomentum:
		return "momentum"
	case TypeScalping:
		return "scalping"
	default:
		return "unknown"
	}
}

// ParseType maps a case name string to its strategy type. Returns an error
// for unknown names; there is no silent substitution.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "market_making", "marketmaking":
		return TypeMarketMaking, nil
	case "mean_reversion", "meanreversion":
		return TypeMeanReversion, nil
	case "momentum":
		return TypeMomentum, nil
	case "scalping":
		return TypeScalping, nil
	default:
		return 0, fmt.Errorf("unknown strategy type %q (supported: market_making, mean_reversion, momentum, scalping)", name)
	}
}

// Factory maps strategy types to constructors. Stateless and side-effect
// free beyond construction.
type Factory struct{}

// NewFactory creates a new strategy factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create builds a strategy instance of the given type. Unknown or
// unimplemented types are a hard construction failure.
func (f *Factory) Create(t Type, cfg *Config) (Strategy, error) {
	if cfg == nil {
		return nil, fmt.Errorf("strategy config is required")
	}
	switch t {
	case TypeMarketMaking:
		return NewMarketMakingStrategy(cfg), nil
	case TypeMeanReversion:
		return NewMeanReversionStrategy(cfg), nil
	case TypeMomentum:
		return NewMomentumStrategy(cfg), nil
	case TypeScalping:
		return NewScalpingStrategy(cfg), nil
	default:
		return nil, fmt.Errorf("unimplemented strategy type %d", t)
	}
}

// CreateByName builds a strategy from its case name string.
func (f *Factory) CreateByName(name string, cfg *Config) (Strategy, error) {
	t, err := ParseType(name)
	if err != nil {
		return nil, err
	}
	return f.Create(t, cfg)
}
