package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType_KnownNames(t *testing.T) {
	cases := map[string]Type{
		"market_making":  TypeMarketMaking,
		"MarketMaking":   TypeMarketMaking,
		"mean_reversion": TypeMeanReversion,
		" momentum ":     TypeMomentum,
		"SCALPING":       TypeScalping,
	}
	for name, want := range cases {
		got, err := ParseType(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestParseType_UnknownNameFails(t *testing.T) {
	_, err := ParseType("arbitrage")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown strategy type")
}

func TestFactory_CreateAllTypes(t *testing.T) {
	f := NewFactory()
	for _, typ := range []Type{TypeMarketMaking, TypeMeanReversion, TypeMomentum, TypeScalping} {
		s, err := f.Create(typ, &Config{Name: typ.String(), ID: 1})
		require.NoError(t, err, typ.String())
		assert.Equal(t, typ.String(), s.Name())
		assert.Equal(t, StateStopped, s.State())
	}
}

func TestFactory_CreateRequiresConfig(t *testing.T) {
	f := NewFactory()
	_, err := f.Create(TypeMomentum, nil)
	assert.Error(t, err)
}

func TestFactory_CreateByName(t *testing.T) {
	f := NewFactory()

	s, err := f.CreateByName("scalping", &Config{Name: "scalping", ID: 9})
	require.NoError(t, err)
	assert.Equal(t, uint32(9), s.ID())

	_, err = f.CreateByName("nope", &Config{Name: "nope", ID: 1})
	assert.Error(t, err)
}
