package strategy

import (
	"strconv"
	"strings"
)

// Config holds the construction-time configuration for one strategy
// instance. It is immutable after construction; runtime toggles live on the
// owning allocation, not here.
type Config struct {
	Name            string
	ID              uint32
	MaxPositionSize float64
	MaxDailyLoss    float64
	RiskMultiplier  float64
	Enabled         bool
	Symbols         []uint32

	// Params is a flat list of "key=value" strings. Each strategy whitelists
	// and parses only the keys it understands; everything else is silently
	// ignored.
	Params []string
}

// Parameters is the parsed view of a Config's key=value list. Malformed
// entries are skipped, not rejected.
type Parameters map[string]string

// ParseParams splits the flat parameter list into a lookup table. Entries
// without an '=' or with an empty key are dropped.
func ParseParams(params []string) Parameters {
	parsed := make(Parameters, len(params))
	for _, p := range params {
		key, value, found := strings.Cut(p, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		parsed[key] = strings.TrimSpace(value)
	}
	return parsed
}

// Float returns the parameter as a float64, or the default when the key is
// absent or unparsable.
func (p Parameters) Float(key string, def float64) float64 {
	raw, ok := p[key]
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

// Int returns the parameter as an int, or the default when the key is absent
// or unparsable.
func (p Parameters) Int(key string, def int) int {
	raw, ok := p[key]
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// Bool returns the parameter as a bool, or the default when the key is
// absent or unparsable.
func (p Parameters) Bool(key string, def bool) bool {
	raw, ok := p[key]
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}
