package config

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Eval evaluates a numeric parameter expression: a plain literal, or a
// named distribution `uniform(a, b)` / `normal(mean, std)` sampled from
// rng. Anything else is a parse error naming the offending text.
func Eval(expr string, rng *rand.Rand) (float64, error) {
	trimmed := strings.TrimSpace(expr)

	if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return v, nil
	}

	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "uniform"):
		a, b, err := twoArgs(trimmed)
		if err != nil {
			return 0, fmt.Errorf("config: cannot parse expression %q: %w", expr, err)
		}
		return a + rng.Float64()*(b-a), nil

	case strings.HasPrefix(lower, "normal"):
		mean, std, err := twoArgs(trimmed)
		if err != nil {
			return 0, fmt.Errorf("config: cannot parse expression %q: %w", expr, err)
		}
		return mean + rng.NormFloat64()*std, nil
	}

	return 0, fmt.Errorf("config: cannot parse expression %q", expr)
}

func twoArgs(s string) (float64, float64, error) {
	open := strings.IndexByte(s, '(')
	comma := strings.IndexByte(s, ',')
	closing := strings.IndexByte(s, ')')
	if open < 0 || comma < open || closing < comma {
		return 0, 0, fmt.Errorf("expected two comma-separated arguments")
	}

	a, err := strconv.ParseFloat(strings.TrimSpace(s[open+1:comma]), 64)
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(s[comma+1:closing]), 64)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// evalKey evaluates the expression stored under key, falling back to def
// when the key is absent.
func evalKey(s *Section, key string, def float64, rng *rand.Rand) (float64, error) {
	v, ok := s.Values[key]
	if !ok {
		return def, nil
	}
	out, err := Eval(v, rng)
	if err != nil {
		return 0, fmt.Errorf("[%s] %s: %w", s.Heading(), key, err)
	}
	return out, nil
}
