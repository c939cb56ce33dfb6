package options

import "math"

// Coerce-with-fallback helpers. Each takes the raw (possibly absent) value
// and the documented default; bad input never produces an error, only the
// fallback.

func coerceNonNegativeInt(value *int, fallback int) int {
	if value == nil || *value < 0 {
		return fallback
	}
	return *value
}

func coerceFiniteFloat(value *float64, fallback float64) float64 {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return fallback
	}
	return *value
}

func coerceBool(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}

func coerceEnum(value *string, allowed []string, fallback string) string {
	if value == nil {
		return fallback
	}
	for _, candidate := range allowed {
		if *value == candidate {
			return *value
		}
	}
	return fallback
}

// coerceSteps keeps the positive entries of a step-minute array; if none
// survive, the whole array falls back.
func coerceSteps(values []int, fallback []int) []int {
	if values == nil {
		return fallback
	}
	kept := make([]int, 0, len(values))
	for _, v := range values {
		if v > 0 {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return fallback
	}
	return kept
}
