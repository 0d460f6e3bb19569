package story

import (
	"encoding/json"
	"math"
	"strings"
)

// Completion output is advisory. Every enum-shaped value coming back from
// the completion service passes through one of these helpers, which replace
// anything unrecognized with a fixed default instead of rejecting it.

// DefaultScore is used when a score is missing or not numeric.
const DefaultScore = 50

// NormalizePriority returns the priority named by raw, or fallback.
func NormalizePriority(raw string, fallback Priority) Priority {
	if p, ok := ParsePriority(raw); ok {
		return p
	}
	return fallback
}

// NormalizeCategory defaults unknown factor categories to scope.
func NormalizeCategory(raw string) FactorCategory {
	switch c := FactorCategory(strings.ToLower(strings.TrimSpace(raw))); c {
	case CategoryRisk, CategoryDependency, CategoryUserImpact, CategoryScope:
		return c
	}
	return CategoryScope
}

// NormalizeImpact defaults unknown impacts to neutral.
func NormalizeImpact(raw string) FactorImpact {
	switch i := FactorImpact(strings.ToLower(strings.TrimSpace(raw))); i {
	case ImpactIncreases, ImpactDecreases, ImpactNeutral:
		return i
	}
	return ImpactNeutral
}

// NormalizeWeight defaults unknown weights to moderate.
func NormalizeWeight(raw string) FactorWeight {
	switch w := FactorWeight(strings.ToLower(strings.TrimSpace(raw))); w {
	case WeightMinor, WeightModerate, WeightMajor:
		return w
	}
	return WeightModerate
}

// RawFactor is a factor as the completion service returns it.
type RawFactor struct {
	Factor   string `json:"factor"`
	Category string `json:"category"`
	Impact   string `json:"impact"`
	Weight   string `json:"weight"`
}

// NormalizeFactors validates every factor. When withCategory is false the
// category is left empty (estimate factors carry impact and weight only).
func NormalizeFactors(raw []RawFactor, withCategory bool) []Factor {
	out := make([]Factor, 0, len(raw))
	for _, r := range raw {
		f := Factor{
			Factor: strings.TrimSpace(r.Factor),
			Impact: NormalizeImpact(r.Impact),
			Weight: NormalizeWeight(r.Weight),
		}
		if withCategory {
			f.Category = NormalizeCategory(r.Category)
		}
		out = append(out, f)
	}
	return out
}

// ClampScore coerces a decoded JSON value into an integer in [0,100].
// Non-numeric input, including absent values and numeric strings, yields def.
func ClampScore(v any, def int) int {
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) {
		return clampInt(def)
	}
	f = math.Max(0, math.Min(100, f))
	return int(math.Round(f))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func clampInt(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
