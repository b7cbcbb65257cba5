package engine

import (
	"math"
	"strings"

	"photodoctor/internal/model"
)

// MixOptions bound the recommendation list
type MixOptions struct {
	MaxItems     int
	MaxPaidRatio float64
}

// Mix picks catalog items whose signals intersect the active set: paid items
// first up to floor(MaxItems*MaxPaidRatio), then free items up to MaxItems.
// Catalog order is preserved within each tier. No match means an empty list.
func Mix(catalog []model.Product, active SignalSet, opts MixOptions) []model.Product {
	if opts.MaxItems <= 0 || len(active) == 0 {
		return nil
	}
	maxPaid := int(math.Floor(float64(opts.MaxItems) * opts.MaxPaidRatio))

	var paid, free []model.Product
	for _, p := range catalog {
		if !p.Matches(active) {
			continue
		}
		if p.IsPaid() {
			paid = append(paid, p)
		} else {
			free = append(free, p)
		}
	}

	out := make([]model.Product, 0, opts.MaxItems)
	for _, p := range paid {
		if len(out) >= maxPaid {
			break
		}
		out = append(out, p)
	}
	for _, p := range free {
		if len(out) >= opts.MaxItems {
			break
		}
		out = append(out, p)
	}
	return out
}

// productReason builds the fixed explanation for a recommended product
func (e *Engine) productReason(p model.Product, active SignalSet, score int) string {
	g := e.kb.Guidance
	tmpl := g.ProductReasons["default"]
	for _, s := range p.Signals {
		if !active.Has(s) {
			continue
		}
		if t, ok := g.ProductReasons[string(s)]; ok {
			tmpl = t
			break
		}
	}

	var strength string
	switch {
	case score >= 6:
		strength = g.Strength.Strong
	case float64(score) >= 3.5:
		strength = g.Strength.Some
	default:
		strength = g.Strength.Early
	}
	reason := strings.ReplaceAll(tmpl, "{name}", p.Name)
	if strength != "" {
		reason += " " + strength
	}
	return reason
}
