package engine

import (
	"math"
	"sort"

	"photodoctor/internal/model"
)

const (
	// environment may reach at most this share of the leading direct bucket
	envDominanceRatio = 0.45
	// displayed environment probability ceiling alongside direct evidence
	envDisplayCap = 45
	maxCandidates = 3
)

// Ranking is the result of one scoring pass
type Ranking struct {
	Score   int                        `json:"score"`
	Top     []model.CandidateCause     `json:"top3"`
	Buckets map[model.Category]float64 `json:"-"`
	Signals SignalSet                  `json:"-"`
}

// Leader returns the top-ranked category, or "" when nothing scored
func (r Ranking) Leader() model.Category {
	if len(r.Top) == 0 {
		return ""
	}
	return r.Top[0].Category
}

// Score ranks the categories for a signal set. An empty set yields an empty
// ranking; callers keep asking instead of inventing a cause.
func (e *Engine) Score(signals SignalSet) Ranking {
	buckets := map[model.Category]float64{
		model.CategoryPest:        0,
		model.CategoryDisease:     0,
		model.CategoryEnvironment: 0,
	}
	for sig := range signals {
		w := Weight(sig)
		if sig == model.SignalIndirect {
			for _, c := range model.Categories {
				buckets[c] += w * indirectShare
			}
			continue
		}
		if c := CategoryOf(sig); c != "" {
			buckets[c] += w
		}
	}

	direct := signals.HasDirect()
	if direct {
		limit := envDominanceRatio * math.Max(buckets[model.CategoryPest], buckets[model.CategoryDisease])
		if buckets[model.CategoryEnvironment] > limit {
			buckets[model.CategoryEnvironment] = limit
		}
	}

	order := make([]model.Category, 0, len(model.Categories))
	for _, c := range model.Categories {
		if buckets[c] > 0 {
			order = append(order, c)
		}
	}
	// model.Categories is already in tie-break priority, so a stable sort
	// keeps pest > disease > environment among equal scores.
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if direct {
			if a == model.CategoryEnvironment {
				return false
			}
			if b == model.CategoryEnvironment {
				return true
			}
		}
		return buckets[a] > buckets[b]
	})
	if len(order) > maxCandidates {
		order = order[:maxCandidates]
	}

	var total float64
	for _, c := range order {
		total += buckets[c]
	}

	top := make([]model.CandidateCause, 0, len(order))
	for _, c := range order {
		p := int(math.Round(buckets[c] / total * 100))
		if direct && c == model.CategoryEnvironment && p > envDisplayCap {
			p = envDisplayCap
		}
		guide := e.kb.Guidance.Categories[c]
		top = append(top, model.CandidateCause{
			Name:        guide.Name,
			Probability: clampPercent(p),
			Why:         e.justify(c, signals),
			Category:    c,
		})
	}

	return Ranking{
		Score:   signalScore(signals, buckets),
		Top:     top,
		Buckets: buckets,
		Signals: signals,
	}
}

// justify picks the first rule whose signal is active, else the default
func (e *Engine) justify(c model.Category, signals SignalSet) string {
	var fallback string
	for _, r := range e.kb.Guidance.Categories[c].Why {
		if r.When == "" {
			if fallback == "" {
				fallback = r.Text
			}
			continue
		}
		if signals.Has(r.When) {
			return r.Text
		}
	}
	return fallback
}

func signalScore(signals SignalSet, buckets map[model.Category]float64) int {
	switch {
	case signals.Has(model.SignalPestVector):
		return int(math.Round(buckets[model.CategoryPest]))
	case signals.Has(model.SignalPathogenSpecific):
		return int(math.Round(buckets[model.CategoryDisease]))
	default:
		return int(math.Round(buckets[model.CategoryEnvironment]))
	}
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
