package engine

import (
	"photodoctor/internal/model"
)

// Review is the outcome of the decision policy for one session
type Review struct {
	Risk             model.RiskLevel
	Need119          bool
	Causes           []model.CandidateCause
	Catalog          []model.Product // pesticides removed
	SuppressProducts bool
}

// review applies the policy to a ranking. It is the only path from a ranking
// to final causes, so no final result can skip it.
func (e *Engine) review(s *Session) Review {
	p := e.kb.Policy
	causes := append([]model.CandidateCause(nil), s.Ranking.Top...)

	alert := s.CropAlert
	never := len(s.NeverConfirm) > 0 || (alert != nil && alert.Blocked)
	if never {
		label := e.kb.Guidance.Unconfirmable
		for i := range causes {
			if causes[i].Category != model.CategoryDisease {
				continue
			}
			causes[i].Name = label.Name
			causes[i].Why = label.Why
			if causes[i].Probability > p.NeverConfirmMaxProbability {
				causes[i].Probability = p.NeverConfirmMaxProbability
			}
		}
	}

	var risk model.RiskLevel
	switch {
	case never || s.Extended || alertLevel(alert) == model.RiskHigh:
		risk = model.RiskHigh
	case s.Signals.HasDirect() || alertLevel(alert) == model.RiskMid:
		risk = model.RiskMid
	default:
		risk = model.RiskLow
	}

	need119 := risk == model.RiskHigh
	for _, c := range causes {
		if c.Probability >= p.Need119Probability {
			need119 = true
		}
	}

	catalog := make([]model.Product, 0, len(e.kb.Catalog))
	for _, prod := range e.kb.Catalog {
		if prod.IsPesticide() {
			continue
		}
		catalog = append(catalog, prod)
	}

	return Review{
		Risk:             risk,
		Need119:          need119,
		Causes:           causes,
		Catalog:          catalog,
		SuppressProducts: risk == model.RiskHigh,
	}
}

func alertLevel(a *model.CropAlert) model.RiskLevel {
	if a == nil {
		return ""
	}
	return a.Level
}
