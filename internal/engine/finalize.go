package engine

import (
	"photodoctor/internal/model"
)

// Finalize builds the FINAL response for a history. The decision policy is
// always applied. History and incident id are left for the caller.
func (e *Engine) Finalize(history []model.HistoryItem) *model.FinalResponse {
	return e.finalize(e.Analyze(history))
}

func (e *Engine) finalize(s *Session) *model.FinalResponse {
	r := e.review(s)
	g := e.kb.Guidance

	resp := &model.FinalResponse{
		OK:              true,
		Phase:           model.PhaseFinal,
		PossibleCauses:  r.Causes,
		FollowupMessage: g.FollowupMessage,
		RiskLevel:       r.Risk,
		Need119:         r.Need119,
		SignalScore:     s.Ranking.Score,
		CropAlert:       s.CropAlert,
	}
	if s.FirstRead != nil {
		resp.CropGuess = s.FirstRead.CropGuess
	}
	if crop := s.cropName(); crop != "" {
		resp.CropGuess.Name = crop
	}

	if len(r.Causes) == 0 {
		gen := g.Generic
		resp.PrimaryCategory = e.primary(s, "")
		// nothing scored: a zero-probability entry that names no cause
		resp.PossibleCauses = []model.CandidateCause{{
			Name:     gen.Name,
			Why:      gen.Why,
			Category: resp.PrimaryCategory,
		}}
		resp.MustCheck = gen.MustCheck
		resp.DoNot = gen.DoNot
		resp.NextSteps = gen.NextSteps
		resp.Need119If = gen.Need119If
		return resp
	}

	lead := r.Causes[0].Category
	cg := g.Categories[lead]
	resp.PrimaryCategory = lead
	resp.MustCheck = cg.MustCheck
	resp.DoNot = cg.DoNot
	resp.NextSteps = cg.NextSteps
	resp.Need119If = cg.Need119If
	if cg.FollowupMessage != "" {
		resp.FollowupMessage = cg.FollowupMessage
	}
	if r.Risk == model.RiskHigh {
		resp.DoNot = appendUnique(resp.DoNot, g.Generic.DoNot...)
	}

	if r.SuppressProducts {
		return resp
	}
	for _, p := range Mix(r.Catalog, s.Signals, MixOptions{MaxItems: e.opts.MaxItems, MaxPaidRatio: e.opts.MaxPaidRatio}) {
		resp.Recommendations = append(resp.Recommendations, model.Recommendation{
			Name:         p.Name,
			Tier:         p.Tier,
			MaterialType: p.MaterialType,
			Reason:       e.productReason(p, s.Signals, s.Ranking.Score),
		})
	}
	return resp
}

func appendUnique(list []string, items ...string) []string {
	out := append([]string(nil), list...)
	for _, it := range items {
		dup := false
		for _, have := range out {
			if have == it {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, it)
		}
	}
	return out
}
