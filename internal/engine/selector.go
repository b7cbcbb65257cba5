package engine

import (
	"strings"

	"photodoctor/internal/model"
)

// Decision is the outcome of NextAction: either a question or finalize
type Decision struct {
	Question *model.Question
	Finalize bool
	Reason   string
	Primary  model.Category
	Progress model.Progress
	Session  *Session
}

// Selection reasons, reported for logging
const (
	ReasonClarify   = "clarify"
	ReasonProbe     = "slot0_probe"
	ReasonOpinion   = "opinion"
	ReasonPool      = "primary_pool"
	ReasonFallback  = "fallback_pool"
	ReasonCap       = "question_cap"
	ReasonReady     = "ready"
	ReasonExhausted = "exhausted"
)

// NextAction picks the next question or decides to finalize. hint is the
// category suggested by the photo read and is used only while nothing has
// been scored yet. A question id is never issued twice.
func (e *Engine) NextAction(hint model.Category, history []model.HistoryItem) (Decision, error) {
	return e.decide(e.Analyze(history), hint)
}

func (e *Engine) decide(s *Session, hint model.Category) (Decision, error) {
	if s.FirstRead == nil {
		return Decision{}, ErrNoFirstRead
	}

	minQ := e.MinQuestions(s)
	d := Decision{
		Primary:  e.primary(s, hint),
		Progress: model.Progress{Asked: s.AskedCount, Target: minQ},
		Session:  s,
	}
	ask := func(q *model.Question, reason string) (Decision, error) {
		d.Question = q
		d.Reason = reason
		return d, nil
	}
	finalize := func(reason string) (Decision, error) {
		d.Finalize = true
		d.Reason = reason
		return d, nil
	}

	if s.AskedCount >= e.opts.MaxQuestions && s.OpinionAsked {
		return finalize(ReasonCap)
	}

	if q := e.kb.Clarify(); q != nil && s.FirstRead.Fallback && !s.Asked[q.ID] && !cropKnown(s.FirstRead) {
		return ask(q, ReasonClarify)
	}

	opinion := e.kb.Opinion()
	opinionDue := opinion != nil && !s.OpinionAsked && s.AskedCount >= 1

	// the opinion question must land on turn 1 or 2, so a probe may not
	// push it past turn 2
	if !s.ProbeAsked && !(opinionDue && s.AskedCount >= 2) {
		for _, h := range model.ProbeHints {
			if !s.Hints[h] {
				continue
			}
			if q := e.kb.Probe(h); q != nil && !s.Asked[q.ID] {
				return ask(q, ReasonProbe)
			}
		}
	}

	if opinionDue {
		return ask(opinion, ReasonOpinion)
	}

	pool := e.kb.PoolFor(d.Primary)
	if q := e.nextIn(pool, s); q != nil {
		return ask(q, ReasonPool)
	}

	if s.AskedCount >= minQ && s.OpinionAsked && len(s.Ranking.Top) > 0 {
		return finalize(ReasonReady)
	}

	for _, p := range e.kb.FallbackOrder {
		if p == pool {
			continue
		}
		if q := e.nextIn(p, s); q != nil {
			return ask(q, ReasonFallback)
		}
	}

	if opinion != nil && !s.OpinionAsked {
		return ask(opinion, ReasonOpinion)
	}
	return finalize(ReasonExhausted)
}

// primary is the leading scored category, else the photo hint, else DISEASE
func (e *Engine) primary(s *Session, hint model.Category) model.Category {
	if c := s.Ranking.Leader(); c != "" {
		return c
	}
	if c := model.ParseCategory(string(hint)); c != "" {
		return c
	}
	if s.FirstRead != nil {
		if c := model.ParseCategory(string(s.FirstRead.PrimaryCategory)); c != "" {
			return c
		}
	}
	return model.CategoryDisease
}

func (e *Engine) nextIn(pool model.Pool, s *Session) *model.Question {
	for _, q := range e.kb.PoolQuestions(pool) {
		if !s.Asked[q.ID] {
			return q
		}
	}
	return nil
}

func cropKnown(read *model.VisionRead) bool {
	if strings.TrimSpace(read.CropHint) != "" {
		return true
	}
	return !read.Fallback && strings.TrimSpace(read.CropGuess.Name) != ""
}
