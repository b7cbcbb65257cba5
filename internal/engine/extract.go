package engine

import (
	"strings"

	"photodoctor/internal/model"
)

// Sanitize drops farmer turns that cannot be scored: unknown question ids and
// repeated answers to an id already answered earlier. Doctor turns are kept.
// The input is not modified.
func (e *Engine) Sanitize(history []model.HistoryItem) []model.HistoryItem {
	out := make([]model.HistoryItem, 0, len(history))
	seen := make(map[string]bool)
	for _, h := range history {
		if !h.IsFarmer() {
			out = append(out, h)
			continue
		}
		if _, ok := e.kb.Question(h.QID); !ok || seen[h.QID] {
			continue
		}
		seen[h.QID] = true
		out = append(out, h)
	}
	return out
}

// FromAnswers extracts signals from answers to choice questions. Choice text
// that matches no declared option is left to FromFreeText.
func (e *Engine) FromAnswers(history []model.HistoryItem) SignalSet {
	set := make(SignalSet)
	for _, h := range e.Sanitize(history) {
		if !h.IsFarmer() {
			continue
		}
		q, _ := e.kb.Question(h.QID)
		if q.IsFreeText() {
			continue
		}
		for _, part := range h.Answer {
			if c := matchChoice(q, part); c != nil {
				set.Add(c.Signals...)
			}
		}
	}
	return set
}

// FromFreeText extracts signals from unconstrained farmer text
func (e *Engine) FromFreeText(text string) SignalSet {
	set := make(SignalSet)
	for _, f := range e.matchFamilies(normalize(text)) {
		set.Add(f.signals...)
	}
	return set
}

// DetectHints returns the keyword hints present in text
func (e *Engine) DetectHints(text string) map[model.Hint]bool {
	hints := make(map[model.Hint]bool)
	for _, f := range e.matchFamilies(normalize(text)) {
		hints[f.hint] = true
	}
	return hints
}

// Signals merges both extractors over the whole history and applies
// direct-evidence suppression.
func (e *Engine) Signals(history []model.HistoryItem) SignalSet {
	set := e.FromAnswers(history)
	for _, text := range e.farmerFreeText(history) {
		set.Merge(e.FromFreeText(text))
	}
	return set.Suppress()
}

// farmerFreeText collects answers to free-text questions and choice answers
// that matched no declared option.
func (e *Engine) farmerFreeText(history []model.HistoryItem) []string {
	var texts []string
	for _, h := range e.Sanitize(history) {
		if !h.IsFarmer() {
			continue
		}
		q, _ := e.kb.Question(h.QID)
		if q.IsFreeText() {
			if t := strings.TrimSpace(h.Answer.Text()); t != "" {
				texts = append(texts, t)
			}
			continue
		}
		for _, part := range h.Answer {
			if ignorable(normalize(part)) {
				continue
			}
			if matchChoice(q, part) == nil {
				texts = append(texts, part)
			}
		}
	}
	return texts
}

func (e *Engine) matchFamilies(normalized string) []family {
	if normalized == "" {
		return nil
	}
	var out []family
	for _, f := range e.families {
		for _, term := range f.terms {
			if strings.Contains(normalized, term) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// matchChoice finds the declared choice an answer part refers to.
// Ignorable answers never match.
func matchChoice(q *model.Question, part string) *model.Choice {
	n := normalize(part)
	if ignorable(n) {
		return nil
	}
	for i := range q.Choices {
		if normalize(q.Choices[i].Label) == n {
			return &q.Choices[i]
		}
	}
	return nil
}
