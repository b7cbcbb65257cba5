package engine

import (
	"strings"

	"photodoctor/internal/model"
)

// Session is everything the rules need, derived from history on every call
type Session struct {
	History   []model.HistoryItem
	FirstRead *model.VisionRead

	Asked        map[string]bool
	AskedCount   int
	ProbeAsked   bool
	OpinionAsked bool

	// Crop is the farmer's answer to the clarify question, if any
	Crop string

	Signals SignalSet
	Ranking Ranking
	Hints   map[model.Hint]bool

	// Extended is set when a force-dialogue keyword was seen
	Extended bool
	// NeverConfirm lists never-confirm terms mentioned in the session
	NeverConfirm []string
	// CropAlert is set when a crop rule found something
	CropAlert *model.CropAlert
}

// Analyze derives the session state from a history
func (e *Engine) Analyze(history []model.HistoryItem) *Session {
	clean := e.Sanitize(history)
	s := &Session{
		History: clean,
		Asked:   make(map[string]bool),
		Hints:   make(map[model.Hint]bool),
	}

	var texts []string
	for i := range clean {
		h := &clean[i]
		if h.IsFirstRead() && s.FirstRead == nil {
			s.FirstRead = h.Read
			texts = append(texts, h.Read.Observations...)
			texts = append(texts, h.Read.DoctorNote)
			continue
		}
		if !h.IsFarmer() {
			continue
		}
		q, _ := e.kb.Question(h.QID)
		s.Asked[h.QID] = true
		s.AskedCount++
		switch q.Pool {
		case model.PoolSlot0:
			s.ProbeAsked = true
		case model.PoolOpinion:
			s.OpinionAsked = true
		case model.PoolClarify:
			if c := matchChoice(q, h.Answer.Text()); c != nil {
				s.Crop = c.Label
			}
		}
	}

	texts = append(texts, e.farmerFreeText(clean)...)
	for _, t := range texts {
		for h := range e.DetectHints(t) {
			s.Hints[h] = true
		}
	}

	s.Signals = e.Signals(clean)
	s.Ranking = e.Score(s.Signals)

	corpus := normalizeAll(append(texts, e.weightedLabels(clean)...))
	s.Extended = len(mentions(corpus, e.forceDialogue)) > 0
	s.NeverConfirm = mentions(corpus, e.neverConfirm)
	s.CropAlert = e.checkCrop(s.ruleCrop(), corpus)
	return s
}

// MinQuestions is the effective minimum for this session
func (e *Engine) MinQuestions(s *Session) int {
	if s.Extended && e.kb.Policy.ExtendedMinQuestions > e.opts.MinQuestions {
		return e.kb.Policy.ExtendedMinQuestions
	}
	return e.opts.MinQuestions
}

// weightedLabels returns labels of chosen options that carry evidence.
// Neutral options such as "시들지는 않는다" are left out so they cannot trip
// the policy keyword lists.
func (e *Engine) weightedLabels(history []model.HistoryItem) []string {
	var labels []string
	for _, h := range history {
		if !h.IsFarmer() {
			continue
		}
		q, _ := e.kb.Question(h.QID)
		for _, part := range h.Answer {
			c := matchChoice(q, part)
			if c == nil {
				continue
			}
			for _, sig := range c.Signals {
				if sig != model.SignalIndirect {
					labels = append(labels, c.Label)
					break
				}
			}
		}
	}
	return labels
}

// mentions returns the terms found in any of the normalised texts
func mentions(corpus, terms []string) []string {
	var found []string
	for _, term := range terms {
		for _, text := range corpus {
			if strings.Contains(text, term) {
				found = append(found, term)
				break
			}
		}
	}
	return found
}

// cropName prefers what the farmer told us over what the photo suggested
func (s *Session) cropName() string {
	switch {
	case s.Crop != "":
		return s.Crop
	case s.FirstRead != nil && s.FirstRead.CropHint != "":
		return s.FirstRead.CropHint
	}
	return ""
}

// ruleCrop is the crop used to pick crop rules. It falls back to the photo
// guess unless the read was unusable.
func (s *Session) ruleCrop() string {
	if c := s.cropName(); c != "" {
		return c
	}
	if s.FirstRead != nil && !s.FirstRead.Fallback {
		return s.FirstRead.CropGuess.Name
	}
	return ""
}
