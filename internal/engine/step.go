package engine

import (
	"photodoctor/internal/model"
)

// Step runs one round of the questionnaire over a history that already holds
// the first read: the next QUESTION, or the FINAL result once the rules
// allow it.
func (e *Engine) Step(history []model.HistoryItem) (model.Response, error) {
	s := e.Analyze(history)
	if s.FirstRead == nil {
		return nil, ErrNoFirstRead
	}

	d, err := e.decide(s, s.FirstRead.PrimaryCategory)
	if err != nil {
		return nil, err
	}
	if d.Finalize {
		resp := e.finalize(d.Session)
		resp.History = d.Session.History
		return resp, nil
	}

	read := d.Session.FirstRead
	crop := read.CropGuess
	if name := d.Session.cropName(); name != "" {
		crop.Name = name
	}
	return &model.QuestionResponse{
		OK:              true,
		Phase:           model.PhaseQuestion,
		PrimaryCategory: d.Primary,
		CropGuess:       crop,
		Observations:    nonNil(read.Observations),
		DoctorNote:      read.DoctorNote,
		Question:        d.Question.View(),
		Progress:        d.Progress,
		History:         d.Session.History,
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
