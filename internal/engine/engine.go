// Package engine is the pure diagnosis core: signal extraction, scoring,
// question selection, product mixing and the decision policy. It does no I/O
// and holds no per-session state; one Engine is shared by all requests.
package engine

import (
	"errors"

	"photodoctor/internal/knowledge"
	"photodoctor/internal/model"
)

// ErrNoFirstRead is returned when a question is requested before the photo
// has been read into the history.
var ErrNoFirstRead = errors.New("no first read in history")

// Options tune the questionnaire and the mixer
type Options struct {
	MinQuestions int     // questions before a normal finalize
	MaxQuestions int     // hard cap; 0 uses the policy value
	MaxItems     int     // recommendation slots
	MaxPaidRatio float64 // share of slots paid products may take
}

// DefaultOptions returns the production defaults
func DefaultOptions() Options {
	return Options{
		MinQuestions: 4,
		MaxItems:     3,
		MaxPaidRatio: 0.33,
	}
}

type family struct {
	hint    model.Hint
	signals []model.Signal
	terms   []string
}

// Engine runs the diagnosis rules over a knowledge bundle
type Engine struct {
	kb   *knowledge.Bundle
	opts Options

	families      []family
	neverConfirm  []string
	forceDialogue []string
	cropRules     []cropRule
}

// New builds an engine. Keyword and policy terms are normalised once here.
func New(kb *knowledge.Bundle, opts Options) *Engine {
	def := DefaultOptions()
	if opts.MinQuestions <= 0 {
		opts.MinQuestions = def.MinQuestions
	}
	if opts.MaxQuestions <= 0 {
		opts.MaxQuestions = kb.Policy.MaxQuestions
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = def.MaxItems
	}
	if opts.MaxPaidRatio < 0 || opts.MaxPaidRatio > 1 {
		opts.MaxPaidRatio = def.MaxPaidRatio
	}

	e := &Engine{kb: kb, opts: opts}
	for _, f := range kb.Keywords {
		e.families = append(e.families, family{
			hint:    f.Hint,
			signals: f.Signals,
			terms:   normalizeAll(f.Terms),
		})
	}
	e.neverConfirm = normalizeAll(kb.Policy.NeverConfirm)
	e.forceDialogue = normalizeAll(kb.Policy.ForceDialogue)
	for i := range kb.Policy.CropRules {
		e.cropRules = append(e.cropRules, compileCropRule(&kb.Policy.CropRules[i]))
	}
	return e
}

// Knowledge returns the bundle the engine runs on
func (e *Engine) Knowledge() *knowledge.Bundle {
	return e.kb
}

// Options returns the effective options
func (e *Engine) Options() Options {
	return e.opts
}

func normalizeAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if n := normalize(t); n != "" {
			out = append(out, n)
		}
	}
	return out
}
