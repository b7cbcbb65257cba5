package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"photodoctor/internal/model"
)

// indirectShare is the fraction of an INDIRECT weight added to every category
const indirectShare = 0.1

var weights = map[model.Signal]float64{
	model.SignalPestVector:        5,
	model.SignalPathogenSpecific:  5,
	model.SignalContagious:        3,
	model.SignalMoistureRelated:   2,
	model.SignalEnvStress:         3,
	model.SignalWaterStress:       3,
	model.SignalNutrientImbalance: 3,
	model.SignalIndirect:          1,
}

// governs maps a signal to the category it feeds. INDIRECT feeds all of them.
var governs = map[model.Signal]model.Category{
	model.SignalPestVector:        model.CategoryPest,
	model.SignalPathogenSpecific:  model.CategoryDisease,
	model.SignalContagious:        model.CategoryDisease,
	model.SignalMoistureRelated:   model.CategoryEnvironment,
	model.SignalEnvStress:         model.CategoryEnvironment,
	model.SignalWaterStress:       model.CategoryEnvironment,
	model.SignalNutrientImbalance: model.CategoryEnvironment,
}

// Weight returns the static weight of a signal; unknown signals weigh nothing
func Weight(s model.Signal) float64 {
	return weights[s]
}

// CategoryOf returns the category a signal governs, or "" for INDIRECT
func CategoryOf(s model.Signal) model.Category {
	return governs[s]
}

// SignalSet is an unordered set of signals
type SignalSet map[model.Signal]bool

// NewSignalSet builds a set from the given signals, skipping unknown ones
func NewSignalSet(signals ...model.Signal) SignalSet {
	set := make(SignalSet, len(signals))
	set.Add(signals...)
	return set
}

// Add inserts known signals
func (s SignalSet) Add(signals ...model.Signal) {
	for _, sig := range signals {
		if sig.Valid() {
			s[sig] = true
		}
	}
}

// Merge adds every member of other
func (s SignalSet) Merge(other SignalSet) {
	for sig := range other {
		s[sig] = true
	}
}

// Has reports membership
func (s SignalSet) Has(sig model.Signal) bool {
	return s[sig]
}

// HasDirect reports whether pest or pathogen evidence is present
func (s SignalSet) HasDirect() bool {
	return s[model.SignalPestVector] || s[model.SignalPathogenSpecific]
}

// Sorted returns the members in vocabulary order
func (s SignalSet) Sorted() []model.Signal {
	out := make([]model.Signal, 0, len(s))
	for _, sig := range model.AllSignals {
		if s[sig] {
			out = append(out, sig)
		}
	}
	return out
}

// Suppress drops environment-only signals when direct evidence exists.
// The receiver is modified and returned.
func (s SignalSet) Suppress() SignalSet {
	if !s.HasDirect() {
		return s
	}
	for sig := range s {
		if sig.IsEnvironmentOnly() {
			delete(s, sig)
		}
	}
	return s
}

// normalize prepares text for matching: NFC, lower case, no whitespace
func normalize(text string) string {
	text = strings.ToLower(norm.NFC.String(text))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}

// ignorable reports whether a choice answer carries no information
func ignorable(normalized string) bool {
	if normalized == "" {
		return true
	}
	for _, marker := range []string{"모르", "해당없", "잘모르"} {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}
