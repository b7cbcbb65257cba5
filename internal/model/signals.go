package model

import "strings"

// Signal is an evidence tag extracted from a farmer's answers.
// The vocabulary is closed; data files that name anything else are rejected.
type Signal string

const (
	SignalPestVector        Signal = "PEST_VECTOR"        // direct pest sighting or feeding damage
	SignalPathogenSpecific  Signal = "PATHOGEN_SPECIFIC"  // lesion/rot pattern typical of a pathogen
	SignalContagious        Signal = "CONTAGIOUS"         // spreads to neighbouring leaves or plants
	SignalMoistureRelated   Signal = "MOISTURE_RELATED"   // humidity or standing water involved
	SignalEnvStress         Signal = "ENV_STRESS"         // generic growing-condition stress
	SignalWaterStress       Signal = "WATER_STRESS"       // drought or over-watering
	SignalNutrientImbalance Signal = "NUTRIENT_IMBALANCE" // fertiliser excess or deficiency
	SignalIndirect          Signal = "INDIRECT"           // ambiguous, weakly informative
)

// AllSignals lists the vocabulary in declaration order.
var AllSignals = []Signal{
	SignalPestVector,
	SignalPathogenSpecific,
	SignalContagious,
	SignalMoistureRelated,
	SignalEnvStress,
	SignalWaterStress,
	SignalNutrientImbalance,
	SignalIndirect,
}

// Valid reports whether s belongs to the vocabulary.
func (s Signal) Valid() bool {
	for _, v := range AllSignals {
		if s == v {
			return true
		}
	}
	return false
}

// IsDirect reports whether s is direct evidence (pest or pathogen).
func (s Signal) IsDirect() bool {
	return s == SignalPestVector || s == SignalPathogenSpecific
}

// IsEnvironmentOnly reports whether s is inferred environmental noise that
// direct evidence overrides.
func (s Signal) IsEnvironmentOnly() bool {
	return s == SignalEnvStress || s == SignalWaterStress || s == SignalNutrientImbalance
}

// Category is one of the three diagnosis buckets.
type Category string

const (
	CategoryPest        Category = "PEST"
	CategoryDisease     Category = "DISEASE"
	CategoryEnvironment Category = "ENVIRONMENT"
)

// Categories in fixed tie-break priority order.
var Categories = []Category{CategoryPest, CategoryDisease, CategoryEnvironment}

// ParseCategory normalises an untrusted category string. Unknown values map to "".
func ParseCategory(s string) Category {
	switch Category(strings.ToUpper(strings.TrimSpace(s))) {
	case CategoryPest:
		return CategoryPest
	case CategoryDisease:
		return CategoryDisease
	case CategoryEnvironment, "ENV":
		return CategoryEnvironment
	}
	return ""
}

// Hint names a keyword family detected in free text or in the photo read.
type Hint string

const (
	HintPest            Hint = "PEST_HINT"
	HintVirus           Hint = "VIRUS_HINT"
	HintFungal          Hint = "FUNGAL_HINT"
	HintWater           Hint = "WATER_HINT"
	HintNutrientExcess  Hint = "NUTRIENT_EXCESS_HINT"
	HintNutrientDeficit Hint = "NUTRIENT_DEFICIT_HINT"
	HintSpread          Hint = "SPREAD_HINT"
	HintEnvironment     Hint = "ENV_HINT"
)

// ProbeHints are the hints that can trigger a slot-0 precision probe,
// highest priority first.
var ProbeHints = []Hint{
	HintPest,
	HintVirus,
	HintFungal,
	HintWater,
	HintNutrientExcess,
	HintNutrientDeficit,
}

// AllHints lists every hint a keyword family may name.
var AllHints = append(append([]Hint{}, ProbeHints...), HintSpread, HintEnvironment)

// Valid reports whether h is a known hint.
func (h Hint) Valid() bool {
	for _, v := range AllHints {
		if h == v {
			return true
		}
	}
	return false
}

// IsProbe reports whether h can trigger a slot-0 probe.
func (h Hint) IsProbe() bool {
	for _, v := range ProbeHints {
		if h == v {
			return true
		}
	}
	return false
}
