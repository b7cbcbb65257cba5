package knowledge

import (
	"errors"
	"fmt"

	"photodoctor/internal/model"
)

// Validate checks the bundle for internal consistency. All problems are
// reported together.
func (b *Bundle) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	seen := make(map[string]bool, len(b.Questions))
	probes := make(map[model.Hint]string)
	opinions := 0
	clarifies := 0
	for _, q := range b.Questions {
		if q.ID == "" {
			add("question with empty id in pool %q", q.Pool)
			continue
		}
		if seen[q.ID] {
			add("duplicate question id %s", q.ID)
		}
		seen[q.ID] = true

		switch q.Kind {
		case model.QuestionKindSingle, model.QuestionKindMulti:
			if len(q.Choices) == 0 {
				add("question %s: choice question without choices", q.ID)
			}
		case model.QuestionKindFreeText:
			if len(q.Choices) > 0 {
				add("question %s: free-text question with choices", q.ID)
			}
		default:
			add("question %s: unknown kind %q", q.ID, q.Kind)
		}

		for _, c := range q.Choices {
			for _, s := range c.Signals {
				if !s.Valid() {
					add("question %s choice %q: unknown signal %q", q.ID, c.Label, s)
				}
			}
		}

		switch q.Pool {
		case model.PoolSlot0:
			if !q.Probe.IsProbe() {
				add("question %s: slot0 probe has unknown hint %q", q.ID, q.Probe)
			} else if other, dup := probes[q.Probe]; dup {
				add("question %s: hint %s already probed by %s", q.ID, q.Probe, other)
			} else {
				probes[q.Probe] = q.ID
			}
		case model.PoolOpinion:
			opinions++
			if !q.IsFreeText() {
				add("question %s: opinion question must be free text", q.ID)
			}
		case model.PoolClarify:
			clarifies++
		case model.PoolDisease, model.PoolGrowth, model.PoolEnvironment:
		default:
			add("question %s: unknown pool %q", q.ID, q.Pool)
		}
		if q.Pool != model.PoolSlot0 && q.Probe != "" {
			add("question %s: probe hint outside slot0", q.ID)
		}
	}
	if opinions != 1 {
		add("want exactly one opinion question, have %d", opinions)
	}
	if clarifies != 1 {
		add("want exactly one clarify question, have %d", clarifies)
	}

	for _, c := range model.Categories {
		pool, ok := b.Pools[c]
		if !ok {
			add("no pool for category %s", c)
			continue
		}
		if len(b.byPool[pool]) == 0 {
			add("category %s: pool %q has no questions", c, pool)
		}
	}
	for _, pool := range b.FallbackOrder {
		if len(b.byPool[pool]) == 0 {
			add("fallback pool %q has no questions", pool)
		}
	}

	for _, f := range b.Keywords {
		if !f.Hint.Valid() {
			add("keyword family: unknown hint %q", f.Hint)
		}
		if len(f.Terms) == 0 {
			add("keyword family %s: no terms", f.Hint)
		}
		for _, s := range f.Signals {
			if !s.Valid() {
				add("keyword family %s: unknown signal %q", f.Hint, s)
			}
		}
	}

	if err := validateCatalog(b.Catalog); err != nil {
		errs = append(errs, err)
	}

	p := b.Policy
	if p.NeverConfirmMaxProbability <= 0 || p.NeverConfirmMaxProbability > 100 {
		add("policy: never_confirm_max_probability out of range: %d", p.NeverConfirmMaxProbability)
	}
	if p.ExtendedMinQuestions <= 0 {
		add("policy: extended_min_questions must be positive")
	}
	if p.MaxQuestions < p.ExtendedMinQuestions {
		add("policy: max_questions %d below extended minimum %d", p.MaxQuestions, p.ExtendedMinQuestions)
	}
	if p.Need119Probability <= 0 || p.Need119Probability > 100 {
		add("policy: need_119_probability out of range: %d", p.Need119Probability)
	}

	for i, r := range p.CropRules {
		validateCropRule(i, r, add)
	}

	g := b.Guidance
	if g.FollowupMessage == "" {
		add("guidance: empty followup message")
	}
	for _, c := range model.Categories {
		cg, ok := g.Categories[c]
		if !ok {
			add("guidance: missing category %s", c)
			continue
		}
		if cg.Name == "" {
			add("guidance %s: empty name", c)
		}
		hasDefault := false
		for _, r := range cg.Why {
			if r.When == "" {
				hasDefault = true
			} else if !r.When.Valid() {
				add("guidance %s: unknown signal %q", c, r.When)
			}
		}
		if !hasDefault {
			add("guidance %s: no default justification", c)
		}
	}
	if g.Generic.Name == "" || g.Unconfirmable.Name == "" {
		add("guidance: generic and unconfirmable labels are required")
	}
	if g.ProductReasons["default"] == "" {
		add("guidance: missing default product reason")
	}

	for _, name := range promptNames {
		if b.prompts[name] == nil {
			add("missing prompt %s", name)
		}
	}

	return errors.Join(errs...)
}

func validateCatalog(products []model.Product) error {
	var errs []error
	for i, p := range products {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("product %d: empty name", i))
		}
		if p.Tier != model.TierFree && p.Tier != model.TierPaid {
			errs = append(errs, fmt.Errorf("product %s: tier must be FREE or PAID, got %q", p.Name, p.Tier))
		}
		switch p.MaterialType {
		case model.MaterialEco, model.MaterialOrganic, model.MaterialPesticide:
		default:
			errs = append(errs, fmt.Errorf("product %s: unknown material type %q", p.Name, p.MaterialType))
		}
		for _, s := range p.Signals {
			if !s.Valid() {
				errs = append(errs, fmt.Errorf("product %s: unknown signal %q", p.Name, s))
			}
		}
	}
	return errors.Join(errs...)
}

func validateCropRule(i int, r CropRule, add func(string, ...any)) {
	if r.Crop == "" {
		add("crop rule %d: empty crop", i)
		return
	}
	switch {
	case len(r.Signs) > 0 && len(r.Block) > 0:
		add("crop rule %s: signs and block are exclusive", r.Crop)
	case len(r.Block) > 0:
		if r.Messages[model.RiskHigh] == "" {
			add("crop rule %s: block rule needs a HIGH message", r.Crop)
		}
	case len(r.Signs) > 0:
		if r.MidSigns <= 0 || r.MidSigns > r.HighSigns || r.HighSigns > len(r.Signs) {
			add("crop rule %s: want 0 < mid_signs <= high_signs <= %d", r.Crop, len(r.Signs))
		}
		for _, level := range []model.RiskLevel{model.RiskLow, model.RiskMid, model.RiskHigh} {
			if r.Messages[level] == "" {
				add("crop rule %s: missing %s message", r.Crop, level)
			}
		}
		for _, sign := range r.Signs {
			if sign.Name == "" || len(sign.Terms) == 0 {
				add("crop rule %s: sign needs a name and terms", r.Crop)
			}
		}
	default:
		add("crop rule %s: no signs or block terms", r.Crop)
	}
}
