package engine

import (
	"strings"

	"photodoctor/internal/knowledge"
	"photodoctor/internal/model"
)

type cropSign struct {
	name  string
	terms []string
}

type cropRule struct {
	rule  *knowledge.CropRule
	crop  string
	signs []cropSign
	block []string
}

func compileCropRule(r *knowledge.CropRule) cropRule {
	c := cropRule{
		rule:  r,
		crop:  normalize(r.Crop),
		block: normalizeAll(r.Block),
	}
	for _, sign := range r.Signs {
		c.signs = append(c.signs, cropSign{name: sign.Name, terms: normalizeAll(sign.Terms)})
	}
	return c
}

// checkCrop runs the first crop rule for crop that finds anything in the
// normalised corpus. Nothing found means no alert.
func (e *Engine) checkCrop(crop string, corpus []string) *model.CropAlert {
	crop = normalize(crop)
	if crop == "" {
		return nil
	}
	for _, r := range e.cropRules {
		if !strings.Contains(crop, r.crop) {
			continue
		}
		if alert := r.check(corpus); alert != nil {
			return alert
		}
	}
	return nil
}

func (r cropRule) check(corpus []string) *model.CropAlert {
	alert := &model.CropAlert{Crop: r.rule.Crop, Disease: r.rule.Disease}

	if len(r.block) > 0 {
		found := mentions(corpus, r.block)
		if len(found) == 0 {
			return nil
		}
		alert.Level = model.RiskHigh
		alert.Blocked = true
		alert.Reasons = found
		alert.Message = r.rule.Messages[model.RiskHigh]
		return alert
	}

	for _, sign := range r.signs {
		if len(mentions(corpus, sign.terms)) > 0 {
			alert.Reasons = append(alert.Reasons, sign.name)
		}
	}
	switch n := len(alert.Reasons); {
	case n == 0:
		return nil
	case n >= r.rule.HighSigns:
		alert.Level = model.RiskHigh
	case n >= r.rule.MidSigns:
		alert.Level = model.RiskMid
	default:
		alert.Level = model.RiskLow
	}
	alert.Message = r.rule.Messages[alert.Level]
	return alert
}
