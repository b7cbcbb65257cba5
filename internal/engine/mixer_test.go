package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"photodoctor/internal/model"
)

var testCatalog = []model.Product{
	{Name: "paid-pest-1", Tier: model.TierPaid, MaterialType: model.MaterialOrganic, Signals: []model.Signal{model.SignalPestVector}},
	{Name: "free-pest-1", Tier: model.TierFree, MaterialType: model.MaterialEco, Signals: []model.Signal{model.SignalPestVector}},
	{Name: "free-fungus", Tier: model.TierFree, MaterialType: model.MaterialEco, Signals: []model.Signal{model.SignalPathogenSpecific}},
	{Name: "paid-pest-2", Tier: model.TierPaid, MaterialType: model.MaterialOrganic, Signals: []model.Signal{model.SignalPestVector, model.SignalContagious}},
	{Name: "free-pest-2", Tier: model.TierFree, MaterialType: model.MaterialOrganic, Signals: []model.Signal{model.SignalPestVector}},
	{Name: "free-pest-3", Tier: model.TierFree, MaterialType: model.MaterialEco, Signals: []model.Signal{model.SignalPestVector}},
}

func names(ps []model.Product) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.Name)
	}
	return out
}

func TestMixScenarioD(t *testing.T) {
	catalog := []model.Product{
		{Name: "싹쓰리충 골드", Tier: model.TierPaid, MaterialType: model.MaterialOrganic, Signals: []model.Signal{model.SignalPestVector}},
		{Name: "싹쓰리충", Tier: model.TierFree, MaterialType: model.MaterialEco, Signals: []model.Signal{model.SignalPestVector}},
		{Name: "멸규니", Tier: model.TierFree, MaterialType: model.MaterialEco, Signals: []model.Signal{model.SignalPathogenSpecific}},
	}

	got := Mix(catalog, NewSignalSet(model.SignalPestVector), MixOptions{MaxItems: 3, MaxPaidRatio: 0.33})

	// floor(3 * 0.33) = 0 paid slots
	assert.Equal(t, []string{"싹쓰리충"}, names(got))
}

func TestMix(t *testing.T) {
	tests := []struct {
		name   string
		active []model.Signal
		opts   MixOptions
		want   []string
	}{
		{
			name:   "paid first then free",
			active: []model.Signal{model.SignalPestVector},
			opts:   MixOptions{MaxItems: 4, MaxPaidRatio: 0.5},
			want:   []string{"paid-pest-1", "paid-pest-2", "free-pest-1", "free-pest-2"},
		},
		{
			name:   "paid limited by ratio",
			active: []model.Signal{model.SignalPestVector},
			opts:   MixOptions{MaxItems: 3, MaxPaidRatio: 0.34},
			want:   []string{"paid-pest-1", "free-pest-1", "free-pest-2"},
		},
		{
			name:   "no match means nothing",
			active: []model.Signal{model.SignalWaterStress},
			opts:   MixOptions{MaxItems: 3, MaxPaidRatio: 0.33},
			want:   nil,
		},
		{
			name: "empty active set",
			opts: MixOptions{MaxItems: 3, MaxPaidRatio: 0.33},
			want: nil,
		},
		{
			name:   "zero slots",
			active: []model.Signal{model.SignalPestVector},
			opts:   MixOptions{MaxItems: 0, MaxPaidRatio: 1},
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mix(testCatalog, NewSignalSet(tt.active...), tt.opts)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestMixBounds(t *testing.T) {
	actives := [][]model.Signal{
		{model.SignalPestVector},
		{model.SignalPathogenSpecific},
		{model.SignalPestVector, model.SignalPathogenSpecific, model.SignalContagious},
	}
	for maxItems := 0; maxItems <= 6; maxItems++ {
		for _, ratio := range []float64{0, 0.2, 0.33, 0.5, 1} {
			for _, a := range actives {
				active := NewSignalSet(a...)
				got := Mix(testCatalog, active, MixOptions{MaxItems: maxItems, MaxPaidRatio: ratio})

				assert.LessOrEqual(t, len(got), maxItems)
				paid := 0
				for _, p := range got {
					assert.True(t, p.Matches(active), "%s does not match", p.Name)
					if p.IsPaid() {
						paid++
					}
				}
				assert.LessOrEqual(t, paid, int(math.Floor(float64(maxItems)*ratio)))
			}
		}
	}
}
