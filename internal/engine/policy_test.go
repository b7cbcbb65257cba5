package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photodoctor/internal/knowledge"
	"photodoctor/internal/model"
)

func TestNeverConfirmDisease(t *testing.T) {
	e := newTestEngine(t)

	final := e.Finalize([]model.HistoryItem{
		neutralRead(model.CategoryDisease),
		farmer("D1_LESION", "반점, 물러짐, 썩음처럼 번진다"),
		farmer("Q_OPINION", "바이러스 같아요. 잎이 오그라들어요"),
	})

	require.NotEmpty(t, final.PossibleCauses)
	lead := final.PossibleCauses[0]
	assert.Equal(t, model.CategoryDisease, lead.Category)
	assert.Equal(t, "확진 불가 병해 가능성", lead.Name)
	assert.Equal(t, 60, lead.Probability)
	assert.Equal(t, model.RiskHigh, final.RiskLevel)
	assert.True(t, final.Need119)
	assert.Empty(t, final.Recommendations)
}

func TestNeverConfirmFromPhotoRead(t *testing.T) {
	e := newTestEngine(t)

	final := e.Finalize([]model.HistoryItem{
		readWith(model.CategoryPest, "세균성 무름 의심"),
		farmer("D3_INSECT_TRACE", "예"),
	})
	assert.Equal(t, model.RiskHigh, final.RiskLevel)
	assert.Empty(t, final.Recommendations, "no products next to a never-confirm mention")
}

func TestPesticidesAreNeverRecommended(t *testing.T) {
	kb, err := knowledge.Load("")
	require.NoError(t, err)
	kb, err = kb.WithCatalog([]model.Product{
		{Name: "살충제", Tier: model.TierFree, MaterialType: model.MaterialPesticide, Signals: []model.Signal{model.SignalPestVector}},
		{Name: "유기농 살충보조", Tier: model.TierPaid, MaterialType: model.MaterialOrganic, Signals: []model.Signal{model.SignalPestVector}},
		{Name: "친환경 기피제", Tier: model.TierFree, MaterialType: model.MaterialEco, Signals: []model.Signal{model.SignalPestVector}},
	})
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.MaxPaidRatio = 1
	e := New(kb, opts)

	final := e.Finalize([]model.HistoryItem{neutralRead(model.CategoryPest), farmer("D3_INSECT_TRACE", "예")})
	assert.Equal(t, model.RiskMid, final.RiskLevel)
	var got []string
	for _, r := range final.Recommendations {
		got = append(got, r.Name)
	}
	assert.Equal(t, []string{"유기농 살충보조", "친환경 기피제"}, got)
}

func TestScenarioAFinalize(t *testing.T) {
	e := newTestEngine(t)

	final := e.Finalize([]model.HistoryItem{neutralRead(model.CategoryDisease), farmer("D3_INSECT_TRACE", "예")})

	require.Len(t, final.PossibleCauses, 1)
	assert.Equal(t, model.CategoryPest, final.PossibleCauses[0].Category)
	assert.Equal(t, model.CategoryPest, final.PrimaryCategory)
	for _, c := range final.PossibleCauses {
		if c.Category == model.CategoryEnvironment {
			assert.LessOrEqual(t, c.Probability, 45)
		}
	}
	assert.Equal(t, "고추", final.CropGuess.Name)
	assert.NotEmpty(t, final.FollowupMessage)
}

func TestScenarioBDiseaseLeads(t *testing.T) {
	e := newTestEngine(t)

	final := e.Finalize([]model.HistoryItem{
		neutralRead(model.CategoryEnvironment),
		farmer("Q_OPINION", "잎에 곰팡이 같은 반점이 번져요"),
	})
	assert.Equal(t, model.CategoryDisease, final.PrimaryCategory)
	assert.Contains(t, final.DoNot, "병원균이 특정되지 않은 상태에서 살균제를 혼용하지 마세요.")
	assert.Equal(t, "병해는 하루아침에 끝나지 않습니다.", final.FollowupMessage[:len("병해는 하루아침에 끝나지 않습니다.")])
}

func TestRiskLevels(t *testing.T) {
	e := newTestEngine(t)

	low := e.Finalize([]model.HistoryItem{neutralRead(model.CategoryEnvironment), farmer("E3_SOIL_MOISTURE", "바싹 말라 있다")})
	assert.Equal(t, model.RiskLow, low.RiskLevel)
	assert.Equal(t, model.CategoryEnvironment, low.PrimaryCategory)

	mid := e.Finalize([]model.HistoryItem{neutralRead(model.CategoryEnvironment), farmer("D1_LESION", "반점, 물러짐, 썩음처럼 번진다")})
	assert.Equal(t, model.RiskMid, mid.RiskLevel)

	high := e.Finalize([]model.HistoryItem{readWith(model.CategoryEnvironment, "뿌리 부분이 갈색"), farmer("E3_SOIL_MOISTURE", "바싹 말라 있다")})
	assert.Equal(t, model.RiskHigh, high.RiskLevel)
}
