package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"photodoctor/internal/knowledge"
	"photodoctor/internal/model"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	kb, err := knowledge.Load("")
	require.NoError(t, err)
	return New(kb, DefaultOptions())
}

// neutralRead is a first read whose text matches no keyword family
func neutralRead(c model.Category) model.HistoryItem {
	return model.FirstReadTurn(&model.VisionRead{
		SessionID:       "s-1",
		CropGuess:       model.CropGuess{Name: "고추", Confidence: 80},
		PrimaryCategory: c,
		Observations:    []string{"잎 일부에 변색이 보임"},
		DoctorNote:      "사진만으로는 단정하기 어렵습니다.",
	})
}

func readWith(c model.Category, observations ...string) model.HistoryItem {
	h := neutralRead(c)
	h.Read.Observations = observations
	return h
}

func farmer(qid string, answer ...string) model.HistoryItem {
	return model.FarmerTurn(qid, model.Answer(answer))
}

// scriptedSession plays a whole session, answering each question with pick,
// and returns the ids in the order they were asked plus the final response.
func scriptedSession(t *testing.T, e *Engine, first model.HistoryItem, pick func(q model.QuestionView) string) ([]string, *model.FinalResponse) {
	t.Helper()
	history := []model.HistoryItem{first}
	var asked []string
	for i := 0; i < 20; i++ {
		resp, err := e.Step(history)
		require.NoError(t, err)
		switch r := resp.(type) {
		case *model.FinalResponse:
			return asked, r
		case *model.QuestionResponse:
			asked = append(asked, r.Question.ID)
			history = append(r.History, farmer(r.Question.ID, pick(r.Question)))
		default:
			t.Fatalf("unexpected response %T", resp)
		}
	}
	t.Fatal("session did not finalize")
	return nil, nil
}
