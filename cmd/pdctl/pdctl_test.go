package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photodoctor/internal/model"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		replayAuto = false
		output = "json"
		knowledgeDir = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func firstReadHistory(t *testing.T) string {
	t.Helper()
	history := []model.HistoryItem{model.FirstReadTurn(&model.VisionRead{
		SessionID:       "s-1",
		CropGuess:       model.CropGuess{Name: "고추", Confidence: 80},
		PrimaryCategory: model.CategoryDisease,
		Observations:    []string{"잎 일부에 변색이 보임"},
		DoctorNote:      "사진만으로는 단정하기 어렵습니다.",
	})}
	data, err := json.Marshal(map[string]interface{}{"history": history})
	require.NoError(t, err)
	return string(data)
}

func TestCheck(t *testing.T) {
	out, err := run(t, "", "check", "--knowledge", "")
	require.NoError(t, err)
	assert.Contains(t, out, "catalog: 7 products")
	assert.True(t, strings.HasSuffix(out, "ok\n"))
}

func TestCheckRejectsBrokenOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.yaml"), []byte("version: 1\nproducts:\n  - name: x\n    tier: GOLD\n"), 0o644))

	_, err := run(t, "", "check", "--knowledge", dir)
	require.Error(t, err)
}

func TestReplayNextQuestion(t *testing.T) {
	out, err := run(t, firstReadHistory(t), "replay", "-")
	require.NoError(t, err)

	var resp model.QuestionResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, model.PhaseQuestion, resp.Phase)
	assert.Equal(t, "D1_LESION", resp.Question.ID)
}

func TestReplayAutoReachesFinal(t *testing.T) {
	out, err := run(t, firstReadHistory(t), "replay", "--auto", "-o", "yaml", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "phase: FINAL")
	assert.Contains(t, out, "possible_causes:")
}
