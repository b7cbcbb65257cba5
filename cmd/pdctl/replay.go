package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"photodoctor/internal/engine"
	"photodoctor/internal/model"
)

var (
	replayAuto   bool
	replayAnswer string
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Run the engine over a saved session history",
	Long: `Replay a session offline. FILE holds either a history array or a
response/request object with a "history" field, as returned by
POST /v1/diagnose. Use "-" to read stdin.

With --auto the session is played to the end, answering every question
with its first choice (or --answer for free-text questions).

Example:
  pdctl replay session.json
  pdctl replay --auto -o yaml session.json`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&replayAuto, "auto", false, "Answer every question until the FINAL result")
	replayCmd.Flags().StringVar(&replayAnswer, "answer", "잘 모르겠어요", "Free-text answer used by --auto")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	history, err := readHistory(r)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	kb, err := loadBundle()
	if err != nil {
		return fmt.Errorf("knowledge bundle: %w", err)
	}
	eng := engine.New(kb, engine.DefaultOptions())

	resp, err := eng.Step(history)
	if err != nil {
		return err
	}
	for replayAuto {
		q, ok := resp.(*model.QuestionResponse)
		if !ok {
			break
		}
		answer := replayAnswer
		if len(q.Question.Choices) > 0 {
			answer = q.Question.Choices[0]
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s -> %s\n", q.Question.ID, q.Question.Text, answer)
		if resp, err = eng.Step(append(q.History, model.FarmerTurn(q.Question.ID, model.Answer{answer}))); err != nil {
			return err
		}
	}
	return render(cmd.OutOrStdout(), resp)
}

func readHistory(r io.Reader) ([]model.HistoryItem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var history []model.HistoryItem
		err := json.Unmarshal(data, &history)
		return history, err
	}
	var wrapped struct {
		History []model.HistoryItem `json:"history"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.History, nil
}

func render(w io.Writer, v interface{}) error {
	if output == "yaml" {
		// round-trip through JSON so the YAML keys match the API
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic interface{}
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
