package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"photodoctor/internal/model"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate a knowledge bundle",
	Long: `Load the embedded knowledge bundle, overlay --knowledge if given, and
validate it. Exits non-zero when any file is malformed or inconsistent.

Example:
  pdctl check --knowledge ./deploy/knowledge`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	kb, err := loadBundle()
	if err != nil {
		return fmt.Errorf("knowledge bundle: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "questions: %d\n", len(kb.Questions))
	for _, c := range model.Categories {
		pool := kb.PoolFor(c)
		fmt.Fprintf(out, "  %-12s pool %-12s %d\n", c, pool, len(kb.PoolQuestions(pool)))
	}
	fmt.Fprintf(out, "keyword families: %d\n", len(kb.Keywords))
	paid := 0
	for _, p := range kb.Catalog {
		if p.IsPaid() {
			paid++
		}
	}
	fmt.Fprintf(out, "catalog: %d products (%d paid)\n", len(kb.Catalog), paid)
	fmt.Fprintf(out, "policy: max %d questions, extended minimum %d\n", kb.Policy.MaxQuestions, kb.Policy.ExtendedMinQuestions)
	fmt.Fprintln(out, "ok")
	return nil
}
