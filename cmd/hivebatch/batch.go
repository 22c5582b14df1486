package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hivebatch/internal/rules"
)

var batchName string

func init() {
	rootCmd.AddCommand(newBatchCmd())
}

func newBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Apply a batch document to hives and write the results to CSV",
		Long: `The batch command loads a batch document, validates it, and applies
every rule whose hive type matches to each hive. Matched values are written to
a CSV file in the --csv directory. Keys handled by a plugin produce plugin rows
and a per-plugin detail CSV next to the main file.

A batch document with any validation error is reported in full and no hive
is processed.

Example:
  hivebatch batch --bn Kroll_Batch.reb -d C:\Triage --csv out
  hivebatch batch --bn Kroll_Batch.reb -f NTUSER.DAT --csv out --csvf ntuser.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd)
		},
	}
	cmd.Flags().StringVar(&batchName, "bn", "", "Batch document to process")
	_ = cmd.MarkFlagRequired("bn")
	return cmd
}

func runBatch(cmd *cobra.Command) error {
	rs, err := loadRules(batchName)
	if err != nil {
		return err
	}

	s, err := newSession(cmd, true)
	if err != nil {
		return err
	}
	defer s.close()

	s.log.Info("batch document loaded", "path", batchName, "description", rs.Description,
		"author", rs.Author, "version", rs.Version, "rules", len(rs.Keys))

	hives, err := s.run.Hives()
	if err != nil {
		return err
	}
	sum, err := s.run.Batch(rs, batchName, hives)
	if err != nil {
		return err
	}
	if sum.OutputFile != "" {
		printInfo("\nSaved %d row(s) to %s\n", sum.Rows, sum.OutputFile)
	}
	return nil
}

// loadRules validates the document at path and prints every problem found.
func loadRules(path string) (*rules.RuleSet, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("batch document: %w", err)
	}
	rs, rep := rules.LoadFile(path)
	if !rep.OK() {
		for _, line := range rep.Lines() {
			fmt.Fprintln(os.Stderr, line)
		}
		return nil, errors.Join(rep.Err(), errors.New("batch document is not valid; exiting"))
	}
	return rs, nil
}
