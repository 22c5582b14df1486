package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newValidateCmd())
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "validate <batch document>",
		Short:   "Check a batch document without processing any hive",
		Example: `  hivebatch validate Kroll_Batch.reb`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rs, err := loadRules(args[0])
			if err != nil {
				return err
			}
			printInfo("%s: %d rule(s), document is valid\n", args[0], len(rs.Keys))
			return nil
		},
	}
}
