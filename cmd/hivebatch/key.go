package main

import (
	"github.com/spf13/cobra"

	"github.com/joshuapare/hivebatch/internal/runner"
	"github.com/joshuapare/hivebatch/pkg/hive"
)

var keyReq runner.KeyRequest

func init() {
	rootCmd.AddCommand(newKeyCmd())
}

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Show a key or one of its values",
		Long: `The key command prints a key's last write time, subkeys and values,
including deleted ones and value slack. With --vn only that value is shown and
--saveto writes its raw bytes to a file. With --json the key and everything
below it is exported to <dir>/<key name>.json.

Example:
  hivebatch key -f NTUSER.DAT --kn "Software\Microsoft\Windows\CurrentVersion\Run"
  hivebatch key -f SAM --kn "SAM\Domains\Account\Users\000001F4" --vn F --saveto f.bin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKey(cmd)
		},
	}
	f := cmd.Flags()
	f.StringVar(&keyReq.KeyName, "kn", "", "Key to show, relative to the root key")
	f.StringVar(&keyReq.ValueName, "vn", "", "Value to show")
	f.StringVar(&keyReq.SaveTo, "saveto", "", "Save the raw bytes of --vn to this file")
	f.StringVar(&keyReq.JSONDir, "json", "", "Export the key subtree as JSON into this directory")
	_ = cmd.MarkFlagRequired("kn")
	return cmd
}

func runKey(cmd *cobra.Command) error {
	s, err := newSession(cmd, false)
	if err != nil {
		return err
	}
	defer s.close()

	hives, err := s.run.Hives()
	if err != nil {
		return err
	}
	s.run.Each(hives, func(h *hive.Hive) error {
		return s.run.DumpKey(h, keyReq)
	})
	return nil
}
