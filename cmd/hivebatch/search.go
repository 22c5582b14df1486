package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hivebatch/internal/runner"
)

var query runner.Query

func init() {
	rootCmd.AddCommand(newSearchCmd())
}

func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search hives by name, data, slack, size or base64 content",
		Long: `The search command looks for a term in key names (--sk), value names
(--sv), value data (--sd) or value slack (--ss). Term searches ignore case and
may be combined. --minsize and --base64 replace the term searches.

Value data searches also look at the raw bytes of non-text values as ASCII and
UTF-16 text unless --literal is given. With --regex terms are regular
expressions.

Example:
  hivebatch search -f NTUSER.DAT --sd http
  hivebatch search -d C:\Triage --sk "^run$" --regex
  hivebatch search -f SOFTWARE --minsize 100000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd)
		},
	}
	f := cmd.Flags()
	f.StringVar(&query.KeyName, "sk", "", "Search for term in key names")
	f.StringVar(&query.ValueName, "sv", "", "Search for term in value names")
	f.StringVar(&query.ValueData, "sd", "", "Search for term in value data")
	f.StringVar(&query.ValueSlack, "ss", "", "Search for term in value slack")
	f.IntVar(&query.MinSize, "minsize", 0, "Find values with data size >= this many bytes")
	f.IntVar(&query.Base64, "base64", 0, "Find base64 encoded values decoding to >= this many bytes")
	f.BoolVar(&query.Mode.Regex, "regex", false, "Treat search terms as regular expressions")
	f.BoolVar(&query.Mode.Literal, "literal", false, "Match value data and slack without converting the term to bytes")
	f.BoolVar(&query.SuppressData, "nd", false, "Do not show value data or slack for data and slack hits")
	return cmd
}

func runSearch(cmd *cobra.Command) error {
	if query.Empty() {
		return errors.New("nothing to search for; use --sk, --sv, --sd, --ss, --minsize or --base64")
	}
	if query.Mode.Regex && query.Mode.Literal {
		return errors.New("--regex and --literal are mutually exclusive")
	}

	s, err := newSession(cmd, false)
	if err != nil {
		return err
	}
	defer s.close()

	hives, err := s.run.Hives()
	if err != nil {
		return err
	}
	s.run.Search(query, hives)
	return nil
}
