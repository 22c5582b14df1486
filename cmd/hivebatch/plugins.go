package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshuapare/hivebatch/internal/logger"
	"github.com/joshuapare/hivebatch/internal/plugin"
)

var pluginsJSON bool

func init() {
	rootCmd.AddCommand(newPluginsCmd())
}

func newPluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "List the registered and loadable plugins",
		Example: `  hivebatch plugins --plugins ./Plugins
  hivebatch plugins --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlugins(cmd)
		},
	}
	cmd.Flags().BoolVar(&pluginsJSON, "json", false, "Output in JSON format")
	return cmd
}

func runPlugins(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closer, err := logger.New(logger.Options{Level: logger.LevelFor(cfg.Debug, cfg.Trace), LogDir: cfg.LogDir})
	if err != nil {
		return err
	}
	defer closer.Close()

	reg := plugin.NewRegistry(log)
	if fi, err := os.Stat(cfg.PluginDir); err == nil && fi.IsDir() {
		if _, err := reg.LoadDir(cfg.PluginDir); err != nil {
			return err
		}
	}

	descs := make([]plugin.Descriptor, 0, reg.Len())
	for _, p := range reg.Plugins() {
		descs = append(descs, plugin.Describe(p))
	}
	if pluginsJSON {
		return printJSON(os.Stdout, descs)
	}

	printInfo("%d plugin(s)\n", len(descs))
	for _, d := range descs {
		printInfo("\n%s (%s)\n", d.Name, d.ID)
		printInfo("  Key paths: %s\n", strings.Join(d.KeyPaths, ", "))
		if d.ValueName != "" {
			printInfo("  Value name: %s\n", d.ValueName)
		}
	}
	return nil
}
