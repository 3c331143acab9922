// Package cmd wires the cobra CLI surface onto internal/config and
// internal/pipeline, the same Command(cl) factory shape the teacher
// CLI uses for every subcommand, adapted to not require a live broker
// connection until a run actually starts.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgPath      string
	noCfgFile    bool
	cfgOverrides []string
)

// Root builds the root "collider-ingest" command and attaches every
// subcommand.
func Root() *cobra.Command {
	root := &cobra.Command{
		Use:   "collider-ingest",
		Short: "Ingest line-delimited collision event records into a relational store",
	}

	root.PersistentFlags().StringVar(&cfgPath, "config-path", "", "path to TOML config file (lowest priority)")
	root.PersistentFlags().BoolVarP(&noCfgFile, "no-config", "Z", false, "do not load any config file")
	root.PersistentFlags().StringArrayVarP(&cfgOverrides, "config-opt", "X", nil, "flag-provided config option key=value (highest priority), repeatable")

	root.AddCommand(ingestCmd())
	root.AddCommand(configCmd())
	root.AddCommand(versionCmd())
	return root
}
