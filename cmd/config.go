package cmd

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/hepdata/collider-ingest/internal/cliutil"
	"github.com/hepdata/collider-ingest/internal/config"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "collider-ingest configuration commands",
	}
	cmd.AddCommand(configShowCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "dump the fully resolved configuration",
		Args:  cobra.ExactArgs(0),
		Run: func(_ *cobra.Command, _ []string) {
			cfg, err := config.Load(cfgPath, noCfgFile, cfgOverrides)
			cliutil.MaybeDie(err, "unable to load config: %v", err)
			if cfg.DatabaseDSN != "" {
				cfg.DatabaseDSN = "REDACTED"
			}

			switch format {
			case "toml":
				encErr := toml.NewEncoder(os.Stdout).Encode(cfg)
				cliutil.MaybeDie(encErr, "unable to encode config: %v", encErr)
			case "json":
				cliutil.DumpJSON(cfg)
			case "table":
				printConfigTable(cfg)
			default:
				cliutil.Die("unknown --format %q: want toml, json, or table", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "toml", "output format: toml, json, or table")
	return cmd
}

// printConfigTable prints the operationally relevant fields as a table via
// cliutil.NewTable; the DSN itself is never printed here, only the
// configured Secrets Manager secret ARN (empty when none is set).
func printConfigTable(cfg config.Config) {
	t := cliutil.NewTable("key", "value")
	t.PrintStrings("seed_brokers", strings.Join(cfg.SeedBrokers, ","))
	t.PrintStrings("producer_count", strconv.Itoa(cfg.ProducerCount))
	t.PrintStrings("consumer_count", strconv.Itoa(cfg.ConsumerCount))
	t.PrintStrings("buffer_capacity", strconv.Itoa(cfg.BufferCapacity))
	t.PrintStrings("batch_size", strconv.Itoa(cfg.BatchSize))
	t.PrintStrings("energy_threshold_gev", strconv.FormatFloat(cfg.EnergyThreshold, 'f', -1, 64))
	t.PrintStrings("offer_timeout_ms", strconv.Itoa(cfg.OfferTimeoutMillis))
	t.PrintStrings("take_timeout_ms", strconv.Itoa(cfg.TakeTimeoutMillis))
	t.PrintStrings("abort_grace_ms", strconv.Itoa(cfg.AbortGraceMillis))
	t.PrintStrings("database_dsn_secret_arn", cfg.DatabaseDSNSecret)
	t.PrintStrings("dead_letter_enabled", strconv.FormatBool(cfg.DeadLetterEnabled))
	t.PrintStrings("dead_letter_topic", cfg.DeadLetterTopic)
	t.PrintStrings("metrics_addr", cfg.MetricsAddr)
	t.PrintStrings("log_level", cfg.LogLevel)
	t.PrintStrings("report_format", cfg.ReportFormat)
	t.Flush()
}
