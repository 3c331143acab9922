package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hepdata/collider-ingest/internal/cliutil"
	"github.com/hepdata/collider-ingest/internal/config"
	"github.com/hepdata/collider-ingest/internal/parse"
	"github.com/hepdata/collider-ingest/internal/pipeline"
	"github.com/hepdata/collider-ingest/internal/reader"
	"github.com/hepdata/collider-ingest/internal/sink"
	"github.com/hepdata/collider-ingest/internal/telemetry"
)

func ingestCmd() *cobra.Command {
	var reportFormat string
	var migrate bool
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "ingest SOURCES...",
		Short: "Ingest one or more line-delimited collision event sources",
		Long: `Ingest reads each SOURCES argument as an independent input stream (a file
path, or "-" for stdin), parses CSV-shaped collision event lines, retains
records whose energy exceeds the configured threshold, and commits them in
batches to the configured relational store.

A leading header line matching the canonical column order is skipped if
present on each source; it is not required.

SIGINT and SIGTERM trigger a graceful abort: in-flight batches are still
flushed, but no further input is read.
`,
		Args: cobra.MinimumNArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			runIngest(args, reportFormat, migrate, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&reportFormat, "report-format", "", "override the terminal report format (see 'config show' for the default)")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the collision_events schema before ingesting")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides metrics_addr in config)")

	return cmd
}

func runIngest(sources []string, reportFormatOverride string, migrate bool, metricsAddrOverride string) {
	cfg, err := config.Load(cfgPath, noCfgFile, cfgOverrides)
	cliutil.MaybeDie(err, "unable to load config: %v", err)

	if metricsAddrOverride != "" {
		cfg.MetricsAddr = metricsAddrOverride
	}

	log, err := telemetry.NewZapLogger(cfg.LogLevel)
	cliutil.MaybeDie(err, "unable to build logger: %v", err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn, err := cfg.ResolveDSN(ctx)
	cliutil.MaybeDie(err, "unable to resolve database dsn: %v", err)

	tlsCfg, err := cfg.LoadTLSConfig()
	cliutil.MaybeDie(err, "unable to load tls config: %v", err)

	metrics := telemetry.Noop()
	if cfg.MetricsAddr != "" {
		reg := prometheusServerRegistry(cfg.MetricsAddr, log)
		metrics = telemetry.NewMetrics(reg)
	}

	var snk sink.Sink
	pg, err := sink.Open(ctx, dsn, tlsCfg, log, metrics)
	cliutil.MaybeDie(err, "unable to open sink: %v", err)
	snk = pg

	if migrate {
		migrateErr := pg.Migrate(ctx)
		cliutil.MaybeDie(migrateErr, "unable to apply schema: %v", migrateErr)
	}

	if cfg.DeadLetterEnabled {
		dl, err := sink.WrapWithDeadLetter(snk, cfg.SeedBrokers, cfg.DeadLetterTopic, log)
		cliutil.MaybeDie(err, "unable to build dead-letter sink: %v", err)
		snk = dl
	}
	defer snk.Close()

	inputs := make([]reader.Source, 0, len(sources))
	for _, s := range sources {
		path := s
		inputs = append(inputs, reader.Source{
			Name: path,
			Open: reader.OpenFile(path, os.Stdin),
		})
	}

	co, err := pipeline.New(cfg.PipelineConfig(), inputs, parse.New(), snk, log, metrics)
	cliutil.MaybeDie(err, "unable to construct pipeline: %v", err)

	report, runErr := co.Run(ctx)

	format := cfg.ReportFormat
	if reportFormatOverride != "" {
		format = reportFormatOverride
	}
	rendered, ferr := report.Format(format)
	cliutil.MaybeDie(ferr, "unable to render report: %v", ferr)
	fmt.Println(rendered)

	if runErr != nil {
		cliutil.Die("%v", runErr)
	}
}
