// Command ratings-table rates every conductor of a catalog under every
// condition of a condition set and writes the table as CSV, XLSX or PDF.
//
//	ratings-table -catalog catalog_data.csv -conditions conditions.csv -out outfile.csv,outfile.pdf
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Agrid-Dev/linerating/internal/batch"
	"github.com/Agrid-Dev/linerating/internal/catalog"
	"github.com/Agrid-Dev/linerating/internal/observability"
	"github.com/Agrid-Dev/linerating/internal/publish"
	"github.com/Agrid-Dev/linerating/internal/report"
)

type options struct {
	catalog     string
	conditions  string
	outputs     []string
	concurrency int
	failFast    bool
	brokers     []string
	topic       string
	metricsFile string
	logLevel    string
	logFormat   string
}

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := observability.NewLogger(opts.logLevel, opts.logFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("ratings table failed", "error", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var (
		o       options
		outputs string
		brokers string
	)
	fs := flag.NewFlagSet("ratings-table", flag.ContinueOnError)
	fs.StringVar(&o.catalog, "catalog", envOr("LINERATING_CATALOG", "conductor_data/catalog_data.csv"), "conductor catalog (.csv/.xlsx)")
	fs.StringVar(&o.conditions, "conditions", envOr("LINERATING_CONDITIONS", "conditions.csv"), "condition set (.csv/.yaml)")
	fs.StringVar(&outputs, "out", envOr("LINERATING_OUT", "outfile.csv"), "comma-separated output files (.csv/.xlsx/.pdf)")
	fs.IntVar(&o.concurrency, "concurrency", 0, "parallel conductors (0 = GOMAXPROCS)")
	fs.BoolVar(&o.failFast, "fail-fast", false, "abort on the first rejected catalog row or failed cell")
	fs.StringVar(&brokers, "kafka-brokers", os.Getenv("LINERATING_KAFKA_BROKERS"), "comma-separated Kafka brokers; empty disables publishing")
	fs.StringVar(&o.topic, "kafka-topic", envOr("LINERATING_KAFKA_TOPIC", "conductor-ratings"), "Kafka topic for ratings rows")
	fs.StringVar(&o.metricsFile, "metrics-textfile", os.Getenv("LINERATING_METRICS_TEXTFILE"), "write batch metrics in Prometheus text format to this file")
	fs.StringVar(&o.logLevel, "log-level", envOr("LINERATING_LOG_LEVEL", "info"), "debug|info|warn|error")
	fs.StringVar(&o.logFormat, "log-format", envOr("LINERATING_LOG_FORMAT", "text"), "text|json")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	o.outputs = splitList(outputs)
	o.brokers = splitList(brokers)
	if len(o.outputs) == 0 && len(o.brokers) == 0 {
		return options{}, errors.New("nothing to do: no -out files and no -kafka-brokers")
	}
	for _, p := range o.outputs {
		if _, err := report.ParseFormat(filepath.Ext(p)); err != nil {
			return options{}, err
		}
	}
	return o, nil
}

func run(ctx context.Context, o options, logger *slog.Logger) error {
	cat, err := catalog.OpenCatalog(o.catalog)
	if err != nil {
		return err
	}
	for _, re := range cat.Rejected {
		logger.Warn("catalog row rejected", "row", re.Row, "codename", re.Codename, "error", re.Err)
	}
	if o.failFast && len(cat.Rejected) > 0 {
		return fmt.Errorf("%d catalog rows rejected: %w", len(cat.Rejected), &cat.Rejected[0])
	}

	conds, err := catalog.OpenConditions(o.conditions)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	table, err := batch.Run(ctx, cat.Entries, conds, batch.Options{
		Concurrency: o.concurrency,
		FailFast:    o.failFast,
		Logger:      logger,
		Metrics:     observability.NewMetricsWith(reg),
	})
	if o.metricsFile != "" {
		// Written even when the run failed, so the failure counters survive.
		if werr := prometheus.WriteToTextfile(o.metricsFile, reg); werr != nil {
			err = errors.Join(err, fmt.Errorf("write metrics: %w", werr))
		} else {
			logger.Info("metrics written", "path", o.metricsFile)
		}
	}
	if err != nil {
		return err
	}

	for _, p := range o.outputs {
		if err := report.WriteFile(p, table); err != nil {
			return err
		}
		logger.Info("report written", "path", p)
	}

	if len(o.brokers) > 0 {
		pub := publish.NewPublisher(o.brokers, o.topic, logger)
		defer pub.Close()
		if err := pub.Publish(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
