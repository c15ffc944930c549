// Command mxprobe verifies the addresses in a spreadsheet column and
// prints a table, CSV or JSON report.
//
//	mxprobe -in leads.xlsx -column email -format csv -out verified.csv
//
// Settings come from MXPROBE_* environment variables (optionally loaded
// from a .env file); flags override them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/optimode/mxprobe"
	"github.com/optimode/mxprobe/check"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("mxprobe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		envFile    = fs.String("env", ".env", "dotenv file to load (ignored if missing)")
		in         = fs.String("in", "", "input file (.csv or .xlsx)")
		column     = fs.String("column", "email", "header of the address column")
		format     = fs.String("format", "table", "output format: table, csv or json")
		outPath    = fs.String("out", "", "write the report to this file instead of stdout")
		helo       = fs.String("helo", "", "HELO/EHLO domain (MXPROBE_HELO_DOMAIN)")
		from       = fs.String("from", "", "MAIL FROM address (MXPROBE_FROM_ADDRESS)")
		workers    = fs.Int("concurrency", 0, "worker count (MXPROBE_CONCURRENCY)")
		interval   = fs.Duration("interval", -1, "minimum time between probe starts (MXPROBE_MIN_INTERVAL)")
		maxBatch   = fs.Int("max-batch", -1, "refuse inputs larger than this, 0 = unlimited (MXPROBE_MAX_BATCH)")
		fallbackA  = fs.Bool("fallback-a", false, "probe the domain itself when it has no MX")
		apiURL     = fs.String("api-url", "", "verify through this HTTP service instead of SMTP (MXPROBE_API_URL)")
		metrics    = fs.String("metrics", "", "serve prometheus metrics on this address, e.g. :9090 (MXPROBE_METRICS_ADDR)")
		noProgress = fs.Bool("no-progress", false, "hide the progress bar")
		verbose    = fs.Bool("v", false, "debug logging")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *in == "" {
		_, _ = fmt.Fprintln(stderr, "mxprobe: -in is required")
		fs.Usage()
		return 2
	}

	env, err := loadEnv(*envFile)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "mxprobe: load %s: %v\n", *envFile, err)
		return 1
	}

	log := logrus.New()
	log.SetOutput(stderr)
	if lvl, err := logrus.ParseLevel(env.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg := env.Engine
	if *helo != "" {
		cfg.HeloDomain = *helo
	}
	if *from != "" {
		cfg.FromAddress = *from
	}
	if *workers > 0 {
		cfg.MaxConcurrency = *workers
	}
	if *interval >= 0 {
		cfg.MinProbeInterval = *interval
	}
	if *maxBatch >= 0 {
		cfg.MaxBatchSize = *maxBatch
	}
	if *fallbackA {
		cfg.FallbackToA = true
	}
	if *apiURL != "" {
		env.APIURL = *apiURL
	}
	if *metrics != "" {
		env.MetricsAddr = *metrics
	}

	opts := []mxprobe.Option{mxprobe.WithLogger(log)}
	if env.APIURL != "" {
		api, err := check.NewHTTPStrategy(check.HTTPConfig{
			Endpoint: env.APIURL,
			APIKey:   env.APIKey,
			Timeout:  cfg.DialogueTimeout,
		})
		if err != nil {
			log.WithError(err).Error("invalid API strategy")
			return 1
		}
		opts = append(opts, mxprobe.WithStrategy(api))
	}

	eng, err := mxprobe.New(cfg, opts...)
	if err != nil {
		log.WithError(err).Error("invalid configuration")
		return 1
	}

	addrs, err := readAddresses(*in, *column)
	if err != nil {
		log.WithError(err).WithField("file", *in).Error("cannot read input")
		return 1
	}
	total := len(addrs)
	addrs = dedupe(addrs)
	if dropped := total - len(addrs); dropped > 0 {
		log.WithField("duplicates", dropped).Info("duplicate addresses removed")
	}

	if env.MetricsAddr != "" {
		srv := &http.Server{Addr: env.MetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server failed")
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runOpts []mxprobe.RunOption
	if !*noProgress {
		bar := progressbar.NewOptions(len(addrs),
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription("verifying"),
			progressbar.OptionShowCount(),
		)
		runOpts = append(runOpts, mxprobe.WithProgress(func(mxprobe.Progress) { _ = bar.Add(1) }))
		defer func() { _, _ = fmt.Fprintln(stderr) }()
	}

	results, runErr := eng.Run(ctx, addrs, runOpts...)
	if errors.Is(runErr, mxprobe.ErrBatchTooLarge) {
		log.WithError(runErr).Error("batch refused")
		return 1
	}

	out := stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.WithError(err).Error("cannot create output file")
			return 1
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	if err := writeResults(out, *format, results); err != nil {
		log.WithError(err).Error("cannot write report")
		return 1
	}

	if runErr != nil {
		log.WithError(runErr).Warn("interrupted: unfinished addresses are reported as cancelled")
		return 130
	}
	return 0
}
