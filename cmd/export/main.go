// Command export downloads the feed once, prepares it exactly as the dashboard
// does, and writes the XLSX workbook for one trust: the summary table of all
// ventilating trusts plus the three smoothed charts.
//
// Usage:
//
//	go run ./cmd/export \
//	  -trust "Worcestershire Acute Hospitals NHS Trust" \
//	  -window 7 \
//	  -out worcestershire.xlsx
//
// Use -list to print the selectable trust names instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/nhs-trust-dashboard/internal/adapter/govuk"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/config"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/domain"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/observability"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/pipeline"
	"github.com/couchcryptid/nhs-trust-dashboard/internal/report"
)

func main() {
	trust := flag.String("trust", "", "NHS trust name as listed by -list")
	window := flag.Int("window", 1, "averaging window in days: 1, 3, 5 or 7")
	out := flag.String("out", "", "output path for the XLSX workbook")
	list := flag.Bool("list", false, "print qualifying trust names and exit")
	flag.Parse()

	if err := run(*trust, *window, *out, *list); err != nil {
		fmt.Fprintln(os.Stderr, "export:", err)
		os.Exit(1)
	}
}

func run(trust string, days int, out string, list bool) error {
	if !list && (trust == "" || out == "") {
		flag.Usage()
		return fmt.Errorf("missing required flags: -trust, -out")
	}

	win, err := domain.ParseWindow(days)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := observability.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	downloader := govuk.NewClient(cfg.FeedURL, cfg.FeedCachePath, cfg.FetchTimeout, logger)
	p := pipeline.New(downloader, nil, logger, observability.NewMetricsForTesting())

	table, err := p.Prepare(ctx)
	if err != nil {
		return err
	}

	if list {
		for _, name := range table.Trusts() {
			fmt.Println(name)
		}
		return nil
	}

	chart, err := table.Chart(trust, win)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := report.Write(f, table.Summary(), chart, table.FetchedAt()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	logger.Info("workbook written",
		"trust", chart.Trust,
		"window", win.String(),
		"points", len(chart.Dates),
		"latest_date", chart.LatestDate.Format(domain.DateLayout),
		"path", out,
	)
	return nil
}
