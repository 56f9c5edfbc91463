// Command report writes the date range performance report as CSV, reading
// issues straight from Postgres.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/streetburger/issuedesk/internal/config"
	"github.com/streetburger/issuedesk/internal/observability"
	"github.com/streetburger/issuedesk/internal/persistence"
	"github.com/streetburger/issuedesk/internal/reporting"
	"github.com/streetburger/issuedesk/internal/repository"
)

type options struct {
	start   string
	end     string
	out     string
	tz      string
	summary bool
}

func parseFlags(args []string, defaults config.ReportConfig) (options, error) {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	today := time.Now().Format(reporting.DayLayout)
	opts := options{}
	fs.StringVar(&opts.start, "start", today, "first day of the range (YYYY-MM-DD)")
	fs.StringVar(&opts.end, "end", today, "last day of the range (YYYY-MM-DD)")
	fs.StringVarP(&opts.out, "out", "o", "", "output file; empty writes the default filename, - writes stdout")
	fs.StringVar(&opts.tz, "tz", defaults.Timezone, "timezone used to bucket issues into days")
	fs.BoolVar(&opts.summary, "summary", false, "print totals to stderr")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	opts, err := parseFlags(os.Args[1:], cfg.Report)
	if err != nil {
		os.Exit(2)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(context.Background(), cfg, opts, logger); err != nil {
		logger.Error("report failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options, logger *zap.Logger) error {
	loc, err := config.ReportConfig{Timezone: opts.tz}.Location()
	if err != nil {
		return err
	}
	start, err := reporting.ParseDay(opts.start, loc)
	if err != nil {
		return err
	}
	end, err := reporting.ParseDay(opts.end, loc)
	if err != nil {
		return err
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	issues, err := repository.NewIssueRepository(pg.PoolHandle()).List(ctx)
	if err != nil {
		return err
	}
	report, err := reporting.BuildRangeReport(issues, start, end, loc)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	target := opts.out
	if target == "" {
		target = reporting.CSVFilename(report.Start, report.End)
	}
	if target != "-" {
		file, err := os.Create(target)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	if err := reporting.WriteCSV(w, report, loc); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}

	logger.Info("report written",
		zap.String("file", target),
		zap.String("start", report.Start),
		zap.String("end", report.End),
		zap.Int("issues", report.Total))
	if opts.summary {
		fmt.Fprintf(os.Stderr, "%s to %s: %d issues, %d resolved, %d open, %d%% resolution rate\n",
			report.Start, report.End, report.Total, report.Resolved, report.Open, report.ResolutionRate)
	}
	return nil
}
