// Command dompet-report prints a user's dashboard or writes an export or
// monthly statement without starting the HTTP server.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"dompet/internal/cli"
	"dompet/internal/core"
	dlog "dompet/internal/log"
	"dompet/internal/report"
	"dompet/internal/services"
	"dompet/internal/tabular"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup always runs.
func run(args []string) int {
	fs := flag.NewFlagSet("dompet-report", flag.ContinueOnError)
	var (
		user   = fs.String("user", "", "owner to report on (default DEFAULT_USER)")
		format = fs.String("format", "text", "output: text, csv, xlsx or pdf")
		kind   = fs.String("kind", string(tabular.KindTransactions), "export collection for csv/xlsx")
		out    = fs.String("out", "", "output file (default stdout)")
		year   = fs.Int("year", 0, "statement year for pdf (default current)")
		month  = fs.Int("month", 0, "statement month for pdf (default current)")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(cli.SetupLogger("warn", dlog.ComponentReport))
	logger := cli.SetupLogger(cfg.LogLevel, dlog.ComponentReport)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// The report never publishes, so the queue is not opened here.
	cfg.AMQPURL = ""
	be := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	}()

	svc := services.NewLedgerService(be.Store,
		services.WithLocation(cfg.Location()),
		services.WithLogger(logger))
	sess := services.NewSession(*user, cfg.DefaultUser)

	w, closeOut, err := openOutput(*out)
	if err != nil {
		logger.Error("Cannot open output", "error", err, "path", *out)
		return 1
	}

	if err := render(ctx, svc, sess, *format, *kind, monthFlag(svc.CurrentMonth(), *year, *month), w); err != nil {
		logger.Error("Report failed", "error", err, "format", *format, "user", sess.User)
		_ = closeOut()
		return 1
	}
	if err := closeOut(); err != nil {
		logger.Error("Cannot write output", "error", err)
		return 1
	}
	return 0
}

func render(ctx context.Context, svc *services.LedgerService, sess services.Session, format, kind string, month core.MonthKey, w io.Writer) error {
	switch format {
	case "text":
		d, err := svc.Dashboard(ctx, sess)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, report.RenderDashboard(d))
		return err
	case "pdf":
		return svc.StatementPDF(ctx, sess, month, w)
	}

	f, err := tabular.ParseFormat(format)
	if err != nil {
		return err
	}
	k, err := tabular.ParseKind(kind)
	if err != nil {
		return err
	}
	return svc.Export(ctx, sess, k, f, w)
}

func monthFlag(current core.MonthKey, year, month int) core.MonthKey {
	m := current
	if year > 0 {
		m.Year = year
	}
	if month >= 1 && month <= 12 {
		m.Month = time.Month(month)
	}
	return m
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" {
		bw := bufio.NewWriter(os.Stdout)
		return bw, bw.Flush, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	bw := bufio.NewWriter(f)
	return bw, func() error {
		if err := bw.Flush(); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}, nil
}
