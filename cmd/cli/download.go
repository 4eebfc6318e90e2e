package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/stripe-datev/internal/adapter/datev"
	postgresRepo "github.com/iho/stripe-datev/internal/adapter/repository/postgres"
	"github.com/iho/stripe-datev/internal/adapter/report"
	"github.com/iho/stripe-datev/internal/domain"
	"github.com/iho/stripe-datev/internal/infrastructure/logger"
	"github.com/iho/stripe-datev/internal/infrastructure/metrics"
	"github.com/iho/stripe-datev/internal/infrastructure/postgres"
	"github.com/iho/stripe-datev/internal/usecase"
)

func downloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download <year> <month>",
		Short: "Export a month (or a whole year with month 0) as DATEV files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parseYearMonth(args)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			window, err := exportWindow(year, month, a.loc)
			if err != nil {
				return err
			}
			return runDownload(cmd.Context(), a, window, cmd.OutOrStdout())
		},
	}
}

func parseYearMonth(args []string) (int, int, error) {
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q", args[0])
	}
	month, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q", args[1])
	}
	return year, month, nil
}

// exportWindow is the calendar month in loc, or the whole year for month 0.
func exportWindow(year, month int, loc *time.Location) (domain.Window, error) {
	if year < 1970 || year > 9999 {
		return domain.Window{}, fmt.Errorf("year %d out of range", year)
	}
	if month < 0 || month > 12 {
		return domain.Window{}, fmt.Errorf("month %d out of range (0 exports the whole year)", month)
	}
	if month == 0 {
		from := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
		return domain.Window{From: from, To: from.AddDate(1, 0, 0)}, nil
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	return domain.Window{From: from, To: from.AddDate(0, 1, 0)}, nil
}

func runDownload(ctx context.Context, a *app, window domain.Window, out io.Writer) error {
	start := time.Now()
	log := a.logger.With().Str("run_id", a.runID).Logger()

	fmt.Fprintf(out, "Retrieving data between %s and %s\n",
		window.From.Format(time.DateOnly), window.To.AddDate(0, 0, -1).Format(time.DateOnly))

	batch, err := a.stripe.FetchBatch(ctx, window)
	if err != nil {
		return fmt.Errorf("retrieve batch: %w", err)
	}
	fmt.Fprintf(out, "Retrieved %d invoice(s), %d charge(s), %d transfer(s), %d payout(s)\n",
		len(batch.Invoices), len(batch.Charges), len(batch.Transfers), len(batch.Payouts))

	result, err := a.exportUseCase().Run(batch, window)
	if err != nil {
		return err
	}
	logDiagnostics(log, result.Diagnostics)

	written, err := writeOutputs(a, window, result, out)
	if err != nil {
		return err
	}

	m := metrics.New()
	m.FilesWritten.Add(float64(len(written)))

	if a.cfg.DatabaseURL != "" {
		if err := archive(ctx, a, written, m); err != nil {
			return err
		}
	}

	if a.cfg.MetricsFile != "" {
		m.ObserveRun(result, time.Since(start), time.Now())
		if err := m.WriteToTextfile(a.cfg.MetricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	log.Info().
		Int("revenue_items", len(result.RevenueItems)).
		Int("files", len(written)).
		Int("diagnostics", len(result.Diagnostics)).
		Dur("duration", time.Since(start)).
		Msg("export finished")
	return nil
}

// writeOutputs writes the overview, the monthly recognition report and the
// DATEV booking files below the output root.
func writeOutputs(a *app, window domain.Window, result *usecase.ExportResult, out io.Writer) ([]datev.WrittenFile, error) {
	root := a.outDir()
	thisMonth := window.From.Format("2006-01")

	overviewPath := filepath.Join(root, "overview", "overview-"+overviewLabel(window)+".csv")
	if err := writeCSVFile(overviewPath, report.Overview(result.RevenueItems, a.loc)); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Wrote %4d revenue items to %s\n", len(result.RevenueItems), overviewPath)

	rows, err := report.MonthlyRecognition(result.RevenueItems, a.loc)
	if err != nil {
		return nil, fmt.Errorf("monthly recognition: %w", err)
	}
	recognitionPath := filepath.Join(root, "monthly_recognition", "monthly_recognition-"+thisMonth+".csv")
	if err := writeCSVFile(recognitionPath, rows); err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Wrote %4d recognition rows to %s\n", max(len(rows)-1, 0), recognitionPath)

	writer := datev.NewWriter(datev.Client{
		BeraterNr:   a.book.Datev.BeraterNr,
		MandantenNr: a.book.Datev.Client(),
	}, a.loc)
	written, err := writer.WriteFiles(filepath.Join(root, "datev"), result.Files)
	if err != nil {
		return nil, err
	}
	for _, w := range written {
		fmt.Fprintf(out, "Wrote %4d records to %s\n", w.Records, w.Path)
	}
	return written, nil
}

// overviewLabel names the overview file: YYYY-MM for a month, YYYY-00 for a year.
func overviewLabel(window domain.Window) string {
	if window.From.AddDate(1, 0, 0).Equal(window.To) {
		return fmt.Sprintf("%04d-00", window.From.Year())
	}
	return window.From.Format("2006-01")
}

func writeCSVFile(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := report.WriteCSV(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// archive stores the written files in the archive database.
func archive(ctx context.Context, a *app, written []datev.WrittenFile, m *metrics.Metrics) error {
	log := logger.WithComponent(a.logger, "archive")

	if err := postgres.RunMigrations(a.cfg.DatabaseURL, a.cfg.MigrationsPath, log); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL: a.cfg.DatabaseURL,
		MaxConns:    a.cfg.DatabaseMaxConns,
		MinConns:    a.cfg.DatabaseMinConns,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	files := make([]usecase.ExportFile, len(written))
	for i, w := range written {
		files[i] = w.File
	}

	uc := usecase.NewArchiveUseCase(
		postgresRepo.NewArchiveRepository(pool, postgresRepo.NewRetrier(log)),
		postgresRepo.NewULIDGenerator(),
	)
	diags, err := uc.Archive(ctx, a.runID, files)
	if err != nil {
		return err
	}
	logDiagnostics(log, diags)

	for _, f := range files {
		m.ArchivedFiles.WithLabelValues(string(f.Kind)).Inc()
	}
	log.Info().Int("files", len(files)).Msg("archived export")
	return nil
}
