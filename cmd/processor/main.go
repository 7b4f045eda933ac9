// Command processor runs the analysis pipeline from the command line:
// it ingests score sheets (CSV files or an Excel workbook), analyzes
// them, writes CSV/JSON reports, and can store and compare snapshots.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"marklens/internal/config"
	"marklens/internal/consolidate"
	"marklens/internal/exporter"
	"marklens/internal/history"
	"marklens/internal/infrastructure"
	"marklens/internal/ingest"
	"marklens/internal/match"
	"marklens/internal/ranking"
	"marklens/internal/services"
	"marklens/internal/stats"
	"marklens/pkg/contracts/domain"
)

func main() {
	var (
		configFile = flag.String("config", "", "path to YAML config file")
		workbook   = flag.String("workbook", "", "Excel workbook, one sheet per subject")
		sheets     = flag.String("sheets", "", "comma-separated CSV sheet files, one subject each")
		outDir     = flag.String("out", "", "output directory (overrides config)")
		label      = flag.String("save", "", "store the result as a snapshot under this label")
		compare    = flag.String("compare", "", "compare two stored snapshots: previous,current")
		metric     = flag.String("metric", "", "comparison metric: total or average")
	)
	flag.Parse()

	if err := run(*configFile, *workbook, *sheets, *outDir, *label, *compare, *metric); err != nil {
		slog.Error("processing failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(configFile, workbook, sheets, outDir, label, compare, metric string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger := infrastructure.InitializeLogger(cfg.Logging)

	if outDir != "" {
		cfg.Export.Dir = outDir
	}
	if metric == "" {
		metric = cfg.Analysis.ComparisonMetric
	}

	store, err := newStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	historyService := services.NewHistoryService(store, logger)

	ctx := context.Background()

	if compare != "" {
		return runCompare(ctx, cfg, historyService, compare, metric, logger)
	}

	tables, err := loadSheets(workbook, sheets, logger)
	if err != nil {
		return err
	}

	matcher := match.NewMatcher(nil, cfg.Analysis.MatchThreshold)
	consolidator := consolidate.New(matcher, consolidate.Options{
		MinMark: cfg.Analysis.MinMark,
		MaxMark: cfg.Analysis.MaxMark,
		MaxRows: cfg.Analysis.MaxRows,
	}, logger)
	analysisService := services.NewAnalysisService(
		consolidator,
		stats.NewEngine(logger),
		ranking.NewEngine(cfg.Analysis.MaxMark, logger),
		cfg.Analysis,
		logger,
	)

	result, err := analysisService.Analyze(ctx, tables)
	if err != nil {
		return err
	}

	if err := writeReports(cfg, result); err != nil {
		return err
	}

	if label != "" {
		if _, err := historyService.SaveSnapshot(ctx, label, result, time.Now().UTC(), "", ""); err != nil {
			return fmt.Errorf("store snapshot %q: %w", label, err)
		}
		logger.Info("snapshot stored", slog.String("label", label))
	}

	return nil
}

func newStore(cfg *config.Config, logger *slog.Logger) (history.Store, error) {
	if cfg.History.Driver == "sqlite" {
		return history.NewSQLiteStore(cfg.History.Path, logger)
	}
	return history.NewMemoryStore(), nil
}

func loadSheets(workbook, sheets string, logger *slog.Logger) ([]domain.SubjectTable, error) {
	switch {
	case workbook != "":
		return ingest.NewExcelReader(logger).ReadFile(workbook)
	case sheets != "":
		reader := ingest.NewCSVReader(logger)
		var tables []domain.SubjectTable
		for _, path := range strings.Split(sheets, ",") {
			path = strings.TrimSpace(path)
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("open sheet %s: %w", path, err)
			}
			table, err := reader.Read(ingest.SubjectFromPath(path), f)
			f.Close()
			if err != nil {
				return nil, err
			}
			tables = append(tables, table)
		}
		return tables, nil
	default:
		return nil, fmt.Errorf("either -workbook or -sheets is required")
	}
}

func writeReports(cfg *config.Config, result *services.AnalysisResult) error {
	writer := exporter.NewCSVWriter(cfg.Export.Dir, cfg.Export.BOMPrefix, nil)

	if err := writer.ExportRecords("consolidated.csv", result.Records); err != nil {
		return err
	}
	if err := writer.ExportRanking("ranking.csv", result.Rankings[cfg.Analysis.RankingMetric]); err != nil {
		return err
	}

	summaries := make([]domain.Statistics, 0, len(result.Statistics))
	for _, m := range append([]string{domain.MetricTotal, domain.MetricAverage}, result.Records.Subjects...) {
		summaries = append(summaries, result.Statistics[m])
	}
	if err := writer.ExportStatistics("statistics.csv", summaries); err != nil {
		return err
	}

	return writer.WriteJSON("analysis.json", result)
}

func runCompare(ctx context.Context, cfg *config.Config, historyService *services.HistoryService, compare, metric string, logger *slog.Logger) error {
	parts := strings.SplitN(compare, ",", 2)
	if len(parts) != 2 {
		return fmt.Errorf("-compare expects previous,current labels")
	}

	comparison, err := historyService.Compare(ctx, strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), metric)
	if err != nil {
		return err
	}

	writer := exporter.NewCSVWriter(cfg.Export.Dir, cfg.Export.BOMPrefix, nil)
	if err := writer.ExportComparison("comparison.csv", comparison); err != nil {
		return err
	}
	if err := writer.WriteJSON("comparison.json", comparison); err != nil {
		return err
	}

	logger.Info("comparison written",
		slog.String("previous", comparison.PreviousLabel),
		slog.String("current", comparison.CurrentLabel),
		slog.Int("students", len(comparison.Deltas)))
	return nil
}
