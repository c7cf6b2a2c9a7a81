package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/LilVoxy/support_etl/ETL/config"
	"github.com/LilVoxy/support_etl/ETL/runner"
	"github.com/LilVoxy/support_etl/ETL/utils"
	"github.com/spf13/cobra"
)

// --- Флаги командной строки ---
var (
	configPath string
	dataDir    string
	outDir     string
	reportDir  string
	format     string
	months     string
	verbose    bool
	skipReport bool
	watch      bool

	rootCmd = &cobra.Command{
		Use:           "support-etl",
		Short:         "Batch pipeline for support interaction tables with SCD delta batches",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Apply delta batches, write final tables and build the report",
		RunE:  runPipeline,
	}

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "Build support_report from previously written final tables",
		RunE:  runReport,
	}

	answersCmd = &cobra.Command{
		Use:   "answers",
		Short: "Answer business questions from the saved report",
		RunE:  runAnswers,
	}

	scheduleCmd = &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on a fixed interval until interrupted",
		RunE:  runSchedule,
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to YAML config (default $ETL_CONFIG)")
	flags.StringVar(&dataDir, "data-dir", "", "folder containing initial/ and delta/")
	flags.StringVar(&outDir, "out-dir", "", "folder for <table>_final.<format>")
	flags.StringVar(&reportDir, "report-dir", "", "folder for support_report.<format>")
	flags.StringVar(&format, "format", "", "output format: csv, json or parquet")
	flags.StringVar(&months, "months", "", "optional delta months to apply, e.g. \"202502, 202503\"")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	runCmd.Flags().BoolVar(&skipReport, "skip-report", false, "write final tables only")
	scheduleCmd.Flags().BoolVar(&watch, "watch", false, "also run when new files land in delta/")

	rootCmd.AddCommand(runCmd, reportCmd, answersCmd, scheduleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig собирает конфигурацию; флаги командной строки имеют наивысший приоритет
func loadConfig(cmd *cobra.Command) (config.PipelineConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("out-dir") {
		cfg.OutDir = outDir
	}
	if flags.Changed("report-dir") {
		cfg.ReportDir = reportDir
	}
	if flags.Changed("format") {
		cfg.Format = format
	}
	if flags.Changed("months") {
		cfg.Months = config.ParseMonths(months)
	}
	if flags.Changed("verbose") {
		cfg.Log.Detailed = verbose
	}
	// --watch есть только у schedule; у остальных команд Changed возвращает false
	if flags.Changed("watch") {
		cfg.WatchDeltas = watch
	}

	return cfg, cfg.Validate()
}

// newRunner создает логгер и ETLRunner по конфигурации команды
func newRunner(cmd *cobra.Command) (*runner.ETLRunner, *utils.ETLLogger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger, err := utils.NewETLLogger(cfg.Log.Mode, cfg.Log.Detailed)
	if err != nil {
		return nil, nil, err
	}

	r, err := runner.NewETLRunner(cfg, logger)
	if err != nil {
		logger.Sync()
		return nil, nil, fmt.Errorf("ошибка при создании ETL Runner: %w", err)
	}
	return r, logger, nil
}

func runPipeline(cmd *cobra.Command, _ []string) error {
	r, logger, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer r.Close()

	months := r.Config().Months
	if skipReport {
		_, err = r.ExecutePipeline(months)
	} else {
		_, err = r.ExecuteETL(months)
	}
	return err
}

func runReport(cmd *cobra.Command, _ []string) error {
	r, logger, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer r.Close()

	_, err = r.ExecuteReport()
	return err
}

func runAnswers(cmd *cobra.Command, _ []string) error {
	r, logger, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer r.Close()

	answers, err := r.Answers()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(answers)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	r, logger, err := newRunner(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer r.Close()

	// Контекст отменяется по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if r.Config().WatchDeltas {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.WatchDeltas(ctx, runner.DefaultWatchDebounce); err != nil {
				logger.Error("Ошибка наблюдения за дельтами: %v", err)
			}
		}()
	}

	err = r.StartScheduler(ctx)
	wg.Wait()
	logger.Info("ETL Runner остановлен")
	return err
}
