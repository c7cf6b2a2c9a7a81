// main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/LilVoxy/support_etl/ETL/config"
	"github.com/LilVoxy/support_etl/ETL/runner"
	"github.com/LilVoxy/support_etl/ETL/utils"
	"github.com/LilVoxy/support_etl/routes"
	"github.com/LilVoxy/support_etl/websocket"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
)

var (
	configPath string

	rootCmd = &cobra.Command{
		Use:           "support-server",
		Short:         "Report API with live pipeline run events",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(configPath)
		},
	}
)

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "путь к YAML-конфигурации (по умолчанию $ETL_CONFIG)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := utils.NewETLLogger(cfg.Log.Mode, cfg.Log.Detailed)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Запуск сервера отчетов...")

	etlRunner, err := runner.NewETLRunner(cfg, logger)
	if err != nil {
		return fmt.Errorf("ошибка при создании ETL Runner: %w", err)
	}
	defer etlRunner.Close()

	// Контекст отменяется по SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	background := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				logger.Error("Ошибка (%s): %v", name, err)
			}
		}()
	}

	// События запусков рассылаются подключенным дашбордам
	hub := websocket.NewHub(logger)
	etlRunner.Subscribe(hub.Publish)
	background("websocket", func() error {
		hub.Run(ctx)
		return nil
	})

	router := mux.NewRouter()
	routes.SetupRoutes(router, etlRunner, hub.HandleConnections, logger)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	background("планировщик", func() error { return etlRunner.StartScheduler(ctx) })
	if cfg.WatchDeltas {
		background("наблюдение за дельтами", func() error {
			return etlRunner.WatchDeltas(ctx, runner.DefaultWatchDebounce)
		})
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Сервер запущен на %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Получен сигнал завершения, закрываем соединения...")
	case err = <-serverErr:
		logger.Error("Ошибка запуска сервера: %v", err)
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("Ошибка при остановке сервера: %v", shutdownErr)
	}

	wg.Wait()
	logger.Info("Сервер остановлен")

	if err != nil {
		return fmt.Errorf("ошибка запуска сервера: %w", err)
	}
	return nil
}
