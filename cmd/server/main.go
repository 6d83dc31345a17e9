package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"github.com/arx-deidentifier/arx-sub007/internal/api"
	"github.com/arx-deidentifier/arx-sub007/internal/config"
	"github.com/arx-deidentifier/arx-sub007/internal/dataset"
	"github.com/arx-deidentifier/arx-sub007/internal/engine"
	"github.com/arx-deidentifier/arx-sub007/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, addr string
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve transformation checks over a loaded dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "configuration file (YAML or JSON)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	// 1. Initialize Echo (Starts Instantly)
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORS())
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// 2. Handler without a checker answers 503 until the data is loaded
	h := api.NewHandler()
	h.RegisterRoutes(e)

	// 3. Load dataset and hierarchies in the background
	go func() {
		log := logger.With("component", "loader")
		log.Info("loading dataset", "path", cfg.Data.Path)
		t0 := time.Now()

		checker, err := load(cfg, logger)
		if err != nil {
			log.Error("loading failed, API stays unavailable", "error", err)
			return
		}
		if err := h.SetChecker(checker); err != nil {
			log.Error("serving checker", "error", err)
			return
		}
		log.Info("dataset ready", "rows", checker.Dataset().Rows(),
			"quasi_identifiers", checker.Dataset().Dimensions(), "elapsed", time.Since(t0))
	}()

	// 4. Start Server
	errc := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr)
		errc <- e.Start(cfg.Server.Addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return e.Shutdown(shutdown)
}

func load(cfg config.Config, logger *slog.Logger) (*engine.Checker, error) {
	data, err := dataset.Load(cfg.Data.Path, cfg.Data.Schema(), cfg.Data.HierarchyFiles(), logger)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.CheckerOptions(data, logger)
	if err != nil {
		return nil, fmt.Errorf("checker options: %w", err)
	}
	return engine.NewChecker(data, opts)
}
