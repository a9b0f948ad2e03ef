package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/madjik/clinic/internal/config"
	"github.com/madjik/clinic/internal/domain/patient"
	"github.com/madjik/clinic/internal/domain/signature"
	"github.com/madjik/clinic/internal/platform/db"
	"github.com/madjik/clinic/internal/platform/flash"
	"github.com/madjik/clinic/internal/platform/middleware"
	"github.com/madjik/clinic/internal/platform/render"
	"github.com/madjik/clinic/internal/platform/telemetry"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "clinic-server",
		Short:        "Clinic patient records server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(dbCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the clinic database",
	}

	// db init
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create any missing tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Schema ready (%s).\n", store.Dialect())
			return nil
		},
	})

	// db status
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show row counts per table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx := context.Background()
			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.TableCounts(ctx)
			if err != nil {
				return fmt.Errorf("failed to get table counts: %w", err)
			}
			printTableCounts(cmd, store.Dialect(), counts)
			return nil
		},
	})

	return cmd
}

func printTableCounts(cmd *cobra.Command, dialect db.Dialect, counts []db.TableCount) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Database: %s\n", dialect)
	fmt.Fprintf(out, "%-20s %s\n", "TABLE", "ROWS")
	fmt.Fprintln(out, "-------------------- ----------")
	for _, c := range counts {
		fmt.Fprintf(out, "%-20s %d\n", c.Table, c.Rows)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openStore connects to the configured engine and bootstraps the schema.
func openStore(ctx context.Context, cfg *config.Config) (*db.Store, error) {
	store, err := db.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	if level, err := cfg.Level(); err == nil {
		logger = logger.Level(level)
	}
	return logger
}

// newServer wires the HTTP stack around an open store.
func newServer(cfg *config.Config, store *db.Store, logger zerolog.Logger) (*echo.Echo, error) {
	renderer, err := render.New()
	if err != nil {
		return nil, err
	}

	tp := telemetry.NewProvider(telemetry.Config{MetricsEnabled: cfg.MetricsEnabled})
	tp.ObservePool(store.Stats)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(tp.MetricsMiddleware())
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Health and metrics
	e.GET("/health", db.HealthHandler(store))
	if tp.Enabled() {
		e.GET("/metrics", tp.PrometheusHandler())
	}

	flashes := flash.NewStore(cfg.SecretKey)
	sigLogger := logger.With().Str("component", "signature").Logger()
	patientLogger := logger.With().Str("component", "patient").Logger()

	signatureSvc := signature.NewService(store, signature.NewRepo(store))
	signature.NewHandler(signatureSvc, flashes, sigLogger, tp).RegisterRoutes(e)

	patients, visits, history := patient.NewRepos(store)
	patientSvc := patient.NewService(store, patients, visits, history, patient.Options{
		CascadeHistory: cfg.CascadeHistoryNotes,
	})
	patient.NewHandler(patientSvc, signatureSvc, flashes, patientLogger, tp).RegisterRoutes(e)

	return e, nil
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid config")
		return err
	}

	// Database
	ctx := context.Background()
	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open database")
		return err
	}
	defer store.Close()
	logger.Info().Str("dialect", string(store.Dialect())).Msg("connected to database")

	e, err := newServer(cfg, store, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		addr := cfg.Addr()
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error")
		return err
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
