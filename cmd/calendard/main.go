/*
main.go - calendard entry point

PURPOSE:
  CLI for the calendar derivation engine. Two subcommands:

  calendard serve
    Runs the HTTP query interface. Configuration via environment:
      CALENDARD_PORT               HTTP port            (default 8080)
      CALENDARD_DB                 SQLite path          (default calendar.db)
      CALENDARD_HOLIDAY_BASE_URL   holiday catalog URL  (default date.nager.at)
      CALENDARD_HOLIDAY_COUNTRIES  jurisdiction codes   (default none)
      CALENDARD_LOG_LEVEL          logrus level         (default info)

  calendard build --config calendar.toml [--db calendar.db]
    Runs one build from a TOML config file, persists the snapshot, prints
    the per-step outcomes, and exits non-zero when the build errored.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM the server stops accepting connections, waits up to 30s
  for active requests, then closes the store.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/warp/calendar-engine/api"
	"github.com/warp/calendar-engine/calendar"
	"github.com/warp/calendar-engine/holidays"
	"github.com/warp/calendar-engine/store/sqlite"
)

// ServerConfig is read from CALENDARD_* environment variables.
type ServerConfig struct {
	Port             int      `default:"8080"`
	DB               string   `default:"calendar.db"`
	HolidayBaseURL   string   `envconfig:"HOLIDAY_BASE_URL" default:"https://date.nager.at"`
	HolidayCountries []string `envconfig:"HOLIDAY_COUNTRIES"`
	LogLevel         string   `envconfig:"LOG_LEVEL" default:"info"`
}

func main() {
	root := &cobra.Command{
		Use:           "calendard",
		Short:         "Business calendar derivation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), buildCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

func newBuilder(cfg ServerConfig, log *logrus.Logger) *calendar.Builder {
	var provider calendar.HolidayProvider = calendar.NoHolidays{}
	if len(cfg.HolidayCountries) > 0 {
		client := holidays.NewClient(cfg.HolidayBaseURL, cfg.HolidayCountries)
		client.Log = log
		provider = client
	}
	return &calendar.Builder{Holidays: provider, Log: log}
}

// =============================================================================
// SERVE
// =============================================================================

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP query interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg ServerConfig
			if err := envconfig.Process("calendard", &cfg); err != nil {
				return fmt.Errorf("read environment: %w", err)
			}
			log := newLogger(cfg.LogLevel)

			store, err := sqlite.New(cfg.DB)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			handler := api.NewHandler(store, newBuilder(cfg, log), log)
			if err := handler.LoadSnapshot(cmd.Context()); err != nil {
				log.WithError(err).Warn("failed to restore active snapshot")
			}

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Port),
				Handler:      api.NewRouter(handler),
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.WithField("addr", server.Addr).Info("calendard listening")
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return err
			case sig := <-quit:
				log.WithField("signal", sig.String()).Info("shutting down")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}
}

// =============================================================================
// BUILD
// =============================================================================

func buildCmd() *cobra.Command {
	var configPath, dbPath string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run one calendar build from a TOML config",
		RunE: func(cmd *cobra.Command, args []string) error {
			var envCfg ServerConfig
			if err := envconfig.Process("calendard", &envCfg); err != nil {
				return fmt.Errorf("read environment: %w", err)
			}
			if dbPath != "" {
				envCfg.DB = dbPath
			}
			log := newLogger(envCfg.LogLevel)

			var buildCfg calendar.BuildConfig
			if _, err := toml.DecodeFile(configPath, &buildCfg); err != nil {
				return fmt.Errorf("read %s: %w", configPath, err)
			}

			store, err := sqlite.New(envCfg.DB)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			res := newBuilder(envCfg, log).Run(cmd.Context(), buildCfg)
			for _, step := range res.Steps {
				entry := log.WithFields(logrus.Fields{"step": step.Name, "rows": step.Rows})
				switch step.Status {
				case calendar.StepOK:
					entry.Info("step ok")
				case calendar.StepDegraded:
					entry.WithField("errors", step.Errors).Warn("step degraded")
				default:
					entry.WithField("errors", step.Errors).Error("step failed")
				}
			}

			if res.Status == calendar.BuildError {
				return fmt.Errorf("build %s failed: %v", res.BuildID, res.Errors)
			}
			if err := store.ReplaceSnapshot(cmd.Context(), res); err != nil {
				return fmt.Errorf("persist snapshot: %w", err)
			}
			log.WithFields(logrus.Fields{
				"build_id": res.BuildID,
				"status":   res.Status,
				"rows":     res.RowCount,
			}).Info("snapshot replaced")
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "calendar.toml", "TOML build configuration file")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (overrides CALENDARD_DB)")
	return cmd
}
