package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/erazemk/montaza/internal/api"
	"github.com/erazemk/montaza/internal/blob"
	"github.com/erazemk/montaza/internal/config"
	"github.com/erazemk/montaza/internal/db"
	"github.com/erazemk/montaza/internal/ledger"
	"github.com/erazemk/montaza/internal/live"
	"github.com/erazemk/montaza/internal/metrics"
	"github.com/erazemk/montaza/internal/schedule"
	"github.com/erazemk/montaza/internal/store"
)

const (
	Version = "0.1.0"
	appName = "montaza"
)

// options holds command line overrides of the environment configuration.
type options struct {
	envFile  string
	dbPath   string
	addr     string
	logPath  string
	logLevel string
	blobDir  string
	digest   string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Equipment ledger for an event assembly crew",
		Long: `Montaza tracks the equipment of an event assembly crew: what is at base,
what is out at which event, who works where, and the photos that close
each job.

Settings come from MONTAZA_* environment variables (optionally loaded from
a .env file) and can be overridden with flags. Without a subcommand the
server is started.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, &opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.envFile, "env-file", "", "env file to load (default: .env if present)")
	pf.StringVarP(&opts.dbPath, "db", "d", "", "SQLite database path (default: montaza.sqlite3)")
	pf.StringVarP(&opts.addr, "addr", "a", "", "listen address (default: :8080)")
	pf.StringVarP(&opts.logPath, "log", "l", "", "log file path (default: stdout/stderr only)")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&opts.blobDir, "blob-dir", "", "directory for photos (default: photos)")
	pf.StringVar(&opts.digest, "digest", "", `cron schedule of the daily digest, "" to disable`)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return serve(cmd, &opts)
			},
		},
		passphraseCmd(&opts),
		digestCmd(&opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Printf("%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

func passphraseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "passphrase [passphrase]",
		Short: "Set the admin passphrase",
		Long: `Set the admin passphrase. Without an argument a random passphrase is
generated and printed. Existing admin tokens stay valid until they expire.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, database, cleanup, err := open(cmd, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			passphrase := ""
			if len(args) == 1 {
				passphrase = args[0]
			} else if passphrase, err = generatePassphrase(generatedPassphraseLength); err != nil {
				return fmt.Errorf("generating passphrase: %w", err)
			}

			if err := setPassphrase(cmd.Context(), database, passphrase); err != nil {
				return err
			}
			if len(args) == 0 {
				printPassphrase(cfg.DBPath, passphrase)
				return nil
			}
			fmt.Println("Admin passphrase updated.")
			return nil
		},
	}
}

func digestCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Print today's digest and prune expired tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, database, cleanup, err := open(cmd, opts)
			if err != nil {
				return err
			}
			defer cleanup()

			sched := schedule.New(ledger.New(database), database, slog.Default())
			d, err := sched.Digest(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Digest for %s\n", d.Date)
			for _, e := range d.Events {
				fmt.Printf("  event:    %s\n", e)
			}
			for _, r := range d.Reminders {
				fmt.Printf("  reminder: %s\n", r)
			}
			if d.NextEventDate != "" {
				fmt.Printf("Next event: %s\n", d.NextEventDate)
			}
			if d.OverdueOut > 0 {
				fmt.Printf("Checkouts still out on past events: %d\n", d.OverdueOut)
			}
			return nil
		},
	}
}

// loadConfig reads the environment and applies flags that were set explicitly.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	override := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	override("db", &cfg.DBPath, opts.dbPath)
	override("addr", &cfg.Addr, opts.addr)
	override("log", &cfg.LogFile, opts.logPath)
	override("log-level", &cfg.LogLevel, opts.logLevel)
	override("blob-dir", &cfg.BlobDir, opts.blobDir)
	override("digest", &cfg.DigestSchedule, opts.digest)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// open loads the configuration, sets up logging and opens the migrated
// database. The returned cleanup closes both.
func open(cmd *cobra.Command, opts *options) (*config.Config, *sql.DB, func(), error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, nil, nil, err
	}

	level, _ := cfg.Level()
	closeLog, err := setupLogger(cfg.LogFile, level)
	if err != nil {
		return nil, nil, nil, err
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		closeLog()
		return nil, nil, nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		database.Close()
		closeLog()
		return nil, nil, nil, fmt.Errorf("migrating database: %w", err)
	}

	cleanup := func() {
		database.Close()
		closeLog()
	}
	return cfg, database, cleanup, nil
}

func serve(cmd *cobra.Command, opts *options) error {
	cfg, database, cleanup, err := open(cmd, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	slog.Info("database ready", "path", cfg.DBPath)

	// First run: without a passphrase nobody could ever log in as admin.
	passphrase, err := ensurePassphrase(ctx, database)
	if err != nil {
		return fmt.Errorf("setting initial passphrase: %w", err)
	}
	if passphrase != "" {
		printPassphrase(cfg.DBPath, passphrase)
		fmt.Println()
	}

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return fmt.Errorf("getting JWT secret: %w", err)
	}

	blobs, err := blob.NewStore(cfg.BlobDir)
	if err != nil {
		return err
	}

	hub := live.NewHub(slog.Default())
	m := metrics.New(hub)
	svc := ledger.New(database)

	sched := schedule.New(svc, database, slog.Default())
	if cfg.DigestSchedule != "" {
		if err := sched.Start(cfg.DigestSchedule); err != nil {
			return err
		}
	}

	router := api.NewRouter(&api.Deps{
		DB:             database,
		Ledger:         svc,
		Blobs:          blobs,
		Hub:            hub,
		Metrics:        m,
		JWTSecret:      jwtSecret,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.LoggingMiddleware(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		// Live connections are hijacked and not tracked by Shutdown.
		hub.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "blob_dir", cfg.BlobDir, "version", Version)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	sched.Stop()
	slog.Info("server stopped, closing database")
	return nil
}
