package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msomdec/clinic-booking/internal/config"
	"github.com/msomdec/clinic-booking/internal/domain"
	"github.com/msomdec/clinic-booking/internal/handler"
	"github.com/msomdec/clinic-booking/internal/repository/jsonfile"
	"github.com/msomdec/clinic-booking/internal/repository/memory"
	"github.com/msomdec/clinic-booking/internal/repository/sqlite"
	"github.com/msomdec/clinic-booking/internal/service"
	"github.com/msomdec/clinic-booking/internal/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "clinic-booking",
		Short:         "Clinic appointment booking server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(appointmentsCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func seedCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Write the demo data set to the configured store",
		Long: "Seeds an empty store with the demo accounts, doctors, and appointment. " +
			"With --reset an existing store is overwritten.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, reset)
		},
	}
	config.RegisterFlags(cmd.Flags())
	cmd.Flags().BoolVar(&reset, "reset", false, "overwrite existing data")
	return cmd
}

// loadConfig loads and validates the configuration and installs the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.SlogLevel()
	setupLogger(level)
	return cfg, nil
}

func setupLogger(level slog.Level) {
	logOpts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)
}

func newHasher(cfg *config.Config) service.PasswordHasher {
	if cfg.PlaintextPasswords() {
		return service.PlaintextDemoHasher{}
	}
	return service.BcryptHasher{Cost: cfg.BcryptCost}
}

// openGateway opens the persistence strategy named by STORE_DRIVER.
func openGateway(ctx context.Context, cfg *config.Config) (domain.Gateway, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverJSONFile:
		return jsonfile.New(cfg.DataPath)
	case config.DriverSQLite:
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("database migrations applied", "path", cfg.DatabasePath)
		return db, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

func openStore(ctx context.Context, cfg *config.Config, hasher service.PasswordHasher) (*store.Store, error) {
	gw, err := openGateway(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}

	st, err := store.Open(ctx, gw, func() (*domain.Snapshot, error) {
		return service.DemoSnapshot(hasher, time.Now())
	})
	if err != nil {
		gw.Close()
		return nil, err
	}
	return st, nil
}

func runServer(cfg *config.Config) error {
	if cfg.PlaintextPasswords() {
		slog.Warn("PASSWORD_MODE=plaintext-demo: passwords are stored unhashed; never use this outside a demo")
	}

	hasher := newHasher(cfg)
	st, err := openStore(context.Background(), cfg, hasher)
	if err != nil {
		return err
	}
	defer st.Close()
	slog.Info("store opened", "driver", cfg.StoreDriver)

	userService := service.NewUserService(st, hasher, cfg.JWTSecret, cfg.DefaultPassword)
	doctorService := service.NewDoctorService(st)
	appointmentService := service.NewAppointmentService(st)

	broadcaster := service.NewBroadcaster()
	broadcaster.Attach(st)

	limiter := service.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, userService, doctorService, appointmentService, broadcaster, limiter, cfg.CookieSecure)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Wrap(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open streams would otherwise hold Shutdown until its deadline.
	srv.BaseContext = func(_ net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func runSeed(ctx context.Context, cfg *config.Config, reset bool) error {
	hasher := newHasher(cfg)

	if !reset {
		st, err := openStore(ctx, cfg, hasher)
		if err != nil {
			return err
		}
		return st.Close()
	}

	gw, err := openGateway(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	defer gw.Close()

	snap, err := service.DemoSnapshot(hasher, time.Now())
	if err != nil {
		return err
	}
	if err := gw.Save(ctx, snap); err != nil {
		return fmt.Errorf("save demo data: %w", err)
	}
	slog.Info("store reset to demo data", "driver", cfg.StoreDriver)
	return nil
}
