// Command nestsim runs the nest simulation service.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/talgya/nestsim/internal/analytics"
	"github.com/talgya/nestsim/internal/api"
	"github.com/talgya/nestsim/internal/clock"
	"github.com/talgya/nestsim/internal/config"
	"github.com/talgya/nestsim/internal/entropy"
	"github.com/talgya/nestsim/internal/nest"
	"github.com/talgya/nestsim/internal/persistence"
	"github.com/talgya/nestsim/internal/runner"
	"github.com/talgya/nestsim/internal/tiers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("nestsim — nest simulation service")

	// ── Tier catalog ──────────────────────────────────────────────────
	catalog := tiers.Default()
	if cfg.TiersPath != "" {
		catalog, err = tiers.Load(cfg.TiersPath)
		if err != nil {
			slog.Error("failed to load tier catalog", "path", cfg.TiersPath, "error", err)
			os.Exit(1)
		}
		slog.Info("tier catalog loaded", "path", cfg.TiersPath, "max_level", catalog.MaxLevel())
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Randomness ────────────────────────────────────────────────────
	var src entropy.Source
	switch {
	case cfg.Seed != 0:
		src = entropy.NewSeeded(cfg.Seed)
		slog.Info("deterministic entropy", "seed", cfg.Seed)
	case cfg.RandomOrgKey != "":
		src = entropy.NewRemote(cfg.RandomOrgKey)
		slog.Info("random.org entropy enabled")
	default:
		src = entropy.Crypto{}
	}

	// ── Keeper ────────────────────────────────────────────────────────
	keeper := nest.New(catalog, clock.System{}, src, analytics.Recorder{W: db})

	if db.HasState() {
		st, err := db.LoadState()
		if err != nil {
			slog.Error("failed to load nest state", "error", err)
			os.Exit(1)
		}
		keeper.Restore(st)
		slog.Info("nest state restored",
			"level", st.Level,
			"seed_stock", st.SeedStock,
			"assignments", len(st.Assignments),
			"offers", len(st.Pool),
		)
	} else {
		slog.Info("no saved state found, starting a fresh nest", "level", catalog.MinLevel())
		if err := db.SaveState(keeper.Snapshot()); err != nil {
			slog.Error("initial save failed", "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("NESTSIM_ADMIN_KEY not set — mutating endpoints will be disabled")
	}
	apiServer := &api.Server{
		Keeper:   keeper,
		Catalog:  catalog,
		DB:       db,
		Port:     cfg.Port,
		AdminKey: cfg.AdminKey,
	}
	apiServer.Start()

	// ── Run loop ──────────────────────────────────────────────────────
	run := runner.New(keeper)
	run.Interval = cfg.TickInterval
	run.SaveEvery = cfg.SaveInterval
	run.OnSave = func() {
		if err := db.SaveState(keeper.Snapshot()); err != nil {
			slog.Error("periodic save failed", "error", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		run.Stop()
	}()

	run.Run()

	// Final save on shutdown.
	slog.Info("final save...")
	if err := db.SaveState(keeper.Snapshot()); err != nil {
		slog.Error("final save failed", "error", err)
	}
	slog.Info("nest saved, goodbye")
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
