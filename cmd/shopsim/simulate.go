package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/shopsim-xyz/go-shopsim/clock"
	"github.com/shopsim-xyz/go-shopsim/config"
	"github.com/shopsim-xyz/go-shopsim/economy"
	"github.com/shopsim-xyz/go-shopsim/event"
	"github.com/shopsim-xyz/go-shopsim/journal"
	"github.com/shopsim-xyz/go-shopsim/shop"
	"github.com/shopsim-xyz/go-shopsim/storage"
)

func simulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file (optional, defaults apply)")
	days := fs.Int("days", 0, "Day limit override (0 uses the config value)")
	seed := fs.Int64("seed", 0, "Seed override (0 uses the config value)")
	journalPath := fs.String("journal", "", "JSONL journal export path override")
	dbPath := fs.String("db", "", "Run database path override")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: shopsim simulate [options]

Run the store simulation until victory, bankruptcy or the day limit.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *days > 0 {
		cfg.Sim.Days = *days
	}
	if *seed != 0 {
		cfg.Shop.Seed = *seed
	}
	if *journalPath != "" {
		cfg.Sim.JournalPath = *journalPath
	}
	if *dbPath != "" {
		cfg.Sim.DatabasePath = *dbPath
	}

	logger := newLogger(cfg.Sim.LogLevel)
	_, err = runSimulation(cfg, logger)
	return err
}

// runSimulation drives one shop to completion and returns its final stats.
func runSimulation(cfg *config.Config, logger *slog.Logger) (shop.Snapshot, error) {
	shopCfg, err := cfg.ShopConfig()
	if err != nil {
		return shop.Snapshot{}, err
	}
	s, err := shop.New(shopCfg)
	if err != nil {
		return shop.Snapshot{}, err
	}

	j := journal.New()
	if cfg.Sim.JournalPath != "" {
		j.Attach(s.Bus())
	}

	var store *storage.Store
	runID := uuid.NewString()
	if cfg.Sim.DatabasePath != "" {
		store, err = storage.New(cfg.Sim.DatabasePath)
		if err != nil {
			return shop.Snapshot{}, err
		}
		defer store.Close()
		if err := store.CreateRun(runID, shopCfg.Seed); err != nil {
			return shop.Snapshot{}, err
		}
		s.Bus().Subscribe("store", economy.TopicDayClosed, func(sig *event.Signal) {
			report, ok := sig.Data.(economy.DayReport)
			if !ok {
				return
			}
			if err := store.SaveDayReport(runID, report); err != nil {
				logger.Error("saving day report", "day", report.Day, "err", err)
			}
		})
	}

	s.Bus().Subscribe("log", economy.TopicDayClosed, func(sig *event.Signal) {
		if report, ok := sig.Data.(economy.DayReport); ok {
			logger.Info("day closed",
				"day", report.Day,
				"income", report.Income,
				"expenses", report.Expenses,
				"balance", report.Balance,
				"critical_days", report.CriticalDays)
		}
	})
	s.Bus().Subscribe("log", economy.TopicFineApplied, func(sig *event.Signal) {
		logger.Warn("fine applied", "detail", sig.Data)
	})
	s.Bus().Subscribe("log", clock.TopicDayStarted, func(sig *event.Signal) {
		logger.Info("day started", "day", sig.Day, "weekday", s.Clock().DayOfWeek().String())
	})

	logger.Info("simulation starting",
		"run", runID,
		"seed", shopCfg.Seed,
		"days", cfg.Sim.Days,
		"tick", cfg.Sim.TickSeconds)

	tick := cfg.Sim.TickSeconds
	if tick <= 0 {
		tick = 0.5
	}
	driver := newAutoDriver(s, logger)
	for s.Outcome() == shop.Running {
		if cfg.Sim.Days > 0 && s.Clock().Day() > cfg.Sim.Days {
			break
		}
		s.Tick(tick)
		driver.step(tick)
	}

	stats := s.Stats()
	logger.Info("simulation finished",
		"outcome", stats.Outcome,
		"days", stats.Day,
		"balance", stats.Balance,
		"served", stats.Served,
		"lost", stats.Lost,
		"fines", stats.FinesPaid)

	if cfg.Sim.JournalPath != "" {
		if err := j.ExportFile(cfg.Sim.JournalPath); err != nil {
			return stats, err
		}
		logger.Info("journal exported", "path", cfg.Sim.JournalPath, "entries", j.Len())
	}
	if store != nil {
		if err := store.FinishRun(runID, stats); err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
