package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/shopsim-xyz/go-shopsim/config"
	"github.com/shopsim-xyz/go-shopsim/journal"
	"github.com/shopsim-xyz/go-shopsim/shop"
	"github.com/shopsim-xyz/go-shopsim/storage"
)

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file (optional, defaults apply)")
	addr := fs.String("addr", "", "Listen address override")
	speed := fs.Float64("speed", 60, "Simulated seconds per wall second")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: shopsim serve [options]

Run a simulation in real time behind an HTTP status endpoint.

Endpoints:
  GET /healthz   liveness
  GET /status    current run snapshot
  GET /events    journal topic summary
  GET /runs      persisted runs (requires a configured database)

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
	if *addr != "" {
		cfg.Sim.ListenAddr = *addr
	}

	logger := newLogger(cfg.Sim.LogLevel)

	shopCfg, err := cfg.ShopConfig()
	if err != nil {
		return err
	}
	s, err := shop.New(shopCfg)
	if err != nil {
		return err
	}

	j := journal.New()
	j.Attach(s.Bus())

	var store *storage.Store
	if cfg.Sim.DatabasePath != "" {
		store, err = storage.New(cfg.Sim.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	// The shop is single-threaded; the mutex serializes the ticker
	// goroutine against HTTP reads.
	var mu sync.Mutex
	driver := newAutoDriver(s, logger)

	tick := cfg.Sim.TickSeconds
	if tick <= 0 {
		tick = 0.5
	}
	if *speed <= 0 {
		*speed = 1
	}
	wallStep := time.Duration(float64(time.Second) * tick / *speed)
	if wallStep <= 0 {
		wallStep = time.Millisecond
	}

	go func() {
		ticker := time.NewTicker(wallStep)
		defer ticker.Stop()
		for range ticker.C {
			mu.Lock()
			if s.Outcome() == shop.Running {
				s.Tick(tick)
				driver.step(tick)
			}
			mu.Unlock()
		}
	}()

	handler := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/healthz":
			ctx.SetStatusCode(fasthttp.StatusOK)
			ctx.SetBodyString("ok")
		case "/status":
			mu.Lock()
			stats := s.Stats()
			mu.Unlock()
			writeJSON(ctx, stats)
		case "/events":
			mu.Lock()
			summary := j.Summary()
			mu.Unlock()
			writeJSON(ctx, summary)
		case "/runs":
			if store == nil {
				ctx.Error("no run database configured", fasthttp.StatusNotFound)
				return
			}
			limit, _ := strconv.Atoi(string(ctx.QueryArgs().Peek("limit")))
			runs, err := store.ListRuns(limit)
			if err != nil {
				ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
				return
			}
			writeJSON(ctx, runs)
		default:
			ctx.Error("not found", fasthttp.StatusNotFound)
		}
	}

	logger.Info("serving", "addr", cfg.Sim.ListenAddr, "speed", *speed)
	return fasthttp.ListenAndServe(cfg.Sim.ListenAddr, handler)
}

func writeJSON(ctx *fasthttp.RequestCtx, v any) {
	ctx.SetContentType("application/json")
	body, err := json.Marshal(v)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetBody(body)
}
