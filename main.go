package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signalbot/internal/account"
	"signalbot/internal/api"
	"signalbot/internal/backtest"
	"signalbot/internal/evaluator"
	"signalbot/internal/events"
	"signalbot/internal/market"
	"signalbot/internal/monitor"
	"signalbot/internal/settle"
	signalgen "signalbot/internal/signal"
	"signalbot/pkg/config"
	"signalbot/pkg/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	log.Printf("[BOOT] starting signalbot on port %s (db: %s)", cfg.Port, cfg.DBPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Core services
	bus := events.NewBus()
	metrics := monitor.New()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("db init failed: %v", err)
	}
	defer database.Close()
	if err := db.ApplyMigrations(database); err != nil {
		log.Fatalf("db migrations failed: %v", err)
	}
	store := database.Store()

	// Market source
	var source market.PriceSource
	if cfg.UseMockMarket {
		source = market.NewMockSource()
		log.Println("[BOOT] using mock market feed")
	} else {
		source = market.NewCoinGecko(cfg.CoinGeckoBaseURL)
		log.Printf("[BOOT] using CoinGecko feed at %s", cfg.CoinGeckoBaseURL)
	}

	// Startup calibration: replay real history once; fall back to the
	// documented defaults when the feed is unreachable.
	calibration := backtest.DefaultCalibration()
	histCtx, histCancel := context.WithTimeout(ctx, 60*time.Second)
	history, err := source.History(histCtx, cfg.CalibrationPair, cfg.HistoryDays)
	histCancel()
	if err != nil {
		log.Printf("[BOOT] calibration history fetch failed (%v), using defaults", err)
	} else {
		calibration = backtest.Calibrate(history)
	}
	log.Printf("[BOOT] calibration: %+v", calibration)

	// Evaluator registry and signal pipeline
	registry := evaluator.NewRegistry()
	if _, err := registry.Get(cfg.EvaluatorVariant); err != nil {
		log.Fatalf("invalid EVALUATOR_VARIANT: %v", err)
	}
	synthesizer := signalgen.NewSynthesizer(calibration)
	settler := settle.NewEngine(database.DB, bus)

	// Strategy presets and demo account
	presets, err := account.LoadPresets(cfg.PresetsPath, registry.Names())
	if err != nil {
		log.Fatalf("presets load failed: %v", err)
	}
	demoID, err := account.EnsureDemoAccount(ctx, store, account.BootstrapParams{
		Username: cfg.DemoUsername,
		Email:    cfg.DemoEmail,
		Password: os.Getenv("DEMO_PASSWORD"),
		Presets:  presets,
	})
	if err != nil {
		log.Fatalf("demo bootstrap failed: %v", err)
	}
	log.Printf("[BOOT] demo account ready (%s)", demoID)

	server := api.NewServer(api.Options{
		Bus:            bus,
		Store:          store,
		Registry:       registry,
		Synthesizer:    synthesizer,
		Settler:        settler,
		Market:         source,
		Metrics:        metrics,
		JWTSecret:      cfg.JWTSecret,
		Variant:        cfg.EvaluatorVariant,
		HistoryDays:    cfg.HistoryDays,
		DefaultBalance: cfg.DefaultBalance,
	})

	go func() {
		if err := server.Start(":" + cfg.Port); err != nil {
			log.Fatalf("server failed: %v", err)
		}
	}()
	log.Printf("[BOOT] API listening on :%s", cfg.Port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("[SHUTDOWN] signal received, stopping")
	cancel()
}
