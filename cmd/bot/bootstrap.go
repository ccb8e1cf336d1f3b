package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"

	"options-signal-bot/internal/alert"
	"options-signal-bot/internal/broker/alpaca"
	"options-signal-bot/internal/broker/brokerobs"
	"options-signal-bot/internal/cache"
	"options-signal-bot/internal/engine"
	"options-signal-bot/internal/engine/engineobs"
	"options-signal-bot/internal/eod"
	"options-signal-bot/internal/eod/eodobs"
	"options-signal-bot/internal/interfaces"
	"options-signal-bot/internal/logger"
	"options-signal-bot/internal/news"
	"options-signal-bot/internal/store"
	"options-signal-bot/internal/trace"
	"options-signal-bot/internal/tradelog"
)

// app is everything a command needs, wired once.
type app struct {
	cfg     *store.Config
	broker  interfaces.Broker
	engine  interfaces.Engine
	eod     interfaces.EodSummarizer
	journal *tradelog.Journal
	alerter interfaces.Alerter
}

// fatalAlertTimeout bounds the emergency alert sent before exiting.
const fatalAlertTimeout = 10 * time.Second

// initializeSystem loads .env and starts logging and tracing.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

func loadConfig(ctx context.Context, path string) (*store.Config, error) {
	cfg, err := store.LoadConfig(path)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err, "path", path)
		return nil, err
	}
	return cfg, nil
}

func initializeBroker(ctx context.Context, cfg *store.Config) interfaces.Broker {
	brk := alpaca.New(alpaca.Params{
		Mode:         cfg.Mode,
		KeyID:        cfg.Alpaca.KeyID,
		SecretKey:    cfg.Alpaca.SecretKey,
		TradingURL:   cfg.Alpaca.BaseURL,
		DataURL:      cfg.Alpaca.DataURL,
		ExpiryMonths: cfg.Trading.OptionExpiryMonths,
		Timeout:      cfg.Network.RequestTimeout,
	})
	if cfg.Mode == store.ModeDryRun {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	}
	if cfg.Alpaca.KeyID == "" || cfg.Alpaca.SecretKey == "" {
		logger.Warn(ctx, "Alpaca credentials missing, live data calls will fail and fall back")
	}
	return brokerobs.Wrap(brk)
}

// initializeNews chains the Alpaca feed with the finviz scraper.
func initializeNews(cfg *store.Config) interfaces.NewsClient {
	return news.NewChain(
		news.NamedClient{Name: "alpaca", Client: news.NewAlpacaNews(news.AlpacaNewsConfig{
			BaseURL:    cfg.Alpaca.NewsURL,
			KeyID:      cfg.Alpaca.KeyID,
			SecretKey:  cfg.Alpaca.SecretKey,
			NewsAPIURL: cfg.News.NewsAPIURL,
			NewsAPIKey: cfg.News.NewsAPIKey,
			Timeout:    cfg.Network.RequestTimeout,
		})},
		news.NamedClient{Name: "finviz", Client: news.NewScraper(cfg.News.ScraperURL, cfg.Network.RequestTimeout)},
	)
}

func initializeEOD(journal *tradelog.Journal) interfaces.EodSummarizer {
	return eodobs.Wrap(eod.NewSummarizer(journal))
}

func initializeEngine(cfg *store.Config, brk interfaces.Broker, al interfaces.Alerter, journal *tradelog.Journal) interfaces.Engine {
	eng := engine.New(cfg, engine.Deps{
		Broker:    brk,
		News:      initializeNews(cfg),
		Alerter:   al,
		Journal:   journal,
		Generator: cache.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano()))),
	})
	return engineobs.Wrap(eng)
}

func bootstrap(ctx context.Context, configPath string) (*app, error) {
	if err := initializeSystem(); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return nil, err
	}
	journal := tradelog.New(cfg.Journal.Dir, cfg.Location())
	brk := initializeBroker(ctx, cfg)
	al := alert.New(ctx, cfg.Alert.Provider, cfg.Alert.Token, cfg.Alert.ChatID)
	return &app{
		cfg:     cfg,
		broker:  brk,
		engine:  initializeEngine(cfg, brk, al, journal),
		eod:     initializeEOD(journal),
		journal: journal,
		alerter: al,
	}, nil
}

// reportFatal sends an emergency alert for an error the process cannot
// continue past and returns err. The alert gets its own deadline so it still
// goes out after a shutdown signal.
func reportFatal(al interfaces.Alerter, subject string, err error) error {
	if al == nil {
		al = alert.Log{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), fatalAlertTimeout)
	defer cancel()
	if aerr := al.SendEmergencyAlert(ctx, subject, "The trading bot stopped and needs attention.", err); aerr != nil {
		logger.Warn(ctx, "Emergency alert failed", "subject", subject, "error", aerr)
	}
	return err
}

func (a *app) shutdown(ctx context.Context) {
	if err := trace.Shutdown(ctx); err != nil {
		logger.Warn(ctx, "Tracer shutdown failed", "error", err)
	}
}
