package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"gujian/internal/ai"
	"gujian/internal/config"
	"gujian/internal/fetch"
	"gujian/internal/metrics"
	"gujian/internal/model"
	"gujian/internal/news"
	"gujian/internal/scheduler"
	"gujian/internal/server"
	"gujian/internal/store"
	"gujian/internal/twse"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] 股見 starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Watchlist is swapped atomically on config reload.
	var mu sync.RWMutex
	watch := cfg.Watchlist
	watchlist := func() []model.StockInfo {
		mu.RLock()
		defer mu.RUnlock()
		return watch
	}

	// Init store
	var st store.Store
	if cfg.Database.SQLitePath != "" {
		ss, err := store.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite store failed, using noop: %v", err)
			st = store.NewNoopStore()
		} else {
			st = ss
			defer ss.Close()
		}
	} else {
		st = store.NewNoopStore()
	}

	// Init exchange clients behind one shared rate limit
	m := metrics.New()
	limiter := rate.NewLimiter(rate.Limit(cfg.TWSE.RateLimit), 1)
	quote := twse.NewQuoteClient(cfg.TWSE.QuoteURL, cfg.Proxy, limiter)
	history := twse.NewHistoryClient(cfg.TWSE.HistoryURL, cfg.TWSE.TPExURL, cfg.Proxy, limiter)
	col := fetch.NewCollector(fetch.NewTWSESource(quote, history), st)
	col.Metrics = m

	// Init news + LLM digest
	nf := news.NewFetcher(cfg.News.Feeds)
	var llm ai.Client
	if cfg.Gemini.APIKey != "" {
		llm = ai.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL, cfg.Gemini.Model)
	} else {
		log.Println("[WARN] no Gemini API key, news digests disabled")
	}
	sum := ai.NewSummarizer(llm, st, cfg.DigestTTL())
	sum.Metrics = m

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init HTTP server and websocket hub
	hub := server.NewHub(m)
	srv := server.New(cfg.Server.Addr, col, nf, sum, hub, m, watchlist)
	srv.Start()
	log.Printf("[INFO] serving on %s", cfg.Server.Addr)

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, col, hub, st, sum, nf, m, watchlist)
	if err := sched.RegisterAll(cfg.Schedule.PollCron, cfg.Schedule.RefreshCron, cfg.Schedule.DigestCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Hot-reload the watchlist on config edits
	go func() {
		if err := config.Watch(ctx, cfgPath, func(next *config.Config) {
			mu.Lock()
			watch = next.Watchlist
			mu.Unlock()
			log.Printf("[INFO] watchlist now has %d stocks", len(next.Watchlist))
		}); err != nil {
			log.Printf("[WARN] config watch: %v", err)
		}
	}()

	// Optional: warm the cache immediately on start
	if cfg.RunOnStart {
		log.Println("[INFO] RUN_ON_START enabled, refreshing history now")
		go sched.RunRefreshNow()
	}

	log.Println("[INFO] 股見 is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	hub.Close()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] server shutdown: %v", err)
	}
	log.Println("[INFO] 股見 stopped")
}
