package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/apiclient"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/auth"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/cache"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/catalog"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/config"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/logging"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/receipt"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/scanner"
	"github.com/TheCasperSolangi/entsuki-pos-terminal/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("invalid log configuration: %v", err)
	}
	defer logger.Sync()

	if cfg.APIToken != "" {
		if info, err := auth.Inspect(cfg.APIToken); err != nil {
			logger.Warn("bearer token is not a parseable JWT", zap.Error(err))
		} else {
			logger.Info("bearer token loaded", zap.String("subject", info.Subject))
			if info.ExpiresWithin(24 * time.Hour) {
				logger.Warn("bearer token expires within 24h", zap.Timep("expires_at", info.ExpiresAt))
			}
		}
	} else {
		logger.Warn("no API token configured, backend requests go out unauthenticated")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func() error, 0, 1)

	catalogCache := cache.CatalogCache(cache.NoopCatalogCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCatalogCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, catalog snapshots disabled", zap.Error(err))
		} else {
			catalogCache = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("catalog cache: redis", zap.String("addr", cfg.RedisAddr))
		}
	} else {
		logger.Info("catalog cache: noop")
	}

	client := apiclient.New(cfg.APIBaseURL, cfg.APIToken, cfg.APITimeout)

	cat := catalog.New(client, catalogCache, cfg.CatalogCacheTTL, logger)
	if err := cat.Load(ctx); err != nil {
		logger.Fatal("catalog unavailable and no cached snapshot", zap.Error(err))
	}
	logger.Info("catalog loaded", zap.Int("products", len(cat.Products())))

	var printer receipt.Printer = receipt.LogPrinter{Logger: logger}
	if cfg.ReceiptDir != "" {
		printer = receipt.FilePrinter{Dir: cfg.ReceiptDir}
	}

	sess := session.New(session.Options{
		Backend:    client,
		Catalog:    cat,
		Printer:    printer,
		History:    scanner.NewHistory(cfg.ScanHistorySize),
		Logger:     logger,
		TerminalID: cfg.TerminalID,
		Username:   cfg.Username,
		AppName:    cfg.AppName,
	})
	if err := sess.Open(ctx); err != nil {
		logger.Fatal("could not open a cart", zap.Error(err))
	}

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	monitor := session.NewMonitor(client, sess, cfg.ProbeInterval, logger)
	go monitor.Run(runCtx)

	console := newConsole(sess, cat)
	done := make(chan struct{})
	go func() {
		defer close(done)
		console.run(runCtx, os.Stdin, os.Stdout)
	}()

	select {
	case <-runCtx.Done():
	case <-done:
	}
	stop()

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("close error", zap.Error(err))
		}
	}

	logger.Info("terminal stopped")
}
