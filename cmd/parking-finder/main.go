package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mohammed-shakir/zh-parking-finder/internal/cache/redisstore"
	"github.com/mohammed-shakir/zh-parking-finder/internal/catalog"
	"github.com/mohammed-shakir/zh-parking-finder/internal/core/config"
	"github.com/mohammed-shakir/zh-parking-finder/internal/core/httpclient"
	"github.com/mohammed-shakir/zh-parking-finder/internal/core/observability"
	"github.com/mohammed-shakir/zh-parking-finder/internal/core/server"
	"github.com/mohammed-shakir/zh-parking-finder/internal/feed"
	"github.com/mohammed-shakir/zh-parking-finder/internal/finder"
	"github.com/mohammed-shakir/zh-parking-finder/internal/logger"
	"github.com/mohammed-shakir/zh-parking-finder/internal/metrics"
	"github.com/mohammed-shakir/zh-parking-finder/internal/reload/kafkaconsumer"
	"github.com/mohammed-shakir/zh-parking-finder/internal/resolve"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	catalogPath := flag.String("catalog", "", "catalog file path (overrides CATALOG_PATH)")
	flag.Parse()

	cfg := config.FromEnv()
	if *catalogPath != "" {
		cfg.CatalogSource = "file"
		cfg.CatalogPath = *catalogPath
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Component: "parking-finder",
		Version:   Version,
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	if err := cfg.Validate(); err != nil {
		appLog.Error("configuration rejected", "err", err)
		return 2
	}
	policy, _ := resolve.ParseUnlocatedPolicy(cfg.UnlocatedPolicy)

	var mp *metrics.Provider
	if cfg.MetricsEnabled {
		mp = metrics.Init(metrics.Config{
			Enabled: true,
			Path:    cfg.MetricsPath,
			Build: metrics.BuildInfo{
				Version:   Version,
				Revision:  os.Getenv("BUILD_REVISION"),
				BuildDate: os.Getenv("BUILD_DATE"),
			},
		})
		observability.Init(mp.Registerer(), true)
	} else {
		observability.Init(nil, false)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLog.Info("starting parking finder",
		"addr", cfg.Addr,
		"version", Version,
		"feed", cfg.FeedURL,
		"catalog_source", cfg.CatalogSource,
		"h3_res", cfg.H3Res,
		"unlocated", policy.String())

	src, closeSrc, err := catalogSource(ctx, cfg)
	if err != nil {
		appLog.Error("catalog source setup failed", "err", err)
		return 1
	}
	defer closeSrc()

	holder := catalog.NewHolder(src, cfg.H3Res, appLog)
	// a missing catalog is not fatal: queries answer with an apology and
	// the next reload may succeed
	if _, err := holder.Reload(ctx); err != nil {
		appLog.Error("initial catalog load failed", "source", src.Name(), "err", err)
	}
	go holder.Run(ctx, cfg.CatalogReloadInterval)
	go reloadOnSIGHUP(ctx, holder, appLog)

	if cfg.Reload.Enabled {
		consumer := kafkaconsumer.New(kafkaconsumer.FromConfig(cfg.Reload), appLog, holder)
		go func() {
			if err := consumer.Start(ctx); err != nil {
				appLog.Error("kafka reload consumer stopped", "err", err)
			}
		}()
	}

	fetcher, err := feed.NewFetcher(httpclient.NewOutbound(cfg.FeedTimeout), cfg.FeedURL, cfg.FeedTimeout, appLog)
	if err != nil {
		appLog.Error("feed client setup failed", "err", err)
		return 1
	}

	opts := resolve.DefaultOptions()
	opts.Unlocated = policy
	f := finder.New(holder, fetcher, opts, appLog)

	deps := server.Deps{Finder: f, Ready: holder}
	if mp != nil {
		deps.Metrics = mp
	}
	if err := server.Run(ctx, cfg, appLog, deps); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

func catalogSource(ctx context.Context, cfg config.Config) (catalog.Source, func(), error) {
	if cfg.CatalogSource != "redis" {
		return catalog.FileSource{Path: cfg.CatalogPath}, func() {}, nil
	}
	rc, err := redisstore.New(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	return catalog.RedisSource{Store: rc, Key: cfg.CatalogRedisKey}, func() { _ = rc.Close() }, nil
}

func reloadOnSIGHUP(ctx context.Context, h *catalog.Holder, log *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			changed, err := h.Reload(ctx)
			if err != nil {
				log.Error("catalog reload on SIGHUP failed", "err", err)
				continue
			}
			log.Info("catalog reload on SIGHUP", "changed", changed)
		}
	}
}
