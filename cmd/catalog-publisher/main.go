// Command catalog-publisher uploads a catalog document to Redis and notifies
// running parking-finder instances to reload it.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mohammed-shakir/zh-parking-finder/internal/cache/redisstore"
	"github.com/mohammed-shakir/zh-parking-finder/internal/core/config"
	"github.com/mohammed-shakir/zh-parking-finder/internal/logger"
	"github.com/mohammed-shakir/zh-parking-finder/internal/reload/publisher"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	path := flag.String("file", cfg.CatalogPath, "catalog JSON document to publish")
	redisAddr := flag.String("redis", cfg.RedisAddr, "redis address")
	key := flag.String("key", cfg.CatalogRedisKey, "redis key holding the catalog")
	brokers := flag.String("brokers", strings.Join(cfg.Reload.Brokers, ","), "comma separated kafka brokers")
	topic := flag.String("topic", cfg.Reload.Topic, "reload topic")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		Component: "catalog-publisher",
	}, os.Stderr)
	log := logger.NewSlog(&zl)

	doc, err := os.ReadFile(*path)
	if err != nil {
		log.Error("read catalog", "path", *path, "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	store, err := redisstore.New(ctx, *redisAddr)
	if err != nil {
		log.Error("connect redis", "addr", *redisAddr, "err", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	var brokerList []string
	for b := range strings.SplitSeq(*brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokerList = append(brokerList, b)
		}
	}
	prod, err := publisher.NewProducer(brokerList)
	if err != nil {
		log.Error("connect kafka", "brokers", brokerList, "err", err)
		return 1
	}

	p := publisher.New(store, *key, prod, *topic, log)
	defer func() {
		if err := p.Close(); err != nil {
			log.Warn("close publisher", "err", err)
		}
	}()

	ev, err := p.Publish(ctx, doc)
	if err != nil {
		log.Error("publish failed", "err", err)
		return 1
	}
	log.Info("reload event sent", "version", ev.Version, "checksum", ev.Checksum)
	return 0
}
