// Package publisher pushes a catalog document to the shared store and
// announces it to running instances.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	"github.com/mohammed-shakir/zh-parking-finder/internal/catalog"
	"github.com/mohammed-shakir/zh-parking-finder/internal/reload"
)

// Setter is satisfied by *redisstore.Client.
type Setter interface {
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

type Publisher struct {
	store  Setter
	key    string
	prod   sarama.SyncProducer
	topic  string
	logger *slog.Logger
	now    func() time.Time
}

func New(store Setter, key string, prod sarama.SyncProducer, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{store: store, key: key, prod: prod, topic: topic, logger: logger, now: time.Now}
}

// NewProducer builds a sync producer that waits for all in-sync replicas.
func NewProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.ClientID = "catalog-publisher"
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Retry.Max = 3

	prod, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create sync producer: %w", err)
	}
	return prod, nil
}

// Publish validates doc as a catalog, stores it under the configured key and
// sends a reload event. The event is only sent once the store write succeeded.
func (p *Publisher) Publish(ctx context.Context, doc []byte) (reload.Event, error) {
	cat, err := catalog.Decode(doc, -1)
	if err != nil {
		return reload.Event{}, fmt.Errorf("refusing to publish: %w", err)
	}

	if err := p.store.Set(ctx, p.key, doc, 0); err != nil {
		return reload.Event{}, fmt.Errorf("store catalog: %w", err)
	}

	now := p.now().UTC()
	ev := reload.Event{
		Version:  uint64(now.UnixNano()),
		TS:       now,
		Source:   "redis:" + p.key,
		Checksum: reload.FormatChecksum(cat.Fingerprint()),
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return reload.Event{}, fmt.Errorf("marshal event: %w", err)
	}
	part, off, err := p.prod.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(ev.Source),
		Value: sarama.ByteEncoder(b),
	})
	if err != nil {
		return reload.Event{}, fmt.Errorf("send reload event: %w", err)
	}

	p.logger.InfoContext(ctx, "catalog published",
		"key", p.key,
		"facilities", cat.Len(),
		"skipped", cat.Skipped(),
		"checksum", ev.Checksum,
		"partition", part,
		"offset", off)
	return ev, nil
}

func (p *Publisher) Close() error {
	if err := p.prod.Close(); err != nil {
		return fmt.Errorf("close producer: %w", err)
	}
	return nil
}
