// Package kafkaconsumer applies catalog reload notifications from Kafka.
package kafkaconsumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/IBM/sarama"

	obs "github.com/mohammed-shakir/zh-parking-finder/internal/core/observability"
	mylog "github.com/mohammed-shakir/zh-parking-finder/internal/logger"
	"github.com/mohammed-shakir/zh-parking-finder/internal/reload"
)

// Reloader is satisfied by *catalog.Holder.
type Reloader interface {
	Reload(ctx context.Context) (bool, error)
	Fingerprint() (uint64, bool)
}

type Consumer struct {
	cfg      Config
	logger   *slog.Logger
	reloader Reloader
	ver      *versionDedupe
}

func New(cfg Config, logger *slog.Logger, r Reloader) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		cfg:      cfg,
		logger:   logger,
		reloader: r,
		ver:      newVersionDedupe(cfg.DedupeSize),
	}
}

// Start consumes reload events until ctx is done.
func (c *Consumer) Start(ctx context.Context) error {
	if c.reloader == nil {
		return errors.New("kafkaconsumer: missing reloader")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.ClientID = "parking-finder"
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() {
		if err := group.Close(); err != nil {
			c.logger.Error("kafka consumer group close", "err", err)
		}
	}()

	go func() {
		for err := range group.Errors() {
			c.logger.Error("kafka group error", "err", err)
		}
	}()

	ctx = mylog.WithComponent(ctx, "reload_consumer")
	handler := &groupHandler{logger: c.logger, process: c.ProcessOne}

	c.logger.InfoContext(ctx, "kafka reload consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			c.logger.ErrorContext(ctx, "kafka consume error", "err", err)
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			c.logger.InfoContext(ctx, "kafka reload consumer shutting down")
			return nil
		}
	}
}

// ProcessOne applies a single reload notification.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ev, err := reload.Decode(msg.Value)
	if err != nil {
		obs.IncReloadEvent("invalid")
		return err
	}

	if !c.ver.shouldApply(ev.Source, ev.Version) {
		obs.IncReloadEvent("duplicate")
		c.logger.DebugContext(ctx, "stale reload event", "source", ev.Source, "version", ev.Version)
		return nil
	}

	same, err := c.alreadyActive(ev)
	if err != nil {
		obs.IncReloadEvent("invalid")
		return err
	}
	if same {
		obs.IncReloadEvent("unchanged")
		return nil
	}

	changed, err := c.reloader.Reload(ctx)
	if err != nil {
		obs.IncReloadEvent("error")
		return fmt.Errorf("reload (version %d): %w", ev.Version, err)
	}
	if !changed {
		obs.IncReloadEvent("unchanged")
		return nil
	}
	obs.IncReloadEvent("applied")
	c.logger.InfoContext(ctx, "catalog reloaded from event",
		"source", ev.Source,
		"version", ev.Version,
		"lag", time.Since(ev.TS))
	return nil
}

// alreadyActive reports whether the event's checksum matches the catalog in use.
// Events without a checksum always reload.
func (c *Consumer) alreadyActive(ev reload.Event) (bool, error) {
	if ev.Checksum == "" {
		return false, nil
	}
	sum, err := ev.Sum()
	if err != nil {
		return false, fmt.Errorf("reload event version %d: %w", ev.Version, err)
	}
	cur, ok := c.reloader.Fingerprint()
	return ok && cur == sum, nil
}
