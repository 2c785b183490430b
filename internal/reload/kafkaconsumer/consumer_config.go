package kafkaconsumer

import (
	"time"

	"github.com/mohammed-shakir/zh-parking-finder/internal/core/config"
)

type Config struct {
	Brokers             []string
	Topic               string
	GroupID             string
	SessionTimeout      time.Duration
	Heartbeat           time.Duration
	RebalanceTimeout    time.Duration
	InitialOffsetOldest bool
	DedupeSize          int
}

// FromConfig fills the group timings around the service config. Each
// instance starts from the newest offset: the catalog is loaded in full at
// startup so older notifications carry nothing new.
func FromConfig(rc config.ReloadCfg) Config {
	return Config{
		Brokers:          rc.Brokers,
		Topic:            rc.Topic,
		GroupID:          rc.GroupID,
		SessionTimeout:   30 * time.Second,
		Heartbeat:        3 * time.Second,
		RebalanceTimeout: 30 * time.Second,
		DedupeSize:       256,
	}
}
