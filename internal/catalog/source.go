package catalog

import (
	"context"
	"fmt"
	"os"
)

// Source yields the raw catalog document.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
	Name() string
}

type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Path, err)
	}
	return b, nil
}

func (s FileSource) Name() string { return "file:" + s.Path }

type Getter interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// RedisSource reads the catalog document stored under Key by catalog-publisher.
type RedisSource struct {
	Store Getter
	Key   string
}

func (s RedisSource) Load(ctx context.Context) ([]byte, error) {
	b, err := s.Store.Get(ctx, s.Key)
	if err != nil {
		return nil, fmt.Errorf("load catalog from redis: %w", err)
	}
	return b, nil
}

func (s RedisSource) Name() string { return "redis:" + s.Key }
