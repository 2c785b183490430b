package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/zh-parking-finder/internal/cache/redisstore"
)

type countingSource struct {
	data  atomic.Value
	err   atomic.Value
	loads atomic.Int32
}

func (s *countingSource) Load(_ context.Context) ([]byte, error) {
	s.loads.Add(1)
	if e, ok := s.err.Load().(error); ok && e != nil {
		return nil, e
	}
	b, _ := s.data.Load().([]byte)
	return b, nil
}

func (s *countingSource) Name() string { return "counting" }

func TestHolder_CurrentLoadsLazily(t *testing.T) {
	src := &countingSource{}
	src.data.Store([]byte(`[{"name":"A","coordinates":[47.37,8.54]}]`))
	h := NewHolder(src, 8, nil)

	if ready, _ := h.Readiness(); ready {
		t.Fatalf("expected not ready before first load")
	}
	c, err := h.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len=%d want 1", c.Len())
	}
	if _, err := h.Current(context.Background()); err != nil {
		t.Fatalf("Current second: %v", err)
	}
	if n := src.loads.Load(); n != 1 {
		t.Fatalf("loads=%d want 1", n)
	}
	if ready, n := h.Readiness(); !ready || n != 1 {
		t.Fatalf("Readiness=%v,%d want true,1", ready, n)
	}
}

func TestHolder_UnchangedFingerprintSkipsSwap(t *testing.T) {
	src := &countingSource{}
	src.data.Store([]byte(`[{"name":"A"}]`))
	h := NewHolder(src, 8, nil)
	ctx := context.Background()

	changed, err := h.Reload(ctx)
	if err != nil || !changed {
		t.Fatalf("first reload changed=%v err=%v", changed, err)
	}
	first, _ := h.Current(ctx)

	changed, err = h.Reload(ctx)
	if err != nil || changed {
		t.Fatalf("identical reload changed=%v err=%v", changed, err)
	}
	if again, _ := h.Current(ctx); again != first {
		t.Fatalf("snapshot replaced although document unchanged")
	}

	src.data.Store([]byte(`[{"name":"A"},{"name":"B"}]`))
	changed, err = h.Reload(ctx)
	if err != nil || !changed {
		t.Fatalf("new document changed=%v err=%v", changed, err)
	}
	if c, _ := h.Current(ctx); c.Len() != 2 {
		t.Fatalf("Len=%d want 2", c.Len())
	}
}

func TestHolder_FailedReloadKeepsPrevious(t *testing.T) {
	src := &countingSource{}
	src.data.Store([]byte(`[{"name":"A"}]`))
	h := NewHolder(src, 8, nil)
	ctx := context.Background()
	if _, err := h.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	src.data.Store([]byte(`not json`))
	if _, err := h.Reload(ctx); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err=%v want ErrUnavailable", err)
	}
	c, err := h.Current(ctx)
	if err != nil || c.Len() != 1 {
		t.Fatalf("previous snapshot lost: %v %v", c, err)
	}
}

func TestHolder_NeverLoadedIsUnavailable(t *testing.T) {
	src := &countingSource{}
	src.err.Store(errors.New("disk on fire"))
	h := NewHolder(src, 8, nil)

	if _, err := h.Current(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err=%v want ErrUnavailable", err)
	}
}

func TestHolder_FileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parking_static_data.json")
	if err := os.WriteFile(path, []byte(sampleJSON), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	h := NewHolder(FileSource{Path: path}, 8, nil)
	c, err := h.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if c.Len() != 4 {
		t.Fatalf("Len=%d want 4", c.Len())
	}
}

func TestHolder_RedisSource(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	rc, err := redisstore.New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })

	h := NewHolder(RedisSource{Store: rc, Key: "parking:catalog"}, 8, nil)
	if _, err := h.Current(ctx); !errors.Is(err, ErrUnavailable) || !errors.Is(err, redisstore.ErrNotFound) {
		t.Fatalf("missing key err=%v want ErrUnavailable wrapping ErrNotFound", err)
	}

	if err := mr.Set("parking:catalog", sampleJSON); err != nil {
		t.Fatalf("seed: %v", err)
	}
	c, err := h.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if c.Facilities()[0].Name != "Parkhaus Urania" {
		t.Fatalf("unexpected first facility %q", c.Facilities()[0].Name)
	}
}

func TestHolder_RunReloadsOnTick(t *testing.T) {
	src := &countingSource{}
	src.data.Store([]byte(`[{"name":"A"}]`))
	h := NewHolder(src, 8, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for src.loads.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("Run did not reload, loads=%d", src.loads.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if ready, _ := h.Readiness(); !ready {
		t.Fatalf("expected ready after periodic reload")
	}
}

func TestHolder_Fingerprint(t *testing.T) {
	src := &countingSource{}
	doc := []byte(`[{"name":"A"}]`)
	src.data.Store(doc)
	h := NewHolder(src, 8, nil)

	if _, ok := h.Fingerprint(); ok {
		t.Fatalf("fingerprint reported before first load")
	}
	if _, err := h.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if fp, ok := h.Fingerprint(); !ok || fp != xxhash.Sum64(doc) {
		t.Fatalf("fingerprint=%x ok=%v want %x", fp, ok, xxhash.Sum64(doc))
	}
}
