package answercache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/localaid/localaid/internal/db"
)

func TestComplete_CacheMiss(t *testing.T) {
	inner := &mockCompleter{answer: "fresh"}
	cc, ms := newTestCachedCompleter(t, inner, time.Hour)

	var setKey, setValue string
	var setTTL time.Duration
	ms.setFn = func(_ context.Context, key string, value []byte, ttl time.Duration) error {
		setKey, setValue, setTTL = key, string(value), ttl
		return nil
	}

	got, err := cc.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "fresh" || inner.calls != 1 {
		t.Fatalf("expected inner answer, got %q after %d calls", got, inner.calls)
	}
	if !strings.HasPrefix(setKey, cacheKeyPrefix) || setValue != "fresh" || setTTL != time.Hour {
		t.Errorf("unexpected cache put: key=%s value=%q ttl=%v", setKey, setValue, setTTL)
	}
}

func TestComplete_CacheHit(t *testing.T) {
	inner := &mockCompleter{answer: "fresh"}
	cc, ms := newTestCachedCompleter(t, inner, time.Hour)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return []byte("cached"), nil
	}

	got, err := cc.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "cached" {
		t.Errorf("expected cached answer, got %q", got)
	}
	if inner.calls != 0 {
		t.Error("inner completer must not be called on a hit")
	}
}

func TestComplete_InnerError(t *testing.T) {
	inner := &mockCompleter{err: errors.New("model offline")}
	cc, ms := newTestCachedCompleter(t, inner, time.Hour)

	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		t.Error("errors must not be cached")
		return nil
	}

	if _, err := cc.Complete(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error")
	}
}

func TestComplete_EmptyAnswerNotCached(t *testing.T) {
	cc, ms := newTestCachedCompleter(t, &mockCompleter{}, time.Hour)
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		t.Error("empty answers must not be cached")
		return nil
	}

	if _, err := cc.Complete(context.Background(), "prompt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestComplete_StoreFailuresIgnored(t *testing.T) {
	inner := &mockCompleter{answer: "fresh"}
	cc, ms := newTestCachedCompleter(t, inner, 0)

	ms.getFn = func(_ context.Context, _ string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpGet, Err: errors.New("connection reset")}
	}
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error {
		return errors.New("connection reset")
	}

	got, err := cc.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("cache failures must not fail the call: %v", err)
	}
	if got != "fresh" {
		t.Errorf("expected inner answer, got %q", got)
	}
}

func TestCacheKey_DependsOnModelAndPrompt(t *testing.T) {
	a := New(&mockCompleter{}, &mockKVStore{}, "mistral", 0, nil, nil)
	b := New(&mockCompleter{}, &mockKVStore{}, "llama3", 0, nil, nil)

	if a.cacheKey("p") == b.cacheKey("p") {
		t.Error("different models must not share keys")
	}
	if a.cacheKey("p") == a.cacheKey("q") {
		t.Error("different prompts must not share keys")
	}
	if a.cacheKey("p") != a.cacheKey("p") {
		t.Error("key must be deterministic")
	}
}

func TestComplete_Metrics(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_answer_cache_total"}, []string{"result"})
	store := &mockKVStore{}
	cc := New(&mockCompleter{answer: "a"}, store, "mistral", 0, counter, zap.NewNop())

	if _, err := cc.Complete(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}
	store.getFn = func(_ context.Context, _ string) ([]byte, error) { return []byte("a"), nil }
	if _, err := cc.Complete(context.Background(), "p"); err != nil {
		t.Fatal(err)
	}

	if v := testutil.ToFloat64(counter.WithLabelValues("miss")); v != 1 {
		t.Errorf("expected 1 miss, got %v", v)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("hit")); v != 1 {
		t.Errorf("expected 1 hit, got %v", v)
	}
}
