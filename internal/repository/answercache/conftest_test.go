package answercache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/localaid/localaid/internal/db"
)

type mockCompleter struct {
	answer string
	err    error
	calls  int
}

func (m *mockCompleter) Complete(_ context.Context, _ string) (string, error) {
	m.calls++
	return m.answer, m.err
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockKVStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func newTestCachedCompleter(t *testing.T, inner *mockCompleter, ttl time.Duration) (*CachedCompleter, *mockKVStore) {
	t.Helper()
	ms := &mockKVStore{}
	cc := New(inner, ms, "mistral", ttl, nil, zap.NewNop())
	return cc, ms
}
