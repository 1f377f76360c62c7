// Package redis implements db.Store on Redis or Valkey through rueidis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/localaid/localaid/internal/db"
)

var _ db.Store = (*Store)(nil)

const (
	firstRetryDelay = 50 * time.Millisecond
	maxRetryDelay   = time.Second
)

// Config holds connection parameters.
type Config struct {
	Addrs       []string
	Username    string
	Password    string
	DB          int
	Prefix      string        // prepended to every key
	DialTimeout time.Duration // 0 keeps the rueidis default
}

// Store is a rueidis-backed key-value store. Client-side caching is off:
// entries are written once and read rarely.
type Store struct {
	client rueidis.Client
	prefix string
}

// NewStore connects to the first reachable address.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, db.ErrNoAddrs
	}

	opt := rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	}
	if cfg.DialTimeout > 0 {
		opt.Dialer.Timeout = cfg.DialTimeout
	}

	client, err := rueidis.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("connect %v: %w", cfg.Addrs, err)
	}
	return &Store{client: client, prefix: cfg.Prefix}, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Do(ctx, s.client.B().Ping().Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady pings right away and then with a doubling delay until the
// store answers or timeout expires. The last ping error is kept in the result.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	delay := firstRetryDelay
	for {
		lastErr := s.Ping(ctx)
		if lastErr == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("store not ready: %w", errors.Join(ctx.Err(), lastErr))
		case <-time.After(delay):
		}
		delay = min(delay*2, maxRetryDelay)
	}
}

func (s *Store) key(k string) string {
	return s.prefix + k
}
