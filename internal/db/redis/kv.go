package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/localaid/localaid/internal/db"
)

// Get returns the value stored at key or db.ErrKeyNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	k := s.key(key)
	data, err := s.client.Do(ctx, s.client.B().Get().Key(k).Build()).AsBytes()
	switch {
	case rueidis.IsRedisNil(err):
		return nil, db.ErrKeyNotFound
	case err != nil:
		return nil, &db.Error{Op: db.OpGet, Key: k, Err: err}
	}
	return data, nil
}

// Put stores value at key. A positive ttl sets an expiry in seconds.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	k := s.key(key)
	set := s.client.B().Set().Key(k).Value(rueidis.BinaryString(value))

	var cmd rueidis.Completed
	if ttl > 0 {
		cmd = set.Ex(ttl).Build()
	} else {
		cmd = set.Build()
	}

	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Key: k, Err: err}
	}
	return nil
}
