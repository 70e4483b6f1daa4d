package kv

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/kestrelhq/sessionvault/internal/errkind"
)

type deferredWrite struct {
	key   string
	value string
}

// RedisStore is a Redis-backed [Store]. Deferred writes are applied by a
// single background worker; if the queue is full the write is dropped and
// counted rather than blocking the caller.
type RedisStore struct {
	redis  redis.UniversalClient
	prefix string

	ch        chan deferredWrite
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closeOnce sync.Once
}

const deferredQueueSize = 256

// NewRedisStore creates a [RedisStore] with the given key namespace prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	s := &RedisStore{
		redis:  client,
		prefix: prefix,
		ch:     make(chan deferredWrite, deferredQueueSize),
		done:   make(chan struct{}),
	}

	s.wg.Add(1)
	go s.run()

	return s
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisStore) run() {
	defer s.wg.Done()

	for {
		select {
		case w := <-s.ch:
			s.apply(w)
		case <-s.done:
			for {
				select {
				case w := <-s.ch:
					s.apply(w)
				default:
					return
				}
			}
		}
	}
}

func (s *RedisStore) apply(w deferredWrite) {
	if err := s.redis.Set(context.Background(), s.key(w.key), w.value, 0).Err(); err != nil {
		s.dropped.Add(1)
	}
}

// Set writes synchronously and waits for the backend acknowledgement.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.redis.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return errkind.New(errkind.KindStorage, fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	return nil
}

// SetDeferred queues a best-effort write, dropping it when the queue is full.
func (s *RedisStore) SetDeferred(key, value string) {
	select {
	case s.ch <- deferredWrite{key: key, value: value}:
	case <-s.done:
	default:
		s.dropped.Add(1)
	}
}

// Get returns the stored value and whether the key exists.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil
		}
		return "", false, errkind.New(errkind.KindStorage, fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	return value, true, nil
}

// Delete removes a key. Idempotent.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return errkind.New(errkind.KindStorage, fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	return nil
}

// Keys scans stored keys with the given prefix. O(n) over the namespace;
// callers keep it off hot paths.
func (s *RedisStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	pattern := s.key(prefix) + "*"
	var (
		cursor uint64
		out    []string
	)

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, pattern, 1000).Result()
		if err != nil {
			return nil, errkind.New(errkind.KindStorage, fmt.Errorf("%w: %v", ErrUnavailable, err))
		}
		for _, k := range keys {
			out = append(out, k[len(s.prefix)+1:])
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return out, nil
}

// Dropped returns the number of deferred writes lost to queue pressure or
// backend failure.
func (s *RedisStore) Dropped() uint64 {
	return s.dropped.Load()
}

// Close drains the deferred queue and stops the worker.
func (s *RedisStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return nil
}
