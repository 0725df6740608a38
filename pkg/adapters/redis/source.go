package redis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/cyrkana/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key the adapter touches.
const DefaultPrefix = "cyrkana:pack:"

// Source implements ports.PackSource, ports.PackPublisher and
// ports.Watchable using Redis.
//
// Layout: <prefix>profiles and <prefix>phonetic are strings, <prefix>schemas
// is a hash of schema id to document, and schema changes are announced on
// the <prefix>changes channel.
type Source struct {
	client  *backend.Client
	prefix  string
	lockTTL time.Duration
	locker  *Locker
	logger  *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Source) {
		s.prefix = prefix
	}
}

// WithLockTTL bounds how long a crashed publisher can hold the publish lock.
func WithLockTTL(ttl time.Duration) Option {
	return func(s *Source) {
		s.lockTTL = ttl
	}
}

// WithLogger sets the logger used by the watcher.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// New creates a new Redis source with options.
func New(address, password string, db int, opts ...Option) *Source {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis source from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Source {
	s := &Source{
		client:  client,
		prefix:  DefaultPrefix,
		lockTTL: 30 * time.Second,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.locker = NewLocker(client, s.prefix)
	return s
}

// Close closes the underlying client.
func (s *Source) Close() error {
	return s.client.Close()
}

func (s *Source) profilesKey() string { return s.prefix + "profiles" }
func (s *Source) phoneticKey() string { return s.prefix + "phonetic" }
func (s *Source) schemasKey() string  { return s.prefix + "schemas" }
func (s *Source) changesKey() string  { return s.prefix + "changes" }

// Profiles returns the profile list document.
func (s *Source) Profiles(ctx context.Context) ([]byte, error) {
	return s.get(ctx, s.profilesKey(), "profiles")
}

// PhoneticTable returns the phonetic table document.
func (s *Source) PhoneticTable(ctx context.Context) ([]byte, error) {
	return s.get(ctx, s.phoneticKey(), "phonetic table")
}

// Schema returns the schema document stored under id.
func (s *Source) Schema(ctx context.Context, id string) ([]byte, error) {
	val, err := s.client.HGet(ctx, s.schemasKey(), id).Bytes()
	if err != nil {
		if err == backend.Nil {
			return nil, fmt.Errorf("%w: schema %s", domain.ErrDocumentNotFound, id)
		}
		return nil, fmt.Errorf("failed to load schema %s from redis: %w", id, err)
	}
	return val, nil
}

// ListSchemas returns all schema ids, sorted.
func (s *Source) ListSchemas(ctx context.Context) ([]string, error) {
	ids, err := s.client.HKeys(ctx, s.schemasKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Publish writes the pack in a single transaction while holding the publish
// lock, then announces every schema id it wrote.
func (s *Source) Publish(ctx context.Context, pack domain.Pack) error {
	unlock, err := s.locker.Lock(ctx, "publish", s.lockTTL)
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release publish lock", "err", err)
		}
	}()

	pipe := s.client.TxPipeline()
	if pack.Profiles != nil {
		pipe.Set(ctx, s.profilesKey(), pack.Profiles, 0)
	}
	if pack.Phonetic != nil {
		pipe.Set(ctx, s.phoneticKey(), pack.Phonetic, 0)
	}
	ids := pack.SchemaIDs()
	if len(ids) > 0 {
		fields := make([]any, 0, 2*len(ids))
		for _, id := range ids {
			fields = append(fields, id, pack.Schemas[id])
		}
		pipe.HSet(ctx, s.schemasKey(), fields...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish pack to redis: %w", err)
	}

	for _, id := range ids {
		if err := s.client.Publish(ctx, s.changesKey(), id).Err(); err != nil {
			return fmt.Errorf("failed to announce schema %s: %w", id, err)
		}
	}
	return nil
}

// Watch subscribes to schema change announcements.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	sub := s.client.Subscribe(ctx, s.changesKey())
	// Wait for the subscription to be confirmed so no announcement is missed.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", s.changesKey(), err)
	}

	out := make(chan string, 16)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *Source) get(ctx context.Context, key, what string) ([]byte, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == backend.Nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, what)
		}
		return nil, fmt.Errorf("failed to load %s from redis: %w", what, err)
	}
	return val, nil
}
