package transcript

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/convosim/internal/cache"
	"github.com/BaSui01/convosim/types"
)

// RedisStore keeps each transcript as a JSON value and indexes the keys in a
// sorted set scored by creation time. Expired values are pruned from the
// index when List meets them.
type RedisStore struct {
	cache  *cache.Manager
	index  string
	logger *zap.Logger
}

// OpenRedis connects to redis with cfg.
func OpenRedis(cfg cache.Config, logger *zap.Logger) (*RedisStore, error) {
	m, err := cache.NewManager(cfg, logger)
	if err != nil {
		return nil, types.NewError(types.ErrStoreUnavailable, "connect redis").WithCause(err).WithRetryable(true)
	}
	return NewRedisStore(m, logger), nil
}

// NewRedisStore wraps an open cache manager.
func NewRedisStore(m *cache.Manager, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{
		cache:  m,
		index:  m.Key("transcripts"),
		logger: logger.With(zap.String("component", "transcript_store")),
	}
}

func (s *RedisStore) key(id string) string {
	return s.cache.Key("transcript", id)
}

// Save writes t and indexes it.
func (s *RedisStore) Save(ctx context.Context, t *Transcript) error {
	score := float64(t.CreatedAt.UnixMilli())
	if err := s.cache.SetJSONIndexed(ctx, s.key(t.ID), t, s.index, score, 0); err != nil {
		s.logger.Error("save transcript failed", zap.String("id", t.ID), zap.Error(err))
		return types.NewError(types.ErrStoreUnavailable, "save transcript "+t.ID).WithCause(err)
	}
	return nil
}

// Get loads the transcript with id.
func (s *RedisStore) Get(ctx context.Context, id string) (*Transcript, error) {
	var t Transcript
	err := s.cache.GetJSON(ctx, s.key(id), &t)
	if cache.IsCacheMiss(err) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, types.NewError(types.ErrStoreUnavailable, "get transcript "+id).WithCause(err)
	}
	return &t, nil
}

// List loads the newest transcripts that have not expired.
func (s *RedisStore) List(ctx context.Context, limit int) ([]*Transcript, error) {
	keys, err := s.cache.IndexRange(ctx, s.index, 0)
	if err != nil {
		return nil, types.NewError(types.ErrStoreUnavailable, "list transcripts").WithCause(err)
	}

	var (
		out     []*Transcript
		expired []string
	)
	for _, key := range keys {
		if limit > 0 && len(out) >= limit {
			break
		}
		var t Transcript
		err := s.cache.GetJSON(ctx, key, &t)
		if cache.IsCacheMiss(err) {
			expired = append(expired, key)
			continue
		}
		if err != nil {
			return nil, types.NewError(types.ErrStoreUnavailable, "list transcripts").WithCause(err)
		}
		out = append(out, &t)
	}

	if err := s.cache.IndexRemove(ctx, s.index, expired...); err != nil {
		s.logger.Warn("prune transcript index failed", zap.Int("expired", len(expired)), zap.Error(err))
	}
	return out, nil
}

// Ping checks the redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.cache.Ping(ctx)
}

// Close closes the redis client.
func (s *RedisStore) Close() error {
	return s.cache.Close()
}
