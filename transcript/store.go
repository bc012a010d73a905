package transcript

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/convosim/config"
	"github.com/BaSui01/convosim/internal/cache"
	"github.com/BaSui01/convosim/internal/database"
	"github.com/BaSui01/convosim/types"
)

// Store persists transcripts. List returns the newest transcripts by
// CreatedAt first; a limit of zero or less means no limit.
type Store interface {
	Save(ctx context.Context, t *Transcript) error
	Get(ctx context.Context, id string) (*Transcript, error)
	List(ctx context.Context, limit int) ([]*Transcript, error)
	Ping(ctx context.Context) error
	Close() error
}

func notFound(id string) error {
	return types.Errorf(types.ErrTranscriptNotFound, "transcript %s not found", id)
}

// Open creates the store selected by cfg.Driver.
func Open(cfg config.StoreConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite", "postgres", "mysql":
		pool := database.DefaultPoolConfig()
		if cfg.MaxOpenConns > 0 {
			pool.MaxOpenConns = cfg.MaxOpenConns
			pool.MaxIdleConns = min(pool.MaxIdleConns, cfg.MaxOpenConns)
		}
		return OpenGorm(cfg.Driver, cfg.DSN, pool, logger)
	case "redis":
		cc := cache.DefaultConfig()
		cc.Addr = cfg.RedisAddr
		cc.Password = cfg.RedisPassword
		cc.DB = cfg.RedisDB
		cc.KeyPrefix = cfg.KeyPrefix
		cc.DefaultTTL = cfg.TTL
		return OpenRedis(cc, logger)
	default:
		return nil, types.Errorf(types.ErrUnsupportedStoreType, "unsupported store driver: %s", cfg.Driver)
	}
}

// MemoryStore keeps transcripts in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*Transcript
	order []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*Transcript)}
}

// Save stores a copy of t, replacing any transcript with the same ID.
func (s *MemoryStore) Save(_ context.Context, t *Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[t.ID]; exists {
		s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == t.ID })
	}
	s.byID[t.ID] = t.Clone()
	s.order = append(s.order, t.ID)
	return nil
}

// Get returns a copy of the transcript with id.
func (s *MemoryStore) Get(_ context.Context, id string) (*Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.byID[id]
	if !ok {
		return nil, notFound(id)
	}
	return t.Clone(), nil
}

// List returns copies of the newest transcripts. Ties keep the most recently
// saved first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]*Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*Transcript, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		all = append(all, s.byID[s.order[i]])
	}
	slices.SortStableFunc(all, func(a, b *Transcript) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	out := make([]*Transcript, len(all))
	for i, t := range all {
		out[i] = t.Clone()
	}
	return out, nil
}

// Len returns the number of stored transcripts.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
