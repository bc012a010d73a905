package transcript

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/convosim/config"
	"github.com/BaSui01/convosim/internal/cache"
	"github.com/BaSui01/convosim/internal/database"
	"github.com/BaSui01/convosim/types"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleTranscript(i int) *Transcript {
	return &Transcript{
		ID:        fmt.Sprintf("00000000-0000-0000-0000-%012d", i),
		CreatedAt: baseTime.Add(time.Duration(i) * time.Second),
		Pack:      "demo",
		Initiator: "person0",
		Person0:   "Ada",
		Person1:   "Bram",
		Turns: []Turn{
			{Index: 0, Speaker: "person0", Utterance: "Hello.", AddressedMoves: []string{"greet"}},
			{
				Index:             1,
				Speaker:           "person1",
				Utterance:         fmt.Sprintf("Reply %d.", i),
				PushedObligations: []PushedObligation{{To: "person0", Move: "answer", Urgency: 0, TTL: 3}},
				IntroducedTopics:  []string{"weather"},
			},
		},
	}
}

func assertSameTranscript(t *testing.T, want, got *Transcript) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", want.CreatedAt, got.CreatedAt)
	assert.Equal(t, want.Pack, got.Pack)
	assert.Equal(t, want.Initiator, got.Initiator)
	assert.Equal(t, want.Person0, got.Person0)
	assert.Equal(t, want.Person1, got.Person1)
	assert.Equal(t, want.Turns, got.Turns)
}

// runStoreSuite exercises the behavior every Store implementation shares.
func runStoreSuite(t *testing.T, store Store) {
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	_, err := store.Get(ctx, "missing")
	assert.True(t, types.IsErrorCode(err, types.ErrTranscriptNotFound))

	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	// saved out of creation order
	for _, i := range []int{2, 1, 3} {
		require.NoError(t, store.Save(ctx, sampleTranscript(i)))
	}

	got, err := store.Get(ctx, sampleTranscript(1).ID)
	require.NoError(t, err)
	assertSameTranscript(t, sampleTranscript(1), got)

	list, err = store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, want := range []int{3, 2, 1} {
		assertSameTranscript(t, sampleTranscript(want), list[i])
	}

	list, err = store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, sampleTranscript(3).ID, list[0].ID)

	// saving the same ID replaces the record
	updated := sampleTranscript(2)
	updated.Turns = updated.Turns[:1]
	require.NoError(t, store.Save(ctx, updated))
	got, err = store.Get(ctx, updated.ID)
	require.NoError(t, err)
	assertSameTranscript(t, updated, got)
	list, err = store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	runStoreSuite(t, store)
	assert.Equal(t, 3, store.Len())
	require.NoError(t, store.Close())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	tr := sampleTranscript(1)
	require.NoError(t, store.Save(ctx, tr))
	tr.Turns[0].Utterance = "mutated after save"

	got, err := store.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello.", got.Turns[0].Utterance)

	got.Turns[0].Utterance = "mutated after get"
	again, err := store.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello.", again.Turns[0].Utterance)
}

func TestGormStore_SQLite(t *testing.T) {
	store, err := OpenGorm("sqlite", ":memory:", database.DefaultPoolConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	runStoreSuite(t, store)
}

func newRedisStore(t *testing.T) (*miniredis.Miniredis, *RedisStore) {
	mr := miniredis.RunT(t)
	cfg := cache.DefaultConfig()
	cfg.Addr = mr.Addr()
	cfg.KeyPrefix = "test:"
	cfg.HealthCheckInterval = 0

	store, err := OpenRedis(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return mr, store
}

func TestRedisStore(t *testing.T) {
	mr, store := newRedisStore(t)
	runStoreSuite(t, store)

	assert.True(t, mr.Exists("test:transcript:"+sampleTranscript(1).ID))
}

func TestRedisStore_PrunesExpired(t *testing.T) {
	mr, store := newRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleTranscript(1)))
	require.NoError(t, store.Save(ctx, sampleTranscript(2)))
	mr.Del("test:transcript:" + sampleTranscript(2).ID)

	list, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, sampleTranscript(1).ID, list[0].ID)

	members, err := mr.ZMembers("test:transcripts")
	require.NoError(t, err)
	assert.Equal(t, []string{"test:transcript:" + sampleTranscript(1).ID}, members)
}

func TestOpen(t *testing.T) {
	logger := zaptest.NewLogger(t)

	store, err := Open(config.StoreConfig{Driver: "memory"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = Open(config.StoreConfig{Driver: "sqlite", DSN: ":memory:", MaxOpenConns: 4}, logger)
	require.NoError(t, err)
	assert.IsType(t, &GormStore{}, store)
	require.NoError(t, store.Close())

	mr := miniredis.RunT(t)
	store, err = Open(config.StoreConfig{Driver: "redis", RedisAddr: mr.Addr(), KeyPrefix: "x:"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, store)
	require.NoError(t, store.Close())

	_, err = Open(config.StoreConfig{Driver: "cassandra"}, logger)
	assert.True(t, types.IsErrorCode(err, types.ErrUnsupportedStoreType))
}
