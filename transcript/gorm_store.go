package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BaSui01/convosim/internal/database"
	"github.com/BaSui01/convosim/types"
)

const saveRetries = 3

// transcriptRecord is the SQL row; turns are stored as a JSON document.
type transcriptRecord struct {
	Seq       uint      `gorm:"primaryKey;autoIncrement"`
	ID        string    `gorm:"size:36;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"index"`
	Pack      string    `gorm:"size:128"`
	Initiator string    `gorm:"size:16"`
	Person0   string    `gorm:"size:128"`
	Person1   string    `gorm:"size:128"`
	TurnCount int
	Turns     string `gorm:"type:text"`
}

func (transcriptRecord) TableName() string { return "transcripts" }

// GormStore persists transcripts in a SQL database through GORM.
type GormStore struct {
	pool   *database.PoolManager
	logger *zap.Logger
}

// OpenGorm connects to driver (sqlite, postgres or mysql) and migrates the
// schema.
func OpenGorm(driver, dsn string, pool database.PoolConfig, logger *zap.Logger) (*GormStore, error) {
	pm, err := database.Open(driver, dsn, pool, logger)
	if err != nil {
		return nil, err
	}
	store, err := NewGormStore(pm, logger)
	if err != nil {
		_ = pm.Close()
		return nil, err
	}
	return store, nil
}

// NewGormStore wraps an open pool and migrates the schema.
func NewGormStore(pm *database.PoolManager, logger *zap.Logger) (*GormStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := pm.DB().AutoMigrate(&transcriptRecord{}); err != nil {
		return nil, fmt.Errorf("migrate transcripts: %w", err)
	}
	return &GormStore{pool: pm, logger: logger.With(zap.String("component", "transcript_store"))}, nil
}

// Save inserts t or replaces the transcript with the same ID.
func (s *GormStore) Save(ctx context.Context, t *Transcript) error {
	turns, err := json.Marshal(t.Turns)
	if err != nil {
		return fmt.Errorf("marshal turns: %w", err)
	}
	rec := &transcriptRecord{
		ID:        t.ID,
		CreatedAt: t.CreatedAt,
		Pack:      t.Pack,
		Initiator: t.Initiator,
		Person0:   t.Person0,
		Person1:   t.Person1,
		TurnCount: len(t.Turns),
		Turns:     string(turns),
	}

	err = s.pool.WithTransactionRetry(ctx, saveRetries, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"created_at", "pack", "initiator", "person0", "person1", "turn_count", "turns",
			}),
		}).Create(rec).Error
	})
	if err != nil {
		s.logger.Error("save transcript failed", zap.String("id", t.ID), zap.Error(err))
		return types.NewError(types.ErrStoreUnavailable, "save transcript "+t.ID).WithCause(err)
	}
	return nil
}

// Get loads the transcript with id.
func (s *GormStore) Get(ctx context.Context, id string) (*Transcript, error) {
	var rec transcriptRecord
	err := s.pool.DB().WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, types.NewError(types.ErrStoreUnavailable, "get transcript "+id).WithCause(err)
	}
	return rec.transcript()
}

// List loads the newest transcripts.
func (s *GormStore) List(ctx context.Context, limit int) ([]*Transcript, error) {
	q := s.pool.DB().WithContext(ctx).Order("created_at DESC").Order("seq DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var recs []transcriptRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, types.NewError(types.ErrStoreUnavailable, "list transcripts").WithCause(err)
	}

	out := make([]*Transcript, 0, len(recs))
	for i := range recs {
		t, err := recs[i].transcript()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Ping checks the database connection.
func (s *GormStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *GormStore) Close() error {
	return s.pool.Close()
}

func (r *transcriptRecord) transcript() (*Transcript, error) {
	t := &Transcript{
		ID:        r.ID,
		CreatedAt: r.CreatedAt.UTC(),
		Pack:      r.Pack,
		Initiator: r.Initiator,
		Person0:   r.Person0,
		Person1:   r.Person1,
	}
	if err := json.Unmarshal([]byte(r.Turns), &t.Turns); err != nil {
		return nil, fmt.Errorf("decode turns of %s: %w", r.ID, err)
	}
	return t, nil
}
