package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-dining-concierge/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = domain.ErrNotFound

// batchSize bounds the rows per INSERT statement (SQLite caps bound
// variables per statement).
const batchSize = 100

// RestaurantStore is the key-value store of restaurant records keyed by
// business id, on SQLite or Postgres.
type RestaurantStore struct {
	DB *gorm.DB
}

// NewRestaurantStore returns a store on db.
func NewRestaurantStore(db *gorm.DB) *RestaurantStore {
	return &RestaurantStore{DB: db}
}

// Get returns the record with the given business id or ErrNotFound.
func (s *RestaurantStore) Get(ctx context.Context, id string) (*domain.RestaurantRecord, error) {
	var rec domain.RestaurantRecord
	err := s.DB.WithContext(ctx).Where("business_id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Scan returns up to limit records after cursor in business id order, and
// the cursor of the next page ("" when this was the last page). Pass "" to
// start from the beginning.
func (s *RestaurantStore) Scan(ctx context.Context, cursor string, limit int) ([]domain.RestaurantRecord, string, error) {
	if limit <= 0 {
		limit = batchSize
	}
	q := s.DB.WithContext(ctx).Order("business_id ASC").Limit(limit)
	if cursor != "" {
		q = q.Where("business_id > ?", cursor)
	}
	var out []domain.RestaurantRecord
	if err := q.Find(&out).Error; err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].BusinessID
	}
	return out, next, nil
}

// upsertColumns are refreshed when a record is re-ingested. inserted_at
// keeps the first ingestion time.
var upsertColumns = []string{
	"name", "address", "cuisine", "coord_latitude", "coord_longitude",
	"review_count", "rating", "zip_code",
}

// BatchPut upserts records by business id. Records without an id are
// rejected by the primary key constraint.
func (s *RestaurantStore) BatchPut(ctx context.Context, recs []domain.RestaurantRecord) error {
	if len(recs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range recs {
		if recs[i].InsertedAt.IsZero() {
			recs[i].InsertedAt = now
		}
	}
	return s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "business_id"}},
			DoUpdates: clause.AssignmentColumns(upsertColumns),
		}).
		CreateInBatches(&recs, batchSize).Error
}

// Ping implements a readiness check.
func (s *RestaurantStore) Ping(ctx context.Context) error {
	return Ping(ctx, s.DB)
}
