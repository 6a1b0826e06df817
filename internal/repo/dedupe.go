package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-dining-concierge/internal/domain"
)

// ErrDuplicate indicates that a processed-message record already exists for
// the given message id.
var ErrDuplicate = errors.New("duplicate")

// Deduper remembers queue messages that already produced a notification so
// a redelivered copy does not send a second email within TTL.
type Deduper struct {
	DB  *gorm.DB
	TTL time.Duration
	Now func() time.Time
}

// NewDeduper returns a Deduper keeping records for ttl.
func NewDeduper(db *gorm.DB, ttl time.Duration) *Deduper {
	return &Deduper{DB: db, TTL: ttl, Now: time.Now}
}

func (d *Deduper) now() time.Time {
	if d.Now == nil {
		return time.Now().UTC()
	}
	return d.Now().UTC()
}

// Seen reports whether messageID has a non-expired record.
func (d *Deduper) Seen(ctx context.Context, messageID string) (bool, error) {
	if strings.TrimSpace(messageID) == "" {
		return false, nil
	}
	var rec domain.ProcessedMessage
	err := d.DB.WithContext(ctx).
		Where("message_id = ? AND expires_at > ?", messageID, d.now()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Mark records that messageID was notified with restaurantID. A concurrent
// duplicate mark is not an error. An expired record for the same id is
// replaced.
func (d *Deduper) Mark(ctx context.Context, messageID, cuisine, restaurantID string) error {
	if strings.TrimSpace(messageID) == "" {
		return nil
	}
	now := d.now()
	db := d.DB.WithContext(ctx)
	if err := db.Where("message_id = ? AND expires_at <= ?", messageID, now).
		Delete(&domain.ProcessedMessage{}).Error; err != nil {
		return err
	}
	rec := &domain.ProcessedMessage{
		ID:           uuid.NewString(),
		MessageID:    messageID,
		Cuisine:      cuisine,
		RestaurantID: restaurantID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(d.TTL),
	}
	if err := db.Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return err
	}
	return nil
}

// Purge deletes expired records and returns how many were removed.
func (d *Deduper) Purge(ctx context.Context) (int64, error) {
	res := d.DB.WithContext(ctx).Where("expires_at <= ?", d.now()).Delete(&domain.ProcessedMessage{})
	return res.RowsAffected, res.Error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations;
	// Postgres reports SQLSTATE 23505.
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key value") ||
		strings.Contains(low, "23505")
}
