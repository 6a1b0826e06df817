package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-dining-concierge/internal/domain"
)

// SessionStore persists sessions of the built-in dialog engine.
type SessionStore struct {
	DB *gorm.DB
}

// NewSessionStore returns a store on db.
func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{DB: db}
}

// Load returns the session or ErrNotFound.
func (s *SessionStore) Load(ctx context.Context, id string) (*domain.DialogSession, error) {
	var sess domain.DialogSession
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Save inserts or updates a session.
func (s *SessionStore) Save(ctx context.Context, sess *domain.DialogSession) error {
	if sess.Slots == "" {
		sess.Slots = "{}"
	}
	if sess.Attributes == "" {
		sess.Attributes = "{}"
	}
	return s.DB.WithContext(ctx).Save(sess).Error
}

// Delete removes a session; deleting an unknown session is not an error.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Where("id = ?", id).Delete(&domain.DialogSession{}).Error
}

// PurgeIdle removes sessions not updated since olderThan ago.
func (s *SessionStore) PurgeIdle(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	res := s.DB.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&domain.DialogSession{})
	return res.RowsAffected, res.Error
}
