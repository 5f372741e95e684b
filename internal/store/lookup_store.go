// Package store persists completed lookups. Records are append-only:
// the store exposes create and read operations, never update or delete.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/threatscope/threatscope/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound indicates no lookup exists for the given id.
var ErrNotFound = errors.New("lookup not found")

// LookupStore is the persistence boundary for completed lookups.
type LookupStore interface {
	// Create appends a completed lookup record.
	Create(ctx context.Context, lookup *models.Lookup) error
	// GetByID returns the lookup with the given id, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Lookup, error)
	// ListByUserBetween returns a user's lookups with createdAt in
	// [from, to], ordered by createdAt ascending.
	ListByUserBetween(ctx context.Context, userID uint64, from, to time.Time) ([]models.Lookup, error)
}

// GormLookupStore is a LookupStore backed by GORM.
type GormLookupStore struct {
	db *gorm.DB
}

// NewGormLookupStore constructs a GormLookupStore.
func NewGormLookupStore(db *gorm.DB) *GormLookupStore {
	return &GormLookupStore{db: db}
}

// Create implements LookupStore.
func (s *GormLookupStore) Create(ctx context.Context, lookup *models.Lookup) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store: nil db")
	}
	if errCreate := s.db.WithContext(ctx).Create(lookup).Error; errCreate != nil {
		return fmt.Errorf("store: create lookup: %w", errCreate)
	}
	return nil
}

// GetByID implements LookupStore.
func (s *GormLookupStore) GetByID(ctx context.Context, id string) (*models.Lookup, error) {
	var lookup models.Lookup
	errFind := s.db.WithContext(ctx).Where("id = ?", id).Take(&lookup).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get lookup: %w", errFind)
	}
	return &lookup, nil
}

// ListByUserBetween implements LookupStore.
func (s *GormLookupStore) ListByUserBetween(ctx context.Context, userID uint64, from, to time.Time) ([]models.Lookup, error) {
	var lookups []models.Lookup
	errFind := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at <= ?", userID, from, to).
		Order("created_at ASC").
		Find(&lookups).Error
	if errFind != nil {
		return nil, fmt.Errorf("store: list lookups: %w", errFind)
	}
	return lookups, nil
}
