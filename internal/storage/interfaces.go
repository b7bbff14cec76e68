// Package storage persists player records between server runs.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/haasonsaas/simpleplugin/internal/format"
)

// ErrInvalidRecord is returned when saving a record without an ID or name.
var ErrInvalidRecord = errors.New("invalid record")

// PlayerRecord is what the server remembers about a player after they leave.
type PlayerRecord struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	LastSeen time.Time       `json:"last_seen"`
	Location format.Location `json:"location"`
}

// Validate checks that the record can be stored.
func (r *PlayerRecord) Validate() error {
	if r == nil {
		return ErrInvalidRecord
	}
	if r.ID == uuid.Nil || r.Name == "" {
		return ErrInvalidRecord
	}
	return nil
}

// RecordStore persists player records. Get returns (nil, nil) when no record
// matches.
type RecordStore interface {
	// Save inserts or replaces the record with the same ID.
	Save(ctx context.Context, rec *PlayerRecord) error

	// Get finds the most recently seen record for a name, ignoring case.
	Get(ctx context.Context, name string) (*PlayerRecord, error)

	// GetByID finds a record by player ID.
	GetByID(ctx context.Context, id uuid.UUID) (*PlayerRecord, error)

	// List returns records, most recently seen first.
	List(ctx context.Context, limit, offset int) ([]*PlayerRecord, error)

	Close() error
}
