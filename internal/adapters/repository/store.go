// Package repository stores completed-level records and ranks them per level.
package repository

import (
	"context"

	"github.com/okian/beatcore/internal/domain/model"
)

// Entry is a stored record with its position in the ranking it was read
// from. Records with equal scores share a position.
type Entry struct {
	Position int
	Record   model.CompletedLevel
}

// Store provides read/write access to completed-level records.
type Store interface {
	// Save stores rec, replacing any record with the same ID.
	// Returns ErrInvalidRecord if rec has no ID or level ID.
	Save(ctx context.Context, rec model.CompletedLevel) error

	// Best returns the highest scoring record of a level.
	// Returns ErrNotFound if the level has no records.
	Best(ctx context.Context, levelID string) (model.CompletedLevel, error)

	// List returns up to limit records ordered by score desc, earliest play
	// first on ties. An empty levelID lists every level.
	List(ctx context.Context, levelID string, limit int) ([]Entry, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) int

	// Close releases the store. Later calls return ErrClosed.
	Close() error
}

func validate(rec model.CompletedLevel) error {
	if rec.ID == "" || rec.LevelID == "" {
		return ErrInvalidRecord
	}
	return nil
}

// assignPositions numbers entries already in ranking order. Equal scores
// share a position and the next distinct score takes the following one.
func assignPositions(entries []Entry) {
	pos := 0
	for i := range entries {
		if i == 0 || entries[i].Record.Score != entries[i-1].Record.Score {
			pos++
		}
		entries[i].Position = pos
	}
}
