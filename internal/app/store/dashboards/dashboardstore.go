// internal/app/store/dashboards/dashboardstore.go
package dashboardstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dalemusser/stratadash/internal/app/store/docstore"
	"github.com/dalemusser/stratadash/internal/domain/models"
	"go.uber.org/zap"
)

// Key is the document-store key holding the dashboard collection.
const Key = "custom_dashboards"

var (
	// ErrNotFound is returned when a dashboard does not exist.
	ErrNotFound = errors.New("dashboard not found")
	// ErrConflict is returned by Save when the stored version is not the one
	// the caller's edit was based on.
	ErrConflict = errors.New("dashboard was modified by someone else")
)

// SerializationError wraps a stored collection that could not be parsed.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return "stored dashboards are unreadable: " + e.Err.Error()
}

func (e *SerializationError) Unwrap() error { return e.Err }

// errNoChange short-circuits a read-modify-write that has nothing to write.
var errNoChange = errors.New("no change")

// Store persists all dashboards as one JSON array under Key.
type Store struct {
	docs   docstore.Store
	logger *zap.Logger
}

// New creates a dashboard store on top of a document store.
func New(docs docstore.Store, logger *zap.Logger) *Store {
	return &Store{docs: docs, logger: logger}
}

// Decode parses a stored collection. Empty input is an empty collection.
func Decode(raw []byte) ([]models.SavedDashboard, error) {
	out := []models.SavedDashboard{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return []models.SavedDashboard{}, &SerializationError{Err: err}
	}
	if out == nil {
		out = []models.SavedDashboard{}
	}
	return out, nil
}

// Encode serializes a collection. A nil collection encodes as [].
func Encode(all []models.SavedDashboard) ([]byte, error) {
	if all == nil {
		all = []models.SavedDashboard{}
	}
	return json.Marshal(all)
}

// List returns every dashboard in storage order. Unreadable or unparseable
// storage is logged and reported as an empty collection.
func (s *Store) List(ctx context.Context) ([]models.SavedDashboard, error) {
	doc, err := docstore.Load(ctx, s.docs, Key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("failed to read dashboards, treating as empty", zap.Error(err))
		return []models.SavedDashboard{}, nil
	}
	all, err := Decode(doc.Value)
	if err != nil {
		s.logger.Warn("stored dashboards are corrupt, treating as empty", zap.Error(err))
		return []models.SavedDashboard{}, nil
	}
	return all, nil
}

// Load is List without the degraded fallback: read and parse failures are
// returned. Use it where an empty result would trigger destructive work.
func (s *Store) Load(ctx context.Context) ([]models.SavedDashboard, error) {
	doc, err := docstore.Load(ctx, s.docs, Key)
	if err != nil {
		return nil, fmt.Errorf("failed to read dashboards: %w", err)
	}
	return Decode(doc.Value)
}

// Get returns one dashboard by id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (models.SavedDashboard, error) {
	doc, err := docstore.Load(ctx, s.docs, Key)
	if err != nil {
		return models.SavedDashboard{}, fmt.Errorf("failed to read dashboards: %w", err)
	}
	all, err := Decode(doc.Value)
	if err != nil {
		s.logger.Warn("stored dashboards are corrupt, treating as empty", zap.Error(err))
		return models.SavedDashboard{}, ErrNotFound
	}
	for _, d := range all {
		if d.ID == id {
			return d, nil
		}
	}
	return models.SavedDashboard{}, ErrNotFound
}

// Exists reports whether a dashboard with id is stored.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// update runs fn over the decoded collection and writes the result back.
// A read failure aborts the write; a corrupt collection is replaced.
func (s *Store) update(ctx context.Context, fn func(all []models.SavedDashboard) ([]models.SavedDashboard, error)) error {
	err := docstore.Update(ctx, s.docs, Key, func(cur []byte) ([]byte, error) {
		all, err := Decode(cur)
		if err != nil {
			s.logger.Warn("replacing corrupt dashboards document", zap.Error(err))
		}
		next, err := fn(all)
		if err != nil {
			return nil, err
		}
		return Encode(next)
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	return err
}

// Save writes d with optimistic locking. d.Version must be exactly one more
// than the stored version; version 1 means d must not exist yet. A stale
// version returns ErrConflict and leaves storage unchanged.
func (s *Store) Save(ctx context.Context, d models.SavedDashboard) error {
	if d.ID == "" {
		return errors.New("dashboard id is required")
	}
	return s.update(ctx, func(all []models.SavedDashboard) ([]models.SavedDashboard, error) {
		for i := range all {
			if all[i].ID != d.ID {
				continue
			}
			if all[i].Version != d.Version-1 {
				return nil, fmt.Errorf("%w: stored version %d, saving version %d", ErrConflict, all[i].Version, d.Version)
			}
			all[i] = d
			return all, nil
		}
		if d.Version != 1 {
			return nil, fmt.Errorf("%w: dashboard %s no longer exists", ErrNotFound, d.ID)
		}
		return append(all, d), nil
	})
}

// Upsert writes d unconditionally, replacing any stored dashboard with the
// same id (last write wins).
func (s *Store) Upsert(ctx context.Context, d models.SavedDashboard) error {
	if d.ID == "" {
		return errors.New("dashboard id is required")
	}
	return s.update(ctx, func(all []models.SavedDashboard) ([]models.SavedDashboard, error) {
		for i := range all {
			if all[i].ID == d.ID {
				all[i] = d
				return all, nil
			}
		}
		return append(all, d), nil
	})
}

// Delete removes the dashboard with id. Deleting a missing id is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.update(ctx, func(all []models.SavedDashboard) ([]models.SavedDashboard, error) {
		out := make([]models.SavedDashboard, 0, len(all))
		for _, d := range all {
			if d.ID != id {
				out = append(out, d)
			}
		}
		if len(out) == len(all) {
			return nil, errNoChange
		}
		return out, nil
	})
}
