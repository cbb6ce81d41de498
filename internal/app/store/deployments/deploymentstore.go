// internal/app/store/deployments/deploymentstore.go
package deploymentstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dalemusser/stratadash/internal/app/store/docstore"
	"go.uber.org/zap"
)

// Key is the document-store key holding the deployed dashboard ids.
const Key = "deployed_dashboards"

var errNoChange = errors.New("no change")

// Store is the set of deployed dashboard ids, persisted as a JSON array.
// It does not check that the ids refer to existing dashboards.
type Store struct {
	docs   docstore.Store
	logger *zap.Logger
}

// New creates a deployment store on top of a document store.
func New(docs docstore.Store, logger *zap.Logger) *Store {
	return &Store{docs: docs, logger: logger}
}

func decode(raw []byte) ([]string, error) {
	ids := []string{}
	if len(raw) == 0 {
		return ids, nil
	}
	if err := json.Unmarshal(raw, &ids); err != nil {
		return []string{}, fmt.Errorf("stored deployments are unreadable: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// List returns the deployed ids in insertion order. Unreadable storage is
// logged and reported as an empty set.
func (s *Store) List(ctx context.Context) ([]string, error) {
	doc, err := docstore.Load(ctx, s.docs, Key)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("failed to read deployments, treating as empty", zap.Error(err))
		return []string{}, nil
	}
	ids, err := decode(doc.Value)
	if err != nil {
		s.logger.Warn("stored deployments are corrupt, treating as empty", zap.Error(err))
	}
	return ids, nil
}

// Contains reports whether id is deployed.
func (s *Store) Contains(ctx context.Context, id string) (bool, error) {
	ids, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, v := range ids {
		if v == id {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) update(ctx context.Context, fn func(ids []string) ([]string, error)) error {
	err := docstore.Update(ctx, s.docs, Key, func(cur []byte) ([]byte, error) {
		ids, err := decode(cur)
		if err != nil {
			s.logger.Warn("replacing corrupt deployments document", zap.Error(err))
		}
		next, err := fn(ids)
		if err != nil {
			return nil, err
		}
		return json.Marshal(next)
	})
	if errors.Is(err, errNoChange) {
		return nil
	}
	return err
}

// Add deploys id. Adding an id that is already deployed is a no-op.
func (s *Store) Add(ctx context.Context, id string) error {
	return s.update(ctx, func(ids []string) ([]string, error) {
		for _, v := range ids {
			if v == id {
				return nil, errNoChange
			}
		}
		return append(ids, id), nil
	})
}

// Remove undeploys ids. Ids that are not deployed are ignored.
func (s *Store) Remove(ctx context.Context, ids ...string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	return s.update(ctx, func(cur []string) ([]string, error) {
		out := make([]string, 0, len(cur))
		for _, v := range cur {
			if !drop[v] {
				out = append(out, v)
			}
		}
		if len(out) == len(cur) {
			return nil, errNoChange
		}
		return out, nil
	})
}
