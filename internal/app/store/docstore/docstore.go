// Package docstore is a small key-value document store with per-key
// revision counters. Each key holds one opaque value (JSON text in
// practice). Writes are compare-and-swap on the revision, so concurrent
// read-modify-write cycles cannot silently overwrite each other.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key has never been written.
	ErrNotFound = errors.New("document not found")
	// ErrRevisionMismatch is returned by Put when the stored revision is not
	// the expected one.
	ErrRevisionMismatch = errors.New("document revision mismatch")
)

// Document is a stored value and the revision it was read at.
// Revision 0 means the key does not exist.
type Document struct {
	Value    []byte
	Revision int64
}

// Store is implemented by every backend.
type Store interface {
	// Get returns the current document for key, or ErrNotFound.
	Get(ctx context.Context, key string) (Document, error)
	// Put writes value if key is currently at revision expected (0 = absent)
	// and returns the new revision. Otherwise it returns ErrRevisionMismatch.
	Put(ctx context.Context, key string, value []byte, expected int64) (int64, error)
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error
}

// Load returns the document for key, mapping ErrNotFound to an empty
// document at revision 0.
func Load(ctx context.Context, s Store, key string) (Document, error) {
	doc, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return Document{}, nil
	}
	return doc, err
}

// MaxUpdateAttempts bounds Update's retry loop.
const MaxUpdateAttempts = 8

// ErrTooMuchContention is returned by Update when every attempt lost the race.
var ErrTooMuchContention = errors.New("document update failed after repeated revision conflicts")

// Update runs a read-modify-write cycle on key. fn receives the current
// value (nil when absent) and returns the new value. If another writer
// wins the race, the cycle is retried with the fresh value. An error from
// fn aborts the update and is returned as is.
//
// fn may run several times and must not keep state between calls:
//
//	err := docstore.Update(ctx, s, "custom_dashboards", func(cur []byte) ([]byte, error) {
//	    all, err := decode(cur)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return encode(append(all, d))
//	})
//
// After MaxUpdateAttempts lost races Update gives up with
// ErrTooMuchContention.
func Update(ctx context.Context, s Store, key string, fn func(current []byte) ([]byte, error)) error {
	for attempt := 0; attempt < MaxUpdateAttempts; attempt++ {
		doc, err := Load(ctx, s, key)
		if err != nil {
			return err
		}
		next, err := fn(doc.Value)
		if err != nil {
			return err
		}
		_, err = s.Put(ctx, key, next, doc.Revision)
		if errors.Is(err, ErrRevisionMismatch) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		return err
	}
	return ErrTooMuchContention
}

// Atomic is implemented by backends that can group several writes into one
// transaction.
type Atomic interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// RunAtomic runs fn in a transaction when s supports one, and directly
// otherwise. fn must use the context it is given for every store call.
func RunAtomic(ctx context.Context, s Store, fn func(ctx context.Context) error) error {
	if a, ok := s.(Atomic); ok {
		return a.RunAtomic(ctx, fn)
	}
	return fn(ctx)
}
