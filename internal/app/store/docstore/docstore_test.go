package docstore_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/stratadash/internal/app/store/docstore"
	"github.com/dalemusser/stratadash/internal/testutil"
)

// runConformance exercises the Store contract against one backend.
func runConformance(t *testing.T, s docstore.Store) {
	ctx, cancel := testutil.TestContext()
	defer cancel()

	t.Run("missing key", func(t *testing.T) {
		if _, err := s.Get(ctx, "missing"); !errors.Is(err, docstore.ErrNotFound) {
			t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("insert then update", func(t *testing.T) {
		rev, err := s.Put(ctx, "k1", []byte(`[1]`), 0)
		if err != nil {
			t.Fatalf("Put(rev 0) error = %v", err)
		}
		if rev != 1 {
			t.Errorf("Put(rev 0) = %d, want 1", rev)
		}

		rev, err = s.Put(ctx, "k1", []byte(`[1,2]`), 1)
		if err != nil {
			t.Fatalf("Put(rev 1) error = %v", err)
		}
		if rev != 2 {
			t.Errorf("Put(rev 1) = %d, want 2", rev)
		}

		doc, err := s.Get(ctx, "k1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if string(doc.Value) != `[1,2]` || doc.Revision != 2 {
			t.Errorf("Get() = %q@%d, want %q@2", doc.Value, doc.Revision, `[1,2]`)
		}
	})

	t.Run("stale revision rejected", func(t *testing.T) {
		if _, err := s.Put(ctx, "k2", []byte(`a`), 0); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if _, err := s.Put(ctx, "k2", []byte(`b`), 0); !errors.Is(err, docstore.ErrRevisionMismatch) {
			t.Errorf("second insert error = %v, want ErrRevisionMismatch", err)
		}
		if _, err := s.Put(ctx, "k2", []byte(`b`), 7); !errors.Is(err, docstore.ErrRevisionMismatch) {
			t.Errorf("Put(rev 7) error = %v, want ErrRevisionMismatch", err)
		}
		doc, _ := s.Get(ctx, "k2")
		if string(doc.Value) != "a" {
			t.Errorf("value = %q, want %q", doc.Value, "a")
		}
	})

	t.Run("concurrent updates are not lost", func(t *testing.T) {
		const writers = 5
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- docstore.Update(ctx, s, "counter", func(cur []byte) ([]byte, error) {
					return append(cur, 'x'), nil
				})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
		}
		doc, err := s.Get(ctx, "counter")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if len(doc.Value) != writers {
			t.Errorf("len(value) = %d, want %d", len(doc.Value), writers)
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := s.Ping(ctx); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
	})
}

func TestMemory(t *testing.T) {
	runConformance(t, docstore.NewMemory())
}

func TestSQLite(t *testing.T) {
	s, err := docstore.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	runConformance(t, s)
}

func TestMongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	runConformance(t, docstore.NewMongo(db))
}

func TestRedis(t *testing.T) {
	url := testutil.SetupTestRedis(t)
	s, err := docstore.OpenRedis(context.Background(), url)
	if err != nil {
		t.Fatalf("OpenRedis() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	runConformance(t, s)
}

func TestOpenRedis_BadURL(t *testing.T) {
	if _, err := docstore.OpenRedis(context.Background(), "not a url"); err == nil {
		t.Error("OpenRedis(bad url) error = nil, want error")
	}
}

func TestUpdate_CallbackErrorAborts(t *testing.T) {
	s := docstore.NewMemory()
	boom := errors.New("boom")
	err := docstore.Update(context.Background(), s, "k", func([]byte) ([]byte, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Update() error = %v, want %v", err, boom)
	}
	if _, err := s.Get(context.Background(), "k"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestMemory_FailWrites(t *testing.T) {
	s := docstore.NewMemory()
	boom := errors.New("disk full")
	s.SetFailWrites(boom)
	if _, err := s.Put(context.Background(), "k", []byte("v"), 0); !errors.Is(err, boom) {
		t.Errorf("Put() error = %v, want %v", err, boom)
	}
	s.SetFailWrites(nil)
	if _, err := s.Put(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Errorf("Put() after recovery error = %v", err)
	}
}

func TestRunAtomic_WithoutTransactionsCallsDirectly(t *testing.T) {
	ctx := context.Background()
	s := docstore.NewMemory()
	err := docstore.RunAtomic(ctx, s, func(ctx context.Context) error {
		_, err := s.Put(ctx, "a", []byte("1"), 0)
		return err
	})
	if err != nil {
		t.Fatalf("RunAtomic() error = %v", err)
	}
	if doc, err := s.Get(ctx, "a"); err != nil || doc.Revision != 1 {
		t.Errorf("Get() = %+v, %v", doc, err)
	}
}

func TestRunAtomic_Mongo(t *testing.T) {
	ctx := context.Background()
	s := docstore.NewMongo(testutil.SetupTestDB(t))
	err := docstore.RunAtomic(ctx, s, func(ctx context.Context) error {
		if _, err := s.Put(ctx, "a", []byte("1"), 0); err != nil {
			return err
		}
		_, err := s.Put(ctx, "b", []byte("2"), 0)
		return err
	})
	if err != nil {
		t.Fatalf("RunAtomic() error = %v", err)
	}
	for _, key := range []string{"a", "b"} {
		if _, err := s.Get(ctx, key); err != nil {
			t.Errorf("Get(%q) error = %v", key, err)
		}
	}
}

func TestMongo_LastWrite(t *testing.T) {
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := docstore.NewMongo(testutil.SetupTestDB(t))

	if ts, err := s.LastWrite(ctx); err != nil || !ts.IsZero() {
		t.Fatalf("LastWrite() on empty collection = %v, %v; want zero, nil", ts, err)
	}
	before := time.Now().UTC().Add(-time.Second)
	if _, err := s.Put(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	ts, err := s.LastWrite(ctx)
	if err != nil {
		t.Fatalf("LastWrite() error = %v", err)
	}
	if ts.Before(before) {
		t.Errorf("LastWrite() = %v, want after %v", ts, before)
	}
}
