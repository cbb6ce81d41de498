package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/stratadash/internal/app/system/dashboard"
)

func TestManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	m := NewManager(f.deps)

	s, err := m.Open(ctx, ModeNew, "", dashboard.Input{Name: "A"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	got, err := m.Get(s.ID())
	if err != nil || got != s {
		t.Fatalf("Get() = %v, %v; want the opened session", got, err)
	}
	if err := m.Close(s.ID()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if s.State() != StateClosed {
		t.Errorf("State() after Close = %v", s.State())
	}
	if _, err := m.Get(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(closed) error = %v, want ErrSessionNotFound", err)
	}
	if err := m.Close(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Close(twice) error = %v, want ErrSessionNotFound", err)
	}

	nf, err := m.Open(ctx, ModeEdit, "missing", dashboard.Input{})
	if err != nil || nf.State() != StateNotFound {
		t.Fatalf("Open(missing) = %v, %v; want not_found session", nf.State(), err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestManager_Reap(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	m := NewManager(f.deps)

	idle, _ := m.Open(ctx, ModeNew, "", dashboard.Input{Name: "idle"})
	f.clock.Advance(20 * time.Minute)
	busy, _ := m.Open(ctx, ModeNew, "", dashboard.Input{Name: "busy"})
	f.clock.Advance(15 * time.Minute)

	if n := m.Reap(30 * time.Minute); n != 1 {
		t.Errorf("Reap() = %d, want 1", n)
	}
	if idle.State() != StateClosed {
		t.Errorf("idle state = %v, want closed", idle.State())
	}
	if _, err := m.Get(busy.ID()); err != nil {
		t.Errorf("Get(busy) error = %v", err)
	}
}

func TestManager_Duplicate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	src := f.seed(t, "Marketing")
	m := NewManager(f.deps)

	s, err := m.Duplicate(ctx, src.ID, "owner-2")
	if err != nil {
		t.Fatalf("Duplicate() error = %v", err)
	}
	copyDash, err := s.Save(ctx)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if copyDash.ID == src.ID || copyDash.Name != "Copy of Marketing" || copyDash.Version != 1 {
		t.Errorf("copy = %s %q v%d", copyDash.ID, copyDash.Name, copyDash.Version)
	}
	if copyDash.OwnerID != "owner-2" || copyDash.WidgetCount != src.WidgetCount {
		t.Errorf("copy owner=%q widgets=%d", copyDash.OwnerID, copyDash.WidgetCount)
	}

	if _, err := m.Duplicate(ctx, "missing", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Duplicate(missing) error = %v, want ErrNotFound", err)
	}
}
