package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/stratadash/internal/app/store/docstore"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type fixedCount int

func (c fixedCount) Len() int { return int(c) }

func TestHandler_Check(t *testing.T) {
	mem := docstore.NewMemory()
	h := NewHandler(mem, "memory", fixedCount(2), zap.NewNop())

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Status != "ok" || resp.Services["memory"] != "ok" {
		t.Errorf("response = %+v", resp)
	}
	if resp.EditorSessions == nil || *resp.EditorSessions != 2 {
		t.Errorf("editorSessions = %v, want 2", resp.EditorSessions)
	}
}

type trackedStore struct {
	at time.Time
}

func (s *trackedStore) Ping(context.Context) error { return nil }

func (s *trackedStore) LastWrite(context.Context) (time.Time, error) { return s.at, nil }

func TestHandler_CheckReportsLastWrite(t *testing.T) {
	at := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	h := NewHandler(&trackedStore{at: at}, "mongo", nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.LastWrite == nil || !resp.LastWrite.Equal(at) {
		t.Errorf("lastWrite = %v, want %v", resp.LastWrite, at)
	}

	rec = httptest.NewRecorder()
	NewHandler(docstore.NewMemory(), "memory", nil, zap.NewNop()).Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	resp = Response{}
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.LastWrite != nil {
		t.Errorf("memory lastWrite = %v, want omitted", resp.LastWrite)
	}
}

type downStore struct{}

func (downStore) Ping(context.Context) error { return errors.New("connection refused") }

func TestHandler_CheckDegraded(t *testing.T) {
	h := NewHandler(downStore{}, "mongo", nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	var resp Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Status != "degraded" || resp.Services["mongo"] != "unavailable" || resp.EditorSessions != nil {
		t.Errorf("response = %+v", resp)
	}

	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Ready() status = %d, want 503", rec.Code)
	}
}

func TestRoutesAndRootEndpoints(t *testing.T) {
	h := NewHandler(docstore.NewMemory(), "memory", nil, zap.NewNop())
	r := chi.NewRouter()
	r.Mount("/health", Routes(h))
	MountRootEndpoints(r, h)

	for _, path := range []string{"/health", "/health/ready", "/health/live", "/ready", "/readyz", "/livez"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("GET %s Content-Type = %q", path, ct)
		}
	}
}
