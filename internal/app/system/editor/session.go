// Package editor holds in-progress dashboard edits. A Session owns a draft,
// applies edit actions to it, and saves it with optimistic locking.
//
// Session states:
//
//	loading -> ready -> saving -> saved
//	                  \        -> failed -> (edit) ready
//	loading -> not_found
//
// Any state can move to closed. A save that completes after Close is
// discarded.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	dashboardstore "github.com/dalemusser/stratadash/internal/app/store/dashboards"
	"github.com/dalemusser/stratadash/internal/app/system/dashboard"
	"github.com/dalemusser/stratadash/internal/app/system/htmlsanitize"
	"github.com/dalemusser/stratadash/internal/app/system/widgetconfig"
	"github.com/dalemusser/stratadash/internal/domain/models"
	"go.uber.org/zap"
)

// Mode says whether a session creates a dashboard or edits an existing one.
type Mode string

const (
	ModeNew  Mode = "new"
	ModeEdit Mode = "edit"
)

// State is a session lifecycle state.
type State string

const (
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StateSaving   State = "saving"
	StateSaved    State = "saved"
	StateFailed   State = "failed"
	StateNotFound State = "not_found"
	StateClosed   State = "closed"
)

var (
	ErrInvalidState  = errors.New("action not allowed in current session state")
	ErrClosed        = errors.New("session is closed")
	ErrUnknownWidget = errors.New("unknown widget")
	ErrUnknownAction = errors.New("unknown action")
	// ErrConflict is returned when the dashboard changed after the session
	// loaded it.
	ErrConflict = dashboardstore.ErrConflict
	// ErrNotFound is returned when the edited dashboard no longer exists.
	ErrNotFound = dashboardstore.ErrNotFound
)

// SaveError wraps a storage failure during save. The draft is kept and the
// save can be retried.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string { return "failed to save dashboard: " + e.Err.Error() }

func (e *SaveError) Unwrap() error { return e.Err }

// ValidationFields returns the per-field messages of a validation error
// raised by an action or a save.
func ValidationFields(err error) (map[string]string, bool) {
	var dv *dashboard.ValidationError
	if errors.As(err, &dv) {
		return dv.Fields, true
	}
	var wv *widgetconfig.ValidationError
	if errors.As(err, &wv) {
		return wv.Fields, true
	}
	return nil, false
}

// Gateway reads and writes saved dashboards.
type Gateway interface {
	Get(ctx context.Context, id string) (models.SavedDashboard, error)
	Save(ctx context.Context, d models.SavedDashboard) error
}

// Delayer pauses before a save is written.
type Delayer interface {
	Wait(ctx context.Context) error
}

// FixedDelay waits a constant duration.
type FixedDelay time.Duration

// Wait implements Delayer.
func (d FixedDelay) Wait(ctx context.Context) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(time.Duration(d))
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NoDelay returns immediately.
type NoDelay struct{}

// Wait implements Delayer.
func (NoDelay) Wait(context.Context) error { return nil }

// Deps are the collaborators a Session needs.
type Deps struct {
	Gateway Gateway
	Clock   dashboard.Clock
	IDs     dashboard.IDGenerator
	Delay   Delayer
	Logger  *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = dashboard.SystemClock{}
	}
	if d.IDs == nil {
		d.IDs = dashboard.UUIDGenerator{}
	}
	if d.Delay == nil {
		d.Delay = NoDelay{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// Session is one user's in-progress edit of a dashboard.
type Session struct {
	id   string
	mode Mode
	deps Deps

	mu         sync.Mutex
	state      State
	draft      dashboard.Input
	base       *models.SavedDashboard
	lastErr    error
	lastActive time.Time
}

// View is a snapshot of a session for callers and JSON responses.
type View struct {
	ID          string                 `json:"sessionId"`
	Mode        Mode                   `json:"mode"`
	State       State                  `json:"state"`
	DashboardID string                 `json:"dashboardId,omitempty"`
	BaseVersion int                    `json:"baseVersion"`
	Draft       dashboard.Input        `json:"draft"`
	Saved       *models.SavedDashboard `json:"saved,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Retryable   bool                   `json:"retryable,omitempty"`
	Conflict    bool                   `json:"conflict,omitempty"`
}

// Open starts a session. In ModeNew the draft starts from seed. In ModeEdit
// the dashboard is loaded; a missing dashboard leaves the session in
// StateNotFound without an error.
func Open(ctx context.Context, id string, deps Deps, mode Mode, dashboardID string, seed dashboard.Input) (*Session, error) {
	deps = deps.withDefaults()
	s := &Session{id: id, mode: mode, deps: deps, state: StateLoading}
	s.lastActive = deps.Clock.Now()

	switch mode {
	case ModeNew:
		s.draft = cleanSeed(seed)
		if s.draft.Layout.Columns == 0 {
			s.draft.Layout = models.DefaultLayout()
		}
		if s.draft.Widgets == nil {
			s.draft.Widgets = []models.Widget{}
		}
		s.state = StateReady
	case ModeEdit:
		d, err := deps.Gateway.Get(ctx, dashboardID)
		if errors.Is(err, ErrNotFound) {
			s.state = StateNotFound
			return s, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load dashboard %s: %w", dashboardID, err)
		}
		base := dashboard.Clone(d)
		s.base = &base
		s.draft = dashboard.InputFrom(d)
		s.state = StateReady
	default:
		return nil, fmt.Errorf("unknown session mode %q", mode)
	}
	return s, nil
}

// cleanSeed strips markup from the user-supplied text of a new draft.
func cleanSeed(in dashboard.Input) dashboard.Input {
	in.Name = htmlsanitize.PlainText(in.Name)
	in.Description = htmlsanitize.Sanitize(in.Description)
	if in.Tags != nil {
		in.Tags = cleanTags(in.Tags)
	}
	if len(in.Widgets) > 0 {
		ws := make([]models.Widget, len(in.Widgets))
		for i, w := range in.Widgets {
			w.Title = htmlsanitize.PlainText(w.Title)
			ws[i] = w
		}
		in.Widgets = ws
	}
	return in
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastActive returns when the session was last touched.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:    s.id,
		Mode:  s.mode,
		State: s.state,
		Draft: dashboard.CloneInput(s.draft),
	}
	if s.base != nil {
		v.DashboardID = s.base.ID
		v.BaseVersion = s.base.Version
		if s.state == StateSaved {
			saved := dashboard.Clone(*s.base)
			v.Saved = &saved
		}
	}
	if s.lastErr != nil {
		v.Error = s.lastErr.Error()
		var se *SaveError
		v.Retryable = errors.As(s.lastErr, &se)
		v.Conflict = errors.Is(s.lastErr, ErrConflict)
	}
	return v
}

// Err returns the error of the last failed save, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Apply runs an action against the draft. Actions are allowed while ready
// or failed; a failed session returns to ready. A rejected action leaves
// the draft unchanged.
func (s *Session) Apply(a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateClosed:
		return ErrClosed
	case StateReady, StateFailed:
	default:
		return fmt.Errorf("%w: cannot %s while %s", ErrInvalidState, a.Kind(), s.state)
	}

	next := dashboard.CloneInput(s.draft)
	if err := a.apply(&next, s.deps.IDs); err != nil {
		return err
	}
	s.draft = next
	s.state = StateReady
	s.lastErr = nil
	s.lastActive = s.deps.Clock.Now()
	return nil
}

// begin validates the draft, builds the record to write and enters saving.
func (s *Session) begin() (models.SavedDashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateClosed:
		return models.SavedDashboard{}, ErrClosed
	case StateReady, StateFailed:
	default:
		return models.SavedDashboard{}, fmt.Errorf("%w: cannot save while %s", ErrInvalidState, s.state)
	}

	var (
		d   models.SavedDashboard
		err error
	)
	if s.base == nil {
		d, err = dashboard.Create(s.draft, s.deps.Clock, s.deps.IDs)
	} else {
		d, err = dashboard.Update(*s.base, s.draft, s.deps.Clock)
	}
	if err != nil {
		return models.SavedDashboard{}, err
	}
	s.state = StateSaving
	s.lastErr = nil
	s.lastActive = s.deps.Clock.Now()
	return d, nil
}

// write performs the delayed write. It ignores ctx cancellation so a save
// that has started always reaches storage.
func (s *Session) write(ctx context.Context, d models.SavedDashboard) error {
	ctx = context.WithoutCancel(ctx)
	if err := s.deps.Delay.Wait(ctx); err != nil {
		return err
	}
	return s.deps.Gateway.Save(ctx, d)
}

// finish records the outcome of write.
func (s *Session) finish(d models.SavedDashboard, err error) (models.SavedDashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.deps.Logger.With(zap.String("session_id", s.id), zap.String("dashboard_id", d.ID))

	if s.state == StateClosed {
		log.Debug("discarding save result for closed session", zap.Error(err))
		if err != nil {
			return models.SavedDashboard{}, ErrClosed
		}
		return d, nil
	}

	if err != nil {
		s.state = StateFailed
		switch {
		case errors.Is(err, ErrConflict), errors.Is(err, ErrNotFound):
			s.lastErr = err
		default:
			s.lastErr = &SaveError{Err: err}
		}
		log.Warn("dashboard save failed", zap.Error(err))
		return models.SavedDashboard{}, s.lastErr
	}

	saved := dashboard.Clone(d)
	s.base = &saved
	s.state = StateSaved
	s.lastActive = s.deps.Clock.Now()
	log.Info("dashboard saved", zap.Int("version", d.Version))
	return d, nil
}

// Save writes the draft and blocks until storage answers. On failure the
// session enters StateFailed with the draft intact.
func (s *Session) Save(ctx context.Context) (models.SavedDashboard, error) {
	d, err := s.begin()
	if err != nil {
		return models.SavedDashboard{}, err
	}
	return s.finish(d, s.write(ctx, d))
}

// SaveAsync starts a save and returns once the session is saving. done,
// if not nil, receives the outcome.
func (s *Session) SaveAsync(ctx context.Context, done func(models.SavedDashboard, error)) error {
	d, err := s.begin()
	if err != nil {
		return err
	}
	go func() {
		out, err := s.finish(d, s.write(ctx, d))
		if done != nil {
			done(out, err)
		}
	}()
	return nil
}

// Continue reopens a saved session for further edits against the version
// just written.
func (s *Session) Continue() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateClosed:
		return ErrClosed
	case StateSaved:
		s.state = StateReady
		s.lastActive = s.deps.Clock.Now()
		return nil
	default:
		return fmt.Errorf("%w: cannot continue while %s", ErrInvalidState, s.state)
	}
}

// Close disposes the session. Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
}
