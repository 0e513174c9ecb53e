// Package pagination runs interactive, time-bounded browsing sessions over
// an ordered page sequence. The state machine is transport-agnostic: Slack
// reactions, terminal keys, or anything else can feed it events through the
// Transport/Deliver pair.
package pagination

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cvebot/internal/render"
)

// Signal is a normalized navigation input accepted by a session.
type Signal int

const (
	SignalRetreat Signal = iota
	SignalAdvance
)

// Event is a raw interaction event before filtering. Token identifies the
// control that produced it (an emoji name, a key, a button ID); FromBot
// marks events originating from the bot itself, which are always ignored.
type Event struct {
	Token   string
	UserID  string
	FromBot bool
}

// Controls names the two tokens accepted as navigation signals.
type Controls struct {
	Retreat string
	Advance string
}

// DefaultControls are the Slack reaction names used by the bot transport.
var DefaultControls = Controls{Retreat: "arrow_backward", Advance: "arrow_forward"}

// DefaultTimeout bounds a session's lifetime from creation.
const DefaultTimeout = 60 * time.Second

// Transport owns the platform-specific side effects of a session: showing
// pages and managing the attached controls. All methods are best-effort
// from the session's point of view except Present, whose failure aborts
// the session before anything is user-visible.
type Transport interface {
	Present(ctx context.Context, page render.Page) error
	Update(ctx context.Context, page render.Page) error
	AttachControls(ctx context.Context, controls Controls) error
	DetachControls(ctx context.Context) error
	ClearEvent(ctx context.Context, ev Event) error
}

// ErrEmptySequence is returned when a session is created with no pages.
var ErrEmptySequence = errors.New("page sequence must not be empty")

// Session owns one browsing session: an immutable page sequence, a cyclic
// current index, and an expiry deadline fixed at creation. Signals are
// consumed one at a time; a closed or expired session ignores them.
type Session struct {
	pages    []render.Page
	controls Controls
	timeout  time.Duration
	now      func() time.Time

	mu        sync.Mutex
	index     int
	expiresAt time.Time
	active    bool

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Session at creation.
type Option func(*Session)

// WithTimeout overrides the default session lifetime.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithControls overrides the default control tokens.
func WithControls(c Controls) Option {
	return func(s *Session) { s.controls = c }
}

// WithClock injects a time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession creates an active session positioned on the first page. The
// expiry deadline is fixed here, not when Run starts.
func NewSession(pages []render.Page, opts ...Option) (*Session, error) {
	if len(pages) == 0 {
		return nil, ErrEmptySequence
	}
	s := &Session{
		pages:    pages,
		controls: DefaultControls,
		timeout:  DefaultTimeout,
		now:      time.Now,
		active:   true,
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.expiresAt = s.now().Add(s.timeout)
	return s, nil
}

// Len returns the page count.
func (s *Session) Len() int { return len(s.pages) }

// Index returns the current page index.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Current returns the page at the current index.
func (s *Session) Current() render.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages[s.index]
}

// Active reports whether the session still accepts signals.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && s.now().Before(s.expiresAt)
}

// Controls returns the configured control tokens.
func (s *Session) Controls() Controls { return s.controls }

// Filter decides whether a raw event is one of the session's two control
// tokens from a non-bot originator. Everything else is dropped.
func (s *Session) Filter(ev Event) (Signal, bool) {
	if ev.FromBot {
		return 0, false
	}
	switch ev.Token {
	case s.controls.Retreat:
		return SignalRetreat, true
	case s.controls.Advance:
		return SignalAdvance, true
	}
	return 0, false
}

// Apply performs one cyclic transition and returns the new current page.
// It is a no-op on a closed or expired session; expiry observed here also
// deactivates the session so late in-flight signals cannot mutate it.
func (s *Session) Apply(sig Signal) (render.Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return render.Page{}, false
	}
	if !s.now().Before(s.expiresAt) {
		s.active = false
		return render.Page{}, false
	}

	n := len(s.pages)
	switch sig {
	case SignalAdvance:
		s.index = (s.index + 1) % n
	case SignalRetreat:
		s.index = (s.index - 1 + n) % n
	}
	return s.pages[s.index], true
}

// Deliver queues a raw event for the session's run loop. Events delivered
// to a closed session, or past the queue's capacity, are dropped.
func (s *Session) Deliver(ev Event) {
	select {
	case <-s.done:
	default:
		select {
		case s.events <- ev:
		default:
			slog.Debug("pagination event queue full, dropping event", "token", ev.Token)
		}
	}
}

// Close terminates the session. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	s.closeOnce.Do(func() { close(s.done) })
}

// Run presents the first page, attaches the controls, and consumes events
// until the session expires, is closed, or ctx is cancelled. Control
// attachment and signal acknowledgement are best-effort: their failure is
// logged, never fatal.
func (s *Session) Run(ctx context.Context, t Transport) error {
	if err := t.Present(ctx, s.Current()); err != nil {
		s.Close()
		return fmt.Errorf("failed to present first page: %w", err)
	}
	if err := t.AttachControls(ctx, s.controls); err != nil {
		slog.Warn("failed to attach pagination controls", "error", err)
	}

	timer := time.NewTimer(s.expiresAt.Sub(s.now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Close()
			s.detach(context.WithoutCancel(ctx), t)
			return ctx.Err()
		case <-timer.C:
			s.Close()
			s.detach(ctx, t)
			return nil
		case <-s.done:
			s.detach(ctx, t)
			return nil
		case ev := <-s.events:
			sig, ok := s.Filter(ev)
			if !ok {
				continue
			}
			page, changed := s.Apply(sig)
			if !changed {
				continue
			}
			// Acknowledge first so the same control is immediately
			// reusable, then re-render.
			if err := t.ClearEvent(ctx, ev); err != nil {
				slog.Debug("failed to clear pagination event", "token", ev.Token, "error", err)
			}
			if err := t.Update(ctx, page); err != nil {
				slog.Warn("failed to update pagination page", "error", err)
			}
		}
	}
}

func (s *Session) detach(ctx context.Context, t Transport) {
	if err := t.DetachControls(ctx); err != nil {
		slog.Debug("failed to detach pagination controls", "error", err)
	}
}
