// Package quota tracks per-provider call volume against capped windows so the
// fallback chain can skip an exhausted provider without making a network call.
package quota

import (
	"sort"
	"sync"
	"time"
)

// WindowMode selects how the quota window resets.
type WindowMode string

const (
	// ModeRolling resets the window when it has fully elapsed since its
	// start. Default: avoids the thundering-herd resets of fixed boundaries.
	ModeRolling WindowMode = "rolling"
	// ModeCalendar resets the window at local midnight, matching providers
	// that account daily quotas on calendar days.
	ModeCalendar WindowMode = "calendar"
)

// Config holds tracker construction options.
type Config struct {
	// Window is the quota window size. Ignored in calendar mode (always one day).
	Window time.Duration

	// Caps maps provider name to its per-window call cap.
	Caps map[string]int

	// DefaultCap applies to providers not listed in Caps.
	DefaultCap int

	// Mode selects rolling or calendar windows.
	Mode WindowMode

	// FailureThreshold is the consecutive-failure count after which a
	// provider is treated as exhausted until its window resets. Zero
	// disables the marker.
	FailureThreshold int
}

// ProviderState is a read-only snapshot of one provider's quota state,
// served on the status surface.
type ProviderState struct {
	Provider            string    `json:"provider"`
	WindowStart         time.Time `json:"window_start"`
	Calls               int       `json:"calls"`
	Cap                 int       `json:"cap"`
	Remaining           int       `json:"remaining"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
}

type providerState struct {
	windowStart time.Time
	count       int
	cap         int
	failures    int
}

// Tracker owns per-provider counters exclusively. Safe for concurrent use
// from interactive requests and the scheduler loop simultaneously.
type Tracker struct {
	mu     sync.Mutex
	states map[string]*providerState
	cfg    Config

	// now is injectable for tests.
	now func() time.Time
}

// New creates a tracker. Zero-valued config fields get sensible defaults:
// 24h rolling window, cap 500, failure threshold 3.
func New(cfg Config) *Tracker {
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	if cfg.DefaultCap <= 0 {
		cfg.DefaultCap = 500
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeRolling
	}
	return &Tracker{
		states: make(map[string]*providerState),
		cfg:    cfg,
		now:    time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

func (t *Tracker) state(provider string) *providerState {
	s, ok := t.states[provider]
	if !ok {
		cap, found := t.cfg.Caps[provider]
		if !found {
			cap = t.cfg.DefaultCap
		}
		s = &providerState{windowStart: t.windowStart(t.now()), cap: cap}
		t.states[provider] = s
	}
	return s
}

func (t *Tracker) windowStart(now time.Time) time.Time {
	if t.cfg.Mode == ModeCalendar {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	}
	return now
}

// maybeReset rolls the window forward if it has elapsed, clearing both the
// call count and the consecutive-failure marker.
func (t *Tracker) maybeReset(s *providerState, now time.Time) {
	window := t.cfg.Window
	if t.cfg.Mode == ModeCalendar {
		window = 24 * time.Hour
	}
	if now.Sub(s.windowStart) >= window {
		s.windowStart = t.windowStart(now)
		s.count = 0
		s.failures = 0
	}
}

// TryAcquire reserves one call slot for the provider. It returns false when
// the cap is reached within the live window or when the provider has tripped
// the consecutive-failure threshold. Checked before issuing a call, never
// after.
func (t *Tracker) TryAcquire(provider string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.state(provider)
	t.maybeReset(s, t.now())

	if t.cfg.FailureThreshold > 0 && s.failures >= t.cfg.FailureThreshold {
		return false
	}
	if s.count >= s.cap {
		return false
	}
	s.count++
	return true
}

// MarkFailure records a failed provider call. A provider that reports its own
// quota error still degrades here proactively even if local accounting has
// drifted from the remote service's true state.
func (t *Tracker) MarkFailure(provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state(provider).failures++
}

// MarkSuccess clears the consecutive-failure marker.
func (t *Tracker) MarkSuccess(provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state(provider).failures = 0
}

// Snapshot returns the current quota state for every tracked provider plus
// any named providers that have not been called yet.
func (t *Tracker) Snapshot(providers ...string) []ProviderState {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for _, p := range providers {
		t.state(p)
	}

	out := make([]ProviderState, 0, len(t.states))
	for name, s := range t.states {
		t.maybeReset(s, now)
		remaining := s.cap - s.count
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, ProviderState{
			Provider:            name,
			WindowStart:         s.windowStart,
			Calls:               s.count,
			Cap:                 s.cap,
			Remaining:           remaining,
			ConsecutiveFailures: s.failures,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}
