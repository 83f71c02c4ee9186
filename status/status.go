// Package status keeps track of whether the content API is reachable.
//
// A single Monitor polls the API on a fixed interval and exposes the latest
// result as a Snapshot. Handlers read the snapshot; browsers poll the site
// rather than the API.
package status

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
)

// DefaultInterval is how often the API is checked.
const DefaultInterval = 30 * time.Second

// maxDetail is the number of detail characters shown in the indicator.
const maxDetail = 20

// State is the indicator state.
type State string

const (
	Checking     State = "checking"
	Connected    State = "connected"
	Disconnected State = "disconnected"
	Unauthorized State = "unauthorized"
)

// Snapshot is the result of the most recent check.
type Snapshot struct {
	State     State     `json:"state"`
	Detail    string    `json:"detail,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Color returns the indicator dot color.
func (s Snapshot) Color() string {
	switch s.State {
	case Connected:
		return "green"
	case Unauthorized:
		return "yellow"
	case Disconnected:
		return "red"
	default:
		return "gray"
	}
}

// Text returns the indicator label.
func (s Snapshot) Text() string {
	switch s.State {
	case Connected:
		return "API Connected"
	case Unauthorized:
		return "API Requires Auth"
	case Disconnected:
		return "API Disconnected"
	default:
		return "Checking API..."
	}
}

// ShortDetail returns the detail to display next to the label: empty unless
// disconnected, and cut to 20 characters plus "..." when longer.
func (s Snapshot) ShortDetail() string {
	if s.State != Disconnected || s.Detail == "" {
		return ""
	}
	r := []rune(s.Detail)
	if len(r) > maxDetail {
		return string(r[:maxDetail]) + "..."
	}
	return s.Detail
}

// Checker performs one status check against the API.
type Checker interface {
	CheckStatus(ctx context.Context) (code int, text string, err error)
}

// Recorder persists check results.
type Recorder interface {
	RecordStatus(s Snapshot) error
}

// Classify maps a check result to a snapshot.
func Classify(code int, text string, err error, at time.Time) Snapshot {
	switch {
	case err != nil:
		detail := err.Error()
		if detail == "" {
			detail = "Network error"
		}
		return Snapshot{State: Disconnected, Detail: detail, CheckedAt: at}
	case code == http.StatusUnauthorized:
		return Snapshot{State: Unauthorized, CheckedAt: at}
	case code >= 200 && code < 300:
		return Snapshot{State: Connected, CheckedAt: at}
	default:
		return Snapshot{State: Disconnected, Detail: fmt.Sprintf("HTTP %d: %s", code, text), CheckedAt: at}
	}
}

// Monitor polls a Checker on a fixed interval.
type Monitor struct {
	checker  Checker
	interval time.Duration
	recorder Recorder
	logger   *log.Logger

	mu   sync.RWMutex
	last Snapshot
}

// NewMonitor creates a Monitor. A non-positive interval means DefaultInterval.
// recorder may be nil.
func NewMonitor(p Checker, interval time.Duration, recorder Recorder, logger *log.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = log.New("status")
	}
	return &Monitor{
		checker:  p,
		interval: interval,
		recorder: recorder,
		logger:   logger,
		last:     Snapshot{State: Checking},
	}
}

// Interval returns the polling interval.
func (m *Monitor) Interval() time.Duration { return m.interval }

// Snapshot returns the latest result.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Check runs one check, stores and returns the result. A check cut short
// by ctx being done is discarded and the previous snapshot returned.
func (m *Monitor) Check(ctx context.Context) Snapshot {
	checkCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()
	code, text, err := m.checker.CheckStatus(checkCtx)
	if ctx.Err() != nil {
		return m.Snapshot()
	}
	snap := Classify(code, text, err, time.Now().UTC())

	m.mu.Lock()
	prev := m.last.State
	m.last = snap
	m.mu.Unlock()

	if prev != snap.State {
		m.logger.Infof("content API %s -> %s %s", prev, snap.State, snap.Detail)
	}
	if m.recorder != nil {
		if err := m.recorder.RecordStatus(snap); err != nil {
			m.logger.Warnf("record status: %v", err)
		}
	}
	return snap
}

// Start checks immediately, then on every tick until ctx is done.
// It returns a channel that is closed once the loop has exited.
func (m *Monitor) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Check(ctx)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
	return done
}
