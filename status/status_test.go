package status

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
)

type fakeChecker struct {
	mu    sync.Mutex
	code  int
	text  string
	err   error
	calls int
}

func (f *fakeChecker) CheckStatus(ctx context.Context) (int, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.code, f.text, f.err
}

func (f *fakeChecker) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memRecorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *memRecorder) RecordStatus(s Snapshot) error {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
	return nil
}

func quiet() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

func TestClassify(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name   string
		code   int
		text   string
		err    error
		state  State
		detail string
	}{
		{"ok", http.StatusOK, "OK", nil, Connected, ""},
		{"unauthorized", http.StatusUnauthorized, "Unauthorized", nil, Unauthorized, ""},
		{"server error", http.StatusServiceUnavailable, "Service Unavailable", nil, Disconnected, "HTTP 503: Service Unavailable"},
		{"not found", http.StatusNotFound, "Not Found", nil, Disconnected, "HTTP 404: Not Found"},
		{"network", 0, "", errors.New("connection refused"), Disconnected, "connection refused"},
		{"empty error", 0, "", errors.New(""), Disconnected, "Network error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Classify(tt.code, tt.text, tt.err, now)
			if s.State != tt.state {
				t.Errorf("State = %q, want %q", s.State, tt.state)
			}
			if s.Detail != tt.detail {
				t.Errorf("Detail = %q, want %q", s.Detail, tt.detail)
			}
		})
	}
}

func TestSnapshotPresentation(t *testing.T) {
	tests := []struct {
		state State
		color string
		text  string
	}{
		{Connected, "green", "API Connected"},
		{Unauthorized, "yellow", "API Requires Auth"},
		{Disconnected, "red", "API Disconnected"},
		{Checking, "gray", "Checking API..."},
	}
	for _, tt := range tests {
		s := Snapshot{State: tt.state}
		if s.Color() != tt.color || s.Text() != tt.text {
			t.Errorf("%s: got %q/%q, want %q/%q", tt.state, s.Color(), s.Text(), tt.color, tt.text)
		}
	}
}

func TestShortDetail(t *testing.T) {
	long := Snapshot{State: Disconnected, Detail: "HTTP 503: Service Unavailable"}
	if got := long.ShortDetail(); got != "HTTP 503: Service Un..." {
		t.Errorf("ShortDetail() = %q", got)
	}
	short := Snapshot{State: Disconnected, Detail: "HTTP 404: Not Found"}
	if got := short.ShortDetail(); got != "HTTP 404: Not Found" {
		t.Errorf("ShortDetail() = %q", got)
	}
	connected := Snapshot{State: Connected, Detail: "ignored"}
	if got := connected.ShortDetail(); got != "" {
		t.Errorf("ShortDetail() on connected = %q", got)
	}
}

func TestMonitorStartsChecking(t *testing.T) {
	m := NewMonitor(&fakeChecker{code: 200}, time.Hour, nil, quiet())
	if got := m.Snapshot().State; got != Checking {
		t.Errorf("initial state = %q, want checking", got)
	}
	if m.Interval() != time.Hour {
		t.Errorf("Interval = %v", m.Interval())
	}
	if NewMonitor(&fakeChecker{}, 0, nil, quiet()).Interval() != DefaultInterval {
		t.Error("expected default interval")
	}
}

func TestMonitorCheckRecords(t *testing.T) {
	p := &fakeChecker{code: http.StatusUnauthorized, text: "Unauthorized"}
	rec := &memRecorder{}
	m := NewMonitor(p, time.Hour, rec, quiet())

	snap := m.Check(context.Background())
	if snap.State != Unauthorized {
		t.Fatalf("State = %q", snap.State)
	}
	if m.Snapshot().State != Unauthorized {
		t.Errorf("Snapshot not updated")
	}
	if len(rec.snaps) != 1 {
		t.Errorf("recorded %d snapshots, want 1", len(rec.snaps))
	}
}

type cancelChecker struct{ cancel context.CancelFunc }

func (c cancelChecker) CheckStatus(ctx context.Context) (int, string, error) {
	c.cancel()
	<-ctx.Done()
	return 0, "", ctx.Err()
}

func TestMonitorIgnoresCancelledCheck(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &memRecorder{}
	m := NewMonitor(cancelChecker{cancel: cancel}, time.Hour, rec, quiet())

	snap := m.Check(ctx)
	if snap.State != Checking {
		t.Errorf("State = %q, want previous snapshot", snap.State)
	}
	if m.Snapshot().State != Checking {
		t.Errorf("Snapshot changed to %q", m.Snapshot().State)
	}
	if len(rec.snaps) != 0 {
		t.Errorf("recorded %d snapshots for a cancelled check", len(rec.snaps))
	}
}

func TestMonitorPollsUntilCancelled(t *testing.T) {
	p := &fakeChecker{code: http.StatusOK}
	m := NewMonitor(p, 20*time.Millisecond, nil, quiet())

	ctx, cancel := context.WithCancel(context.Background())
	done := m.Start(ctx)
	time.Sleep(110 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop after cancel")
	}
	if p.Calls() < 3 {
		t.Errorf("calls = %d, want at least 3", p.Calls())
	}
	if m.Snapshot().State != Connected {
		t.Errorf("State = %q", m.Snapshot().State)
	}

	after := p.Calls()
	time.Sleep(60 * time.Millisecond)
	if p.Calls() != after {
		t.Errorf("check ran after cancel")
	}
}
