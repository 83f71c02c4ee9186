package chat

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
)

type memTranscripts struct {
	mu   sync.Mutex
	msgs map[string][]Message
}

func newMemTranscripts() *memTranscripts {
	return &memTranscripts{msgs: make(map[string][]Message)}
}

func (m *memTranscripts) AppendMessage(id string, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs[id] = append(m.msgs[id], msg)
	return nil
}

func (m *memTranscripts) ListMessages(id string) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.msgs[id]...), nil
}

type replierFunc func(ctx context.Context, message string) (string, error)

func (f replierFunc) Chat(ctx context.Context, message string) (string, error) {
	return f(ctx, message)
}

func quiet() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

func TestWelcomeUsesReply(t *testing.T) {
	var prompt string
	svc := NewService(replierFunc(func(ctx context.Context, m string) (string, error) {
		prompt = m
		return "Hai, selamat datang!", nil
	}), newMemTranscripts(), quiet())

	msgs, err := svc.Welcome(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Welcome: %v", err)
	}
	if prompt != WelcomePrompt {
		t.Errorf("prompt = %q", prompt)
	}
	if len(msgs) != 1 || msgs[0].Message != "Hai, selamat datang!" || msgs[0].IsUser {
		t.Errorf("msgs = %+v", msgs)
	}
}

func TestWelcomeFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{"error", "", errors.New("boom")},
		{"empty reply", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(replierFunc(func(ctx context.Context, m string) (string, error) {
				return tt.reply, tt.err
			}), newMemTranscripts(), quiet())
			msgs, err := svc.Welcome(context.Background(), "c1")
			if err != nil {
				t.Fatalf("Welcome: %v", err)
			}
			if msgs[0].Message != FallbackWelcome {
				t.Errorf("message = %q", msgs[0].Message)
			}
		})
	}
}

func TestWelcomeOnlyOnce(t *testing.T) {
	calls := 0
	svc := NewService(replierFunc(func(ctx context.Context, m string) (string, error) {
		calls++
		return "hi", nil
	}), newMemTranscripts(), quiet())

	for i := 0; i < 3; i++ {
		if _, err := svc.Welcome(context.Background(), "c1"); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 1 {
		t.Errorf("replier called %d times, want 1", calls)
	}
}

func TestSendAppendsUserAndBot(t *testing.T) {
	store := newMemTranscripts()
	svc := NewService(replierFunc(func(ctx context.Context, m string) (string, error) {
		return "reply to " + m, nil
	}), store, quiet())
	fixed := time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	msgs, err := svc.Send(context.Background(), "c1", "  halo  ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len = %d", len(msgs))
	}
	if !msgs[0].IsUser || msgs[0].Message != "halo" {
		t.Errorf("user msg = %+v", msgs[0])
	}
	if msgs[1].IsUser || msgs[1].Message != "reply to halo" {
		t.Errorf("bot msg = %+v", msgs[1])
	}
	if msgs[0].ID == "" || msgs[0].ID == msgs[1].ID {
		t.Errorf("ids not unique: %q %q", msgs[0].ID, msgs[1].ID)
	}
	if msgs[1].Clock() != "09:05" {
		t.Errorf("Clock() = %q", msgs[1].Clock())
	}
	history, _ := svc.History("c1")
	if len(history) != 2 {
		t.Errorf("history len = %d", len(history))
	}
}

func TestSendFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  string
	}{
		{"error", "", errors.New("timeout"), FallbackError},
		{"empty", "", nil, FallbackEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(replierFunc(func(ctx context.Context, m string) (string, error) {
				return tt.reply, tt.err
			}), newMemTranscripts(), quiet())
			msgs, err := svc.Send(context.Background(), "c1", "q")
			if err != nil {
				t.Fatalf("Send: %v", err)
			}
			if msgs[1].Message != tt.want {
				t.Errorf("reply = %q, want %q", msgs[1].Message, tt.want)
			}
		})
	}
}

func TestSendRejectsEmpty(t *testing.T) {
	svc := NewService(replierFunc(func(ctx context.Context, m string) (string, error) {
		t.Error("replier should not be called")
		return "", nil
	}), newMemTranscripts(), quiet())
	if _, err := svc.Send(context.Background(), "c1", "   \n\t"); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("err = %v, want ErrEmptyMessage", err)
	}
}

func TestSendRejectsWhileBusy(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	svc := NewService(replierFunc(func(ctx context.Context, m string) (string, error) {
		close(entered)
		<-release
		return "ok", nil
	}), newMemTranscripts(), quiet())

	errc := make(chan error, 1)
	go func() {
		_, err := svc.Send(context.Background(), "c1", "first")
		errc <- err
	}()
	<-entered
	if !svc.Pending("c1") {
		t.Error("expected pending")
	}
	if _, err := svc.Send(context.Background(), "c1", "second"); !errors.Is(err, ErrBusy) {
		t.Errorf("err = %v, want ErrBusy", err)
	}
	if _, err := svc.Send(context.Background(), "c2", ""); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("other conversation err = %v", err)
	}
	close(release)
	if err := <-errc; err != nil {
		t.Fatalf("first send: %v", err)
	}
	if svc.Pending("c1") {
		t.Error("still pending after completion")
	}
}
