// Package chat implements the assistant widget: a short conversation held
// per visitor, relayed to the content API's chat endpoint.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
)

// WelcomePrompt is sent to the assistant to produce the greeting.
const WelcomePrompt = "tolong sambut tamu portfolio saya dengan beberapa kata"

// Fallback replies used when the assistant gives nothing usable.
const (
	FallbackWelcome = "Halo! Selamat datang di portfolio ini. Saya di sini untuk membantu Anda mengenal lebih jauh tentang skill, pengalaman, dan project-project yang telah dikerjakan. Ada yang ingin Anda tanyakan?"
	FallbackEmpty   = "Maaf, saya tidak bisa merespons saat ini."
	FallbackError   = "Maaf, terjadi kesalahan. Silakan coba lagi nanti."
)

// TemplateQuestions are offered as quick replies on an empty conversation.
var TemplateQuestions = []string{
	"Apa saja skill utamanya?",
	"Bisa lihat pengalaman project?",
	"Bagikan link GitHub!",
	"Boleh lihat CV-nya?",
}

var (
	// ErrEmptyMessage is returned when a message is blank after trimming.
	ErrEmptyMessage = errors.New("chat: empty message")
	// ErrBusy is returned when the conversation already has a request in flight.
	ErrBusy = errors.New("chat: reply already pending")
)

// Message is one entry of a conversation.
type Message struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	IsUser    bool      `json:"isUser"`
	Timestamp time.Time `json:"timestamp"`
}

// Clock formats the timestamp as HH:MM.
func (m Message) Clock() string {
	return m.Timestamp.Format("15:04")
}

// Replier produces assistant replies. contentapi.Client satisfies it.
type Replier interface {
	Chat(ctx context.Context, message string) (string, error)
}

// Transcripts stores conversations.
type Transcripts interface {
	AppendMessage(conversationID string, m Message) error
	ListMessages(conversationID string) ([]Message, error)
}

// Service runs conversations.
type Service struct {
	replier     Replier
	transcripts Transcripts
	logger      *log.Logger
	now         func() time.Time

	mu      sync.Mutex
	pending map[string]struct{}
}

// NewService creates a Service.
func NewService(r Replier, t Transcripts, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New("chat")
	}
	return &Service{
		replier:     r,
		transcripts: t,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		pending:     make(map[string]struct{}),
	}
}

// NewConversationID returns a fresh conversation identifier.
func NewConversationID() string {
	return uuid.NewString()
}

// History returns the conversation so far.
func (s *Service) History(conversationID string) ([]Message, error) {
	return s.transcripts.ListMessages(conversationID)
}

// Welcome greets the visitor once. If the conversation already has messages
// it returns them unchanged.
func (s *Service) Welcome(ctx context.Context, conversationID string) ([]Message, error) {
	history, err := s.transcripts.ListMessages(conversationID)
	if err != nil {
		return nil, err
	}
	if len(history) > 0 {
		return history, nil
	}
	if !s.acquire(conversationID) {
		return history, ErrBusy
	}
	defer s.release(conversationID)

	reply, err := s.replier.Chat(ctx, WelcomePrompt)
	if err != nil {
		s.logger.Errorf("welcome message: %v", err)
	}
	if reply == "" {
		reply = FallbackWelcome
	}
	msg := s.newMessage(reply, false)
	if err := s.transcripts.AppendMessage(conversationID, msg); err != nil {
		return nil, err
	}
	return []Message{msg}, nil
}

// Send appends the visitor's message and the assistant's reply. Assistant
// failures become fallback replies rather than errors.
func (s *Service) Send(ctx context.Context, conversationID, text string) ([]Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if !s.acquire(conversationID) {
		return nil, ErrBusy
	}
	defer s.release(conversationID)

	user := s.newMessage(text, true)
	if err := s.transcripts.AppendMessage(conversationID, user); err != nil {
		return nil, err
	}

	reply, err := s.replier.Chat(ctx, text)
	switch {
	case err != nil:
		s.logger.Errorf("send message: %v", err)
		reply = FallbackError
	case reply == "":
		reply = FallbackEmpty
	}
	bot := s.newMessage(reply, false)
	if err := s.transcripts.AppendMessage(conversationID, bot); err != nil {
		return nil, err
	}
	return []Message{user, bot}, nil
}

// Pending reports whether a reply is currently being fetched.
func (s *Service) Pending(conversationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[conversationID]
	return ok
}

func (s *Service) newMessage(text string, isUser bool) Message {
	return Message{
		ID:        uuid.NewString(),
		Message:   text,
		IsUser:    isUser,
		Timestamp: s.now(),
	}
}

func (s *Service) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.pending[id]; busy {
		return false
	}
	s.pending[id] = struct{}{}
	return true
}

func (s *Service) release(id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}
