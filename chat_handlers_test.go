package folio

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dnnweb/folio/chat"
)

// chatAPI is contentAPI plus an assistant that echoes messages and fails
// on "boom". calls counts assistant requests.
func chatAPI(calls *atomic.Int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			contentAPI(w, r)
			return
		}
		calls.Add(1)
		var req struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Message == "boom" {
			http.Error(w, `{"message":"upstream failed"}`, http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"reply": "echo: " + req.Message})
	}
}

func TestChatSendRendersReply(t *testing.T) {
	var calls atomic.Int32
	a := newTestApp(t, chatAPI(&calls))
	b := newBrowser(t, a)

	rec := b.do(http.MethodPost, "/chat/", url.Values{"message": {"Hello"}}, "HX-Request", "true")
	if rec.Code != http.StatusOK {
		t.Fatalf("send = %d:\n%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	for _, want := range []string{`chat-message user`, `<p>Hello</p>`, `chat-message bot`, `<p>echo: Hello</p>`} {
		if !strings.Contains(body, want) {
			t.Errorf("transcript missing %q:\n%s", want, body)
		}
	}

	rec = b.do(http.MethodPost, "/chat/", url.Values{"message": {"boom"}}, "HX-Request", "true")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), chat.FallbackError) {
		t.Errorf("upstream failure = %d, want the fallback reply:\n%s", rec.Code, rec.Body.String())
	}

	history := b.do(http.MethodGet, "/chat/", nil, "HX-Request", "true").Body.String()
	if n := strings.Count(history, "data-id="); n != 4 {
		t.Errorf("history has %d messages, want 4:\n%s", n, history)
	}

	if rec := b.do(http.MethodPost, "/chat/", url.Values{"message": {"   "}}, "HX-Request", "true"); rec.Code != http.StatusBadRequest {
		t.Errorf("blank message = %d, want 400", rec.Code)
	}

	// without HX-Request the form post redirects back to the widget
	rec = b.do(http.MethodPost, "/chat/", url.Values{"message": {"again"}})
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/#chat" {
		t.Errorf("plain post = %d %q, want 303 to /#chat", rec.Code, rec.Header().Get("Location"))
	}
}

func TestChatConversationsAreSeparate(t *testing.T) {
	var calls atomic.Int32
	a := newTestApp(t, chatAPI(&calls))
	first, second := newBrowser(t, a), newBrowser(t, a)

	first.do(http.MethodPost, "/chat/", url.Values{"message": {"mine"}}, "HX-Request", "true")
	body := second.do(http.MethodGet, "/chat/", nil, "HX-Request", "true").Body.String()
	if strings.Contains(body, "mine") {
		t.Errorf("second visitor sees the first visitor's messages:\n%s", body)
	}
}

func TestChatWelcomeOncePerConversation(t *testing.T) {
	var calls atomic.Int32
	a := newTestApp(t, chatAPI(&calls))
	b := newBrowser(t, a)

	for i := 0; i < 3; i++ {
		rec := b.do(http.MethodPost, "/chat/welcome/", url.Values{}, "HX-Request", "true")
		if rec.Code != http.StatusOK {
			t.Fatalf("welcome #%d = %d", i+1, rec.Code)
		}
		if n := strings.Count(rec.Body.String(), "chat-message bot"); n != 1 {
			t.Errorf("welcome #%d rendered %d bot messages, want 1", i+1, n)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("assistant called %d times, want 1", got)
	}

	newBrowser(t, a).do(http.MethodPost, "/chat/welcome/", url.Values{}, "HX-Request", "true")
	if got := calls.Load(); got != 2 {
		t.Errorf("a new conversation should be welcomed, assistant calls = %d", got)
	}
}

func TestChatRateLimited(t *testing.T) {
	var calls atomic.Int32
	a := newTestApp(t, chatAPI(&calls), func(c *SiteConfig) { c.ChatRateLimit = 2 })
	b := newBrowser(t, a)

	for i := 0; i < 2; i++ {
		if rec := b.do(http.MethodPost, "/chat/welcome/", url.Values{}, "HX-Request", "true"); rec.Code != http.StatusOK {
			t.Fatalf("welcome #%d = %d", i+1, rec.Code)
		}
	}
	if rec := b.do(http.MethodPost, "/chat/welcome/", url.Values{}, "HX-Request", "true"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("third welcome = %d, want 429", rec.Code)
	}
	if rec := b.do(http.MethodPost, "/chat/", url.Values{"message": {"hi"}}, "HX-Request", "true"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("send over the limit = %d, want 429", rec.Code)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("assistant called %d times, want 1", got)
	}
}
