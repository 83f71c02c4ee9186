package contentapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/gommon/log"
)

func quietLogger() *log.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return New(srv.URL, opts...)
}

func TestFetchProjectsNormalizesShapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare array", `[{"id":"1","title":"A"},{"id":"2","title":"B"}]`, 2},
		{"envelope", `{"data":[{"id":"1","title":"A"}],"total":1,"page":1,"limit":10}`, 1},
		{"envelope null data", `{"data":null,"total":0}`, 0},
		{"envelope without data", `{"total":0}`, 0},
		{"empty array", `[]`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/projects" {
					t.Errorf("path = %q, want /api/projects", r.URL.Path)
				}
				io.WriteString(w, tt.body)
			})
			got, err := c.FetchProjects(context.Background())
			if err != nil {
				t.Fatalf("FetchProjects: %v", err)
			}
			if got == nil {
				t.Fatal("expected non-nil slice")
			}
			if len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestFetchTechStacks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tech-stacks" {
			t.Errorf("path = %q", r.URL.Path)
		}
		io.WriteString(w, `{"data":[{"id":"t1","name":"React","color":"#61dafb","order":1,"isActive":true}]}`)
	})
	stacks, err := c.ActiveTechStacks(context.Background())
	if err != nil {
		t.Fatalf("ActiveTechStacks: %v", err)
	}
	if len(stacks) != 1 || stacks[0].Name != "React" || !stacks[0].Active() {
		t.Errorf("stacks = %+v", stacks)
	}
}

func TestFetchPersonalInfoUnwrapsData(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"wrapped", `{"data":{"id":"p1","name":"Jane Doe","socialMedia":{"github":"https://github.com/jane"}}}`},
		{"bare", `{"id":"p1","name":"Jane Doe","socialMedia":{"github":"https://github.com/jane"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tt.body)
			})
			info, err := c.PersonalInfo(context.Background())
			if err != nil {
				t.Fatalf("PersonalInfo: %v", err)
			}
			if info.Name != "Jane Doe" {
				t.Errorf("Name = %q", info.Name)
			}
			if info.SocialMedia.Github != "https://github.com/jane" {
				t.Errorf("Github = %q", info.SocialMedia.Github)
			}
		})
	}
}

func TestAPIErrorOnNon2xx(t *testing.T) {
	tests := []struct {
		code int
		kind string
	}{
		{http.StatusUnauthorized, "unauthorized access"},
		{http.StatusForbidden, "access denied"},
		{http.StatusBadRequest, "validation failed"},
		{http.StatusNotFound, "resource not found"},
		{http.StatusInternalServerError, "server error occurred"},
		{http.StatusBadGateway, "api error"},
	}
	for _, tt := range tests {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.code)
		})
		_, err := c.FetchProjects(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("code %d: expected *APIError, got %v", tt.code, err)
		}
		if apiErr.StatusCode != tt.code {
			t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, tt.code)
		}
		if apiErr.Kind() != tt.kind {
			t.Errorf("Kind() = %q, want %q", apiErr.Kind(), tt.kind)
		}
		want := "Failed to fetch projects: " + http.StatusText(tt.code)
		if !strings.HasPrefix(err.Error(), "Failed to fetch projects: ") || !strings.HasSuffix(err.Error(), http.StatusText(tt.code)) {
			t.Errorf("Error() = %q, want like %q", err.Error(), want)
		}
		if got := IsUnauthorized(err); got != (tt.code == http.StatusUnauthorized) {
			t.Errorf("IsUnauthorized = %v for %d", got, tt.code)
		}
	}
}

func TestTransportErrorIsWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	c := New(srv.URL, WithLogger(quietLogger()))
	_, err := c.FetchTechStacks(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if StatusCode(err) != 0 {
		t.Errorf("StatusCode = %d, want 0", StatusCode(err))
	}
	if !strings.Contains(err.Error(), "fetch tech stacks") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestProjectQueryEncode(t *testing.T) {
	tests := []struct {
		name string
		q    ProjectQuery
		want url.Values
	}{
		{"defaults", ProjectQuery{}, url.Values{"page": {"1"}, "limit": {"10"}}},
		{"paged", ProjectQuery{Page: 3, Limit: 5}, url.Values{"page": {"3"}, "limit": {"5"}}},
		{"all", ProjectQuery{All: true, Page: 3}, url.Values{"all": {"true"}}},
		{"status", ProjectQuery{All: true, Status: StatusAll}, url.Values{"all": {"true"}, "status": {"all"}}},
		{"draft page", ProjectQuery{Status: StatusDraft}, url.Values{"page": {"1"}, "limit": {"10"}, "status": {"draft"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := url.ParseQuery(tt.q.Encode())
			if err != nil {
				t.Fatal(err)
			}
			if got.Encode() != tt.want.Encode() {
				t.Errorf("Encode() = %q, want %q", got.Encode(), tt.want.Encode())
			}
		})
	}
}

func TestPublishedProjectsKeepsEnvelopeFields(t *testing.T) {
	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		io.WriteString(w, `{"data":[{"id":"1"},{"id":"2"}],"total":12,"page":2,"limit":2}`)
	})
	page, err := c.PublishedProjects(context.Background(), ProjectQuery{Page: 2, Limit: 2, Status: StatusPublished})
	if err != nil {
		t.Fatalf("PublishedProjects: %v", err)
	}
	if gotQuery != "limit=2&page=2&status=published" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(page.Data) != 2 || page.Total != 12 || page.Page != 2 || page.Limit != 2 {
		t.Errorf("page = %+v", page)
	}
}

func TestBearerTokenHeader(t *testing.T) {
	var auth, ctype, cache string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		ctype = r.Header.Get("Content-Type")
		cache = r.Header.Get("Cache-Control")
		io.WriteString(w, `[]`)
	})
	if _, err := c.WithToken("s3cret").FetchProjects(context.Background()); err != nil {
		t.Fatal(err)
	}
	if auth != "Bearer s3cret" {
		t.Errorf("Authorization = %q", auth)
	}
	if ctype != "application/json" {
		t.Errorf("Content-Type = %q", ctype)
	}
	if cache != "no-store" {
		t.Errorf("Cache-Control = %q", cache)
	}

	if _, err := c.FetchProjects(context.Background()); err != nil {
		t.Fatal(err)
	}
	if auth != "" {
		t.Errorf("original client leaked token: %q", auth)
	}
}

func TestAssetURL(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{"https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"http://cdn.example.com/a.png", "http://cdn.example.com/a.png"},
		{"/uploads/a.png", "http://api.test/uploads/a.png"},
		{"uploads/a.png", "http://api.test/uploads/a.png"},
	}
	c := New("http://api.test/")
	for _, tt := range tests {
		if got := c.AssetURL(tt.path); got != tt.want {
			t.Errorf("AssetURL(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestSEODataAbsolutizesImages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data":{"siteTitle":"Folio","ogImage":"/og.png","favicon":"fav.ico","keywords":["go","web"]}}`)
	})
	seo, err := c.SEOData(context.Background())
	if err != nil {
		t.Fatalf("SEOData: %v", err)
	}
	if seo.OGImage != c.ServerURL()+"/og.png" {
		t.Errorf("OGImage = %q", seo.OGImage)
	}
	if seo.Favicon != c.ServerURL()+"/fav.ico" {
		t.Errorf("Favicon = %q", seo.Favicon)
	}
	if len(seo.Keywords) != 2 {
		t.Errorf("Keywords = %v", seo.Keywords)
	}
}

func TestSEODataUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err := c.SEOData(context.Background())
	if !errors.Is(err, ErrSEOUnavailable) {
		t.Fatalf("expected ErrSEOUnavailable, got %v", err)
	}
}

func TestChat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(chatResponse{Reply: "echo: " + req.Message})
	})
	reply, err := c.Chat(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != "echo: hello" {
		t.Errorf("reply = %q", reply)
	}
}

func TestCheckStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	code, text, err := c.CheckStatus(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusServiceUnavailable || text != "Service Unavailable" {
		t.Errorf("got %d %q", code, text)
	}
}
