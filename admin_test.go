package folio

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
)

// browser keeps cookies between requests and echoes the CSRF cookie in
// the X-CSRF-Token header the way site.js does.
type browser struct {
	t       *testing.T
	a       *App
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, a *App) *browser {
	t.Helper()
	b := &browser{t: t, a: a, cookies: map[string]*http.Cookie{}}
	if rec := b.do(http.MethodGet, "/admin/", nil); rec.Code != http.StatusOK {
		t.Fatalf("GET /admin/ = %d", rec.Code)
	}
	if b.csrf() == "" {
		t.Fatal("no CSRF cookie issued")
	}
	return b
}

func (b *browser) csrf() string {
	if c, ok := b.cookies["_csrf"]; ok {
		return c.Value
	}
	return ""
}

func (b *browser) do(method, path string, form url.Values, header ...string) *httptest.ResponseRecorder {
	b.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	if method != http.MethodGet {
		req.Header.Set("X-CSRF-Token", b.csrf())
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	for _, c := range b.cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	rec := httptest.NewRecorder()
	b.a.Echo.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) login(token string) *httptest.ResponseRecorder {
	return b.do(http.MethodPost, "/admin/login/", url.Values{"token": {token}})
}

// authAPI is contentAPI with the full project listing behind a bearer token.
type authAPI struct {
	mu    sync.Mutex
	token string
}

func (f *authAPI) setToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *authAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/projects" && r.URL.Query().Get("all") == "true" {
		f.mu.Lock()
		token := f.token
		f.mu.Unlock()
		if token == "" || r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, `{"message":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
	}
	contentAPI(w, r)
}

func withAnalytics(c *SiteConfig) { c.AnalyticsEnabled = true }

func assertLoggedOut(t *testing.T, b *browser) {
	t.Helper()
	if rec := b.do(http.MethodGet, "/admin/analytics/", nil); rec.Code != http.StatusSeeOther {
		t.Errorf("GET /admin/analytics/ = %d, want 303", rec.Code)
	}
	if body := b.do(http.MethodGet, "/admin/", nil).Body.String(); !strings.Contains(body, `name="token"`) {
		t.Errorf("expected the login form:\n%s", body)
	}
}

func TestAdminLoginRejectsAnyTokenWhenAPIIsOpen(t *testing.T) {
	// contentAPI lists every project without asking for a token
	a := newTestApp(t, contentAPI, withAnalytics)
	b := newBrowser(t, a)

	rec := b.login("totally-bogus")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Invalid API token.") {
		t.Fatalf("login = %d, want the login form with an error:\n%s", rec.Code, rec.Body.String())
	}
	assertLoggedOut(t, b)
}

func TestAdminLoginVerifiedByAPI(t *testing.T) {
	api := &authAPI{token: "good"}
	a := newTestApp(t, api.ServeHTTP, withAnalytics)
	b := newBrowser(t, a)

	if rec := b.login("bad"); !strings.Contains(rec.Body.String(), "Invalid API token.") {
		t.Errorf("wrong token accepted (%d)", rec.Code)
	}
	assertLoggedOut(t, b)

	rec := b.login("good")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/admin/" {
		t.Fatalf("login = %d %q, want 303 to /admin/", rec.Code, rec.Header().Get("Location"))
	}
	dash := b.do(http.MethodGet, "/admin/", nil).Body.String()
	for _, want := range []string{"Test Folio admin", "Secret Draft", "Projects (3)", "Last 7 days"} {
		if !strings.Contains(dash, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
	if rec := b.do(http.MethodGet, "/admin/analytics/", nil); rec.Code != http.StatusOK {
		t.Errorf("analytics after login = %d, want 200", rec.Code)
	}
	if rec := b.do(http.MethodGet, "/projects/d1/", nil); rec.Code != http.StatusOK {
		t.Errorf("draft for admin = %d, want 200", rec.Code)
	}

	rec = b.do(http.MethodPost, "/admin/logout/", url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Errorf("logout = %d, want 303", rec.Code)
	}
	assertLoggedOut(t, b)
}

func TestAdminTokenRevokedAfterLogin(t *testing.T) {
	api := &authAPI{token: "first"}
	a := newTestApp(t, api.ServeHTTP)
	b := newBrowser(t, a)

	if rec := b.login("first"); rec.Code != http.StatusSeeOther {
		t.Fatalf("login = %d", rec.Code)
	}
	api.setToken("second")

	body := b.do(http.MethodGet, "/admin/", nil).Body.String()
	if !strings.Contains(body, "Invalid API token.") {
		t.Errorf("revoked token should show the login form with an error:\n%s", body)
	}
	if body := b.do(http.MethodGet, "/admin/", nil).Body.String(); strings.Contains(body, "Secret Draft") {
		t.Error("session kept the revoked token")
	}

	if rec := b.login("second"); rec.Code != http.StatusSeeOther {
		t.Fatalf("re-login = %d", rec.Code)
	}
	if body := b.do(http.MethodGet, "/admin/", nil).Body.String(); !strings.Contains(body, "Secret Draft") {
		t.Error("dashboard not shown after re-login")
	}
}

func TestAdminLoginConfiguredToken(t *testing.T) {
	a := newTestApp(t, contentAPI, withAnalytics, func(c *SiteConfig) { c.AdminToken = "s3cret" })
	b := newBrowser(t, a)

	if rec := b.login("s3cret-but-longer"); !strings.Contains(rec.Body.String(), "Invalid API token.") {
		t.Errorf("mismatched token accepted (%d)", rec.Code)
	}
	assertLoggedOut(t, b)

	if rec := b.login("s3cret"); rec.Code != http.StatusSeeOther {
		t.Fatalf("login = %d, want 303", rec.Code)
	}
	if rec := b.do(http.MethodGet, "/admin/analytics/", nil); rec.Code != http.StatusOK {
		t.Errorf("analytics after login = %d, want 200", rec.Code)
	}

	// rotating the configured token ends existing sessions
	a.Config.AdminToken = "rotated"
	assertLoggedOut(t, b)
}

func TestAdminLoginRateLimited(t *testing.T) {
	a := newTestApp(t, contentAPI)
	b := newBrowser(t, a)
	for i := 0; i < 5; i++ {
		b.login("nope")
	}
	if rec := b.login("nope"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("sixth attempt = %d, want 429", rec.Code)
	}
}
