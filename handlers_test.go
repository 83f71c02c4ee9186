package folio

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dnnweb/folio/analytics"
	"github.com/dnnweb/folio/views"
)

// newTestApp starts a fake content API with handler h and returns an
// initialized App pointed at it.
func newTestApp(t *testing.T, h http.HandlerFunc, configure ...func(*SiteConfig)) *App {
	t.Helper()
	api := httptest.NewServer(h)
	t.Cleanup(api.Close)

	dir := t.TempDir()
	cfg := SiteConfig{
		Name:                  "Test Folio",
		URL:                   "https://folio.example",
		APIServerURL:          api.URL,
		DatabasePath:          filepath.Join(dir, "folio.db"),
		MediaCacheDir:         filepath.Join(dir, "media"),
		AnalyticsDatabasePath: filepath.Join(dir, "analytics.db"),
		SessionSecret:         "test-secret-test-secret-test-sec",
	}
	for _, fn := range configure {
		fn(&cfg)
	}
	a := New(cfg, WithHTTPClient(api.Client()), WithStaticDir(filepath.Join(dir, "public")))
	a.logger.SetOutput(io.Discard)
	if err := a.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func get(t *testing.T, a *App, path string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

// contentAPI serves a small, healthy content API.
func contentAPI(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/projects":
		io.WriteString(w, `{"data":[
			{"id":"p2","title":"Second","description":"Built with **Go**","year":2024,"image":"uploads/p2.png","status":"published","order":2},
			{"id":"p1","title":"First","description":"A site","year":2023,"status":"published","order":1},
			{"id":"d1","title":"Secret Draft","status":"draft","order":0}
		],"total":3}`)
	case "/api/tech-stacks":
		io.WriteString(w, `[{"id":"s1","name":"React","color":"61DAFB","order":1},{"id":"s2","name":"Legacy","isActive":false}]`)
	case "/api/personal-info":
		io.WriteString(w, `{"data":{"name":"Jane Doe","title":"Software Engineer","bio":"Hello world","email":"jane@example.com","phone":"+62 812 3456","socialMedia":{"github":"https://github.com/janedoe"}}}`)
	case "/api/seo-settings":
		io.WriteString(w, `{"siteTitle":"Jane's Work","siteDescription":"Portfolio of Jane","keywords":["go","web"]}`)
	default:
		http.NotFound(w, r)
	}
}

func TestHomeRendersSections(t *testing.T) {
	a := newTestApp(t, contentAPI)
	rec := get(t, a, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"Jane Doe", "Software Engineer", "First", "Second", "React", "jane@example.com", "janedoe", "api.whatsapp.com/send?phone=628123456"} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	if strings.Contains(body, "Secret Draft") {
		t.Error("draft project rendered on the home page")
	}
	if strings.Contains(body, "Legacy") {
		t.Error("inactive stack rendered")
	}
	if strings.Index(body, "First") > strings.Index(body, "Second") {
		t.Error("projects not in display order")
	}
}

func TestHomeShowsSectionErrors(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	rec := get(t, a, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with section errors", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{views.HeroError, views.ContactError, views.PortfolioError, views.StacksError, "Retry Loading"} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	// SEO falls back to the config
	if !strings.Contains(body, "<title>Test Folio</title>") {
		t.Error("expected config title fallback")
	}
}

func TestLazyHomeRendersSkeletons(t *testing.T) {
	a := newTestApp(t, contentAPI)
	a.Config.LazySections = true
	body := get(t, a, "/").Body.String()
	if !strings.Contains(body, `data-lazy="/sections/hero/"`) {
		t.Error("expected lazy hero section")
	}
	if strings.Contains(body, "Jane Doe</h1>") {
		t.Error("lazy home should not render hero content")
	}
}

func TestSectionPartial(t *testing.T) {
	a := newTestApp(t, contentAPI)

	rec := get(t, a, "/sections/hero/", "HX-Request", "true")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Jane Doe") || strings.Contains(body, "<html") {
		t.Errorf("unexpected hero fragment:\n%s", body)
	}

	rec = get(t, a, "/sections/portfolio/?project=p2")
	if !strings.Contains(rec.Body.String(), "Built with") {
		t.Error("selected project description not expanded")
	}

	if rec := get(t, a, "/sections/unknown/"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown section status = %d, want 404", rec.Code)
	}
}

func TestProjectPage(t *testing.T) {
	a := newTestApp(t, contentAPI)

	rec := get(t, a, "/projects/p2/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Second") || !strings.Contains(body, "/media/uploads/p2.png") {
		t.Errorf("project page missing content")
	}
	if !strings.Contains(body, `"@type":"CreativeWork"`) {
		t.Error("project page missing JSON-LD")
	}

	if rec := get(t, a, "/projects/d1/"); rec.Code != http.StatusNotFound {
		t.Errorf("draft status = %d, want 404 for visitors", rec.Code)
	}
	if rec := get(t, a, "/projects/nope/"); rec.Code != http.StatusNotFound {
		t.Errorf("missing project status = %d, want 404", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	rec := get(t, a, "/status/")
	if !strings.Contains(rec.Body.String(), "Checking API...") {
		t.Errorf("expected checking state before the first check:\n%s", rec.Body.String())
	}

	a.Monitor.Check(context.Background())
	rec = get(t, a, "/status/")
	if !strings.Contains(rec.Body.String(), "API Requires Auth") {
		t.Errorf("expected auth state:\n%s", rec.Body.String())
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q", cc)
	}

	rec = get(t, a, "/status/", "Accept", "application/json")
	var got statusJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode status JSON: %v", err)
	}
	if got.Color != "yellow" || got.Text != "API Requires Auth" {
		t.Errorf("status JSON = %+v", got)
	}

	history, err := a.Store.StatusHistory(5)
	if err != nil || len(history) != 1 {
		t.Errorf("expected the check to be recorded, got %v, %v", history, err)
	}
}

func TestSitemapAndFeed(t *testing.T) {
	a := newTestApp(t, contentAPI)

	rec := get(t, a, "/sitemap.xml")
	if rec.Code != http.StatusOK {
		t.Fatalf("sitemap status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "https://folio.example/projects/p1/") || strings.Contains(body, "d1") {
		t.Errorf("unexpected sitemap:\n%s", body)
	}

	rec = get(t, a, "/feed.xml")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<title>Second</title>") {
		t.Errorf("unexpected feed (%d):\n%s", rec.Code, rec.Body.String())
	}

	rec = get(t, a, "/robots.txt")
	if !strings.Contains(rec.Body.String(), "Sitemap: https://folio.example/sitemap.xml") {
		t.Errorf("unexpected robots.txt:\n%s", rec.Body.String())
	}
}

func TestAdminRequiresLogin(t *testing.T) {
	a := newTestApp(t, contentAPI)

	rec := get(t, a, "/admin/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `name="token"`) {
		t.Errorf("expected login form (%d)", rec.Code)
	}
	if rec := get(t, a, "/admin/analytics/"); rec.Code != http.StatusSeeOther {
		t.Errorf("analytics without login = %d, want 303", rec.Code)
	}
}

func TestChatSendRequiresCSRF(t *testing.T) {
	a := newTestApp(t, contentAPI)
	req := httptest.NewRequest(http.MethodPost, "/chat/", strings.NewReader("message=hi"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestNotFoundPage(t *testing.T) {
	a := newTestApp(t, contentAPI)
	rec := get(t, a, "/no-such-page/")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "Not found") {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestCacheControl(t *testing.T) {
	a := newTestApp(t, contentAPI)
	tests := map[string]string{
		"/":            "private, no-cache",
		"/sitemap.xml": "public, max-age=3600",
		"/admin/":      "no-store",
	}
	for path, want := range tests {
		if got := get(t, a, path).Header().Get("Cache-Control"); got != want {
			t.Errorf("%s Cache-Control = %q, want %q", path, got, want)
		}
	}
}

func TestAnalyticsTracksPages(t *testing.T) {
	a := newTestApp(t, contentAPI, func(c *SiteConfig) { c.AnalyticsEnabled = true })

	get(t, a, "/", "User-Agent", "Mozilla/5.0 (X11; Linux x86_64) Firefox/121.0")
	get(t, a, "/sections/hero/", "HX-Request", "true")
	get(t, a, "/", "DNT", "1")
	get(t, a, "/status/")
	get(t, a, "/", "User-Agent", "Mozilla/5.0 (compatible; Googlebot/2.1)")

	from, to := analytics.PeriodRange("today", time.Now().UTC())
	sum, err := a.analyticsStore.Summarize(from, to)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.TotalViews != 2 {
		t.Errorf("TotalViews = %d, want 2 (page + section)", sum.TotalViews)
	}
	if sum.BotViews != 1 {
		t.Errorf("BotViews = %d, want 1", sum.BotViews)
	}
}

func TestSkipTracking(t *testing.T) {
	tests := map[string]bool{
		"/":               false,
		"/projects/p1/":   false,
		"/sections/hero/": false,
		"/public/site.js": true,
		"/media/x.png":    true,
		"/admin/":         true,
		"/status/":        true,
		"/chat/":          true,
		"/sitemap.xml":    true,
	}
	for path, want := range tests {
		if got := skipTracking(path); got != want {
			t.Errorf("skipTracking(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestContentSecurityPolicy(t *testing.T) {
	csp := contentSecurityPolicy("http://localhost:3000")
	if !strings.Contains(csp, "img-src 'self' https: data: http://localhost:3000") {
		t.Errorf("csp = %q", csp)
	}
	if strings.Contains(contentSecurityPolicy("https://api.example.com"), "api.example.com") {
		t.Error("https origins are already covered by https:")
	}
}

func TestFavicon(t *testing.T) {
	a := newTestApp(t, contentAPI)
	rec := get(t, a, "/favicon.svg")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	want, _ := EmbeddedAssets.ReadFile("embedded/favicon.svg")
	if rec.Body.String() != string(want) {
		t.Error("expected the embedded favicon")
	}
}
