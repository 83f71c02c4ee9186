package folio

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dnnweb/folio/chat"
)

// SiteConfig holds all configuration for a folio site.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name, used when the API has no SEO settings (default "Portfolio")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:4321")
	Description string `yaml:"description"` // Fallback meta description
	Author      string `yaml:"author"`      // Fallback owner name for JSON-LD

	APIServerURL string `yaml:"api_server_url"` // Content API root (default "http://localhost:3000")

	Addr          string `yaml:"addr"`            // Listen address (default ":4321")
	DatabasePath  string `yaml:"database_path"`   // SQLite path (default "data/folio.db")
	MediaCacheDir string `yaml:"media_cache_dir"` // Resized image cache (default "data/media")

	AnalyticsEnabled      bool   `yaml:"analytics_enabled"`
	AnalyticsDatabasePath string `yaml:"analytics_database_path"` // default "data/analytics.db"

	SessionSecret string `yaml:"-"` // Required: session encryption secret
	AdminToken    string `yaml:"-"` // Accepted admin token; when empty the content API judges it
	CookieSecure  bool   `yaml:"cookie_secure"`

	ContentCacheTTL time.Duration `yaml:"content_cache_ttl"` // default 1m
	StatusInterval  time.Duration `yaml:"status_interval"`   // default 30s
	WelcomeDelay    time.Duration `yaml:"welcome_delay"`     // default 2s
	LazySections    bool          `yaml:"lazy_sections"`     // render skeletons and load sections from the browser

	CVURL         string   `yaml:"cv_url"`
	DefaultPhone  string   `yaml:"default_phone"`  // shown when the API has no phone
	DefaultGithub string   `yaml:"default_github"` // shown when the API has no GitHub link
	ChatQuestions []string `yaml:"chat_questions"`
	ChatRateLimit int      `yaml:"chat_rate_limit"` // messages per minute per IP (default 20)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Portfolio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:4321"
	}
	if c.APIServerURL == "" {
		c.APIServerURL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":4321"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/folio.db"
	}
	if c.MediaCacheDir == "" {
		c.MediaCacheDir = "data/media"
	}
	if c.AnalyticsDatabasePath == "" {
		c.AnalyticsDatabasePath = "data/analytics.db"
	}
	if c.ContentCacheTTL == 0 {
		c.ContentCacheTTL = time.Minute
	}
	if c.StatusInterval == 0 {
		c.StatusInterval = 30 * time.Second
	}
	if c.WelcomeDelay == 0 {
		c.WelcomeDelay = 2 * time.Second
	}
	if len(c.ChatQuestions) == 0 {
		c.ChatQuestions = chat.TemplateQuestions
	}
	if c.ChatRateLimit == 0 {
		c.ChatRateLimit = 20
	}
}

// LoadConfig reads the optional YAML file at path and then applies any
// environment variables that are set. Env wins over the file.
func LoadConfig(path string) (SiteConfig, error) {
	cfg := SiteConfig{AnalyticsEnabled: true}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(c *SiteConfig) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"SITE_NAME", &c.Name},
		{"SITE_URL", &c.URL},
		{"SITE_DESCRIPTION", &c.Description},
		{"SITE_AUTHOR", &c.Author},
		{"API_SERVER_URL", &c.APIServerURL},
		{"ADDR", &c.Addr},
		{"DATABASE_PATH", &c.DatabasePath},
		{"MEDIA_CACHE_DIR", &c.MediaCacheDir},
		{"ANALYTICS_DATABASE_PATH", &c.AnalyticsDatabasePath},
		{"SESSION_SECRET", &c.SessionSecret},
		{"ADMIN_TOKEN", &c.AdminToken},
		{"CV_URL", &c.CVURL},
		{"DEFAULT_PHONE", &c.DefaultPhone},
		{"DEFAULT_GITHUB", &c.DefaultGithub},
	}
	for _, s := range strs {
		if v, ok := os.LookupEnv(s.key); ok {
			*s.dst = v
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"ANALYTICS_ENABLED", &c.AnalyticsEnabled},
		{"COOKIE_SECURE", &c.CookieSecure},
		{"LAZY_SECTIONS", &c.LazySections},
	}
	for _, b := range bools {
		if v, ok := os.LookupEnv(b.key); ok {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", b.key, err)
			}
			*b.dst = parsed
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"CONTENT_CACHE_TTL", &c.ContentCacheTTL},
		{"STATUS_INTERVAL", &c.StatusInterval},
		{"WELCOME_DELAY", &c.WelcomeDelay},
	}
	for _, d := range durations {
		if v, ok := os.LookupEnv(d.key); ok {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	if v, ok := os.LookupEnv("CHAT_RATE_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHAT_RATE_LIMIT: %w", err)
		}
		c.ChatRateLimit = n
	}
	if v, ok := os.LookupEnv("CHAT_QUESTIONS"); ok {
		c.ChatQuestions = FilterEmpty(strings.Split(v, "|"))
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for site-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithHTTPClient sets the client used to reach the content API and fetch media.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		a.httpClient = hc
	}
}

// WithViews replaces the default page components.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}
