// Package folio is a server-rendered portfolio site built with Go, Echo and
// templ. It reads personal info, projects, tech stacks and SEO settings from
// a remote content API and renders them as pages and refreshable sections,
// with an API status indicator, a chat widget and a small admin area.
package folio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/dnnweb/folio/analytics"
	"github.com/dnnweb/folio/chat"
	"github.com/dnnweb/folio/contentapi"
	"github.com/dnnweb/folio/status"
)

const shutdownTimeout = 10 * time.Second

// App is the central folio application. It wires together the API client,
// cache, store, background monitor, handlers and middleware.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	API     *contentapi.Client
	Store   *Store
	Cache   *ContentCache
	Monitor *status.Monitor
	Chat    *chat.Service
	Views   ViewFuncs

	logger         *log.Logger
	loginLimiter   *RateLimiter
	chatLimiter    *RateLimiter
	analyticsStore *analytics.Store
	analytics      *analytics.Handler
	media          *mediaProxy
	customRoutes   []func(*App)
	staticDir      string
	httpClient     *http.Client
	ready          bool
}

// New creates a new App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	logger := log.New("folio")
	logger.SetLevel(log.INFO)

	a := &App{
		Config:     cfg,
		Echo:       echo.New(),
		Views:      DefaultViews(),
		logger:     logger,
		staticDir:  "public",
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	a.Echo.Logger = logger

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Init opens the databases and registers middleware and routes. Start calls
// it; tests call it directly and drive a.Echo with httptest.
func (a *App) Init() error {
	if a.ready {
		return nil
	}
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("folio: SessionSecret is required")
	}

	store, err := NewStore(a.Config.DatabasePath)
	if err != nil {
		return fmt.Errorf("folio: init store: %w", err)
	}
	a.Store = store

	a.API = contentapi.New(a.Config.APIServerURL,
		contentapi.WithHTTPClient(a.httpClient),
		contentapi.WithLogger(a.logger))
	a.Cache = NewContentCache(a.API, a.Store, a.Config.ContentCacheTTL, a.logger)
	a.Monitor = status.NewMonitor(a.API, a.Config.StatusInterval, a.Store, a.logger)
	a.Chat = chat.NewService(a.API, a.Store, a.logger)
	a.media = newMediaProxy(a.API.ServerURL(), a.Config.MediaCacheDir, a.httpClient)

	a.loginLimiter = NewRateLimiter(5, time.Minute)
	a.chatLimiter = NewRateLimiter(a.Config.ChatRateLimit, time.Minute)

	if a.Config.AnalyticsEnabled {
		analyticsStore, err := analytics.NewStore(a.Config.AnalyticsDatabasePath)
		if err != nil {
			return fmt.Errorf("folio: init analytics: %w", err)
		}
		a.analyticsStore = analyticsStore
		if err := analytics.InitSalt(analyticsStore); err != nil {
			return fmt.Errorf("folio: init analytics salt: %w", err)
		}
		a.analytics = analytics.NewHandler(analyticsStore)
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start initializes the app, starts the status monitor and serves until ctx
// is cancelled, then shuts down gracefully.
func (a *App) Start(ctx context.Context) error {
	if err := a.Init(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitorDone := a.Monitor.Start(ctx)

	if a.analyticsStore != nil {
		stopCleanup := a.analyticsStore.StartCleanupScheduler(365, 24*time.Hour, func(err error) {
			a.logger.Errorf("analytics cleanup: %v", err)
		})
		defer stopCleanup()
	}
	stopChatCleanup := a.startChatCleanup(30*24*time.Hour, 24*time.Hour)
	defer stopChatCleanup()

	errc := make(chan error, 1)
	go func() {
		errc <- a.Echo.Start(a.Config.Addr)
	}()

	select {
	case err := <-errc:
		cancel()
		<-monitorDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	err := a.Echo.Shutdown(shutdownCtx)
	<-monitorDone
	return err
}

// startChatCleanup deletes chat transcripts idle for longer than maxAge.
func (a *App) startChatCleanup(maxAge, interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				n, err := a.Store.DeleteConversationsBefore(time.Now().Add(-maxAge))
				if err != nil {
					a.logger.Errorf("chat cleanup: %v", err)
				} else if n > 0 {
					a.logger.Infof("chat cleanup: removed %d messages", n)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded site assets are served under /public/ ahead of the static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/site.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/site.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/media/*", a.handleMedia)

	e.GET("/", a.handleHome)
	e.GET("/sections/:name/", a.handleSection)
	e.GET("/projects/:id/", a.handleProject)
	e.GET("/status/", a.handleStatus)
	e.GET("/chat/", a.handleChatHistory)
	e.POST("/chat/", a.handleChatSend)
	e.POST("/chat/welcome/", a.handleChatWelcome)

	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	e.POST("/admin/cache/", a.handleAdminInvalidate)
	e.GET("/admin/analytics/", a.handleAdminAnalytics)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.analyticsStore != nil {
		errs = append(errs, a.analyticsStore.Close())
	}
	return errors.Join(errs...)
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("folio: required environment variable %s is not set", key)
	}
	return v
}
