package folio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/dnnweb/folio/contentapi"
)

// ContentSource is the subset of the content API the cache reads through.
type ContentSource interface {
	FetchProjects(ctx context.Context) ([]contentapi.Project, error)
	FetchTechStacks(ctx context.Context) ([]contentapi.TechStack, error)
	FetchPersonalInfo(ctx context.Context) (contentapi.PersonalInfo, error)
	SEOData(ctx context.Context) (contentapi.SEOSettings, error)
}

// Snapshots persists the last good copy of each resource.
type Snapshots interface {
	SaveSnapshot(key string, v any) error
	LoadSnapshot(key string, dst any) (time.Time, error)
}

// retryBackoff is how long a failed fetch is remembered before the API is
// tried again. Requests in between get the stale copy.
const retryBackoff = 5 * time.Second

// ContentCache is an in-memory TTL cache over the content API. When the
// API fails it falls back to the previous value, then to the SQLite
// snapshot, and reports the result as stale.
type ContentCache struct {
	src       ContentSource
	snapshots Snapshots
	ttl       time.Duration
	logger    *log.Logger

	projects entry[[]contentapi.Project]
	stacks   entry[[]contentapi.TechStack]
	personal entry[contentapi.PersonalInfo]
	seo      entry[contentapi.SEOSettings]
}

type entry[T any] struct {
	mu      sync.RWMutex
	val     T
	loaded  bool
	stale   bool
	fetched time.Time
	retryAt time.Time
}

func (e *entry[T]) fresh(ttl time.Duration) bool {
	return e.loaded && !e.stale && time.Since(e.fetched) < ttl
}

func (e *entry[T]) backingOff() bool {
	return e.loaded && e.stale && time.Now().Before(e.retryAt)
}

// NewContentCache creates a ContentCache. snapshots may be nil.
func NewContentCache(src ContentSource, snapshots Snapshots, ttl time.Duration, logger *log.Logger) *ContentCache {
	if logger == nil {
		logger = log.New("cache")
	}
	return &ContentCache{src: src, snapshots: snapshots, ttl: ttl, logger: logger}
}

// Invalidate clears every entry so the next read goes to the API.
func (c *ContentCache) Invalidate() {
	invalidate(&c.projects)
	invalidate(&c.stacks)
	invalidate(&c.personal)
	invalidate(&c.seo)
}

func invalidate[T any](e *entry[T]) {
	e.mu.Lock()
	e.fetched = time.Time{}
	e.retryAt = time.Time{}
	e.stale = true
	e.mu.Unlock()
}

// Projects returns the project list. stale is true when the API failed
// and an older copy was served.
func (c *ContentCache) Projects(ctx context.Context) (projects []contentapi.Project, stale bool, err error) {
	return read(ctx, c, &c.projects, "projects", c.src.FetchProjects)
}

// TechStacks returns the tech stack list.
func (c *ContentCache) TechStacks(ctx context.Context) ([]contentapi.TechStack, bool, error) {
	return read(ctx, c, &c.stacks, "tech-stacks", c.src.FetchTechStacks)
}

// PersonalInfo returns the owner's profile.
func (c *ContentCache) PersonalInfo(ctx context.Context) (contentapi.PersonalInfo, bool, error) {
	return read(ctx, c, &c.personal, "personal-info", c.src.FetchPersonalInfo)
}

// SEO returns the SEO settings.
func (c *ContentCache) SEO(ctx context.Context) (contentapi.SEOSettings, bool, error) {
	return read(ctx, c, &c.seo, "seo-settings", c.src.SEOData)
}

// read tries a read lock first and only takes the write lock when a
// reload is needed.
func read[T any](ctx context.Context, c *ContentCache, e *entry[T], key string, fetch func(context.Context) (T, error)) (T, bool, error) {
	e.mu.RLock()
	if e.fresh(c.ttl) || e.backingOff() {
		v, stale := e.val, e.stale
		e.mu.RUnlock()
		return v, stale, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fresh(c.ttl) || e.backingOff() {
		return e.val, e.stale, nil
	}

	v, err := fetch(ctx)
	if err == nil {
		e.val, e.loaded, e.stale, e.fetched = v, true, false, time.Now()
		if c.snapshots != nil {
			if serr := c.snapshots.SaveSnapshot(key, v); serr != nil {
				c.logger.Warnf("save %s snapshot: %v", key, serr)
			}
		}
		return v, false, nil
	}

	if !e.loaded && c.snapshots != nil {
		var snap T
		savedAt, serr := c.snapshots.LoadSnapshot(key, &snap)
		switch {
		case serr == nil:
			c.logger.Warnf("%s: serving snapshot from %s: %v", key, savedAt.Format(time.RFC3339), err)
			e.val, e.loaded = snap, true
		case !errors.Is(serr, ErrNotFound):
			c.logger.Errorf("load %s snapshot: %v", key, serr)
		}
	}
	if !e.loaded {
		var zero T
		return zero, false, err
	}
	e.stale = true
	e.retryAt = time.Now().Add(retryBackoff)
	return e.val, true, nil
}
