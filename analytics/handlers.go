package analytics

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Handler records views and serves summaries.
type Handler struct {
	store       *Store
	viewLimiter *rateLimiter
}

// NewHandler creates a Handler. Each IP is recorded at most 120 times a minute
// so a reload loop cannot flood the database.
func NewHandler(store *Store) *Handler {
	return &Handler{
		store:       store,
		viewLimiter: newRateLimiter(120, time.Minute),
	}
}

// Track is middleware that records successful GET page views after the
// handler has run. Static assets, admin pages and polling endpoints are skipped.
func (h *Handler) Track(skip func(path string) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			req := c.Request()
			if req.Method != http.MethodGet || err != nil || c.Response().Status != http.StatusOK {
				return err
			}
			path := req.URL.Path
			if skip != nil && skip(path) {
				return err
			}
			if req.Header.Get("DNT") == "1" || !h.viewLimiter.allow(c.RealIP()) {
				return err
			}
			h.record(c, path)
			return err
		}
	}
}

func (h *Handler) record(c echo.Context, path string) {
	req := c.Request()
	ua := req.UserAgent()
	ip := c.RealIP()
	now := time.Now().UTC()

	if IsBot(ua) {
		if err := h.store.SaveBotView(BotView{
			BotName:   BotName(ua),
			IPHash:    HashIP(ip),
			UserAgent: truncate(ua, 512),
			Path:      truncate(path, 2048),
			Timestamp: now,
		}); err != nil {
			c.Logger().Errorf("save bot view: %v", err)
		}
		return
	}

	section := ""
	if req.Header.Get("HX-Request") == "true" {
		section = sectionOf(path)
	}
	browser, os, device := ParseUserAgent(ua)
	if err := h.store.SaveView(View{
		VisitorID: VisitorID(ip, ua, now),
		IPHash:    HashIP(ip),
		Browser:   browser,
		OS:        os,
		Device:    device,
		Path:      truncate(path, 2048),
		Section:   section,
		Referrer:  CleanReferrer(req.Referer(), req.Host),
		Timestamp: now,
	}); err != nil {
		c.Logger().Errorf("save view: %v", err)
	}
}

// Summary returns the view summary for ?period=today|week|month|year as JSON.
func (h *Handler) Summary(c echo.Context) error {
	from, to := PeriodRange(c.QueryParam("period"), time.Now().UTC())
	sum, err := h.store.Summarize(from, to)
	if err != nil {
		c.Logger().Errorf("summarize views: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, sum)
}

// PeriodRange resolves a period name to a half-open time range ending
// at the start of tomorrow. Unknown names mean "week".
func PeriodRange(period string, now time.Time) (time.Time, time.Time) {
	days := 7
	switch period {
	case "today":
		days = 1
	case "month":
		days = 30
	case "year":
		days = 365
	}
	to := now.Add(24 * time.Hour).Truncate(24 * time.Hour)
	return to.AddDate(0, 0, -days), to
}

// sectionOf extracts "hero" from "/sections/hero/".
func sectionOf(path string) string {
	rest, ok := strings.CutPrefix(path, "/sections/")
	if !ok {
		return "partial"
	}
	return strings.Trim(rest, "/")
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
