// Package analytics records privacy-first page views for the portfolio.
//
// Views are counted on the server as pages are rendered. IP addresses are
// never stored: they are hashed with a per-installation salt. Crawlers are
// kept in a separate table so they do not inflate visitor numbers.
package analytics

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

var salt struct {
	once  sync.Once
	value string
}

// InitSalt loads or generates the salt used for IP hashing.
// Must be called once at startup before any views are recorded.
func InitSalt(store *Store) error {
	var initErr error
	salt.once.Do(func() {
		s, err := store.GetSetting("hash_salt")
		if err != nil {
			initErr = fmt.Errorf("read hash salt: %w", err)
			return
		}
		if s == "" {
			b := make([]byte, 32)
			if _, err := rand.Read(b); err != nil {
				initErr = fmt.Errorf("generate salt: %w", err)
				return
			}
			s = hex.EncodeToString(b)
			if err := store.SetSetting("hash_salt", s); err != nil {
				initErr = fmt.Errorf("store hash salt: %w", err)
				return
			}
		}
		salt.value = s
	})
	return initErr
}

// View is a single human page view.
type View struct {
	VisitorID string
	IPHash    string
	Browser   string
	OS        string
	Device    string
	Path      string
	Section   string // htmx partial name, empty for full pages
	Referrer  string
	Timestamp time.Time
}

// BotView is a single crawler page view.
type BotView struct {
	BotName   string
	IPHash    string
	UserAgent string
	Path      string
	Timestamp time.Time
}

// Summary aggregates views over a period.
type Summary struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	UniqueVisitors int             `json:"unique_visitors"`
	TotalViews     int             `json:"total_views"`
	BotViews       int             `json:"bot_views"`
	TopPages       []DimensionStat `json:"top_pages"`
	Browsers       []DimensionStat `json:"browsers"`
	Devices        []DimensionStat `json:"devices"`
	Referrers      []DimensionStat `json:"referrers"`
	TopBots        []DimensionStat `json:"top_bots"`
}

// DimensionStat is one row of a breakdown.
type DimensionStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func hashWithSalt(parts ...string) string {
	h := sha256.New()
	h.Write([]byte(salt.value + strings.Join(parts, "|")))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// HashIP returns a salted, truncated SHA-256 of ip.
func HashIP(ip string) string {
	return hashWithSalt(ip)
}

// VisitorID derives an anonymous visitor identifier from ip, user agent and day,
// so the same person is not linkable across days.
func VisitorID(ip, userAgent string, day time.Time) string {
	return hashWithSalt(ip, userAgent, day.UTC().Format("2006-01-02"))
}

// ParseUserAgent extracts browser, OS and device class.
func ParseUserAgent(ua string) (browser, os, device string) {
	ua = strings.ToLower(ua)

	// more specific browsers first: Edge and Opera also claim Chrome
	switch {
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr/"):
		browser = "Opera"
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	default:
		browser = "Other"
	}

	switch {
	case strings.Contains(ua, "windows"):
		os = "Windows"
	case strings.Contains(ua, "android"):
		os = "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		os = "iOS"
	case strings.Contains(ua, "macintosh") || strings.Contains(ua, "mac os"):
		os = "macOS"
	case strings.Contains(ua, "linux"):
		os = "Linux"
	default:
		os = "Other"
	}

	switch {
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		device = "Tablet"
	case strings.Contains(ua, "mobile"):
		device = "Mobile"
	default:
		device = "Desktop"
	}
	return
}

var botMarkers = []string{
	"bot", "crawler", "spider", "crawl", "slurp", "scrape",
	"facebookexternalhit", "headlesschrome", "lighthouse",
}

// IsBot reports whether ua looks like a crawler.
func IsBot(ua string) bool {
	ua = strings.ToLower(ua)
	for _, m := range botMarkers {
		if strings.Contains(ua, m) {
			return true
		}
	}
	return false
}

// botNames is checked in order; the first match wins.
var botNames = []struct{ pattern, name string }{
	{"googlebot", "Googlebot"},
	{"bingbot", "Bingbot"},
	{"yandex", "Yandex"},
	{"baidu", "Baidu"},
	{"duckduckbot", "DuckDuckBot"},
	{"facebookexternalhit", "Facebook"},
	{"twitterbot", "Twitterbot"},
	{"linkedinbot", "LinkedIn"},
	{"ahrefsbot", "Ahrefs"},
	{"semrushbot", "SEMrush"},
	{"lighthouse", "Lighthouse"},
	{"headlesschrome", "Headless Chrome"},
	{"slurp", "Yahoo Slurp"},
	{"crawler", "Generic Crawler"},
	{"spider", "Generic Spider"},
}

// BotName names the crawler behind ua.
func BotName(ua string) string {
	ua = strings.ToLower(ua)
	for _, b := range botNames {
		if strings.Contains(ua, b.pattern) {
			return b.name
		}
	}
	if strings.Contains(ua, "bot") {
		return "Other Bot"
	}
	return "Unknown"
}

var referrerDomain = regexp.MustCompile(`^https?://(?:www\.)?([^/:]+)`)

// CleanReferrer reduces a referrer URL to a display name.
// Referrers from ownHost count as direct navigation.
func CleanReferrer(ref, ownHost string) string {
	if ref == "" {
		return "Direct"
	}
	lower := strings.ToLower(ref)
	for _, se := range []struct{ marker, name string }{
		{"google.", "Google"},
		{"bing.", "Bing"},
		{"duckduckgo.", "DuckDuckGo"},
		{"linkedin.", "LinkedIn"},
		{"github.", "GitHub"},
	} {
		if strings.Contains(lower, se.marker) {
			return se.name
		}
	}
	m := referrerDomain.FindStringSubmatch(lower)
	if len(m) < 2 {
		return "Other"
	}
	host := strings.TrimPrefix(strings.ToLower(ownHost), "www.")
	if i := strings.IndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	if host != "" && host == m[1] {
		return "Direct"
	}
	return m[1]
}
