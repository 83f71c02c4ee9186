package analytics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists views in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the analytics database at path.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create analytics dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open analytics db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS views (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			visitor_id TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			browser TEXT NOT NULL,
			os TEXT NOT NULL,
			device TEXT NOT NULL,
			path TEXT NOT NULL,
			section TEXT NOT NULL DEFAULT '',
			referrer TEXT NOT NULL DEFAULT '',
			timestamp DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS bot_views (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			bot_name TEXT NOT NULL,
			ip_hash TEXT NOT NULL,
			user_agent TEXT NOT NULL,
			path TEXT NOT NULL,
			timestamp DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_views_timestamp ON views(timestamp);
		CREATE INDEX IF NOT EXISTS idx_views_visitor_id ON views(visitor_id);
		CREATE INDEX IF NOT EXISTS idx_bot_views_timestamp ON bot_views(timestamp);

		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	return err
}

// GetSetting returns the value stored under key, or "" if absent.
func (s *Store) GetSetting(key string) (string, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

// SetSetting upserts a setting.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// SaveView records a human page view.
func (s *Store) SaveView(v View) error {
	_, err := s.db.Exec(`INSERT INTO views (visitor_id, ip_hash, browser, os, device, path, section, referrer, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.VisitorID, v.IPHash, v.Browser, v.OS, v.Device, v.Path, v.Section, v.Referrer, v.Timestamp.UTC())
	return err
}

// SaveBotView records a crawler page view.
func (s *Store) SaveBotView(v BotView) error {
	_, err := s.db.Exec(`INSERT INTO bot_views (bot_name, ip_hash, user_agent, path, timestamp) VALUES (?, ?, ?, ?, ?)`,
		v.BotName, v.IPHash, v.UserAgent, v.Path, v.Timestamp.UTC())
	return err
}

// Summarize aggregates views with from <= timestamp < to.
func (s *Store) Summarize(from, to time.Time) (*Summary, error) {
	from, to = from.UTC(), to.UTC()
	sum := &Summary{From: from, To: to}

	if err := s.db.QueryRow(`SELECT COUNT(*), COUNT(DISTINCT visitor_id) FROM views WHERE timestamp >= ? AND timestamp < ?`, from, to).
		Scan(&sum.TotalViews, &sum.UniqueVisitors); err != nil {
		return nil, fmt.Errorf("count views: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM bot_views WHERE timestamp >= ? AND timestamp < ?`, from, to).
		Scan(&sum.BotViews); err != nil {
		return nil, fmt.Errorf("count bot views: %w", err)
	}

	var err error
	if sum.TopPages, err = s.breakdown(`SELECT path, COUNT(*) FROM views WHERE timestamp >= ? AND timestamp < ? AND section = '' GROUP BY path ORDER BY 2 DESC, 1 LIMIT 10`, from, to); err != nil {
		return nil, fmt.Errorf("top pages: %w", err)
	}
	if sum.Browsers, err = s.breakdown(`SELECT browser, COUNT(*) FROM views WHERE timestamp >= ? AND timestamp < ? GROUP BY browser ORDER BY 2 DESC, 1`, from, to); err != nil {
		return nil, fmt.Errorf("browsers: %w", err)
	}
	if sum.Devices, err = s.breakdown(`SELECT device, COUNT(*) FROM views WHERE timestamp >= ? AND timestamp < ? GROUP BY device ORDER BY 2 DESC, 1`, from, to); err != nil {
		return nil, fmt.Errorf("devices: %w", err)
	}
	if sum.Referrers, err = s.breakdown(`SELECT referrer, COUNT(*) FROM views WHERE timestamp >= ? AND timestamp < ? AND section = '' GROUP BY referrer ORDER BY 2 DESC, 1 LIMIT 10`, from, to); err != nil {
		return nil, fmt.Errorf("referrers: %w", err)
	}
	if sum.TopBots, err = s.breakdown(`SELECT bot_name, COUNT(*) FROM bot_views WHERE timestamp >= ? AND timestamp < ? GROUP BY bot_name ORDER BY 2 DESC, 1 LIMIT 10`, from, to); err != nil {
		return nil, fmt.Errorf("top bots: %w", err)
	}
	return sum, nil
}

func (s *Store) breakdown(query string, args ...any) ([]DimensionStat, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DimensionStat{}
	for rows.Next() {
		var d DimensionStat
		if err := rows.Scan(&d.Name, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Cleanup deletes views older than retentionDays.
func (s *Store) Cleanup(retentionDays int) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	if _, err := s.db.Exec(`DELETE FROM views WHERE timestamp < ?`, cutoff); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM bot_views WHERE timestamp < ?`, cutoff)
	return err
}

// StartCleanupScheduler runs Cleanup on every interval. Returns a stop function.
func (s *Store) StartCleanupScheduler(retentionDays int, interval time.Duration, onErr func(error)) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := s.Cleanup(retentionDays); err != nil && onErr != nil {
					onErr(err)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}
