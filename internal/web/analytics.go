package web

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Privacy-conscious visitor record. Raw IPs are never stored.
type VisitorMetric struct {
	ID        int       `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

type SectionStat struct {
	Section string `json:"section"`
	Clicks  int64  `json:"clicks"`
}

type AdminStats struct {
	TotalVisitors    int64           `json:"total_visitors"`
	UniqueVisitors   int64           `json:"unique_visitors"`
	VisitorsToday    int64           `json:"visitors_today"`
	VisitorsThisWeek int64           `json:"visitors_this_week"`
	TotalNavClicks   int64           `json:"total_nav_clicks"`
	TopSections      []SectionStat   `json:"top_sections"`
	RecentVisitors   []VisitorMetric `json:"recent_visitors"`
	LivePages        int             `json:"live_pages"`
	LivePreviews     int             `json:"live_previews"`
}

// Analytics records page visits and navigation clicks. It stores no
// portfolio content and nothing a visitor uploads.
type Analytics struct {
	db   *sql.DB
	salt string
}

func NewAnalytics(ctx context.Context, db *sql.DB) (*Analytics, error) {
	a := &Analytics{db: db, salt: randomToken()}
	if err := a.migrate(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func randomToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Fatal("Failed to generate random token:", err)
	}
	return hex.EncodeToString(b)
}

func (a *Analytics) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS visitors (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hashed_ip TEXT NOT NULL,  -- Store hashed IP instead of raw IP
			user_agent TEXT,
			path TEXT,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS nav_clicks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			section TEXT NOT NULL,
			timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_visitors_timestamp ON visitors(timestamp)`,
	}
	for _, s := range stmts {
		if _, err := a.db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate analytics: %w", err)
		}
	}
	return nil
}

// Hash IP address for privacy compliance (consistent per IP within a process)
func (a *Analytics) hashIP(ip string) string {
	h := sha256.New()
	h.Write([]byte(ip + a.salt))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func (a *Analytics) RecordVisit(ctx context.Context, ip, userAgent, path string) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, a.hashIP(ip), userAgent, path, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

func (a *Analytics) RecordNavigation(ctx context.Context, section string) error {
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO nav_clicks (section, timestamp) VALUES (?, ?)`,
		section, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record navigation: %w", err)
	}
	return nil
}

// Cleanup removes visit records older than 12 months.
func (a *Analytics) Cleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(-1, 0, 0)
	var total int64
	for _, table := range []string{"visitors", "nav_clicks"} {
		res, err := a.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE timestamp < ?`, cutoff)
		if err != nil {
			return total, fmt.Errorf("cleanup %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// Stats gathers the admin dashboard figures.
func (a *Analytics) Stats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}
	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{startOfDay}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE timestamp >= ?`, []any{now.AddDate(0, 0, -7)}},
		{&stats.TotalNavClicks, `SELECT COUNT(*) FROM nav_clicks`, nil},
	}
	for _, c := range counts {
		if err := a.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT section, COUNT(*) AS clicks
		FROM nav_clicks
		GROUP BY section
		ORDER BY clicks DESC, section ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("stats sections: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s SectionStat
		if err := rows.Scan(&s.Section, &s.Clicks); err != nil {
			continue
		}
		stats.TopSections = append(stats.TopSections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("stats sections: %w", err)
	}

	stats.RecentVisitors, err = a.Visitors(ctx, 50)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Visitors returns the most recent visit records, newest first.
func (a *Analytics) Visitors(ctx context.Context, limit int) ([]VisitorMetric, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, hashed_ip, user_agent, path, timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list visitors: %w", err)
	}
	defer rows.Close()

	var visitors []VisitorMetric
	for rows.Next() {
		var v VisitorMetric
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Timestamp); err != nil {
			continue
		}
		visitors = append(visitors, v)
	}
	return visitors, rows.Err()
}

// Privacy-conscious visitor tracking middleware. Only page loads are
// recorded: assets, previews, admin pages and the page's own XHR traffic
// are skipped.
func (a *Analytics) Middleware() gin.HandlerFunc {
	skip := []string{"/static/", "/preview/", "/admin/", "/api/", "/favicon", "/privacy"}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != "GET" || c.GetHeader("HX-Request") == "true" {
			c.Next()
			return
		}
		for _, p := range skip {
			if strings.HasPrefix(path, p) {
				c.Next()
				return
			}
		}

		// Respect Do Not Track header
		if c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		ip, ua := c.ClientIP(), c.GetHeader("User-Agent")
		go func() {
			if err := a.RecordVisit(context.Background(), ip, ua, path); err != nil {
				log.Printf("Error recording visitor: %v", err)
			}
		}()
		c.Next()
	}
}
