package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestAnalyticsStats(t *testing.T) {
	db, err := OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	a, err := NewAnalytics(ctx, db)
	if err != nil {
		t.Fatal(err)
	}

	for _, ip := range []string{"10.0.0.1", "10.0.0.1", "10.0.0.2"} {
		if err := a.RecordVisit(ctx, ip, "test-agent", "/"); err != nil {
			t.Fatal(err)
		}
	}
	for _, sec := range []string{"contact", "skills", "contact"} {
		if err := a.RecordNavigation(ctx, sec); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := a.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalVisitors != 3 || stats.UniqueVisitors != 2 {
		t.Fatalf("visitors total=%d unique=%d", stats.TotalVisitors, stats.UniqueVisitors)
	}
	if stats.VisitorsThisWeek != 3 || stats.VisitorsToday != 3 {
		t.Fatalf("visitors today=%d week=%d", stats.VisitorsToday, stats.VisitorsThisWeek)
	}
	if stats.TotalNavClicks != 3 || len(stats.TopSections) != 2 || stats.TopSections[0].Section != "contact" {
		t.Fatalf("sections = %+v", stats.TopSections)
	}
	for _, v := range stats.RecentVisitors {
		if strings.HasPrefix(v.HashedIP, "10.") || len(v.HashedIP) != 16 {
			t.Fatalf("ip not hashed: %q", v.HashedIP)
		}
	}
}

func TestAnalyticsCleanup(t *testing.T) {
	db, err := OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	a, err := NewAnalytics(ctx, db)
	if err != nil {
		t.Fatal(err)
	}

	old := time.Now().UTC().AddDate(-2, 0, 0)
	if _, err := db.Exec(`INSERT INTO visitors (hashed_ip, user_agent, path, timestamp) VALUES (?, ?, ?, ?)`, "abc", "ua", "/", old); err != nil {
		t.Fatal(err)
	}
	if err := a.RecordVisit(ctx, "10.0.0.9", "ua", "/"); err != nil {
		t.Fatal(err)
	}

	n, err := a.Cleanup(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("removed %d rows, want 1", n)
	}
	visitors, err := a.Visitors(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(visitors) != 1 {
		t.Fatalf("remaining visitors = %d, want 1", len(visitors))
	}
}

func TestAdminLoginFlow(t *testing.T) {
	h := newHarness(t)

	rec := h.do(httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/admin/login" {
		t.Fatalf("unauthenticated dashboard: status %d location %q", rec.Code, rec.Header().Get("Location"))
	}

	login := func(user, pass string) *httptest.ResponseRecorder {
		form := url.Values{"username": {user}, "password": {pass}}
		req := httptest.NewRequest(http.MethodPost, "/admin/login", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return h.do(req)
	}

	if rec := login("ahmed", "wrong"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad credentials: status %d", rec.Code)
	}

	rec = login("ahmed", "s3cret")
	if rec.Code != http.StatusFound {
		t.Fatalf("login: status %d", rec.Code)
	}
	var token *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == adminCookie {
			token = c
		}
	}
	if token == nil {
		t.Fatal("no admin cookie issued")
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
	req.AddCookie(token)
	rec = h.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: status %d", rec.Code)
	}
	var stats AdminStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil)
	req.AddCookie(token)
	if rec := h.do(req); rec.Code != http.StatusOK {
		t.Fatalf("dashboard: status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/visitors", nil)
	req.AddCookie(token)
	if rec := h.do(req); rec.Code != http.StatusOK {
		t.Fatalf("visitors: status %d", rec.Code)
	}
}

func TestPrivacyPage(t *testing.T) {
	h := newHarness(t)
	rec := h.do(httptest.NewRequest(http.MethodGet, "/privacy", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Privacy Policy") {
		t.Fatalf("privacy: status %d", rec.Code)
	}
}
