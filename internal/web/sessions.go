package web

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahmedelsaid/portfolio/internal/portfolio"
	"github.com/ahmedelsaid/portfolio/internal/scroll"
)

var ErrNoPage = errors.New("no mounted page for this visitor")

// Page is one mounted copy of the portfolio in a visitor's browser tab.
type Page struct {
	id       string
	ctrl     *portfolio.Controller
	feed     *scroll.Feed
	lastSeen time.Time
}

func (p *Page) ID() string { return p.id }

// Sessions tracks the mounted pages. A page lives from GET / until the tab
// unloads, the page is reloaded, or it sits idle for longer than ttl.
type Sessions struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.Mutex
	pages map[string]*Page
}

func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:   ttl,
		now:   time.Now,
		pages: make(map[string]*Page),
	}
}

// Mount creates a fresh page with its own id. If replace names a live page
// it is torn down first. Other pages, including ones open in other tabs of
// the same browser, are left alone.
func (s *Sessions) Mount(replace string) *Page {
	if replace != "" {
		s.Close(replace)
	}

	p := &Page{
		id:   uuid.NewString(),
		ctrl: portfolio.New(),
		feed: scroll.NewFeed(),
	}
	p.ctrl.Mount(p.feed)

	s.mu.Lock()
	p.lastSeen = s.now()
	s.pages[p.id] = p
	s.mu.Unlock()
	return p
}

// Get returns the live page with id and marks it as seen.
func (s *Sessions) Get(id string) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[id]
	if !ok {
		return nil, ErrNoPage
	}
	p.lastSeen = s.now()
	return p, nil
}

// Close tears the page down. Unknown ids are ignored.
func (s *Sessions) Close(id string) bool {
	s.mu.Lock()
	p, ok := s.pages[id]
	delete(s.pages, id)
	s.mu.Unlock()

	if ok {
		p.ctrl.Teardown()
	}
	return ok
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// Previews counts the image handles held across every live page.
func (s *Sessions) Previews() int {
	s.mu.Lock()
	pages := make([]*Page, 0, len(s.pages))
	for _, p := range s.pages {
		pages = append(pages, p)
	}
	s.mu.Unlock()

	n := 0
	for _, p := range pages {
		n += p.ctrl.LiveHandles()
	}
	return n
}

// Sweep tears down pages idle for longer than the ttl.
func (s *Sessions) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var stale []*Page
	for id, p := range s.pages {
		if p.lastSeen.Before(cutoff) {
			stale = append(stale, p)
			delete(s.pages, id)
		}
	}
	s.mu.Unlock()

	for _, p := range stale {
		p.ctrl.Teardown()
	}
	return len(stale)
}

// Janitor sweeps idle pages until ctx is done.
func (s *Sessions) Janitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("Released %d idle page sessions", n)
			}
		}
	}
}

// CloseAll tears down every page, used on shutdown.
func (s *Sessions) CloseAll() {
	s.mu.Lock()
	pages := s.pages
	s.pages = make(map[string]*Page)
	s.mu.Unlock()

	for _, p := range pages {
		p.ctrl.Teardown()
	}
}
