// Package portfolio owns the interactive state of one mounted portfolio page
// and the static profile content it renders.
package portfolio

import (
	"sync"

	"github.com/ahmedelsaid/portfolio/internal/preview"
	"github.com/ahmedelsaid/portfolio/internal/scroll"
)

// Snapshot is a read-only view of a page's state.
type Snapshot struct {
	Compact bool
	Active  scroll.Section
	Slots   [preview.NumSlots]preview.Handle
}

// Preview returns the handle held by the named slot, or "" when it is empty
// or the name is unknown.
func (s Snapshot) Preview(name string) preview.Handle {
	slot, err := preview.ParseSlot(name)
	if err != nil {
		return ""
	}
	return s.Slots[slot]
}

// IsActive is used by templates to highlight the nav item for sec.
func (s Snapshot) IsActive(sec scroll.Section) bool {
	return s.Active == sec
}

// Controller serializes every mutation of a page's state. Renderers only
// ever see Snapshots.
type Controller struct {
	reg   *preview.Registry
	store *preview.Store

	mu          sync.Mutex
	state       scroll.State
	unsubscribe func()
	torn        bool
	updates     int
}

func New() *Controller {
	reg := preview.NewRegistry()
	return &Controller{
		reg:   reg,
		store: preview.NewStore(reg),
		state: scroll.Initial(),
	}
}

// Mount subscribes to feed and computes the state once from its current
// layout. Mounting twice replaces the earlier subscription.
func (c *Controller) Mount(feed *scroll.Feed) {
	cancel := feed.Subscribe(c.onScroll)

	c.mu.Lock()
	if c.torn {
		c.mu.Unlock()
		cancel()
		return
	}
	prev := c.unsubscribe
	c.unsubscribe = cancel
	c.mu.Unlock()

	if prev != nil {
		prev()
	}
	l, _ := feed.Current()
	c.onScroll(l)
}

func (c *Controller) onScroll(l scroll.Layout) {
	next := scroll.Compute(l)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.torn || next == c.state {
		return
	}
	c.state = next
	c.updates++
}

// Navigate marks sec active right away, ahead of the scroll reports the
// page sends while it animates towards the section.
func (c *Controller) Navigate(sec scroll.Section) (Snapshot, error) {
	if _, err := scroll.ParseSection(string(sec)); err != nil {
		return Snapshot{}, err
	}
	c.mu.Lock()
	if c.state.Active != sec {
		c.state.Active = sec
		c.updates++
	}
	c.mu.Unlock()
	return c.Snapshot(), nil
}

// SelectFile applies a file-picker selection to slot. A non-image selection
// empties the slot and returns preview.ErrNotImage; the caller shows
// InvalidImageMessage.
func (c *Controller) SelectFile(slot preview.Slot, f *preview.File) (Snapshot, error) {
	err := c.store.Select(slot, f)
	return c.Snapshot(), err
}

// OpenPreview resolves a handle issued for this page.
func (c *Controller) OpenPreview(h preview.Handle) (preview.Blob, bool) {
	return c.reg.Open(h)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()
	return Snapshot{
		Compact: st.Compact,
		Active:  st.Active,
		Slots:   c.store.Handles(),
	}
}

// Updates counts observable state changes. It is an introspection hook:
// the web layer compares Snapshots instead.
func (c *Controller) Updates() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updates
}

// Teardown drops the scroll subscription and releases every image handle.
// It is safe to call more than once.
func (c *Controller) Teardown() {
	c.mu.Lock()
	if c.torn {
		c.mu.Unlock()
		return
	}
	c.torn = true
	cancel := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.store.Close()
}

// LiveHandles reports how many image handles the page still holds. The
// admin dashboard sums it across pages.
func (c *Controller) LiveHandles() int {
	return c.reg.Len()
}
