package scroll

import "sync"

// Feed fans layout reports out to subscribers. It stands in for the browser's
// scroll event target: the web layer publishes every report it receives.
type Feed struct {
	mu      sync.Mutex
	subs    map[uint64]func(Layout)
	nextID  uint64
	last    Layout
	hasLast bool
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[uint64]func(Layout))}
}

// Subscribe registers fn and returns the function that removes it. The
// returned cancel func may be called any number of times.
func (f *Feed) Subscribe(fn func(Layout)) (cancel func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

// Publish records l as the current layout and hands it to every subscriber.
func (f *Feed) Publish(l Layout) {
	f.mu.Lock()
	f.last = l
	f.hasLast = true
	fns := make([]func(Layout), 0, len(f.subs))
	for _, fn := range f.subs {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(l)
	}
}

// Current returns the most recently published layout.
func (f *Feed) Current() (Layout, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last, f.hasLast
}

// Subscribers reports how many listeners are registered. It is an
// introspection hook for checking that unmounted pages stopped listening.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
