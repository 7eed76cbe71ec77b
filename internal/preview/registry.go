package preview

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Handle is a transient reference to an uploaded image. It is only
// meaningful to the Registry that issued it.
type Handle string

// Blob is the image data a Handle points at.
type Blob struct {
	Name      string
	MediaType string
	Data      []byte
	Created   time.Time
}

// Registry owns the page-scoped image blobs. Every handle it issues stays
// live until it is revoked.
type Registry struct {
	mu    sync.RWMutex
	blobs map[Handle]Blob
}

func NewRegistry() *Registry {
	return &Registry{blobs: make(map[Handle]Blob)}
}

// Create stores f and returns a fresh handle for it.
func (r *Registry) Create(f File) Handle {
	h := Handle(uuid.NewString())
	r.mu.Lock()
	r.blobs[h] = Blob{
		Name:      f.Name,
		MediaType: f.MediaType,
		Data:      f.Data,
		Created:   time.Now(),
	}
	r.mu.Unlock()
	return h
}

func (r *Registry) Open(h Handle) (Blob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.blobs[h]
	return b, ok
}

// Revoke drops the blob behind h. Revoking an unknown handle is a no-op.
func (r *Registry) Revoke(h Handle) {
	if h == "" {
		return
	}
	r.mu.Lock()
	delete(r.blobs, h)
	r.mu.Unlock()
}

// Len reports the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}
