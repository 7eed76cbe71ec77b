// Package preview holds the user-selected images shown on the page before
// any of them leaves the visitor's session.
package preview

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
)

// Slot is one of the independent image holders on the page.
type Slot int

const (
	Profile Slot = iota
	Proof1
	Proof2

	NumSlots = 3
)

// Slots lists every slot in page order.
var Slots = []Slot{Profile, Proof1, Proof2}

var slotNames = [NumSlots]string{"profile", "proof1", "proof2"}

func (s Slot) String() string {
	if s < 0 || int(s) >= NumSlots {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return slotNames[s]
}

var (
	ErrUnknownSlot = errors.New("unknown image slot")
	ErrNotImage    = errors.New("selected file is not an image")
	ErrClosed      = errors.New("preview store closed")
)

func ParseSlot(name string) (Slot, error) {
	for i, n := range slotNames {
		if n == name {
			return Slot(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSlot, name)
}

// File is a single file-picker selection.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// IsImage reports whether mediaType declares an image.
func IsImage(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

// DetectMediaType returns the declared type, sniffing data only when the
// browser declared nothing useful.
func DetectMediaType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	return mimetype.Detect(data).String()
}

// Store keeps at most one live handle per slot.
type Store struct {
	reg *Registry

	mu     sync.Mutex
	slots  [NumSlots]Handle
	closed bool
}

func NewStore(reg *Registry) *Store {
	return &Store{reg: reg}
}

// Select applies a file-picker selection to slot. A nil file is a no-op.
// A non-image file empties the slot and returns ErrNotImage.
func (s *Store) Select(slot Slot, f *File) error {
	if slot < 0 || int(slot) >= NumSlots {
		return fmt.Errorf("%w: %d", ErrUnknownSlot, int(slot))
	}
	if f == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if !IsImage(f.MediaType) {
		s.releaseLocked(slot)
		return fmt.Errorf("%w: %s (%s)", ErrNotImage, f.Name, f.MediaType)
	}

	prev := s.slots[slot]
	s.slots[slot] = s.reg.Create(*f)
	s.reg.Revoke(prev)
	return nil
}

// Release empties slot and revokes its handle.
func (s *Store) Release(slot Slot) {
	if slot < 0 || int(slot) >= NumSlots {
		return
	}
	s.mu.Lock()
	s.releaseLocked(slot)
	s.mu.Unlock()
}

func (s *Store) releaseLocked(slot Slot) {
	s.reg.Revoke(s.slots[slot])
	s.slots[slot] = ""
}

func (s *Store) Get(slot Slot) Handle {
	if slot < 0 || int(slot) >= NumSlots {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[slot]
}

// Handles returns a copy of every slot's handle.
func (s *Store) Handles() [NumSlots]Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots
}

// Close releases every slot. The store rejects selections afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for _, slot := range Slots {
		s.releaseLocked(slot)
	}
	s.closed = true
}
