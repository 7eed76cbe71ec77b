package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"unicode/utf16"

	"github.com/gin-gonic/gin"

	"github.com/ahmedelsaid/portfolio/internal/portfolio"
	"github.com/ahmedelsaid/portfolio/internal/preview"
	"github.com/ahmedelsaid/portfolio/internal/scroll"
)

// scrollReport is what static/app.js posts on every animation frame that
// saw a scroll event.
type scrollReport struct {
	ScrollY        float64            `json:"scrollY"`
	ViewportHeight float64            `json:"viewportHeight" binding:"gt=0"`
	Sections       map[string]float64 `json:"sections"`
}

func (r scrollReport) layout() scroll.Layout {
	l := scroll.Layout{
		Offset:         r.ScrollY,
		ViewportHeight: r.ViewportHeight,
		Sections:       make(map[scroll.Section]float64, len(r.Sections)),
	}
	for name, top := range r.Sections {
		sec, err := scroll.ParseSection(name)
		if err != nil {
			continue
		}
		l.Sections[sec] = top
	}
	return l
}

func (s *Server) view(p *Page) pageView {
	return pageView{
		PageID:   p.ID(),
		Profile:  s.Profile,
		Snap:     p.ctrl.Snapshot(),
		Sections: scroll.Order,
	}
}

// pageID returns the page a request belongs to. HTMX and fetch requests
// send the page header; previews and the unload beacon put it in the path.
func pageID(c *gin.Context) string {
	if id := c.GetHeader(pageHeader); id != "" {
		return id
	}
	return c.Param("page")
}

// currentPage resolves the page mounted in the requesting tab. Requests
// without one get 409 so the client reloads.
func (s *Server) currentPage(c *gin.Context) (*Page, bool) {
	if id := pageID(c); id != "" {
		if p, err := s.Sessions.Get(id); err == nil {
			return p, true
		}
	}
	c.String(http.StatusConflict, "%s: reload the page", ErrNoPage)
	return nil, false
}

func (s *Server) handleIndex(c *gin.Context) {
	// A plain navigation carries no page id, so a new tab never disturbs
	// the others. A reloading tab releases its old page through the unload
	// beacon, and the janitor catches any beacon that got lost.
	p := s.Sessions.Mount(c.GetHeader(pageHeader))

	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "index.html", s.view(p))
}

func (s *Server) handleScroll(c *gin.Context) {
	p, ok := s.currentPage(c)
	if !ok {
		return
	}
	var rep scrollReport
	if err := c.ShouldBindJSON(&rep); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	before := p.ctrl.Snapshot()
	p.feed.Publish(rep.layout())
	after := p.ctrl.Snapshot()

	if before.Compact == after.Compact && before.Active == after.Active {
		c.Status(http.StatusNoContent)
		return
	}
	c.HTML(http.StatusOK, "nav.html", s.view(p))
}

func (s *Server) handleNavigate(c *gin.Context) {
	p, ok := s.currentPage(c)
	if !ok {
		return
	}
	sec, err := scroll.ParseSection(c.Param("section"))
	if err != nil {
		c.String(http.StatusBadRequest, "%v", err)
		return
	}
	if _, err := p.ctrl.Navigate(sec); err != nil {
		c.String(http.StatusBadRequest, "%v", err)
		return
	}

	if s.Analytics != nil && c.GetHeader("DNT") != "1" {
		go func() {
			if err := s.Analytics.RecordNavigation(context.Background(), string(sec)); err != nil {
				log.Printf("Error recording navigation: %v", err)
			}
		}()
	}

	setTrigger(c, map[string]any{"scrollToSection": string(sec)})
	c.HTML(http.StatusOK, "nav.html", s.view(p))
}

func (s *Server) handleUpload(c *gin.Context) {
	p, ok := s.currentPage(c)
	if !ok {
		return
	}
	slot, err := preview.ParseSlot(c.Param("slot"))
	if err != nil {
		c.String(http.StatusBadRequest, "%v", err)
		return
	}

	f, err := readUpload(c)
	if err != nil {
		c.String(http.StatusBadRequest, "%v", err)
		return
	}

	snap, err := p.ctrl.SelectFile(slot, f)
	switch {
	case errors.Is(err, preview.ErrNotImage):
		log.Printf("Rejected %s upload: %v", slot, err)
		setTrigger(c, map[string]any{"showAlert": portfolio.InvalidImageMessage})
	case err != nil:
		c.String(http.StatusConflict, "%v", err)
		return
	}
	s.renderSlot(c, p, slot, snap)
}

// readUpload returns the selected file, or nil when the picker was
// dismissed without a selection.
func readUpload(c *gin.Context) (*preview.File, error) {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &preview.File{
		Name:      fh.Filename,
		MediaType: preview.DetectMediaType(fh.Header.Get("Content-Type"), data),
		Data:      data,
	}, nil
}

func (s *Server) renderSlot(c *gin.Context, p *Page, slot preview.Slot, snap portfolio.Snapshot) {
	if slot == preview.Profile {
		c.HTML(http.StatusOK, "profile-slot.html", pageView{PageID: p.ID(), Profile: s.Profile, Snap: snap})
		return
	}
	for _, pr := range s.Profile.Proofs {
		if pr.Slot == slot.String() {
			c.HTML(http.StatusOK, "proof-slot.html", proofView{PageID: p.ID(), Proof: pr, Handle: snap.Slots[slot]})
			return
		}
	}
	c.String(http.StatusNotFound, "no proof slot %s", slot)
}

func (s *Server) handlePreview(c *gin.Context) {
	p, ok := s.currentPage(c)
	if !ok {
		return
	}
	blob, ok := p.ctrl.OpenPreview(preview.Handle(c.Param("handle")))
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	// Uploads are shown as declared. An SVG with scripts must not run as a
	// document on this origin.
	c.Header("Cache-Control", "no-store")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	c.Data(http.StatusOK, blob.MediaType, blob.Data)
}

type stateResponse struct {
	Compact       bool              `json:"compact"`
	ActiveSection string            `json:"activeSection"`
	Slots         map[string]string `json:"slots"`
}

func (s *Server) handleState(c *gin.Context) {
	p, ok := s.currentPage(c)
	if !ok {
		return
	}
	snap := p.ctrl.Snapshot()
	resp := stateResponse{
		Compact:       snap.Compact,
		ActiveSection: string(snap.Active),
		Slots:         make(map[string]string, preview.NumSlots),
	}
	for _, slot := range preview.Slots {
		if h := snap.Slots[slot]; h != "" {
			resp.Slots[slot.String()] = previewURL(p.ID(), h)
		} else {
			resp.Slots[slot.String()] = ""
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleUnmount(c *gin.Context) {
	if id := pageID(c); id != "" {
		s.Sessions.Close(id)
	}
	c.Status(http.StatusNoContent)
}

// setTrigger sets the HX-Trigger header. Non-ASCII text is escaped so the
// header survives the browser's Latin-1 header decoding.
func setTrigger(c *gin.Context, events map[string]any) {
	raw, err := json.Marshal(events)
	if err != nil {
		log.Printf("Error encoding HX-Trigger: %v", err)
		return
	}
	c.Header("HX-Trigger", asciiJSON(string(raw)))
}

func asciiJSON(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < 0x80 {
			b.WriteRune(r)
			continue
		}
		for _, u := range utf16.Encode([]rune{r}) {
			fmt.Fprintf(&b, `\u%04x`, u)
		}
	}
	return b.String()
}
