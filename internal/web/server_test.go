package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ahmedelsaid/portfolio/internal/portfolio"
	"github.com/ahmedelsaid/portfolio/internal/scroll"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type harness struct {
	t        *testing.T
	srv      *Server
	handler  http.Handler
	page     string
	sessions *Sessions
}

var pageIDPattern = regexp.MustCompile(`data-page-id="([^"]+)"`)

func newHarness(t *testing.T) *harness {
	t.Helper()
	profile, err := portfolio.LoadProfile()
	if err != nil {
		t.Fatal(err)
	}
	db, err := OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	analytics, err := NewAnalytics(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}

	sessions := NewSessions(time.Minute)
	t.Cleanup(sessions.CloseAll)
	srv := &Server{
		Profile:   profile,
		Sessions:  sessions,
		Analytics: analytics,
		Admin:     NewAdmin("ahmed", "s3cret", analytics, sessions),
	}
	r, err := srv.Router()
	if err != nil {
		t.Fatal(err)
	}
	return &harness{t: t, srv: srv, handler: r, sessions: sessions}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	h.t.Helper()
	if h.page != "" {
		req.Header.Set(pageHeader, h.page)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

// mount loads the page and sends its page id with later requests.
func (h *harness) mount() *httptest.ResponseRecorder {
	h.t.Helper()
	rec := h.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		h.t.Fatalf("GET /: status %d", rec.Code)
	}
	m := pageIDPattern.FindStringSubmatch(rec.Body.String())
	if m == nil {
		h.t.Fatal("GET /: no page id in body")
	}
	h.page = m[1]
	return rec
}

// newTab returns a second tab of the same browser on the same server.
func (h *harness) newTab() *harness {
	tab := *h
	tab.page = ""
	return &tab
}

func (h *harness) scroll(offset float64) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]any{
		"scrollY":        offset,
		"viewportHeight": 900,
		"sections": map[string]float64{
			"home": 0, "about": 900, "skills": 1700,
			"projects": 2600, "experience": 3900, "contact": 4800,
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/scroll", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return h.do(req)
}

func (h *harness) upload(slot, name, mediaType string, data []byte) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	hdr.Set("Content-Type", mediaType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		h.t.Fatal(err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload/"+slot, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return h.do(req)
}

func (h *harness) state() stateResponse {
	h.t.Helper()
	rec := h.do(httptest.NewRequest(http.MethodGet, "/api/state", nil))
	if rec.Code != http.StatusOK {
		h.t.Fatalf("GET /api/state: status %d", rec.Code)
	}
	var st stateResponse
	if err := json.NewDecoder(rec.Body).Decode(&st); err != nil {
		h.t.Fatal(err)
	}
	return st
}

func TestIndexMountsPage(t *testing.T) {
	h := newHarness(t)
	rec := h.mount()
	body := rec.Body.String()

	for _, id := range []string{"home", "about", "skills", "projects", "experience", "contact"} {
		if !strings.Contains(body, `id="`+id+`"`) {
			t.Errorf("page is missing section %q", id)
		}
	}
	if !strings.Contains(body, `data-active="home"`) || !strings.Contains(body, `data-compact="false"`) {
		t.Error("initial nav state not rendered")
	}
	if !strings.Contains(body, "<strong>Moasher Company</strong>") {
		t.Error("markdown bio not rendered")
	}
	if h.sessions.Len() != 1 {
		t.Fatalf("live pages = %d, want 1", h.sessions.Len())
	}
}

func TestScrollUpdatesNav(t *testing.T) {
	h := newHarness(t)
	h.mount()

	rec := h.scroll(60)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `data-compact="true"`) {
		t.Fatalf("nav not compact: %s", rec.Body.String())
	}

	if rec := h.scroll(61); rec.Code != http.StatusNoContent {
		t.Fatalf("unchanged state: status %d, want 204", rec.Code)
	}

	rec = h.scroll(1250)
	if !strings.Contains(rec.Body.String(), `data-active="skills"`) {
		t.Fatalf("skills not active: %s", rec.Body.String())
	}
}

func TestScrollRejectsBadReport(t *testing.T) {
	h := newHarness(t)
	h.mount()
	req := httptest.NewRequest(http.MethodPost, "/scroll", strings.NewReader(`{"scrollY":10,"viewportHeight":0}`))
	req.Header.Set("Content-Type", "application/json")
	if rec := h.do(req); rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestNavigate(t *testing.T) {
	h := newHarness(t)
	h.mount()

	rec := h.do(httptest.NewRequest(http.MethodPost, "/navigate/contact", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := rec.Header().Get("HX-Trigger"); got != `{"scrollToSection":"contact"}` {
		t.Fatalf("HX-Trigger = %q", got)
	}
	if !strings.Contains(rec.Body.String(), `data-active="contact"`) {
		t.Fatal("nav fragment does not highlight contact")
	}
	if st := h.state(); st.ActiveSection != "contact" {
		t.Fatalf("active = %q", st.ActiveSection)
	}

	if rec := h.do(httptest.NewRequest(http.MethodPost, "/navigate/blog", nil)); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown section: status %d, want 400", rec.Code)
	}
}

func TestUploadImageShowsPreview(t *testing.T) {
	h := newHarness(t)
	h.mount()

	for _, mt := range []string{"image/png", "image/jpeg"} {
		for _, slot := range []string{"profile", "proof1", "proof2"} {
			rec := h.upload(slot, "shot", mt, pngBytes)
			if rec.Code != http.StatusOK {
				t.Fatalf("%s %s: status %d", slot, mt, rec.Code)
			}
			if rec.Header().Get("HX-Trigger") != "" {
				t.Fatalf("%s %s: unexpected alert", slot, mt)
			}
			if !strings.Contains(rec.Body.String(), `src="/preview/`) {
				t.Fatalf("%s %s: no preview in fragment", slot, mt)
			}
		}
	}

	url := h.state().Slots["proof1"]
	rec := h.do(httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s: status %d", url, rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), pngBytes) {
		t.Fatal("preview bytes differ from upload")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Fatalf("content type = %q", ct)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	h := newHarness(t)
	h.mount()
	h.upload("proof2", "gsc.png", "image/png", pngBytes)

	rec := h.upload("proof2", "notes.txt", "text/plain", []byte("hello"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	trigger := rec.Header().Get("HX-Trigger")
	if !strings.HasPrefix(trigger, `{"showAlert":"\u0627`) {
		t.Fatalf("HX-Trigger = %q", trigger)
	}
	var decoded map[string]string
	if err := json.Unmarshal([]byte(trigger), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["showAlert"] != portfolio.InvalidImageMessage {
		t.Fatalf("alert = %q", decoded["showAlert"])
	}
	if strings.Contains(rec.Body.String(), `src="/preview/`) {
		t.Fatal("rejected upload still shows a preview")
	}
	if st := h.state(); st.Slots["proof2"] != "" {
		t.Fatalf("proof2 = %q, want empty", st.Slots["proof2"])
	}
}

func TestUploadReplacementDropsOldPreview(t *testing.T) {
	h := newHarness(t)
	h.mount()

	h.upload("profile", "a.png", "image/png", pngBytes)
	old := h.state().Slots["profile"]
	h.upload("profile", "b.png", "image/png", pngBytes)
	cur := h.state().Slots["profile"]

	if old == cur {
		t.Fatal("profile handle was not replaced")
	}
	if rec := h.do(httptest.NewRequest(http.MethodGet, old, nil)); rec.Code != http.StatusNotFound {
		t.Fatalf("old preview: status %d, want 404", rec.Code)
	}
}

func TestUploadWithoutFileIsNoop(t *testing.T) {
	h := newHarness(t)
	h.mount()
	h.upload("proof1", "a.png", "image/png", pngBytes)
	before := h.state().Slots["proof1"]

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/upload/proof1", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if rec := h.do(req); rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if h.state().Slots["proof1"] != before {
		t.Fatal("empty selection changed the slot")
	}
}

func TestUploadUnknownSlot(t *testing.T) {
	h := newHarness(t)
	h.mount()
	if rec := h.upload("banner", "a.png", "image/png", pngBytes); rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestReloadResetsPage(t *testing.T) {
	h := newHarness(t)
	h.mount()
	first := h.page
	h.upload("profile", "a.png", "image/png", pngBytes)
	h.scroll(3000)

	h.mount()
	if h.page == first {
		t.Fatal("reload kept the page id")
	}
	if h.sessions.Len() != 1 {
		t.Fatalf("live pages = %d, want 1", h.sessions.Len())
	}
	st := h.state()
	if st.Slots["profile"] != "" || st.ActiveSection != "home" || st.Compact {
		t.Fatalf("state after reload = %+v", st)
	}
}

func TestRequestsWithoutPage(t *testing.T) {
	h := newHarness(t)
	if rec := h.scroll(10); rec.Code != http.StatusConflict {
		t.Fatalf("scroll without page: status %d, want 409", rec.Code)
	}
	if rec := h.do(httptest.NewRequest(http.MethodPost, "/navigate/about", nil)); rec.Code != http.StatusConflict {
		t.Fatalf("navigate without page: status %d, want 409", rec.Code)
	}
}

func TestUnmountTearsDownPage(t *testing.T) {
	h := newHarness(t)
	h.mount()
	h.upload("proof1", "a.png", "image/png", pngBytes)
	p, err := h.sessions.Get(h.page)
	if err != nil {
		t.Fatal(err)
	}

	// The unload beacon cannot set headers, so the id travels in the path.
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/unmount/"+h.page, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d, want 204", rec.Code)
	}
	if h.sessions.Len() != 0 {
		t.Fatal("page still registered")
	}
	if p.ctrl.LiveHandles() != 0 {
		t.Fatalf("live handles after unmount = %d", p.ctrl.LiveHandles())
	}
	if p.feed.Subscribers() != 0 {
		t.Fatal("scroll listener still registered")
	}

	before := p.ctrl.Snapshot()
	p.feed.Publish(scroll.Layout{Offset: 4000, ViewportHeight: 900})
	if p.ctrl.Snapshot() != before {
		t.Fatal("scroll after unmount changed state")
	}
	if rec := h.scroll(100); rec.Code != http.StatusConflict {
		t.Fatalf("scroll after unmount: status %d, want 409", rec.Code)
	}
}

func TestTabsKeepIndependentPages(t *testing.T) {
	a := newHarness(t)
	a.mount()
	a.upload("proof1", "a.png", "image/png", pngBytes)
	a.scroll(3000)
	url := a.state().Slots["proof1"]

	b := a.newTab()
	b.mount()
	if b.page == a.page {
		t.Fatal("second tab reused the first tab's page id")
	}
	if a.sessions.Len() != 2 {
		t.Fatalf("live pages = %d, want 2", a.sessions.Len())
	}

	st := a.state()
	if st.Slots["proof1"] != url || st.ActiveSection != "projects" {
		t.Fatalf("first tab state after second mount = %+v", st)
	}
	if rec := a.do(httptest.NewRequest(http.MethodGet, url, nil)); rec.Code != http.StatusOK {
		t.Fatalf("first tab preview: status %d", rec.Code)
	}
	if st := b.state(); st.Slots["proof1"] != "" || st.ActiveSection != "home" {
		t.Fatalf("second tab state = %+v", st)
	}

	b.upload("proof1", "b.png", "image/png", pngBytes)
	if a.state().Slots["proof1"] != url {
		t.Fatal("upload in second tab replaced the first tab's preview")
	}
}

func TestPreviewIsNotExecutable(t *testing.T) {
	h := newHarness(t)
	h.mount()
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)
	h.upload("profile", "x.svg", "image/svg+xml", svg)

	url := h.state().Slots["profile"]
	if !strings.HasPrefix(url, "/preview/"+h.page+"/") {
		t.Fatalf("preview url %q is not scoped to the page", url)
	}
	rec := h.do(httptest.NewRequest(http.MethodGet, url, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "sandbox") {
		t.Fatalf("Content-Security-Policy = %q", csp)
	}
}

func TestEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.mount()

	if st := h.state(); st.ActiveSection != "home" || st.Compact {
		t.Fatalf("initial = %+v", st)
	}
	h.scroll(60)
	if !h.state().Compact {
		t.Fatal("not compact at 60")
	}
	h.scroll(1700 - 450)
	if st := h.state(); st.ActiveSection != "skills" {
		t.Fatalf("active = %q, want skills", st.ActiveSection)
	}
	rec := h.do(httptest.NewRequest(http.MethodPost, "/navigate/contact", nil))
	if !strings.Contains(rec.Header().Get("HX-Trigger"), "scrollToSection") {
		t.Fatal("no smooth scroll trigger")
	}
	if st := h.state(); st.ActiveSection != "contact" {
		t.Fatalf("active = %q, want contact", st.ActiveSection)
	}
}

func TestAsciiJSON(t *testing.T) {
	if got := asciiJSON(`{"a":"é😀"}`); got != `{"a":"\u00e9\ud83d\ude00"}` {
		t.Fatalf("asciiJSON = %s", got)
	}
}
