// Package web serves the portfolio page and the small HTMX endpoints that
// drive its navigation highlighting and image previews.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ahmedelsaid/portfolio/internal/portfolio"
	"github.com/ahmedelsaid/portfolio/internal/preview"
	"github.com/ahmedelsaid/portfolio/internal/scroll"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// pageHeader carries the id of the page a request belongs to. Each tab gets
// its own id, rendered into the page, so tabs never share state.
const pageHeader = "X-Page-Id"

// Server holds the dependencies shared by all handlers. Analytics and Admin
// are optional.
type Server struct {
	Profile   *portfolio.Profile
	Sessions  *Sessions
	Analytics *Analytics
	Admin     *Admin
}

// pageView is the data every page template receives.
type pageView struct {
	PageID   string
	Profile  *portfolio.Profile
	Snap     portfolio.Snapshot
	Sections []scroll.Section
}

// proofView feeds a single proof-of-work slot.
type proofView struct {
	PageID string
	Proof  portfolio.ProofSlot
	Handle preview.Handle
}

var funcs = template.FuncMap{
	"previewURL": previewURL,
	"even":       func(i int) bool { return i%2 == 0 },
	"proof": func(v pageView, p portfolio.ProofSlot) proofView {
		return proofView{PageID: v.PageID, Proof: p, Handle: v.Snap.Preview(p.Slot)}
	},
}

// previewURL puts the page id in the path since <img> requests cannot carry
// the page header.
func previewURL(page string, h preview.Handle) string {
	return "/preview/" + page + "/" + string(h)
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() (*gin.Engine, error) {
	tmpl, err := Templates()
	if err != nil {
		return nil, err
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, err
	}

	r := gin.Default()
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(static))

	if s.Analytics != nil {
		r.Use(s.Analytics.Middleware())
	}

	r.GET("/", s.handleIndex)
	r.POST("/scroll", s.handleScroll)
	r.POST("/navigate/:section", s.handleNavigate)
	r.POST("/upload/:slot", s.handleUpload)
	r.GET("/preview/:page/:handle", s.handlePreview)
	r.GET("/api/state", s.handleState)
	r.POST("/unmount/:page", s.handleUnmount)

	if s.Admin != nil {
		s.Admin.Routes(r)
	}
	return r, nil
}
