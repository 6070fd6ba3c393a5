package web

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"net/url"

	"github.com/roach88/lwgate/internal/catalog"
	"github.com/roach88/lwgate/internal/carousel"
	"github.com/roach88/lwgate/internal/license"
)

//go:embed templates/*.html
var templateFS embed.FS

// promptForm is the id of the page form that opens the gate prompt.
const promptForm = catalog.DefaultPromptForm

func parsePageTemplate() (*template.Template, error) {
	t, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	return t, nil
}

type navLink struct {
	Label string
	Href  string
	Gated bool
}

type pageData struct {
	Title      string
	Unlocked   bool
	Links      []navLink
	Cards      template.HTML
	Slides     []carousel.Slide
	TrackStyle template.CSS
	MachineID  string
	Prompt     bool
	Message    string
	Year       int
	PromptForm string
	ActionURLs map[string]string
}

// renderPage writes the full page for the outcome. When out carries no
// catalog the catalog is fetched.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, out Outcome) {
	unlocked := out.State.Authorized

	items := out.Items
	if !out.Verified {
		items = s.loadCatalog(r.Context())
	}
	cards, err := s.renderer.HTML(items, unlocked)
	if err != nil {
		s.logger.Error("render catalog", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	data := pageData{
		Title:      s.cfg.Title,
		Unlocked:   unlocked,
		Links:      s.navLinks(unlocked),
		Cards:      cards,
		Slides:     s.carousel.Slides(),
		TrackStyle: template.CSS("transform: " + s.carousel.Offset()),
		MachineID:  machineID(r),
		Prompt:     out.Prompt,
		Message:    out.Message,
		Year:       s.now().Year(),
		PromptForm: promptForm,
		ActionURLs: actionURLs(r.URL.Query()),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.page.ExecuteTemplate(w, "page", data); err != nil {
		s.logger.Error("render page", "error", err)
	}
}

// navLinks points gated links straight at their target when unlocked and at
// the /go shortcut otherwise.
func (s *Server) navLinks(unlocked bool) []navLink {
	links := make([]navLink, 0, len(s.cfg.Links))
	for _, l := range s.cfg.Links {
		if unlocked {
			links = append(links, navLink{Label: l.Label, Href: l.Href})
			continue
		}
		links = append(links, navLink{Label: l.Label, Href: "/go/" + url.PathEscape(l.ID), Gated: true})
	}
	return links
}

// machineID derives the identifier shown in the gate prompt from the query
// string and the browser's User-Agent.
func machineID(r *http.Request) string {
	return license.DeriveMachineID(
		license.ParamsFromQuery(r.URL.Query()),
		license.UserAgentEnv{UserAgent: r.UserAgent()},
	)
}

// actionURLs builds the form targets. Only the machine id parameters are
// carried over so the prompt shows the same identifier after a post.
func actionURLs(q url.Values) map[string]string {
	keep := url.Values{}
	for _, k := range []string{"mc", "home", "ver"} {
		if v := q.Get(k); v != "" {
			keep.Set(k, v)
		}
	}
	suffix := ""
	if len(keep) > 0 {
		suffix = "?" + keep.Encode()
	}

	urls := make(map[string]string, 3)
	for _, id := range []string{ActionContact, ActionClose, ActionVerify} {
		urls[id] = "/action/" + id + suffix
	}
	return urls
}
