package web

import (
	"net/http"
	"strings"

	"github.com/roach88/lwgate/internal/gate"
)

// HeaderNavigationType carries the client's navigation timing type
// ("navigate", "reload", "back_forward", "prerender").
const HeaderNavigationType = "X-Navigation-Type"

// NavigationFromRequest classifies how the page request was made.
//
// The explicit header wins. Without it, a top-level navigation that asks to
// revalidate (Cache-Control: max-age=0 or no-cache) is what browsers send on
// reload.
func NavigationFromRequest(r *http.Request) gate.Navigation {
	if v := r.Header.Get(HeaderNavigationType); v != "" {
		return gate.ParseNavigation(v)
	}

	if r.Header.Get("Sec-Fetch-Mode") != "navigate" {
		return gate.NavigationNavigate
	}
	cc := strings.ToLower(r.Header.Get("Cache-Control"))
	if strings.Contains(cc, "max-age=0") || strings.Contains(cc, "no-cache") {
		return gate.NavigationReload
	}
	return gate.NavigationNavigate
}
