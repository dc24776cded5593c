package discovery

import (
	"regexp"
	"strings"

	"github.com/openaudit/a11yscan/pkg/model"
)

var contactPathRe = regexp.MustCompile(`(?i)(contact|contatti)`)
var formPathRe = regexp.MustCompile(`(?i)(form|signup|register|checkout)`)

// classifyPageType derives a PageType from the URL path and, once known, the
// page's own title (e.g. a page titled "Contact Us" reachable only via a
// path like "/en/01542" is still classified as contact).
func classifyPageType(normalizedURL string, depth int, title string) model.PageType {
	if depth == 0 {
		return model.PageHomepage
	}
	if contactPathRe.MatchString(normalizedURL) || contactPathRe.MatchString(title) {
		return model.PageContact
	}
	if formPathRe.MatchString(normalizedURL) || formPathRe.MatchString(title) {
		return model.PageForm
	}
	if strings.TrimRight(normalizedURL, "/") == "" {
		return model.PageHomepage
	}
	return model.PageContent
}

// classifyPriority assigns priority by depth: high at depth 0, medium at
// depth 1, low at depth >= 2.
func classifyPriority(depth int) model.Priority {
	switch {
	case depth == 0:
		return model.PriorityHigh
	case depth == 1:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}
