package discovery

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var multiSlashRe = regexp.MustCompile(`/{2,}`)

// NormalizeURL applies the canonicalization rules shared by discovery and
// deduplication: lowercase scheme and host, drop fragment, drop the default
// port for the scheme, collapse consecutive slashes in the path, strip a
// trailing slash except for the root path. Query strings are preserved as-is.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if port := u.Port(); port != "" {
		if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
			u.Host = u.Hostname()
		}
	}

	p := multiSlashRe.ReplaceAllString(u.Path, "/")
	if p == "" {
		p = "/"
	}
	if p != "/" {
		p = strings.TrimSuffix(p, "/")
	}
	u.Path = p

	return u.String(), nil
}

// SameHost reports whether two already-normalized URLs share a host.
func SameHost(a, b string) bool {
	ua, err1 := url.Parse(a)
	ub, err2 := url.Parse(b)
	if err1 != nil || err2 != nil {
		return false
	}
	return strings.EqualFold(ua.Host, ub.Host)
}

// deniedExtension reports whether the URL path ends in one of the denylisted
// binary/media extensions.
func deniedExtension(rawURL string, denylist []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	lower := strings.ToLower(u.Path)
	for _, ext := range denylist {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// isHTTPScheme reports whether the URL uses http or https.
func isHTTPScheme(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func resolve(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

func lastPathSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	clean := path.Clean(u.Path)
	return path.Base(clean)
}
