package crawler

import (
	"net/url"
	"strings"
)

// ResolveURL makes href absolute against origin. Scheme-relative links get
// https, root-relative links resolve against origin, and any other relative
// form is treated as root-relative. An empty href stays empty.
func ResolveURL(origin, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return href
	}
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}

	base, err := url.Parse(origin)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
