package probe

import (
	"net/url"
	"strings"
)

// ResolveRedirect makes a Location target absolute against the request
// URL. Absolute targets pass through. An absolute-path target replaces
// the whole path on the same scheme and host. A relative target is
// appended to the directory of the current path, i.e. the path with its
// last segment dropped.
func ResolveRedirect(baseURL, target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return target
	}
	base := u.Scheme + "://" + u.Host

	if strings.HasPrefix(target, "/") {
		return base + target
	}

	path := u.Path
	if !strings.HasSuffix(path, "/") {
		if i := strings.LastIndex(path, "/"); i >= 0 {
			path = path[:i+1]
		} else {
			path = "/"
		}
	}

	return base + path + target
}
