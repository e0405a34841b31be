package httpmetrics

import "strings"

const unmatchedRoute = "unmatched"

var knownRoutes = map[string]struct{}{
	"/health":            {},
	"/metrics":           {},
	"/api/auth/register": {},
	"/api/auth/login":    {},
	"/api/users/profile": {},
}

// RouteLabel maps a request path onto the fixed set of served routes so
// scanners probing random URLs cannot grow label cardinality.
func RouteLabel(path string) string {
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	if _, ok := knownRoutes[path]; ok {
		return path
	}
	return unmatchedRoute
}
