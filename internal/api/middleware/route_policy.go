package middleware

import "strings"

// RouteGroup labels a request by the part of the API it hits.
type RouteGroup string

const (
	RouteGroupPredict   RouteGroup = "predict"
	RouteGroupDirectory RouteGroup = "directory"
	RouteGroupFeedback  RouteGroup = "feedback"
	RouteGroupTime      RouteGroup = "time"
	RouteGroupOps       RouteGroup = "ops"
	RouteGroupOther     RouteGroup = "other"
)

// routePolicy describes how one route is observed and cached. A zero
// ttlSeconds marks a live route whose responses must not be reused.
type routePolicy struct {
	path       string
	prefix     bool
	label      string
	group      RouteGroup
	ttlSeconds int
}

var routePolicies = []routePolicy{
	{path: "/api/predict", label: "/api/predict", group: RouteGroupPredict},
	{path: "/api/hospitals", label: "/api/hospitals", group: RouteGroupDirectory, ttlSeconds: 60},
	{path: "/api/hospitals/search", label: "/api/hospitals/search", group: RouteGroupDirectory, ttlSeconds: 300},
	{path: "/api/hospitals/", prefix: true, label: "/api/hospitals/{id}", group: RouteGroupDirectory, ttlSeconds: 600},
	{path: "/api/feedback", label: "/api/feedback", group: RouteGroupFeedback},
	{path: "/api/time", label: "/api/time", group: RouteGroupTime},
	{path: "/health", label: "/health", group: RouteGroupOps},
	{path: "/metrics", label: "/metrics", group: RouteGroupOps},
}

var unmatchedPolicy = routePolicy{label: "unmatched", group: RouteGroupOther}

// policyFor prefers an exact path over a prefix route.
func policyFor(path string) routePolicy {
	for _, p := range routePolicies {
		if !p.prefix && p.path == path {
			return p
		}
	}
	for _, p := range routePolicies {
		if p.prefix && strings.HasPrefix(path, p.path) && len(path) > len(p.path) {
			return p
		}
	}
	return unmatchedPolicy
}

// ClassifyRoute returns the route group of a request path.
func ClassifyRoute(path string) RouteGroup {
	return policyFor(path).group
}

// RouteLabel returns a bounded-cardinality label for a request path, with
// hospital ids collapsed into a placeholder.
func RouteLabel(path string) string {
	return policyFor(path).label
}
