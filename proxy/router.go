// Package proxy forwards trusted requests to the backend service that owns
// the matched path prefix, streaming bodies both ways and translating
// upstream failures into the uniform gateway envelope.
package proxy

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Route maps a path prefix to an upstream service. Prefixes are static,
// loaded at startup, and matched longest-first against the inbound path.
type Route struct {
	Prefix   string
	Upstream *url.URL
	Service  string
}

// RouteDef is the configuration shape a Route is built from.
type RouteDef struct {
	Prefix   string
	Upstream string
	Service  string
}

// BuildRoutes parses route definitions and orders them longest-prefix-first
// so overlapping prefixes resolve to the most specific one.
func BuildRoutes(defs []RouteDef) ([]Route, error) {
	routes := make([]Route, 0, len(defs))
	seen := make(map[string]bool, len(defs))

	for _, def := range defs {
		prefix := strings.TrimSuffix(def.Prefix, "/")
		if prefix == "" || !strings.HasPrefix(prefix, "/") {
			return nil, fmt.Errorf("route %q: prefix must start with /", def.Service)
		}
		if seen[prefix] {
			return nil, fmt.Errorf("route %q: duplicate prefix %s", def.Service, prefix)
		}
		seen[prefix] = true

		upstream, err := url.Parse(def.Upstream)
		if err != nil {
			return nil, fmt.Errorf("route %q: invalid upstream %q: %w", def.Service, def.Upstream, err)
		}
		if upstream.Scheme == "" || upstream.Host == "" {
			return nil, fmt.Errorf("route %q: upstream %q must be an absolute URL", def.Service, def.Upstream)
		}

		routes = append(routes, Route{Prefix: prefix, Upstream: upstream, Service: def.Service})
	}

	sort.Slice(routes, func(i, j int) bool {
		return len(routes[i].Prefix) > len(routes[j].Prefix)
	})
	return routes, nil
}

// match returns the route owning path, if any. A prefix matches only on a
// whole path segment, so /api/products never claims /api/productsearch.
func match(routes []Route, path string) (Route, bool) {
	for _, rt := range routes {
		if path == rt.Prefix || strings.HasPrefix(path, rt.Prefix+"/") {
			return rt, true
		}
	}
	return Route{}, false
}
