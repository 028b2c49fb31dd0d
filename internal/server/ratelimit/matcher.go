package ratelimit

import (
	"strings"
)

// MatchEndpoint returns the config for path and method, or nil. Exact
// patterns win over wildcard ones, which win over trailing-slash prefixes.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	var wildcard, prefix *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method {
			continue
		}
		switch {
		case c.Path == path:
			return c
		case wildcard == nil && strings.Contains(c.Path, "*") && matchSegments(c.Path, path):
			wildcard = c
		case prefix == nil && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path):
			prefix = c
		}
	}
	if wildcard != nil {
		return wildcard
	}
	return prefix
}

func matchSegments(pattern, path string) bool {
	want := strings.Split(strings.Trim(pattern, "/"), "/")
	got := strings.Split(strings.Trim(path, "/"), "/")
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != "*" && want[i] != got[i] {
			return false
		}
		if want[i] == "*" && got[i] == "" {
			return false
		}
	}
	return true
}
