package endpoint

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize trims baseURL and falls back to def when it is empty.
func Normalize(baseURL, def string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = def
	}
	return strings.TrimRight(baseURL, "/")
}

// Validate checks that baseURL is an https URL whose host is in allowedHosts,
// or in defaultHosts when allowedHosts is empty. name is used in messages.
func Validate(name, baseURL string, allowedHosts, defaultHosts []string) error {
	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid %s %q: absolute URL with host is required", name, baseURL)
	}
	if u.User != nil {
		return fmt.Errorf("invalid %s %q: userinfo is not allowed", name, baseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid %s %q: query and fragment are not allowed", name, baseURL)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("invalid %s %q: host is required", name, baseURL)
	}
	if scheme != "https" {
		return fmt.Errorf("invalid %s %q: https is required", name, baseURL)
	}

	allowed := normalizeHosts(allowedHosts)
	if len(allowed) == 0 {
		allowed = normalizeHosts(defaultHosts)
	}
	if _, ok := allowed[host]; !ok {
		return fmt.Errorf("invalid %s %q: host %q is not in the allowed hosts", name, baseURL, host)
	}
	return nil
}

func normalizeHosts(hosts []string) map[string]struct{} {
	out := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		v := strings.ToLower(strings.TrimSpace(h))
		v = strings.TrimPrefix(v, "http://")
		v = strings.TrimPrefix(v, "https://")
		v = strings.Trim(v, "/")
		if v == "" {
			continue
		}
		if i := strings.Index(v, ":"); i >= 0 {
			v = v[:i]
		}
		out[v] = struct{}{}
	}
	return out
}
