package sw

import (
	"fmt"
	"strings"

	"siteforge/optimizer/utils"
)

// Manifest is the fixed, ordered list of asset URLs pre-cached at install
// time. It is the only configuration surface of the worker and is immutable
// for the lifetime of a generation.
type Manifest []string

// Validate checks that the manifest is non-empty and every entry is a
// non-empty relative request path.
func (m Manifest) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("manifest is empty")
	}
	for i, u := range m {
		if u == "" {
			return fmt.Errorf("manifest entry %d is empty", i)
		}
		if !strings.HasPrefix(u, "/") {
			return fmt.Errorf("manifest entry %q must be a rooted path", u)
		}
		if strings.Contains(u, "..") {
			return fmt.Errorf("manifest entry %q must not contain a parent path segment", u)
		}
	}
	return nil
}

// Deduped returns a copy with duplicate entries removed, preserving order.
// Install writes by key, so duplicates are harmless, but the deduped view
// keeps reported counts honest.
func (m Manifest) Deduped() Manifest {
	seen := make(map[string]struct{}, len(m))
	out := make(Manifest, 0, len(m))
	for _, u := range m {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// Contains reports whether url is a manifest entry.
func (m Manifest) Contains(url string) bool {
	for _, u := range m {
		if u == url {
			return true
		}
	}
	return false
}

// TagFromScript derives a generation tag from service-worker script bytes,
// mirroring the host platform's byte-comparison versioning. Identity remains
// the explicit tag; this is just a convenient way to mint one.
func TagFromScript(script []byte) string {
	return "sw-" + utils.ShortHash(script, 16)
}
