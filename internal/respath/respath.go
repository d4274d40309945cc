// Package respath models the opaque "res://"-prefixed project path used
// throughout the packaging pipeline.
package respath

import "strings"

// Prefix is the project-root scheme prefix used by every resource path.
const Prefix = "res://"

// Path is a project-relative resource path. It always carries the res://
// prefix internally; callers that need the bare on-disk-relative form use
// Unprefixed.
type Path string

// New normalizes s into a Path, adding the res:// prefix if missing.
func New(s string) Path {
	if strings.HasPrefix(s, Prefix) {
		return Path(s)
	}
	return Path(Prefix + s)
}

// String returns the prefixed form.
func (p Path) String() string {
	return string(p)
}

// Unprefixed returns the path with the res:// scheme stripped.
func (p Path) Unprefixed() string {
	return strings.TrimPrefix(string(p), Prefix)
}

// Both returns the prefixed and unprefixed representations of p, the two
// forms every glob filter in this package must test a pattern against.
func (p Path) Both() (prefixed, unprefixed string) {
	return string(p), p.Unprefixed()
}
