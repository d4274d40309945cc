package globfilter

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"gdpack/internal/respath"
)

// SkipDirFunc lets a caller veto descent into a directory beyond the
// built-in dotfile rule (e.g. the editor's own generated ".godot" cache).
type SkipDirFunc func(relPath string) bool

// PathSet is an unordered collection of resource paths built up by
// successive filter applications.
type PathSet map[respath.Path]bool

// Clone returns a shallow copy of the set.
func (s PathSet) Clone() PathSet {
	out := make(PathSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Sorted returns the set's members sorted by their prefixed string form.
func (s PathSet) Sorted() []respath.Path {
	out := make([]respath.Path, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Apply walks projectRoot recursively, testing every file it finds against
// the comma-separated glob list. Matches are inserted into the set
// (exclude=false) or removed from it (exclude=true). An empty globList is
// a no-op: the base set is returned unchanged.
//
// Directories whose name starts with '.' are never descended into, and
// skipDir (if non-nil) is consulted for every other directory, mirroring
// the editor's exporter which lets platform glue veto scanning
// ".godot"-style caches.
func Apply(base PathSet, projectRoot, globList string, exclude bool, skipDir SkipDirFunc) (PathSet, error) {
	patterns := splitList(globList)
	out := base.Clone()
	if len(patterns) == 0 {
		return out, nil
	}

	err := filepath.WalkDir(projectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == projectRoot {
			return nil
		}
		rel, relErr := filepath.Rel(projectRoot, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			base := filepath.Base(path)
			if strings.HasPrefix(base, ".") {
				return filepath.SkipDir
			}
			if skipDir != nil && skipDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		rp := respath.New(rel)
		prefixed, unprefixed := rp.Both()
		for _, pat := range patterns {
			if MatchesAny(pat, prefixed, unprefixed) {
				if exclude {
					delete(out, rp)
				} else {
					out[rp] = true
				}
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ApplyToSet matches patterns directly against an in-memory set of paths
// without touching the filesystem, used for the driver's *.import exclude
// pass and for filtering an already-materialized selection.
func ApplyToSet(base PathSet, globList string, exclude bool) PathSet {
	patterns := splitList(globList)
	out := base.Clone()
	if len(patterns) == 0 {
		return out
	}
	for rp := range base {
		prefixed, unprefixed := rp.Both()
		for _, pat := range patterns {
			if MatchesAny(pat, prefixed, unprefixed) {
				if exclude {
					delete(out, rp)
				} else {
					out[rp] = true
				}
				break
			}
		}
	}
	return out
}

func splitList(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
