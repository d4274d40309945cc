// Package walker enumerates project resources per a preset's export
// filter: wholesale, minus a selection, or from a seed set walked out to
// its transitive dependency closure.
package walker

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gdpack/internal/respath"
)

// ResourceType classifies an indexed resource. TextFile resources are
// never included by ALL_RESOURCES / EXCLUDE_SELECTED_RESOURCES; only
// PackedScene resources seed SELECTED_SCENES.
type ResourceType string

const (
	TypePackedScene ResourceType = "PackedScene"
	TypeTextFile    ResourceType = "TextFile"
	TypeResource    ResourceType = "Resource"
)

// ExtensionTypes maps a lowercase file extension (with dot) to the
// ResourceType the walker should record for it. Anything not listed is
// TypeResource.
var ExtensionTypes = map[string]ResourceType{
	".tscn": TypePackedScene,
	".scn":  TypePackedScene,
	".txt":  TypeTextFile,
	".md":   TypeTextFile,
}

// Info is one indexed resource: its type and declared dependencies.
type Info struct {
	Type         ResourceType
	Dependencies []respath.Path
}

// Index is a flat snapshot of every file under a project root, with type
// and dependency metadata. Building it collapses the editor's directory
// tree into a map; enumeration order for ALL_RESOURCES is therefore the
// deterministic sorted-path order rather than true directory-tree
// pre-order.
type Index struct {
	Resources map[respath.Path]Info
}

// Build walks projectRoot, classifying every file it finds and scanning
// text-resource files (.tscn/.tres) for `ext_resource ... path="res://..."`
// dependency declarations.
func Build(projectRoot string) (*Index, error) {
	idx := &Index{Resources: map[respath.Path]Info{}}

	err := filepath.WalkDir(projectRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == projectRoot {
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ".import") {
			return nil
		}

		rel, relErr := filepath.Rel(projectRoot, path)
		if relErr != nil {
			return relErr
		}
		rp := respath.New(filepath.ToSlash(rel))

		ext := strings.ToLower(filepath.Ext(path))
		typ, ok := ExtensionTypes[ext]
		if !ok {
			typ = TypeResource
		}

		var deps []respath.Path
		if ext == ".tscn" || ext == ".tres" {
			deps, err = scanDependencies(path)
			if err != nil {
				return err
			}
		}

		idx.Resources[rp] = Info{Type: typ, Dependencies: deps}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// scanDependencies extracts res:// paths referenced by ext_resource lines
// in a Godot text-resource file, without a full parse of the format.
func scanDependencies(path string) ([]respath.Path, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var deps []respath.Path
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "ext_resource") {
			continue
		}
		if p, ok := extractPathAttr(line); ok {
			deps = append(deps, respath.New(p))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return deps, nil
}

func extractPathAttr(line string) (string, bool) {
	const marker = `path="`
	idx := strings.Index(line, marker)
	if idx < 0 {
		return "", false
	}
	rest := line[idx+len(marker):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// SortedPaths returns every indexed path in deterministic order.
func (idx *Index) SortedPaths() []respath.Path {
	out := make([]respath.Path, 0, len(idx.Resources))
	for p := range idx.Resources {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
