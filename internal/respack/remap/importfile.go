// Package remap resolves each imported resource's ".import" sidecar into
// the concrete remapped payload(s) that belong in the archive.
package remap

import (
	"bufio"
	"os"
	"strings"

	"gdpack/internal/respack/errs"
)

// ImportFile is the parsed subset of a ".import" sidecar this pipeline
// cares about: which importer produced it, and the [remap] section's
// path / path.<feature> keys.
type ImportFile struct {
	Importer string
	// Remaps maps "" (the default remap) or a feature tag to the target
	// res:// path for that variant.
	Remaps map[string]string
}

// Parse reads path as a simple INI-like config: "[section]" headers and
// "key=value" or "key.tag=value" lines with double-quoted string values.
// Apart from an "importer" key placed before any section header, anything
// outside the [remap] section is ignored; this pipeline never needs the
// [deps] or [params] sections a real .import carries.
func Parse(path string) (*ImportFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &errs.RemapError{Path: path, Err: err}
	}
	defer f.Close()

	imp := &ImportFile{Remaps: map[string]string{}}
	section := ""

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(line, "["), "]"))
			continue
		}

		key, value, ok := splitAssignment(line)
		if !ok {
			continue
		}

		switch section {
		case "remap":
			switch {
			case key == "importer":
				imp.Importer = value
			case key == "path":
				imp.Remaps[""] = value
			case strings.HasPrefix(key, "path."):
				imp.Remaps[strings.TrimPrefix(key, "path.")] = value
			}
		case "":
			if key == "importer" {
				imp.Importer = value
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &errs.RemapError{Path: path, Err: err}
	}

	return imp, nil
}

// splitAssignment parses `key="value"` or `key = value`, unquoting the
// value if it's wrapped in double quotes.
func splitAssignment(line string) (key, value string, ok bool) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	value = strings.Trim(value, `"`)
	return key, value, key != ""
}

// IsKeep reports whether this import's importer is the passthrough "keep"
// importer, meaning the original file should be archived verbatim instead
// of going through remap resolution.
func (imp *ImportFile) IsKeep() bool {
	return imp.Importer == "keep"
}

// DefaultRemap returns the unconditional remap target, if any.
func (imp *ImportFile) DefaultRemap() (string, bool) {
	v, ok := imp.Remaps[""]
	return v, ok
}

// GatedFeatures returns the feature tags this import offers a
// feature-specific remap for.
func (imp *ImportFile) GatedFeatures() []string {
	var out []string
	for tag := range imp.Remaps {
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
