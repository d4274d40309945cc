package driver

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gdpack/internal/respack/errs"
	"gdpack/internal/respath"
)

// projectBinaryMagic tags the serialized project-settings overlay the way
// pckformat.Magic tags the archive header, so a reader can reject a stray
// file.
const projectBinaryMagic = 0x31424a50 // "PJB1" as little-endian bytes

// synthesizeArtifacts runs the fixed post-file synthesis sequence: project
// icon and boot splash (bypassing import), a resource UID cache built from
// the final archive path list, the native-extension list, text-server
// support data when the preset supplies it, and the project.binary
// settings overlay. Anything the preset leaves unset is skipped rather
// than fabricated.
func (d *Driver) synthesizeArtifacts(sink Sink, archivedPaths []respath.Path, stats *Stats) error {
	if d.Preset.IconPath != "" {
		if err := d.emitVerbatim(sink, d.Preset.IconPath, stats); err != nil {
			return err
		}
	}
	if d.Preset.BootSplashPath != "" {
		if err := d.emitVerbatim(sink, d.Preset.BootSplashPath, stats); err != nil {
			return err
		}
	}

	if d.Preset.EmitUIDCache {
		if err := d.emitBytes(sink, respath.New("uid_cache.bin"), buildUIDCache(archivedPaths), stats); err != nil {
			return err
		}
	}

	if len(d.Preset.NativeExtensions) > 0 {
		if err := d.emitBytes(sink, respath.New("extension_list.cfg"), buildExtensionList(d.Preset.NativeExtensions), stats); err != nil {
			return err
		}
	}

	if d.Preset.TextServerDataPath != "" {
		if err := d.emitVerbatim(sink, d.Preset.TextServerDataPath, stats); err != nil {
			return err
		}
	} else {
		d.Logger.Debug("no text-server support data configured, skipping synthesis")
	}

	if !d.Preset.EmitProjectBinary {
		return nil
	}
	projectBinary, err := buildProjectBinary(d.Preset.CustomFeatures, d.Preset.LegacyPathRemap, archivedPaths)
	if err != nil {
		return err
	}
	return d.emitBytes(sink, respath.New("project.binary"), projectBinary, stats)
}

// emitVerbatim reads a project-relative source file straight off disk and
// writes it to the archive under its own path, without going through
// remap resolution or the plugin pipeline.
func (d *Driver) emitVerbatim(sink Sink, p respath.Path, stats *Stats) error {
	abs := filepath.Join(d.Preset.ProjectRoot(), filepath.FromSlash(p.Unprefixed()))
	data, err := os.ReadFile(abs)
	if err != nil {
		return &errs.IOError{Op: "read synthetic artifact source " + p.String(), Err: err}
	}
	return d.emitBytes(sink, p, data, stats)
}

// buildUIDCache assigns each archived path a stable sequential ID (by
// sorted order, so the cache is deterministic across builds with the same
// path set) and serializes it as a flat u32-count-prefixed list of
// (u64 id, u16 pathlen, path) records.
func buildUIDCache(paths []respath.Path) []byte {
	sorted := make([]string, len(paths))
	for i, p := range paths {
		sorted[i] = p.String()
	}
	sort.Strings(sorted)

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(len(sorted)))
	for i, p := range sorted {
		binary.Write(&buf, binary.LittleEndian, uint64(i))
		binary.Write(&buf, binary.LittleEndian, uint16(len(p)))
		buf.WriteString(p)
	}
	return buf.Bytes()
}

func buildExtensionList(exts []respath.Path) []byte {
	lines := make([]string, len(exts))
	for i, e := range exts {
		lines[i] = e.String()
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// buildProjectBinary serializes the project-settings overlay this build
// carries: the active custom_features list, and, only when legacyRemap is
// set, the path_remap/remapped_paths table mapping every archived path to
// itself (the driver never mutates paths outside remap resolution, so the
// legacy table is an identity map preserved for compatibility with
// readers that still look for it instead of a sidecar .remap file).
func buildProjectBinary(customFeatures string, legacyRemap bool, paths []respath.Path) ([]byte, error) {
	entries := map[string]string{
		"custom_features": customFeatures,
	}
	if legacyRemap {
		pairs := make([]string, len(paths))
		for i, p := range paths {
			pairs[i] = p.String() + "|" + p.String()
		}
		entries["path_remap/remapped_paths"] = strings.Join(pairs, "\n")
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(projectBinaryMagic))
	binary.Write(&buf, binary.LittleEndian, uint32(len(keys)))
	for _, k := range keys {
		v := entries[k]
		binary.Write(&buf, binary.LittleEndian, uint16(len(k)))
		buf.WriteString(k)
		binary.Write(&buf, binary.LittleEndian, uint32(len(v)))
		buf.WriteString(v)
	}
	return buf.Bytes(), nil
}
