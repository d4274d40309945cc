// Package preset holds the immutable build configuration for one export
// run: which files to consider, which globs to include/exclude, which
// feature tags are active, and the encryption policy.
package preset

import (
	"path/filepath"
	"strings"

	"gdpack/internal/respack/errs"
	"gdpack/internal/respath"
)

// ExportFilter selects how the resource walker seeds its candidate set.
type ExportFilter int

const (
	AllResources ExportFilter = iota
	SelectedScenes
	SelectedResources
	ExcludeSelectedResources
)

// ParseExportFilter maps a config string onto an ExportFilter, returning a
// ConfigError for anything unrecognized so the caller can skip the
// offending preset without aborting the whole load.
func ParseExportFilter(s string) (ExportFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all_resources", "":
		return AllResources, nil
	case "selected_scenes":
		return SelectedScenes, nil
	case "selected_resources":
		return SelectedResources, nil
	case "exclude_selected_resources":
		return ExcludeSelectedResources, nil
	default:
		return AllResources, &errs.ConfigError{Reason: "unknown export_filter value: " + s}
	}
}

// Preset is immutable once a build starts. All setters below are meant to
// be called only while assembling the preset, before it is handed to the
// driver.
type Preset struct {
	Name       string
	PlatformID string

	ExportFilter  ExportFilter
	SelectedFiles map[respath.Path]bool

	IncludeFilter string
	ExcludeFilter string

	CustomFeatures string

	EncPCK          bool
	EncDirectory    bool
	EncInFilter     string
	EncExFilter     string
	ScriptKeyHex    string
	EmitBuildReport bool

	// Options carries per-platform values that don't have a dedicated field,
	// persisted under this preset's "preset.<i>.options" config section.
	Options map[string]string

	// IconPath and BootSplashPath, if set, name project-relative source
	// images the driver embeds verbatim (bypassing import resolution)
	// rather than routing through the normal resource pipeline.
	IconPath       respath.Path
	BootSplashPath respath.Path

	// NativeExtensions lists the native-extension config paths active for
	// this build, written out as a flat list file by the driver.
	NativeExtensions []respath.Path

	// TextServerDataPath, if set, names a project-relative file carrying
	// pre-baked text-shaping support data to embed verbatim.
	TextServerDataPath respath.Path

	// LegacyPathRemap selects the deprecated project.binary
	// path_remap/remapped_paths overlay instead of per-file .remap stubs.
	LegacyPathRemap bool

	// EmitUIDCache and EmitProjectBinary opt into synthesizing the
	// resource UID cache and the project.binary settings overlay. Both
	// default to off: a headless library build has no long-lived editor
	// UID assignments or project-settings resource to overlay unless the
	// caller explicitly asks for them.
	EmitUIDCache      bool
	EmitProjectBinary bool

	projectRoot string
	exportPath  string
}

// New returns a Preset with empty selections and encryption disabled.
func New(name, platformID, projectRoot string) *Preset {
	return &Preset{
		Name:          name,
		PlatformID:    platformID,
		ExportFilter:  AllResources,
		SelectedFiles: map[respath.Path]bool{},
		Options:       map[string]string{},
		projectRoot:   projectRoot,
	}
}

// SetExportPath stores path relative to the project root. Absolute inputs
// are rebased on assignment rather than rejected, matching the reference
// behavior of accepting whatever the editor's file dialog handed back.
func (p *Preset) SetExportPath(path string) {
	if filepath.IsAbs(path) {
		if rel, err := filepath.Rel(p.projectRoot, path); err == nil {
			p.exportPath = filepath.ToSlash(rel)
			return
		}
	}
	p.exportPath = filepath.ToSlash(path)
}

// ExportPath returns the project-root-relative destination path.
func (p *Preset) ExportPath() string {
	return p.exportPath
}

// AbsExportPath resolves ExportPath against the project root.
func (p *Preset) AbsExportPath() string {
	if filepath.IsAbs(p.exportPath) {
		return p.exportPath
	}
	return filepath.Join(p.projectRoot, filepath.FromSlash(p.exportPath))
}

// ProjectRoot returns the project root this preset was constructed with.
func (p *Preset) ProjectRoot() string {
	return p.projectRoot
}

// Validate checks the invariants that must hold before a build starts.
// The open question in the design notes ("enc_directory without enc_pck")
// is resolved here by rejecting the combination outright: encrypting the
// directory while leaving every file body in plaintext protects nothing,
// so treating it as a configuration error (rather than silently permitting
// it, as the reference does) is the safer default. See DESIGN.md.
func (p *Preset) Validate() error {
	if p.EncDirectory && !p.EncPCK {
		return &errs.ConfigError{Preset: p.Name, Reason: "enc_directory requires enc_pck"}
	}
	return nil
}
