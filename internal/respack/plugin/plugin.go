// Package plugin implements the export plugin pipeline: an ordered
// list of user-supplied hooks invoked once per candidate path, each able to
// inject extra files, contribute shared-object references, or skip the
// current path outright.
package plugin

import (
	"gdpack/internal/respack/walker"
	"gdpack/internal/respath"
)

// SharedObject is a platform-consumed reference a plugin contributes for
// one file: a linker input, an iOS framework path, a macOS plugin bundle.
// The core packaging pipeline never inspects Tags or Target itself; it
// passes them through to platform glue untouched.
type SharedObject struct {
	Path   string
	Tags   []string
	Target string
}

// ExtraFile is a file a plugin injects into the archive in addition to (or
// instead of) the path it was invoked for. When Remap is true, the driver
// also emits a ".remap" stub next to the dispatched path pointing at Path,
// and the dispatched path's original on-disk contents are never stored.
// The driver does not read RemapTarget.
type ExtraFile struct {
	Path        respath.Path
	Data        []byte
	Remap       bool
	RemapTarget respath.Path
}

// FileResult is what one plugin returns from one ExportFile call. It is a
// fresh value per call, which is what satisfies the requirement that a
// plugin's extra_files/shared_objects/skip state be cleared between files:
// there is no persistent buffer to forget to reset.
type FileResult struct {
	Skip          bool
	ExtraFiles    []ExtraFile
	SharedObjects []SharedObject
}

// Plugin is the capability interface export plugins implement, whether
// they are compiled in or hosted by a scripting bridge (see ScriptPlugin).
// Dispatch never needs to know which.
type Plugin interface {
	// Name identifies the plugin for logging and stable-ordering ties.
	Name() string

	// Begin is called once before enumeration starts.
	Begin(features []string, debug bool, exportPath string, flags map[string]string) error

	// ExportFile is called once per candidate path.
	ExportFile(path respath.Path, resType walker.ResourceType, features []string) FileResult

	// End is called once after enumeration finishes, always, even when a
	// prior Begin or ExportFile call on another plugin failed.
	End() error
}
