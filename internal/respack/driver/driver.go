// Package driver orchestrates one export run: it walks the resource set,
// filters it, resolves each path through the remap resolver or the plugin
// pipeline, and emits every resulting payload into a Sink backed by the
// PCK or ZIP emitter.
package driver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"gdpack/internal/globfilter"
	"gdpack/internal/platform"
	"gdpack/internal/respack/errs"
	"gdpack/internal/respack/plugin"
	"gdpack/internal/respack/preset"
	"gdpack/internal/respack/remap"
	"gdpack/internal/respack/walker"
	"gdpack/internal/respath"
	"gdpack/internal/zipformat"
)

// ProgressFunc reports export progress and may request cancellation by
// returning true, mirroring the reference's cooperative step callback.
type ProgressFunc func(idx, total int) (cancel bool)

// Sink is the archive-agnostic destination the driver writes payloads
// into. pckformat.Writer already has this exact method set; ZipSink adapts
// zipformat.Writer, which doesn't need the encryption-filter path forms.
type Sink interface {
	AddFile(archivePath, prefixed, unprefixed string, data []byte) error
}

// ZipSink adapts a zipformat.Writer to Sink.
type ZipSink struct {
	W *zipformat.Writer
}

// AddFile forwards to the wrapped zipformat.Writer, ignoring the two path
// forms that only matter for encryption-glob matching.
func (z ZipSink) AddFile(archivePath, _, _ string, data []byte) error {
	return z.W.AddFile(archivePath, data)
}

// Driver holds one export run's collaborators.
type Driver struct {
	Preset    *preset.Preset
	Platform  platform.Platform
	Index     *walker.Index
	Autoloads []string
	Debug     bool
	Plugins   []plugin.Plugin
	Logger    hclog.Logger
}

// New constructs a Driver, defaulting Logger to a null logger.
func New(p *preset.Preset, plat platform.Platform, idx *walker.Index, autoloads []string, debug bool, plugins []plugin.Plugin, logger hclog.Logger) *Driver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Driver{Preset: p, Platform: plat, Index: idx, Autoloads: autoloads, Debug: debug, Plugins: plugins, Logger: logger}
}

// Stats accumulates the counts a caller surfaces via internal/buildreport.
type Stats struct {
	FilesWritten  int
	FilesSkipped  int
	BytesWritten  int64
	PluginCalls   int
	SharedObjects []plugin.SharedObject
	Messages      []errs.ExportMessage
}

type remapStub struct {
	original respath.Path
	target   respath.Path
}

// Run walks, resolves, and emits the preset's path set into sink, honoring
// cancellation via progress. The plugin scope is always torn down
// symmetrically, even when Run returns early on error or cancellation.
func (d *Driver) Run(sink Sink, progress ProgressFunc) (Stats, error) {
	stats := Stats{}

	if err := d.Preset.Validate(); err != nil {
		return stats, err
	}

	features := preset.BuildFeatureSet(d.Platform.Features(), d.Debug, d.Preset.CustomFeatures)

	w := walker.New(d.Index, d.Logger)
	set := w.Walk(d.Preset.ExportFilter, d.Preset.SelectedFiles, d.Autoloads)
	set = d.applyDriverFilters(set)

	ordered := set.Sorted()
	total := len(ordered)
	if total < 1 {
		return stats, errs.ErrParameterRange
	}

	scope, err := plugin.BeginScope(d.Plugins, features.Ordered(), d.Debug, d.Preset.AbsExportPath(), nil, d.Logger)
	if err != nil {
		return stats, err
	}
	defer scope.End()

	preflight := scope.PreflightAll()
	d.emitExtras(sink, preflight, &stats)

	resolver := remap.New(d.Preset.ProjectRoot(), d.Platform, d.Logger)

	var remapStubs []remapStub
	var archivedPaths []respath.Path

	for i, p := range ordered {
		if progress != nil && progress(i, total) {
			return stats, errs.ErrCancelled
		}

		res, err := resolver.Resolve(p, features)
		if err != nil {
			stats.Messages = append(stats.Messages, errs.ExportMessage{
				Severity: errs.SeverityWarning, Category: "remap", Text: err.Error(),
			})
			stats.FilesSkipped++
			continue
		}

		if res.HasImport {
			for _, target := range res.EmitPaths {
				if err := d.emitProjectFile(sink, target, &stats); err != nil {
					return stats, err
				}
				archivedPaths = append(archivedPaths, target)
			}
			if err := d.emitProjectFile(sink, res.ImportSidecarPath, &stats); err != nil {
				return stats, err
			}
			archivedPaths = append(archivedPaths, res.ImportSidecarPath)
			continue
		}

		resType := walker.TypeResource
		if info, ok := d.Index.Resources[p]; ok {
			resType = info.Type
		}
		fr := scope.DispatchFile(p, resType, features.Ordered())
		stats.PluginCalls++
		stats.SharedObjects = append(stats.SharedObjects, fr.SharedObjects...)

		suppressOriginal := fr.Skip
		for _, extra := range fr.ExtraFiles {
			if err := d.emitBytes(sink, extra.Path, extra.Data, &stats); err != nil {
				return stats, err
			}
			archivedPaths = append(archivedPaths, extra.Path)
			if extra.Remap {
				remapStubs = append(remapStubs, remapStub{original: p, target: extra.Path})
				suppressOriginal = true
			}
		}

		if suppressOriginal {
			stats.FilesSkipped++
		} else if err := d.emitProjectFile(sink, p, &stats); err != nil {
			return stats, err
		} else {
			archivedPaths = append(archivedPaths, p)
		}
	}

	for _, stub := range remapStubs {
		content := []byte("[remap]\n\npath=\"" + escapeRemapTarget(stub.target.String()) + "\"\n")
		stubPath := respath.New(stub.original.Unprefixed() + ".remap")
		if err := d.emitBytes(sink, stubPath, content, &stats); err != nil {
			return stats, err
		}
		archivedPaths = append(archivedPaths, stubPath)
	}

	if err := d.synthesizeArtifacts(sink, archivedPaths, &stats); err != nil {
		return stats, err
	}

	return stats, nil
}

// applyDriverFilters runs the fixed filter order: always include icon
// formats, then the preset's include filter, then its exclude filter, and
// finally always exclude the .import sidecars themselves (they're emitted
// explicitly alongside their remap targets, not swept in wholesale).
func (d *Driver) applyDriverFilters(set globfilter.PathSet) globfilter.PathSet {
	projectRoot := d.Preset.ProjectRoot()

	if withIcns, err := globfilter.Apply(set, projectRoot, "*.icns", false, nil); err == nil {
		set = withIcns
	} else {
		d.Logger.Warn("icns filter pass failed", "err", err)
	}
	if withIco, err := globfilter.Apply(set, projectRoot, "*.ico", false, nil); err == nil {
		set = withIco
	} else {
		d.Logger.Warn("ico filter pass failed", "err", err)
	}

	if withInclude, err := globfilter.Apply(set, projectRoot, d.Preset.IncludeFilter, false, nil); err == nil {
		set = withInclude
	} else {
		d.Logger.Warn("include filter pass failed", "err", err)
	}
	set = globfilter.ApplyToSet(set, d.Preset.ExcludeFilter, true)
	set = globfilter.ApplyToSet(set, "*.import", true)
	return set
}

func (d *Driver) emitExtras(sink Sink, fr plugin.FileResult, stats *Stats) {
	for _, extra := range fr.ExtraFiles {
		if err := d.emitBytes(sink, extra.Path, extra.Data, stats); err != nil {
			stats.Messages = append(stats.Messages, errs.ExportMessage{
				Severity: errs.SeverityWarning, Category: "plugin_preflight", Text: err.Error(),
			})
		}
	}
	stats.SharedObjects = append(stats.SharedObjects, fr.SharedObjects...)
}

func (d *Driver) emitProjectFile(sink Sink, p respath.Path, stats *Stats) error {
	abs := filepath.Join(d.Preset.ProjectRoot(), filepath.FromSlash(p.Unprefixed()))
	data, err := os.ReadFile(abs)
	if err != nil {
		return &errs.IOError{Op: "read project file " + p.String(), Err: err}
	}
	return d.emitBytes(sink, p, data, stats)
}

func (d *Driver) emitBytes(sink Sink, p respath.Path, data []byte, stats *Stats) error {
	prefixed, unprefixed := p.Both()
	if err := sink.AddFile(unprefixed, prefixed, unprefixed, data); err != nil {
		return &errs.IOError{Op: "emit " + unprefixed, Err: err}
	}
	stats.FilesWritten++
	stats.BytesWritten += int64(len(data))
	return nil
}

func escapeRemapTarget(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
