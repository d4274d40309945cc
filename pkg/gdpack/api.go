// Package gdpack is the top-level entry point for the packaging pipeline:
// ExportPack and ExportZip wire the resource index, driver, and format
// emitters together the way a caller (editor UI, CI job, or the gdpack CLI)
// expects to invoke them.
package gdpack

import (
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"gdpack/internal/buildreport"
	"gdpack/internal/keydecode"
	"gdpack/internal/logging"
	"gdpack/internal/pckformat"
	"gdpack/internal/platform"
	"gdpack/internal/respack/driver"
	"gdpack/internal/respack/errs"
	"gdpack/internal/respack/plugin"
	"gdpack/internal/respack/preset"
	"gdpack/internal/respack/walker"
	"gdpack/internal/zipformat"
)

// Options configures one ExportPack or ExportZip call.
type Options struct {
	Preset    *preset.Preset
	Platform  platform.Platform
	Debug     bool
	Autoloads []string
	Plugins   []plugin.Plugin
	Engine    pckformat.EngineVersion

	// Embed appends the PCK to the existing file at Preset.AbsExportPath()
	// instead of truncating it, for single-file executable distribution.
	// When Platform also implements platform.PEEmbedder and Preset.IconPath
	// is set, the PCK and icon are instead patched into the target as PE
	// resources rather than appended as a trailer.
	Embed bool

	// Is32Bit marks the export target as a 32-bit host, rejecting an embed
	// whose staged body region alone has reached 4 GiB (header and directory
	// bytes are not counted).
	Is32Bit bool

	Progress driver.ProgressFunc
	Logger   hclog.Logger

	// BuildReportPath, if non-empty, writes a bzip2-compressed JSON summary
	// of the run there.
	BuildReportPath string
}

// Result reports what a successful export produced.
type Result struct {
	Stats driver.Stats
	Pack  pckformat.Result // zero value for ExportZip
}

// ExportPack indexes the project at opts.Preset.ProjectRoot(), runs the
// packaging pipeline, and writes a PCK to opts.Preset.AbsExportPath().
func ExportPack(opts Options) (Result, error) {
	logger := resolveLogger(opts.Logger)
	timer := buildreport.StartTimer()

	idx, err := walker.Build(opts.Preset.ProjectRoot())
	if err != nil {
		return Result{}, &errs.IOError{Op: "index project", Err: err}
	}

	key := keydecode.Decode(opts.Preset.ScriptKeyHex)
	policy := pckformat.EncryptionPolicy{
		Key:          key[:],
		EncPCK:       opts.Preset.EncPCK,
		EncDirectory: opts.Preset.EncDirectory,
		IncludeGlob:  opts.Preset.EncInFilter,
		ExcludeGlob:  opts.Preset.EncExFilter,
	}

	w, err := pckformat.NewWriter(opts.Engine, policy, logger)
	if err != nil {
		return Result{}, err
	}
	defer w.Close()

	drv := driver.New(opts.Preset, opts.Platform, idx, opts.Autoloads, opts.Debug, opts.Plugins, logger)
	stats, err := drv.Run(w, opts.Progress)
	if err != nil {
		return Result{Stats: stats}, err
	}

	if embedder, ok := opts.Platform.(platform.PEEmbedder); ok && opts.Embed && opts.Preset.IconPath != "" {
		return finalizePEEmbed(opts, w, embedder, stats, timer)
	}

	flags := os.O_RDWR | os.O_CREATE
	if !opts.Embed {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(opts.Preset.AbsExportPath(), flags, 0o644)
	if err != nil {
		return Result{Stats: stats}, &errs.IOError{Op: "open destination pck", Err: err}
	}
	defer f.Close()

	packResult, err := w.Finalize(f, opts.Embed, opts.Is32Bit)
	if err != nil {
		return Result{Stats: stats}, err
	}

	writeReport(opts, "pck", stats, packResult.EncryptedFiles, timer)
	return Result{Stats: stats, Pack: packResult}, nil
}

// finalizePEEmbed stages the PCK to a standalone temp file, then hands it
// and the preset's icon to embedder instead of appending the PCK as a
// trailer to Preset.AbsExportPath() directly.
func finalizePEEmbed(opts Options, w *pckformat.Writer, embedder platform.PEEmbedder, stats driver.Stats, timer buildreport.Timer) (Result, error) {
	tmp, err := os.CreateTemp("", "gdpack-pck-*.tmp")
	if err != nil {
		return Result{Stats: stats}, &errs.IOError{Op: "create pck staging file for pe embed", Err: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	defer tmp.Close()

	packResult, err := w.Finalize(tmp, false, opts.Is32Bit)
	if err != nil {
		return Result{Stats: stats}, err
	}

	pckData, err := os.ReadFile(tmpPath)
	if err != nil {
		return Result{Stats: stats}, &errs.IOError{Op: "read staged pck for pe embed", Err: err}
	}

	iconAbs := filepath.Join(opts.Preset.ProjectRoot(), filepath.FromSlash(opts.Preset.IconPath.Unprefixed()))
	iconData, err := os.ReadFile(iconAbs)
	if err != nil {
		return Result{Stats: stats}, &errs.IOError{Op: "read project icon", Err: err}
	}

	if err := embedder.PatchIconAndEmbed(opts.Preset.AbsExportPath(), iconData, pckData); err != nil {
		return Result{Stats: stats}, err
	}

	writeReport(opts, "pck", stats, packResult.EncryptedFiles, timer)
	return Result{Stats: stats, Pack: packResult}, nil
}

// ExportZip indexes the project and writes a standard ZIP archive to
// opts.Preset.AbsExportPath().
func ExportZip(opts Options) (Result, error) {
	logger := resolveLogger(opts.Logger)
	timer := buildreport.StartTimer()

	idx, err := walker.Build(opts.Preset.ProjectRoot())
	if err != nil {
		return Result{}, &errs.IOError{Op: "index project", Err: err}
	}

	f, err := os.Create(opts.Preset.AbsExportPath())
	if err != nil {
		return Result{}, &errs.IOError{Op: "create destination zip", Err: err}
	}
	defer f.Close()

	zw := zipformat.New(f, logger)
	sink := driver.ZipSink{W: zw}

	drv := driver.New(opts.Preset, opts.Platform, idx, opts.Autoloads, opts.Debug, opts.Plugins, logger)
	stats, err := drv.Run(sink, opts.Progress)
	if err != nil {
		return Result{Stats: stats}, err
	}
	if err := zw.Close(); err != nil {
		return Result{Stats: stats}, err
	}

	writeReport(opts, "zip", stats, 0, timer)
	return Result{Stats: stats}, nil
}

func resolveLogger(logger hclog.Logger) hclog.Logger {
	if logger != nil {
		return logger
	}
	return logging.New("gdpack", logging.LevelFromEnv(), os.Stderr)
}

func writeReport(opts Options, format string, stats driver.Stats, encryptedFiles int, timer buildreport.Timer) {
	if opts.BuildReportPath == "" {
		return
	}
	report := buildreport.Report{
		Preset:          opts.Preset.Name,
		Platform:        opts.Preset.PlatformID,
		Format:          format,
		FilesWritten:    stats.FilesWritten,
		FilesSkipped:    stats.FilesSkipped,
		BytesWritten:    stats.BytesWritten,
		PluginCalls:     stats.PluginCalls,
		EncryptedFiles:  encryptedFiles,
		DurationSeconds: timer.Seconds(),
	}
	for _, m := range stats.Messages {
		report.Messages = append(report.Messages, m.Category+": "+m.Text)
	}
	if err := buildreport.Write(opts.BuildReportPath, report); err != nil {
		resolveLogger(opts.Logger).Warn("failed to write build report", "err", err)
	}
}
