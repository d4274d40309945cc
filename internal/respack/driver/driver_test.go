package driver

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gdpack/internal/platform"
	"gdpack/internal/respack/errs"
	"gdpack/internal/respack/plugin"
	"gdpack/internal/respack/preset"
	"gdpack/internal/respack/walker"
	"gdpack/internal/respath"
)

type recordedFile struct {
	path string
	data string
}

type fakeSink struct {
	files []recordedFile
}

func (f *fakeSink) AddFile(archivePath, prefixed, unprefixed string, data []byte) error {
	f.files = append(f.files, recordedFile{path: archivePath, data: string(data)})
	return nil
}

func writeProjectFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestDriverRunEmitsSelectedFileVerbatim(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "a.txt", "hi")

	p := preset.New("linux", "linux", root)
	p.ExportFilter = preset.SelectedResources
	p.SelectedFiles[respath.New("a.txt")] = true
	p.SetExportPath(filepath.Join(root, "out.pck"))

	idx := &walker.Index{Resources: map[respath.Path]walker.Info{
		respath.New("a.txt"): {Type: walker.TypeResource},
	}}

	drv := New(p, platform.NewGeneric("linux", nil), idx, nil, false, nil, nil)
	sink := &fakeSink{}

	stats, err := drv.Run(sink, nil)
	require.NoError(t, err)
	require.Equal(t, 1, stats.FilesWritten)
	require.Len(t, sink.files, 1)
	require.Equal(t, "a.txt", sink.files[0].path)
	require.Equal(t, "hi", sink.files[0].data)
}

func TestDriverRunHonorsCancellation(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "a.txt", "hi")
	writeProjectFile(t, root, "b.txt", "bye")

	p := preset.New("linux", "linux", root)
	p.ExportFilter = preset.AllResources
	p.SetExportPath(filepath.Join(root, "out.pck"))

	idx := &walker.Index{Resources: map[respath.Path]walker.Info{
		respath.New("a.txt"): {Type: walker.TypeResource},
		respath.New("b.txt"): {Type: walker.TypeResource},
	}}

	drv := New(p, platform.NewGeneric("linux", nil), idx, nil, false, nil, nil)
	sink := &fakeSink{}

	_, err := drv.Run(sink, func(idx, total int) bool { return true })
	require.ErrorIs(t, err, errs.ErrCancelled)
}

func TestDriverRunRejectsEmptyPathSet(t *testing.T) {
	root := t.TempDir()

	p := preset.New("linux", "linux", root)
	p.ExportFilter = preset.SelectedResources
	p.SetExportPath(filepath.Join(root, "out.pck"))

	idx := &walker.Index{Resources: map[respath.Path]walker.Info{}}

	drv := New(p, platform.NewGeneric("linux", nil), idx, nil, false, nil, nil)
	sink := &fakeSink{}

	_, err := drv.Run(sink, nil)
	require.ErrorIs(t, err, errs.ErrParameterRange)
}

type extraFilePlugin struct {
	target respath.Path
}

func (p *extraFilePlugin) Name() string { return "remap-plugin" }

func (p *extraFilePlugin) Begin(features []string, debug bool, exportPath string, flags map[string]string) error {
	return nil
}

func (p *extraFilePlugin) ExportFile(path respath.Path, resType walker.ResourceType, features []string) plugin.FileResult {
	if path != p.target {
		return plugin.FileResult{}
	}
	return plugin.FileResult{
		Skip: true,
		ExtraFiles: []plugin.ExtraFile{{
			Path:        respath.New("a.txt"),
			Data:        []byte("HELLO"),
			Remap:       true,
			RemapTarget: p.target,
		}},
	}
}

func (p *extraFilePlugin) End() error { return nil }

type remapOnlyPlugin struct {
	target respath.Path
}

func (p *remapOnlyPlugin) Name() string { return "remap-only-plugin" }

func (p *remapOnlyPlugin) Begin(features []string, debug bool, exportPath string, flags map[string]string) error {
	return nil
}

// ExportFile registers a remap extra without setting Skip, mirroring a
// conformant plugin that relies on Remap alone to suppress the source.
func (p *remapOnlyPlugin) ExportFile(path respath.Path, resType walker.ResourceType, features []string) plugin.FileResult {
	if path != p.target {
		return plugin.FileResult{}
	}
	return plugin.FileResult{
		ExtraFiles: []plugin.ExtraFile{{
			Path:        respath.New("a.converted"),
			Data:        []byte("CONVERTED"),
			Remap:       true,
			RemapTarget: p.target,
		}},
	}
}

func (p *remapOnlyPlugin) End() error { return nil }

func TestDriverRunRemapAloneSuppressesOriginal(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "a.txt", "original contents")

	p := preset.New("linux", "linux", root)
	p.ExportFilter = preset.AllResources
	p.SetExportPath(filepath.Join(root, "out.pck"))

	idx := &walker.Index{Resources: map[respath.Path]walker.Info{
		respath.New("a.txt"): {Type: walker.TypeResource},
	}}

	pl := &remapOnlyPlugin{target: respath.New("a.txt")}
	drv := New(p, platform.NewGeneric("linux", nil), idx, nil, false, []plugin.Plugin{pl}, nil)
	sink := &fakeSink{}

	stats, err := drv.Run(sink, nil)
	require.NoError(t, err)
	require.Equal(t, 1, stats.FilesSkipped)

	for _, f := range sink.files {
		require.NotEqual(t, "original contents", f.data, "original body must not be stored when a remap extra is registered")
	}

	var gotConverted, gotStub bool
	for _, f := range sink.files {
		if f.path == "a.converted" {
			gotConverted = true
		}
		if f.path == "a.txt.remap" {
			gotStub = true
		}
	}
	require.True(t, gotConverted, "expected remap target body to be emitted")
	require.True(t, gotStub, "expected .remap stub to be emitted")
}

func TestDriverRunPluginRemapProducesStub(t *testing.T) {
	root := t.TempDir()
	writeProjectFile(t, root, "a.txt", "original contents")

	p := preset.New("linux", "linux", root)
	p.ExportFilter = preset.AllResources
	p.SetExportPath(filepath.Join(root, "out.pck"))

	idx := &walker.Index{Resources: map[respath.Path]walker.Info{
		respath.New("a.txt"): {Type: walker.TypeResource},
	}}

	pl := &extraFilePlugin{target: respath.New("a.txt")}
	drv := New(p, platform.NewGeneric("linux", nil), idx, nil, false, []plugin.Plugin{pl}, nil)
	sink := &fakeSink{}

	stats, err := drv.Run(sink, nil)
	require.NoError(t, err)
	require.Equal(t, 1, stats.FilesSkipped)

	var gotBody, gotStub bool
	for _, f := range sink.files {
		if f.path == "a.txt" {
			gotBody = true
			require.Equal(t, "HELLO", f.data)
		}
		if f.path == "a.txt.remap" {
			gotStub = true
			require.Contains(t, f.data, `path="res://a.txt"`)
		}
	}
	require.True(t, gotBody, "expected remap target body to be emitted")
	require.True(t, gotStub, "expected .remap stub to be emitted")
}
