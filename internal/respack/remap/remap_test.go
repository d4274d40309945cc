package remap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gdpack/internal/platform"
	"gdpack/internal/respack/preset"
	"gdpack/internal/respath"
)

func writeImport(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestResolveNoSidecarRoutesToPlugins(t *testing.T) {
	dir := t.TempDir()
	r := New(dir, platform.NewGeneric("linux", nil), nil)
	res, err := r.Resolve(respath.New("a.txt"), preset.BuildFeatureSet(nil, false, ""))
	require.NoError(t, err)
	require.False(t, res.HasImport)
}

func TestResolveKeepImporter(t *testing.T) {
	dir := t.TempDir()
	writeImport(t, dir, "a.wav.import", "[remap]\n\nimporter=\"keep\"\n")
	r := New(dir, platform.NewGeneric("linux", nil), nil)
	res, err := r.Resolve(respath.New("a.wav"), preset.BuildFeatureSet(nil, false, ""))
	require.NoError(t, err)
	require.True(t, res.HasImport)
	require.True(t, res.Keep)
	require.Equal(t, []respath.Path{respath.New("a.wav")}, res.EmitPaths)
	require.Equal(t, respath.New("a.wav.import"), res.ImportSidecarPath)
}

func TestResolveFeatureTieBreak(t *testing.T) {
	dir := t.TempDir()
	writeImport(t, dir, "a.png.import", `[remap]

importer="texture"
path.etc2="res://.import/a.etc2"
path.s3tc="res://.import/a.s3tc"
`)
	r := New(dir, platform.NewGeneric("linux", nil), nil)
	features := preset.BuildFeatureSet([]string{"etc2", "s3tc", "bptc"}, false, "")
	res, err := r.Resolve(respath.New("a.png"), features)
	require.NoError(t, err)
	require.False(t, res.Keep)
	require.Contains(t, res.EmitPaths, respath.New("res://.import/a.etc2"))
	require.NotContains(t, res.EmitPaths, respath.New("res://.import/a.s3tc"))
}

func TestResolveDefaultAndSingleFeatureBothEmitted(t *testing.T) {
	dir := t.TempDir()
	writeImport(t, dir, "a.tres.import", `[remap]

importer="resource"
path="res://.import/a.default"
path.mobile="res://.import/a.mobile"
`)
	r := New(dir, platform.NewGeneric("linux", nil), nil)
	features := preset.BuildFeatureSet([]string{"mobile"}, false, "")
	res, err := r.Resolve(respath.New("a.tres"), features)
	require.NoError(t, err)
	require.ElementsMatch(t, []respath.Path{
		respath.New("res://.import/a.default"),
		respath.New("res://.import/a.mobile"),
	}, res.EmitPaths)
}
