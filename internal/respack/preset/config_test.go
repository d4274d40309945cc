package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gdpack/internal/respath"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "export_presets.cfg")

	p1 := New("Linux", "linux", dir)
	p1.ExportFilter = SelectedResources
	p1.SelectedFiles[respath.New("res://a.tscn")] = true
	p1.SelectedFiles[respath.New("res://b.tres")] = true
	p1.IncludeFilter = "*.txt"
	p1.EncPCK = true
	p1.EncDirectory = true
	p1.ScriptKeyHex = "ab"
	p1.Options["binary_format/embed_pck"] = "true"
	p1.SetExportPath("build/game.pck")

	p2 := New("Windows", "windows", dir)
	p2.ExportFilter = AllResources

	require.NoError(t, Save(cfgPath, []*Preset{p1, p2}))

	loaded, errs := Load(cfgPath, dir)
	require.Empty(t, errs)
	require.Len(t, loaded, 2)

	require.Equal(t, "Linux", loaded[0].Name)
	require.Equal(t, SelectedResources, loaded[0].ExportFilter)
	require.True(t, loaded[0].SelectedFiles[respath.New("res://a.tscn")])
	require.True(t, loaded[0].SelectedFiles[respath.New("res://b.tres")])
	require.Equal(t, "*.txt", loaded[0].IncludeFilter)
	require.True(t, loaded[0].EncPCK)
	require.True(t, loaded[0].EncDirectory)
	require.Equal(t, "ab", loaded[0].ScriptKeyHex)
	require.Equal(t, "true", loaded[0].Options["binary_format/embed_pck"])
	require.Equal(t, "build/game.pck", loaded[0].ExportPath())

	require.Equal(t, "Windows", loaded[1].Name)
	require.Equal(t, AllResources, loaded[1].ExportFilter)
}

func TestLoadSkipsPresetWithBadExportFilter(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "export_presets.cfg")

	content := "[preset.0]\n\nname=\"Bad\"\nplatform=\"linux\"\nexport_filter=\"not_a_real_filter\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	loaded, errs := Load(cfgPath, dir)
	require.Empty(t, loaded)
	require.Len(t, errs, 1)
}
