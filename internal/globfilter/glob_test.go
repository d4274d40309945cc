package globfilter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"gdpack/internal/respath"
)

func TestMatchWildcardsAndClasses(t *testing.T) {
	require.True(t, Match("*.png", "res://art/hero.png"))
	require.True(t, Match("*.PNG", "res://art/hero.png"))
	require.False(t, Match("*.png", "res://art/hero.txt"))
	require.True(t, Match("hero.???", "hero.png"))
	require.True(t, Match("hero.[pP][nN][gG]", "hero.PNG"))
	require.True(t, Match("hero.[!x]ng", "hero.pnG"))
	require.False(t, Match("hero.[!p]ng", "hero.png"))
}

func TestMatchesAnyBothForms(t *testing.T) {
	require.True(t, MatchesAny("foo.txt", "res://foo.txt", "foo.txt"))
	require.True(t, MatchesAny("res://foo.txt", "res://foo.txt", "foo.txt"))
}

func TestApplyToSetIncludeExclude(t *testing.T) {
	base := PathSet{respath.New("a.txt"): true, respath.New("b.secret"): true}

	included := ApplyToSet(base, "*.secret", false)
	require.True(t, included[respath.New("b.secret")])

	excluded := ApplyToSet(base, "*.secret", true)
	require.False(t, excluded[respath.New("b.secret")])
	require.True(t, excluded[respath.New("a.txt")])
}

func TestApplyWalksProjectTree(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "icon.ico"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".godot"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".godot", "cache.bin"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "other.ico"), []byte("x"), 0o644))

	out, err := Apply(PathSet{}, dir, "*.ico", false, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.True(t, out[respath.New("icon.ico")])
	require.True(t, out[respath.New("sub/other.ico")])
}

func TestApplyEmptyListIsNoOp(t *testing.T) {
	base := PathSet{respath.New("a.txt"): true}
	out, err := Apply(base, t.TempDir(), "", false, nil)
	require.NoError(t, err)
	require.Equal(t, base, out)
}
