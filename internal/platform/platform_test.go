package platform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolvePlatformFeaturePrioritiesBPTCBeatsS3TC(t *testing.T) {
	g := NewGeneric("windows", nil)
	active := map[string]bool{"etc2": true, "s3tc": true, "bptc": true}
	gated := []string{"etc2", "s3tc", "bptc"}

	resolved := g.ResolvePlatformFeaturePriorities(active, gated)
	require.ElementsMatch(t, []string{"etc2", "bptc"}, resolved)
}

func TestResolvePlatformFeaturePrioritiesNoConflict(t *testing.T) {
	g := NewGeneric("windows", nil)
	active := map[string]bool{"etc2": true}
	gated := []string{"etc2"}

	resolved := g.ResolvePlatformFeaturePriorities(active, gated)
	require.Equal(t, []string{"etc2"}, resolved)
}

func TestGenericCanExportRequiresExportPath(t *testing.T) {
	g := NewGeneric("linux", nil)
	require.Empty(t, g.CanExport("res://out/game.pck"))
	require.NotEmpty(t, g.CanExport(""))
}
