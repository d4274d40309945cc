package remap

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-hclog"

	"gdpack/internal/platform"
	"gdpack/internal/respack/preset"
	"gdpack/internal/respath"
)

// Resolution is what the driver needs to know about one candidate path
// after consulting its .import sidecar (if any).
type Resolution struct {
	// HasImport is false when there is no .import sidecar; the driver
	// should hand the path to the plugin pipeline instead.
	HasImport bool

	// Keep is true when the importer is "keep": EmitPaths contains just
	// the original path, stored verbatim.
	Keep bool

	// EmitPaths lists every archive path this resource resolves to: the
	// default remap (if present) and every feature-gated remap whose
	// feature survived platform tie-breaking.
	EmitPaths []respath.Path

	// ImportSidecarPath is the ".import" file itself, always emitted
	// alongside the remap targets when HasImport is true.
	ImportSidecarPath respath.Path
}

// Resolver resolves one project path's remap, given the active feature set
// and the platform's tie-break policy.
type Resolver struct {
	ProjectRoot string
	Platform    platform.Platform
	Logger      hclog.Logger
}

// New returns a Resolver rooted at projectRoot.
func New(projectRoot string, plat platform.Platform, logger hclog.Logger) *Resolver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Resolver{ProjectRoot: projectRoot, Platform: plat, Logger: logger}
}

// Resolve inspects p's ".import" sidecar (p's on-disk path plus ".import")
// and computes the Resolution. If no sidecar exists, HasImport is false
// and the caller should route p to the plugin pipeline.
func (r *Resolver) Resolve(p respath.Path, features *preset.FeatureSet) (Resolution, error) {
	sidecarAbs := r.abs(p) + ".import"
	if _, err := os.Stat(sidecarAbs); err != nil {
		return Resolution{HasImport: false}, nil
	}

	sidecarPath := respath.New(p.Unprefixed() + ".import")

	imp, err := Parse(sidecarAbs)
	if err != nil {
		return Resolution{}, err
	}

	if imp.IsKeep() {
		return Resolution{
			HasImport:         true,
			Keep:              true,
			EmitPaths:         []respath.Path{p},
			ImportSidecarPath: sidecarPath,
		}, nil
	}

	var emit []respath.Path
	if def, ok := imp.DefaultRemap(); ok {
		emit = append(emit, respath.New(def))
	}

	gated := imp.GatedFeatures()
	active := features.Intersect(gated)
	if len(active) > 1 {
		activeSet := make(map[string]bool, len(active))
		for _, tag := range active {
			activeSet[tag] = true
		}
		active = r.Platform.ResolvePlatformFeaturePriorities(activeSet, gated)
	}

	sort.Strings(active)
	for _, tag := range active {
		emit = append(emit, respath.New(imp.Remaps[tag]))
	}

	return Resolution{
		HasImport:         true,
		Keep:              false,
		EmitPaths:         emit,
		ImportSidecarPath: sidecarPath,
	}, nil
}

func (r *Resolver) abs(p respath.Path) string {
	return filepath.Join(r.ProjectRoot, filepath.FromSlash(p.Unprefixed()))
}
