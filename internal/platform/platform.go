// Package platform implements the closed capability interface the design
// notes call for in place of open inheritance: a Platform answers feature
// and export-option questions for one target, and resolves ties when a
// remap offers more than one feature-gated variant.
package platform

import (
	"strings"

	"github.com/hashicorp/go-hclog"

	"gdpack/internal/respack/errs"
)

// Platform is the capability surface the driver and remap resolver borrow
// a Preset's target through. Preset construction binds one Platform for
// the lifetime of a build; the Platform outlives the Preset in that scope.
type Platform interface {
	// Name identifies the platform for logging and metadata.
	Name() string

	// Features returns the platform-derived feature tags contributed to
	// every FeatureSet built for this platform (e.g. OS name, texture
	// compression support).
	Features() []string

	// ResolvePlatformFeaturePriorities is called when a remap offers more
	// than one feature-gated variant and more than one of those features
	// is active. It returns the gated features in active that survive this
	// platform's priority rules; active itself is left unchanged, and the
	// result is not necessarily a single feature.
	ResolvePlatformFeaturePriorities(active map[string]bool, gated []string) []string

	// CanExport reports whether exportPath is a usable destination on this
	// platform, returning diagnostic messages (empty means yes).
	CanExport(exportPath string) []errs.ExportMessage

	// IconSizes lists the icon raster sizes this platform's packaging step
	// wants generated from the project's source icon.
	IconSizes() []int
}

// PEEmbedder is an optional capability a Platform implements when it can
// carry an icon and an embedded PCK payload as PE resources on a Windows
// executable, instead of the plain appended-trailer embed every Platform
// supports. Callers type-assert a Platform against this interface before
// routing an embed to it.
type PEEmbedder interface {
	// PatchIconAndEmbed rewrites exePath's PE resources to carry iconPNG
	// (resized to every size IconSizes reports) and, when pckData is
	// non-empty, pckData itself as an RCDATA resource.
	PatchIconAndEmbed(exePath string, iconPNG []byte, pckData []byte) error
}

// Generic is the default Platform used for ZIP export and any PCK export
// that isn't specifically Windows-executable-embedding. Its tie-break
// policy prefers newer texture compression formats (bptc, astc, etc2) over
// the older s3tc whenever both are gated for the same remap.
type Generic struct {
	PlatformName string
	Logger       hclog.Logger
}

// NewGeneric returns a Generic platform, defaulting to a null logger.
func NewGeneric(name string, logger hclog.Logger) *Generic {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Generic{PlatformName: name, Logger: logger}
}

func (g *Generic) Name() string { return g.PlatformName }

func (g *Generic) Features() []string {
	return []string{strings.ToLower(g.PlatformName)}
}

// texturePriority lists compression formats from most to least preferred;
// the first one found active and gated for this remap wins and every other
// member of the group is dropped from the candidate set. s3tc is the
// fallback both a desktop block-compression format (bptc) and a mobile one
// (etc2) can outrank.
var texturePriority = [][]string{
	{"bptc", "s3tc"},
	{"astc", "etc2", "s3tc"},
}

func (g *Generic) ResolvePlatformFeaturePriorities(active map[string]bool, gated []string) []string {
	gatedSet := make(map[string]bool, len(gated))
	for _, f := range gated {
		gatedSet[f] = true
	}

	drop := map[string]bool{}
	for _, group := range texturePriority {
		var winner string
		for _, tag := range group {
			if active[tag] && gatedSet[tag] {
				winner = tag
				break
			}
		}
		if winner == "" {
			continue
		}
		for _, tag := range group {
			if tag != winner {
				drop[tag] = true
			}
		}
	}

	var resolved []string
	for _, tag := range gated {
		if drop[tag] {
			g.Logger.Debug("dropping remap feature in favor of higher-priority variant", "feature", tag)
			continue
		}
		if active[tag] {
			resolved = append(resolved, tag)
		}
	}
	return resolved
}

func (g *Generic) CanExport(exportPath string) []errs.ExportMessage {
	if strings.TrimSpace(exportPath) == "" {
		return []errs.ExportMessage{{
			Severity: errs.SeverityError,
			Category: "export_path",
			Text:     "export path is empty",
		}}
	}
	return nil
}

func (g *Generic) IconSizes() []int {
	return []int{16, 32, 48, 64, 128, 256}
}
