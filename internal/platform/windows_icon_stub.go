//go:build !windows
// +build !windows

package platform

import (
	"errors"

	"github.com/hashicorp/go-hclog"
)

// WindowsIconPatcher is unavailable on non-Windows builds; PatchIconAndEmbed
// always fails so callers don't need a build tag at the call site.
type WindowsIconPatcher struct {
	Generic
}

// NewWindowsIconPatcher returns a WindowsIconPatcher whose PatchIconAndEmbed
// always errors, since PE resource manipulation is Windows-only.
func NewWindowsIconPatcher(logger hclog.Logger) *WindowsIconPatcher {
	return &WindowsIconPatcher{Generic: Generic{PlatformName: "windows", Logger: logger}}
}

func (w *WindowsIconPatcher) Features() []string {
	return []string{"windows", "pc"}
}

// PatchIconAndEmbed is not available outside a Windows build.
func (w *WindowsIconPatcher) PatchIconAndEmbed(exePath string, iconPNG []byte, pckData []byte) error {
	return errors.New("platform: PE resource embedding is only available on windows builds")
}
