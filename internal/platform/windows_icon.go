//go:build windows
// +build windows

package platform

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/nfnt/resize"
	"github.com/tc-hib/winres"
	_ "golang.org/x/image/bmp"
	"golang.org/x/sys/windows"

	"gdpack/internal/respack/errs"
)

// pckResourceName and pckResourceLang identify the RCDATA resource under
// which an embedded PCK lives when it's carried as a PE resource instead of
// an appended trailer.
// Appending still works on Windows for console tools; resource embedding
// exists for launchers sensitive to appended data.
const (
	pckResourceName = "GDPACK"
	pckResourceLang = 0x0409 // en-US
)

// WindowsIconPatcher adapts a source PNG icon into every size Explorer
// expects and rewrites a Windows PE executable's resources to carry both
// that icon and (optionally) an embedded PCK payload, in place of
// appending the PCK to EOF.
type WindowsIconPatcher struct {
	Generic
}

// NewWindowsIconPatcher returns a WindowsIconPatcher wrapping Generic's
// feature/tie-break behavior.
func NewWindowsIconPatcher(logger hclog.Logger) *WindowsIconPatcher {
	return &WindowsIconPatcher{Generic: Generic{PlatformName: "windows", Logger: logger}}
}

func (w *WindowsIconPatcher) Features() []string {
	return []string{"windows", "pc"}
}

// PatchIconAndEmbed resizes iconPNG to every size in IconSizes, then
// rewrites exePath's PE resources to carry the resulting icon group and,
// if pckData is non-empty, the PCK itself as an RCDATA resource.
func (w *WindowsIconPatcher) PatchIconAndEmbed(exePath string, iconPNG []byte, pckData []byte) error {
	rs, err := loadOrCreateResourceSet(exePath)
	if err != nil {
		return err
	}

	if len(iconPNG) > 0 {
		// source icons arrive as PNG or, from older BMP-only export presets, BMP
		img, _, err := image.Decode(bytes.NewReader(iconPNG))
		if err != nil {
			return fmt.Errorf("decode source icon: %w", err)
		}

		resized := make([]image.Image, 0, len(w.IconSizes()))
		for _, size := range w.IconSizes() {
			resized = append(resized, resize.Resize(uint(size), uint(size), img, resize.Lanczos3))
		}

		icon, err := winres.NewIconFromResizedImage(resized[len(resized)-1], w.IconSizes())
		if err != nil {
			return fmt.Errorf("build icon group: %w", err)
		}
		if err := rs.SetIcon(winres.Name("MAINICON"), icon); err != nil {
			return fmt.Errorf("set icon resource: %w", err)
		}
	}

	if len(pckData) > 0 {
		if err := rs.Set(winres.RT_RCDATA, winres.Name(pckResourceName), pckResourceLang, pckData); err != nil {
			return fmt.Errorf("set pck resource: %w", err)
		}
	}

	return writeResourceSet(exePath, rs)
}

func loadOrCreateResourceSet(exePath string) (*winres.ResourceSet, error) {
	in, err := os.Open(exePath)
	if err != nil {
		return nil, fmt.Errorf("open exe: %w", err)
	}
	defer in.Close()

	rs, err := winres.LoadFromEXE(in)
	if err != nil {
		return &winres.ResourceSet{}, nil
	}
	return rs, nil
}

func writeResourceSet(exePath string, rs *winres.ResourceSet) error {
	in, err := os.Open(exePath)
	if err != nil {
		return fmt.Errorf("open exe for resource write: %w", err)
	}

	tmpPath := exePath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		in.Close()
		return fmt.Errorf("create temp exe: %w", err)
	}

	if err := rs.WriteToEXE(out, in); err != nil {
		out.Close()
		in.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write resources: %w", err)
	}
	if err := out.Close(); err != nil {
		in.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("close temp exe: %w", err)
	}
	if err := in.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close source exe: %w", err)
	}

	return atomicReplaceWindows(tmpPath, exePath)
}

// atomicReplaceWindows uses MoveFileEx with retry logic to survive
// transient Windows file locks (antivirus scanners, indexers) the way a
// plain os.Rename would flake on.
func atomicReplaceWindows(sourcePath, destPath string) error {
	fromPtr, err := windows.UTF16PtrFromString(sourcePath)
	if err != nil {
		return fmt.Errorf("convert source path: %w", err)
	}
	toPtr, err := windows.UTF16PtrFromString(destPath)
	if err != nil {
		return fmt.Errorf("convert dest path: %w", err)
	}

	flags := uint32(windows.MOVEFILE_REPLACE_EXISTING | windows.MOVEFILE_WRITE_THROUGH)
	delay := 50 * time.Millisecond
	const maxAttempts = 3

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := windows.MoveFileEx(fromPtr, toPtr, flags); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(delay)
		delay *= 2
	}
	return fmt.Errorf("replace exe after %d attempts: %w", maxAttempts, lastErr)
}

// CanExport additionally requires a real executable target for embedding.
func (w *WindowsIconPatcher) CanExport(exportPath string) []errs.ExportMessage {
	msgs := w.Generic.CanExport(exportPath)
	if len(exportPath) < 4 || exportPath[len(exportPath)-4:] != ".exe" {
		msgs = append(msgs, errs.ExportMessage{
			Severity: errs.SeverityWarning,
			Category: "embed",
			Text:     "export path does not end in .exe",
		})
	}
	return msgs
}
