package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"gdpack/internal/logging"
	"gdpack/internal/pckformat"
	"gdpack/internal/platform"
	"gdpack/internal/respack/preset"
	"gdpack/internal/respath"
	"gdpack/pkg/gdpack"
)

// resolvePlatform maps a --target tag to the Platform that answers its
// feature and tie-break questions. Only "windows" gets PE-embedding
// capability; every other target is a Generic.
func resolvePlatform(target string, logger hclog.Logger) platform.Platform {
	if target == "windows" {
		return platform.NewWindowsIconPatcher(logger)
	}
	return platform.NewGeneric(target, logger)
}

func newPackCmd() *cobra.Command {
	var (
		projectRoot  string
		exportPath   string
		filterName   string
		selected     []string
		includeGlob  string
		excludeGlob  string
		customFeat   string
		encPCK       bool
		encDirectory bool
		encInGlob    string
		encExGlob    string
		scriptKey    string
		embed        bool
		is32Bit      bool
		target       string
		reportPath   string
		iconPath     string
		splashPath   string
		extensions   []string
		emitUIDCache bool
		emitProjBin  bool
		legacyRemap  bool
	)

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Export a project as a PCK archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New("gdpack", logging.LevelFromEnv(), os.Stderr)

			filter, err := preset.ParseExportFilter(filterName)
			if err != nil {
				return err
			}

			p := preset.New("cli", target, projectRoot)
			p.ExportFilter = filter
			for _, s := range selected {
				p.SelectedFiles[respath.New(s)] = true
			}
			p.IncludeFilter = includeGlob
			p.ExcludeFilter = excludeGlob
			p.CustomFeatures = customFeat
			p.EncPCK = encPCK
			p.EncDirectory = encDirectory
			p.EncInFilter = encInGlob
			p.EncExFilter = encExGlob
			p.ScriptKeyHex = scriptKey
			p.SetExportPath(exportPath)
			if iconPath != "" {
				p.IconPath = respath.New(iconPath)
			}
			if splashPath != "" {
				p.BootSplashPath = respath.New(splashPath)
			}
			for _, e := range extensions {
				p.NativeExtensions = append(p.NativeExtensions, respath.New(e))
			}
			p.EmitUIDCache = emitUIDCache
			p.EmitProjectBinary = emitProjBin
			p.LegacyPathRemap = legacyRemap

			if err := p.Validate(); err != nil {
				errColor.Fprintln(os.Stderr, err)
				return err
			}

			result, err := gdpack.ExportPack(gdpack.Options{
				Preset:          p,
				Platform:        resolvePlatform(target, logger),
				Engine:          pckformat.EngineVersion{Major: 4},
				Embed:           embed,
				Is32Bit:         is32Bit,
				Logger:          logger,
				BuildReportPath: reportPath,
			})
			if err != nil {
				errColor.Fprintln(os.Stderr, err)
				return err
			}

			successColor.Fprintf(os.Stdout, "wrote %s\n", p.AbsExportPath())
			fmt.Printf("files: %d written, %d skipped, %d bytes\n",
				result.Stats.FilesWritten, result.Stats.FilesSkipped, result.Stats.BytesWritten)
			for _, m := range result.Stats.Messages {
				warnColor.Fprintf(os.Stdout, "%s: %s: %s\n", m.Severity, m.Category, m.Text)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectRoot, "project", "p", ".", "Project root directory")
	cmd.Flags().StringVarP(&exportPath, "output", "o", "", "Output PCK path (required)")
	cmd.Flags().StringVar(&filterName, "filter", "all_resources", "Export filter: all_resources, selected_scenes, selected_resources, exclude_selected_resources")
	cmd.Flags().StringSliceVar(&selected, "select", nil, "res:// paths for selected_* filters")
	cmd.Flags().StringVar(&includeGlob, "include", "", "Comma-separated include glob list")
	cmd.Flags().StringVar(&excludeGlob, "exclude", "", "Comma-separated exclude glob list")
	cmd.Flags().StringVar(&customFeat, "features", "", "Comma-separated custom feature tags")
	cmd.Flags().BoolVar(&encPCK, "encrypt", false, "AES-256 encrypt matched file bodies")
	cmd.Flags().BoolVar(&encDirectory, "encrypt-directory", false, "AES-256 encrypt the directory block (requires --encrypt)")
	cmd.Flags().StringVar(&encInGlob, "encrypt-include", "", "Comma-separated glob list of bodies to encrypt")
	cmd.Flags().StringVar(&encExGlob, "encrypt-exclude", "", "Comma-separated glob list of bodies to exempt from encryption")
	cmd.Flags().StringVar(&scriptKey, "key", "", "64-hex-character AES-256 key")
	cmd.Flags().BoolVar(&embed, "embed", false, "Append the PCK to the existing file at --output instead of truncating it (or, on a windows target with --icon set, patch it in as a PE resource)")
	cmd.Flags().BoolVar(&is32Bit, "32bit", false, "Target is a 32-bit host; reject an --embed whose PCK would exceed what it can address")
	cmd.Flags().StringVar(&target, "target", "linux", "Export platform: linux, windows, macos, or any other tag Features() should carry")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write a bzip2-compressed JSON build report to this path")
	cmd.Flags().StringVar(&iconPath, "icon", "", "res:// path to a project icon image to embed verbatim")
	cmd.Flags().StringVar(&splashPath, "boot-splash", "", "res:// path to a boot splash image to embed verbatim")
	cmd.Flags().StringSliceVar(&extensions, "extension", nil, "res:// path to a native-extension config file (repeatable)")
	cmd.Flags().BoolVar(&emitUIDCache, "emit-uid-cache", false, "Synthesize and emit the resource UID cache")
	cmd.Flags().BoolVar(&emitProjBin, "emit-project-binary", false, "Synthesize and emit the project.binary settings overlay")
	cmd.Flags().BoolVar(&legacyRemap, "legacy-path-remap", false, "Use project.binary path_remap/remapped_paths instead of .remap stubs")

	if err := cmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}

	return cmd
}
