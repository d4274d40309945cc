package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gdpack/internal/logging"
	"gdpack/internal/platform"
	"gdpack/internal/respack/preset"
	"gdpack/internal/respath"
	"gdpack/pkg/gdpack"
)

func newZipCmd() *cobra.Command {
	var (
		projectRoot string
		exportPath  string
		filterName  string
		selected    []string
		includeGlob string
		excludeGlob string
		customFeat  string
	)

	cmd := &cobra.Command{
		Use:   "zip",
		Short: "Export a project as a standard ZIP archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New("gdpack", logging.LevelFromEnv(), os.Stderr)

			filter, err := preset.ParseExportFilter(filterName)
			if err != nil {
				return err
			}

			p := preset.New("cli", "linux", projectRoot)
			p.ExportFilter = filter
			for _, s := range selected {
				p.SelectedFiles[respath.New(s)] = true
			}
			p.IncludeFilter = includeGlob
			p.ExcludeFilter = excludeGlob
			p.CustomFeatures = customFeat
			p.SetExportPath(exportPath)

			result, err := gdpack.ExportZip(gdpack.Options{
				Preset:   p,
				Platform: platform.NewGeneric("linux", logger),
				Logger:   logger,
			})
			if err != nil {
				errColor.Fprintln(os.Stderr, err)
				return err
			}

			successColor.Fprintf(os.Stdout, "wrote %s\n", p.AbsExportPath())
			fmt.Printf("files: %d written, %d skipped\n", result.Stats.FilesWritten, result.Stats.FilesSkipped)
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectRoot, "project", "p", ".", "Project root directory")
	cmd.Flags().StringVarP(&exportPath, "output", "o", "", "Output ZIP path (required)")
	cmd.Flags().StringVar(&filterName, "filter", "all_resources", "Export filter: all_resources, selected_scenes, selected_resources, exclude_selected_resources")
	cmd.Flags().StringSliceVar(&selected, "select", nil, "res:// paths for selected_* filters")
	cmd.Flags().StringVar(&includeGlob, "include", "", "Comma-separated include glob list")
	cmd.Flags().StringVar(&excludeGlob, "exclude", "", "Comma-separated exclude glob list")
	cmd.Flags().StringVar(&customFeat, "features", "", "Comma-separated custom feature tags")

	if err := cmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}

	return cmd
}
