package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/candidash/internal/dashboard"
	"github.com/KaramelBytes/candidash/internal/render"
)

var (
	rndOutDir string
	rndFormat string
	rndSource sourceFlags
	rndFilter filterFlags
)

var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Write one chart image per dashboard panel",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		dir := rndOutDir
		if dir == "" {
			dir = c.OutputDir
		}
		format := rndFormat
		if format == "" {
			format = c.ImageFormat
		}
		f, err := render.ParseFormat(format)
		if err != nil {
			return err
		}
		images, err := render.NewImages(dir, f, logger)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		src, err := resolveSource(ctx, cmd, args, rndSource, c)
		if err != nil {
			return err
		}
		ctrl := dashboard.NewController(images, warnNotifier(cmd.ErrOrStderr()), dashboardConfig(c), logger)
		res, err := loadAndFilter(ctx, cmd, ctrl, src, rndFilter)
		if err != nil {
			return err
		}
		files := images.Files()
		paths := make([]string, 0, len(files))
		for _, p := range files {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Rendered %d charts for %d of %d rows into %s\n", len(paths), res.Matched, res.Rows, dir)
		return ctrl.Dispose()
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVar(&rndOutDir, "out", "", "output directory (default from config)")
	renderCmd.Flags().StringVar(&rndFormat, "format", "", "image format: png|svg (default from config)")
	addSourceFlags(renderCmd, &rndSource)
	addFilterFlags(renderCmd, &rndFilter)
}
