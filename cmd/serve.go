package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/candidash/internal/dashboard"
	"github.com/KaramelBytes/candidash/internal/render"
	"github.com/KaramelBytes/candidash/internal/server"
)

var (
	srvAddr    string
	srvImages  bool
	srvPreload sourceFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve [file]",
	Short: "Serve the dashboard API, websocket feed and metrics",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		addr := srvAddr
		if addr == "" {
			addr = c.ListenAddr
		}

		var extra []dashboard.Renderer
		if srvImages {
			f, err := render.ParseFormat(c.ImageFormat)
			if err != nil {
				return err
			}
			images, err := render.NewImages(c.OutputDir, f, logger)
			if err != nil {
				return err
			}
			extra = append(extra, images)
		}
		srv := server.New(dashboardConfig(c), server.Options{
			HTTP:         httpOptions(c),
			SheetsAPIKey: c.SheetsAPIKey,
			SheetsRange:  c.SheetsRange,
			LoadRate:     c.LoadRatePerSec,
			LoadBurst:    c.LoadBurst,
		}, logger, extra...)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if len(args) > 0 || srvPreload.url != "" || srvPreload.sheetID != "" {
			if err := preload(ctx, cmd, args, srv.Controller()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: preload failed: %v\n", err)
			}
		} else if _, err := srv.Controller().Clear(ctx); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Serving dashboard on %s\n", addr)
		return srv.ListenAndServe(ctx, addr)
	},
}

func preload(ctx context.Context, cmd *cobra.Command, args []string, ctrl *dashboard.Controller) error {
	src, err := resolveSource(ctx, cmd, args, srvPreload, cfg)
	if err != nil {
		return err
	}
	res, err := ctrl.Load(ctx, src)
	if err != nil {
		return err
	}
	logger.Info("preloaded", zap.String("source", res.Source), zap.Int("rows", res.Rows))
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&srvImages, "images", false, "also write chart images to output_dir on every cycle")
	addSourceFlags(serveCmd, &srvPreload)
}
