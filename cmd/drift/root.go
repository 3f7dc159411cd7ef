package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	"github.com/zivucreative/drift"
)

var (
	configPath string
	mediaDir   string
	seed       uint64
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:          "drift",
	Short:        "Drifting squircle particles with photos in the overlaps",
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "JSON config file (defaults are used when empty)")
	rootCmd.PersistentFlags().StringVarP(&mediaDir, "media", "m", "", "directory of images to show in the overlaps")
	rootCmd.PersistentFlags().Uint64Var(&seed, "seed", 0, "random seed, 0 picks one")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "log per-frame render stats")
}

// loadConfig returns the config file's settings, or the defaults for a
// layout of the given width.
func loadConfig(width int) (*drift.Config, error) {
	if configPath == "" {
		return drift.DefaultConfigForWidth(width), nil
	}
	return drift.LoadConfig(configPath)
}

// newApp builds, loads, and starts an app with a w x h backing store.
func newApp(ctx context.Context, cfg *drift.Config, w, h int) (*drift.App, error) {
	var rng *rand.Rand
	if seed != 0 {
		rng = drift.NewRand(seed)
	}
	app, err := drift.NewApp(cfg, drift.AppOptions{Rand: rng, Width: w, Height: h})
	if err != nil {
		return nil, err
	}
	app.Scene.SetDebugMode(debug)

	dir := mediaDir
	if dir == "" {
		dir = cfg.MediaDir
	}
	if dir != "" {
		if err := app.LoadMedia(ctx, os.DirFS(dir)); err != nil {
			return nil, fmt.Errorf("media %s: %w", dir, err)
		}
		if cfg.WatchMedia {
			if err := app.WatchMedia(dir); err != nil {
				return nil, err
			}
		}
	}

	app.Start()
	return app, nil
}
