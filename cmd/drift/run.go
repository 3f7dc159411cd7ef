package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/zivucreative/drift"
)

var (
	runWidth      int
	runHeight     int
	runBackground bool
	runFPS        bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open a window and run the effect",
	RunE:  runWindow,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntVar(&runWidth, "width", 1280, "window width")
	runCmd.Flags().IntVar(&runHeight, "height", 720, "window height")
	runCmd.Flags().BoolVar(&runBackground, "background", false, "keep animating while the window is unfocused")
	runCmd.Flags().BoolVar(&runFPS, "fps", false, "show the FPS overlay")
}

func runWindow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(runWidth)
	if err != nil {
		return err
	}
	w, h := drift.BackingSize(runWidth, runHeight, 1, cfg.PixelRatioCap, cfg.RenderScale)
	app, err := newApp(context.Background(), cfg, w, h)
	if err != nil {
		return err
	}
	defer app.Close()

	return drift.Run(app, drift.RunConfig{
		Title:            "drift",
		Width:            runWidth,
		Height:           runHeight,
		RunWhenUnfocused: runBackground,
		ShowFPS:          runFPS || debug,
	})
}
