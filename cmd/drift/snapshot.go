package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zivucreative/drift"
)

var (
	snapFrames int
	snapDT     float64
	snapOut    string
	snapScript string
	snapWidth  int
	snapHeight int
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Simulate headless and write the final frame as PNG",
	RunE:  runSnapshot,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.Flags().IntVar(&snapFrames, "frames", 600, "frames to simulate")
	snapshotCmd.Flags().Float64Var(&snapDT, "dt", 1.0/60, "seconds per frame")
	snapshotCmd.Flags().StringVarP(&snapOut, "out", "o", "drift.png", "output PNG path")
	snapshotCmd.Flags().StringVar(&snapScript, "script", "", "JSON input script; its screenshots land next to --out")
	snapshotCmd.Flags().IntVar(&snapWidth, "width", 960, "backing width in pixels")
	snapshotCmd.Flags().IntVar(&snapHeight, "height", 540, "backing height in pixels")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(snapWidth)
	if err != nil {
		return err
	}
	app, err := newApp(context.Background(), cfg, snapWidth, snapHeight)
	if err != nil {
		return err
	}
	defer app.Close()
	app.Scene.ScreenshotDir = filepath.Dir(snapOut)

	var runner *drift.TestRunner
	if snapScript != "" {
		runner, err = drift.LoadTestScriptFile(snapScript)
		if err != nil {
			return err
		}
		app.SetTestRunner(runner)
	}

	for i := 0; i < snapFrames || (runner != nil && !runner.Done()); i++ {
		app.Step(snapDT)
		app.Render()
	}
	return app.Scene.SavePNG(snapOut)
}
