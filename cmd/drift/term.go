package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/zivucreative/drift"
	"github.com/zivucreative/drift/term"
)

var (
	termFPS int
	termLog string
)

var termCmd = &cobra.Command{
	Use:   "term",
	Short: "Run the effect in the terminal with half-block cells",
	RunE:  runTerm,
}

func init() {
	rootCmd.AddCommand(termCmd)

	termCmd.Flags().IntVar(&termFPS, "fps", 30, "frames per second")
	termCmd.Flags().StringVar(&termLog, "log", "", "write log lines to this file instead of discarding them")
}

func runTerm(cmd *cobra.Command, args []string) error {
	// Anything written to stderr would tear the screen.
	drift.LogOutput = io.Discard
	if termLog != "" {
		f, err := os.Create(termLog)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		drift.LogOutput = f
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cols, rows := screen.Size()
	cfg, err := loadConfig(cols * 8)
	if err != nil {
		return err
	}
	// Terminal cells are far too coarse to downsample further.
	cfg.RenderScale = 1
	app, err := newApp(ctx, cfg, cols, rows*2)
	if err != nil {
		return err
	}
	defer app.Close()

	p := term.New(screen, app)
	if err := p.Run(ctx, termFPS); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
