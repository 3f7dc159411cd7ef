package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var configWidth int

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as JSON",
	RunE:  printConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.Flags().IntVar(&configWidth, "width", 1280, "layout width used to pick the default tuning")
}

func printConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configWidth)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}
