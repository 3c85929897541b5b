package main

import (
	"github.com/spf13/cobra"

	"lyricsync/internal/app"
	"lyricsync/internal/config"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the desktop media player and broadcast synced lyrics over IPC",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			app.New(cfg).Run()
			return nil
		},
	}
}
