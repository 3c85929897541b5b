package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"lyricsync/internal/aggregator"
	"lyricsync/internal/config"
	"lyricsync/internal/lyricmodel"
	"lyricsync/internal/providers/lrclib"
	"lyricsync/internal/providers/netease"
	"lyricsync/internal/providers/qqmusic"
	"lyricsync/internal/registry"
	"lyricsync/internal/resolver"
	"lyricsync/internal/selection"
	"lyricsync/internal/store"
)

func newSelectCmd() *cobra.Command {
	var artist string
	var index int

	cmd := &cobra.Command{
		Use:   "select <title>",
		Short: "Load candidates for a track and persist the choice at the given index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			reg := registry.NewClient()
			defer reg.Close()
			res := resolver.New(reg)
			agg := aggregator.New(res,
				netease.NewClient(cfg.Providers.NeteaseCookie),
				qqmusic.NewClient(cfg.Providers.QQMusicCookie),
				lrclib.NewClient(),
			)

			st, err := store.NewMemoryStore(cfg.App.CacheDir + "/selections.store")
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}

			var selOpts []selection.Option
			if textCache, err := store.NewFileStore(cfg.App.CacheDir + "/textcache"); err == nil {
				selOpts = append(selOpts, selection.WithTextCache(textCache))
			}
			ctrl := selection.New(st, agg, selOpts...)
			song := lyricmodel.SongInformation{Title: args[0]}
			if artist != "" {
				song.Artists = []string{artist}
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := ctrl.Load(ctx, song, selection.LoadOptions{}); err != nil {
				return fmt.Errorf("load candidates for %q: %w", args[0], err)
			}

			results := ctrl.LastResults()
			for i, c := range results {
				marker := "  "
				if i == index {
					marker = "->"
				}
				fmt.Fprintf(os.Stderr, "%s [%d] %-10s score=%3d  %s - %s\n", marker, i, c.Source, c.Score, c.Artist, c.Title)
			}

			if err := ctrl.Select(ctx, index, true); err != nil {
				return fmt.Errorf("select candidate %d (have %d): %w", index, len(results), err)
			}
			fmt.Println("selection saved")
			return nil
		},
	}

	cmd.Flags().StringVar(&artist, "artist", "", "artist name")
	cmd.Flags().IntVar(&index, "index", 0, "candidate index to select, see printed list")
	return cmd
}
