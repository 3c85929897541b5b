package main

import (
	"context"
	"encoding/json"
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
)

func newLookupCmd() *cobra.Command {
	var artist, isrc string
	var limit int

	cmd := &cobra.Command{
		Use:   "lookup <title>",
		Short: "Search every lyric provider for a track and print the scored candidates",
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

			song := lyricmodel.SongInformation{Title: args[0], ISRC: isrc}
			if artist != "" {
				song.Artists = []string{artist}
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			results := agg.Search(ctx, song, limit, func(batch []lyricmodel.LyricCandidate) {
				for _, c := range batch {
					fmt.Fprintf(os.Stderr, "  %-10s score=%3d  %s - %s\n", c.Source, c.Score, c.Artist, c.Title)
				}
			})

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		},
	}

	cmd.Flags().StringVar(&artist, "artist", "", "artist name")
	cmd.Flags().StringVar(&isrc, "isrc", "", "ISRC, used to resolve alternate titles/artists before searching")
	cmd.Flags().IntVar(&limit, "limit", 10, "max candidates per provider")
	return cmd
}
