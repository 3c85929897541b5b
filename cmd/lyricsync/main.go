// Command lyricsync locates, scores, and plays back time-coded lyrics.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lyricsync",
		Short: "Locate, score, and play back time-coded lyrics",
	}
	root.AddCommand(newLookupCmd(), newWatchCmd(), newSelectCmd())
	return root
}
