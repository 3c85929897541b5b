// Package app wires every component into the desktop watch loop: poll
// the media player, identify the track, drive the SelectionController,
// and broadcast the currently playing line over IPC and to i3blocks.
package app

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"lyricsync/internal/aggregator"
	"lyricsync/internal/config"
	"lyricsync/internal/i3block"
	"lyricsync/internal/identify"
	"lyricsync/internal/ipc"
	"lyricsync/internal/lyricmodel"
	"lyricsync/internal/playback"
	"lyricsync/internal/player"
	"lyricsync/internal/providers/lrclib"
	"lyricsync/internal/providers/netease"
	"lyricsync/internal/providers/qqmusic"
	"lyricsync/internal/registry"
	"lyricsync/internal/resolver"
	"lyricsync/internal/selection"
	"lyricsync/internal/store"
)

const positionPollInterval = 200 * time.Millisecond

// App is the desktop watch loop: poll player -> identify -> select ->
// broadcast current line, repeated at cfg.App.CheckInterval for track
// changes and positionPollInterval for in-track line advancement.
type App struct {
	cfg        *config.Config
	ipcServer  *ipc.Server
	i3         *i3block.Controller
	identifier *identify.Extractor
	selCtrl    *selection.Controller
	reg        *registry.Client

	mu          sync.Mutex
	currentKey  string
	currentLine int
}

// New builds an App from cfg, constructing the registry client, the
// provider fan-out, the persistence store, and the selection controller.
func New(cfg *config.Config) *App {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	reg := registry.NewClient()
	res := resolver.New(reg)
	agg := aggregator.New(res,
		netease.NewClient(cfg.Providers.NeteaseCookie),
		qqmusic.NewClient(cfg.Providers.QQMusicCookie),
		lrclib.NewClient(),
	)

	st := newStore(cfg)
	var selOpts []selection.Option
	if textCache, err := store.NewFileStore(cfg.App.CacheDir + "/textcache"); err == nil {
		selOpts = append(selOpts, selection.WithTextCache(textCache))
	} else {
		log.Warn().Err(err).Msg("text cache unavailable, skipping")
	}
	selCtrl := selection.New(st, agg, selOpts...)

	var identOpts []identify.Option
	if cfg.AI.Enabled {
		if opt := newLLMClient(cfg.AI); opt != nil {
			identOpts = append(identOpts, opt)
		}
	}

	return &App{
		cfg:         cfg,
		ipcServer:   ipc.NewServer(cfg.App.SocketPath),
		i3:          i3block.NewController(),
		identifier:  identify.New(identOpts...),
		selCtrl:     selCtrl,
		reg:         reg,
		currentLine: -2,
	}
}

func newLLMClient(cfg config.AIConfig) identify.Option {
	if cfg.APIKey == "" {
		return nil
	}
	switch cfg.ModuleName {
	case "openai":
		return identify.WithLLM(identify.NewOpenAIClient(cfg.APIKey, "", cfg.BaseURL))
	default:
		client, err := identify.NewGeminiClient(cfg.APIKey, "")
		if err != nil {
			log.Warn().Err(err).Msg("gemini client unavailable, LLM extraction disabled")
			return nil
		}
		return identify.WithLLM(client)
	}
}

func newStore(cfg *config.Config) store.Store {
	if cfg.Redis.Addr != "" {
		rdb, err := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err == nil {
			return rdb
		}
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, falling back to file store")
	}

	path := cfg.App.CacheDir + "/selections.store"
	mem, err := store.NewMemoryStore(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("failed to open file store")
	}
	return mem
}

// Run starts the IPC server and the player poll loop. It blocks until
// the process is killed.
func (a *App) Run() {
	if err := os.MkdirAll(a.cfg.App.CacheDir, 0755); err != nil {
		log.Fatal().Err(err).Str("cache_dir", a.cfg.App.CacheDir).Msg("Failed to create cache directory")
	}
	if err := a.ipcServer.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start IPC server")
	}
	defer a.ipcServer.Close()
	defer a.reg.Close()

	songTicker := time.NewTicker(a.cfg.App.CheckInterval)
	defer songTicker.Stop()
	positionTicker := time.NewTicker(positionPollInterval)
	defer positionTicker.Stop()

	log.Info().Msg("Starting player watch loop")
	a.checkSong()
	for {
		select {
		case <-songTicker.C:
			a.checkSong()
		case <-positionTicker.C:
			a.publishPosition()
		}
	}
}

func (a *App) checkSong() {
	song, err := player.GetCurrentSong()
	if err != nil || song.Title == "" {
		a.ipcServer.Broadcast(ipc.Message{NoMusic: true})
		return
	}

	song.SourceID = uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Some players (browser tabs via MPRIS) report only a title like
	// "Artist - Track" with no separate artist field; resolve that case
	// before searching providers.
	if song.PrimaryArtist() == "" {
		if identified, ok, err := a.identifier.Extract(ctx, song.Title); err == nil && ok {
			song.Title = identified.Title
			song.Artists = identified.Artists
		}
	}

	key := song.Title + "|" + song.PrimaryArtist()
	a.mu.Lock()
	if key == a.currentKey {
		a.mu.Unlock()
		return
	}
	a.currentKey = key
	a.currentLine = -2
	a.mu.Unlock()

	log.Info().Str("title", song.Title).Str("artist", song.PrimaryArtist()).Str("source_id", song.SourceID).Msg("new song detected")
	a.ipcServer.Broadcast(ipc.Message{Searching: true})

	if err := a.selCtrl.Load(ctx, song, selection.LoadOptions{}); err != nil {
		log.Warn().Err(err).Str("title", song.Title).Msg("no lyrics found")
		a.ipcServer.Broadcast(ipc.Message{Line: "No lyrics found"})
	}
}

func (a *App) publishPosition() {
	data := a.selCtrl.CurrentLyrics()
	if len(data.Lines) == 0 {
		return
	}

	positionMs := player.GetCurrentPositionMs()
	idx := playback.FindLineIndex(data.Lines, positionMs)

	a.mu.Lock()
	changed := idx != a.currentLine
	a.currentLine = idx
	a.mu.Unlock()

	if idx < 0 {
		return
	}

	var next *lyricmodel.LyricLine
	if idx+1 < len(data.Lines) {
		next = &data.Lines[idx+1]
	}
	progress := playback.LineProgress(data.Lines[idx], next, positionMs)

	a.ipcServer.Broadcast(ipc.Message{
		Line:     data.Lines[idx].Text,
		Progress: progress,
		Source:   data.Metadata["source"],
	})

	if changed {
		if err := a.i3.Notify(); err != nil {
			log.Debug().Err(err).Msg("i3blocks notify failed")
		}
	}
}
