package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lmenard/platter/internal/library"
	"github.com/lmenard/platter/internal/mpris"
	"github.com/lmenard/platter/internal/playback"
	"github.com/lmenard/platter/internal/scrobble"
	"github.com/lmenard/platter/internal/source"
)

func playCmd() *cobra.Command {
	var from int

	cmd := &cobra.Command{
		Use:   "play <album-id>",
		Short: "Play an album front to back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			lib, err := library.Open(logger)
			if err != nil {
				return err
			}
			defer lib.Close()

			album, err := lib.AlbumByID(args[0])
			if err != nil {
				return err
			}
			if album.IsEmpty() {
				return fmt.Errorf("album %s - %s has no tracks", album.Artist, album.Title)
			}

			loader := source.NewLoader(logger, nil)
			loader.SetSpeakerBuffer(cfg.SpeakerBuffer())
			ctrl := playback.New(loader, playback.NewBroadcaster(), logger)

			// finished flips when a session that produced a track winds
			// down to the cleared state.
			finished := make(chan struct{})
			var sawTrack, closedOnce atomic.Bool
			sub := ctrl.Subscribe(playback.ObserverFunc(func(st playback.State) {
				if st.Track != nil {
					sawTrack.Store(true)
					printState(st)
					return
				}
				if sawTrack.Load() && closedOnce.CompareAndSwap(false, true) {
					close(finished)
				}
			}))
			defer sub.Cancel()

			adapter, err := mpris.New(ctrl)
			if err != nil {
				logger.Warn("mpris unavailable", "error", err)
			} else {
				defer adapter.Close()
			}

			if cfg.HasLastfm() {
				client := scrobble.NewClient(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret, cfg.Lastfm.SessionKey)
				scrobbler := scrobble.New(client, logger)
				scrobSub := ctrl.Subscribe(scrobbler)
				defer func() {
					scrobSub.Cancel()
					scrobbler.Close()
				}()
			}

			fmt.Printf("playing %s - %s (%d tracks)\n", album.Artist, album.Title, len(album.Tracks))
			ctrl.PlayAlbum(*album, from)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			select {
			case <-finished:
				fmt.Println("\ndone")
			case <-sigCh:
				fmt.Println("\nstopping")
				ctrl.Stop()
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&from, "from", 0, "start at this track index (0-based)")
	return cmd
}

func printState(st playback.State) {
	verb := "paused"
	if st.Playing {
		verb = "playing"
	}
	fmt.Printf("\r%s  %2d. %s  [%s / %s]   ",
		verb, st.Track.Number, st.Track.Title,
		formatDuration(st.Position), formatDuration(st.Duration))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
