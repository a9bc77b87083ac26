package cmd

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lmenard/platter/internal/library"
)

func scanCmd() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Index the configured music folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if len(cfg.LibrarySources) == 0 {
				return errors.New("no library_sources configured")
			}

			lib, err := library.Open(logger)
			if err != nil {
				return err
			}
			defer lib.Close()

			progress := make(chan library.ScanProgress, 16)
			go func() {
				for p := range progress {
					switch p.Phase {
					case library.PhaseScanning:
						fmt.Printf("\rscanning... %s files", humanize.Comma(int64(p.Current)))
					case library.PhaseProcessing:
						fmt.Printf("\rreading tags... %s/%s",
							humanize.Comma(int64(p.Current)), humanize.Comma(int64(p.Total)))
					}
				}
			}()

			var stats *library.ScanStats
			if full {
				stats, err = lib.FullRefresh(cfg.LibrarySources, progress)
			} else {
				stats, err = lib.Refresh(cfg.LibrarySources, progress)
			}
			if err != nil {
				return err
			}

			fmt.Printf("\r%s files (%s): %d added, %d updated, %d removed\n",
				humanize.Comma(int64(stats.Found)),
				humanize.Bytes(uint64(stats.Bytes)),
				stats.Added, stats.Updated, stats.Removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&full, "full", false, "rescan every file, ignoring modification times")
	return cmd
}
