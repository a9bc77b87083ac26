// Package cmd holds the platter command line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lmenard/platter/internal/config"
)

var (
	flagConfig  string
	flagVerbose bool

	logger *slog.Logger
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "platter",
		Short: "Gapless album player and library server",
		Long: `platter indexes your music folders and plays whole albums the way
they were sequenced: front to back, gapless, with no shuffling and no
skipping around.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if flagVerbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
	}

	root.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.config/platter/config.toml)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		scanCmd(),
		albumsCmd(),
		playCmd(),
		serveCmd(),
	)
	return root
}

func loadConfig() (*config.Config, error) {
	if flagConfig != "" {
		return config.LoadFile(flagConfig)
	}
	return config.Load()
}
