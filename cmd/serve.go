package cmd

import (
	"github.com/spf13/cobra"

	"github.com/lmenard/platter/internal/library"
	"github.com/lmenard/platter/internal/server"
)

func serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the library over HTTP",
		Long: `Serve album listings as JSON and raw track audio with byte-range
support, so another platter instance can play this library remotely.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if listen == "" {
				listen = cfg.Server.Listen
			}

			lib, err := library.Open(logger)
			if err != nil {
				return err
			}
			defer lib.Close()

			return server.New(lib, logger).ListenAndServe(listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}
