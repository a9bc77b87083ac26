package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lmenard/platter/internal/library"
)

func albumsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "albums",
		Short: "List the indexed albums",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := library.Open(logger)
			if err != nil {
				return err
			}
			defer lib.Close()

			albums, err := lib.Albums()
			if err != nil {
				return err
			}
			if len(albums) == 0 {
				fmt.Println("library is empty, run `platter scan` first")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tARTIST\tALBUM\tYEAR\tTRACKS")
			for _, a := range albums {
				year := ""
				if a.Year > 0 {
					year = fmt.Sprintf("%d", a.Year)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", a.ID, a.Artist, a.Title, year, len(a.Tracks))
			}
			return w.Flush()
		},
	}
}
