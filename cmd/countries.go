package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ozcodx/marcopolo/internal/dataset"
)

var countriesLimit int

var countriesCmd = &cobra.Command{
	Use:   "countries [query]",
	Short: "Search the country reference list",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := dataset.Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			for _, c := range ds.All() {
				fmt.Fprintf(out, "%s  %-30s %s\n", c.ISO2, c.Name, c.Capital)
			}
			return nil
		}

		matches := ds.Search(args[0], countriesLimit)
		if len(matches) == 0 {
			fmt.Fprintf(out, "no countries match %q\n", args[0])
			return nil
		}
		for _, c := range matches {
			fmt.Fprintf(out, "%s  %-30s %s  (%.4f, %.4f)\n", c.ISO2, c.Name, c.Capital, c.Lat, c.Lng)
		}
		return nil
	},
}

func init() {
	countriesCmd.Flags().IntVar(&countriesLimit, "limit", 20, "max matches")
	rootCmd.AddCommand(countriesCmd)
}
