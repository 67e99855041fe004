package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/ozcodx/marcopolo/internal/geodist"
	"github.com/ozcodx/marcopolo/internal/model"
	"github.com/ozcodx/marcopolo/internal/store"
)

var (
	roundsStatus string
	roundsLimit  int
	exportOut    string
)

var roundsCmd = &cobra.Command{
	Use:   "rounds",
	Short: "List past rounds",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		rounds, err := st.ListRounds(ctx, store.RoundFilter{
			Status: model.RoundStatus(roundsStatus),
			Limit:  roundsLimit,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, r := range rounds {
			target := "(hidden)"
			if r.Status != model.RoundStatusActive {
				target = r.Target.Name
			}
			fmt.Fprintf(out, "%s  %-9s  %-20s  %s\n",
				r.ID, r.Status, target, r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var roundsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export round history to an xlsx workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		rounds, err := st.ListRounds(ctx, store.RoundFilter{Limit: roundsLimit})
		if err != nil {
			return err
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("guesses")
		if err != nil {
			return eris.Wrap(err, "export: add sheet")
		}

		header := sheet.AddRow()
		for _, h := range []string{"round_id", "round_status", "seq", "country", "iso2", "distance_km", "tier", "guessed_at"} {
			header.AddCell().Value = h
		}

		var total int
		for _, r := range rounds {
			full, err := st.GetRound(ctx, r.ID)
			if err != nil {
				return err
			}
			for _, g := range full.Guesses {
				row := sheet.AddRow()
				row.AddCell().Value = full.ID
				row.AddCell().Value = string(full.Status)
				row.AddCell().SetInt(g.Seq)
				row.AddCell().Value = g.Country.Name
				row.AddCell().Value = g.Country.ISO2
				row.AddCell().SetInt(geodist.RoundKm(g.DistanceKm))
				row.AddCell().Value = string(g.Tier)
				row.AddCell().Value = g.GuessedAt.Format("2006-01-02 15:04:05")
				total++
			}
		}

		if err := file.Save(exportOut); err != nil {
			return eris.Wrapf(err, "export: save %s", exportOut)
		}

		zap.L().Info("exported rounds",
			zap.Int("rounds", len(rounds)),
			zap.Int("guesses", total),
			zap.String("file", exportOut),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d guesses from %d rounds to %s\n", total, len(rounds), exportOut)
		return nil
	},
}

func init() {
	roundsCmd.PersistentFlags().IntVar(&roundsLimit, "limit", 100, "max rounds")
	roundsCmd.Flags().StringVar(&roundsStatus, "status", "", "filter by status (active|won|abandoned)")
	roundsExportCmd.Flags().StringVar(&exportOut, "out", "rounds.xlsx", "output file")
	roundsCmd.AddCommand(roundsExportCmd)
	rootCmd.AddCommand(roundsCmd)
}
