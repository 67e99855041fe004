package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ozcodx/marcopolo/internal/game"
	"github.com/ozcodx/marcopolo/internal/geodist"
	"github.com/ozcodx/marcopolo/internal/model"
)

var roundTarget string

var roundCmd = &cobra.Command{
	Use:   "round",
	Short: "Manage persisted rounds",
}

var roundNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new round",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, closeStore, err := initService(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		r, err := svc.StartRound(ctx, roundTarget)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "round %s started\n", r.ID)
		return nil
	},
}

var roundShowCmd = &cobra.Command{
	Use:   "show <round-id>",
	Short: "Show a round's guesses, ranked by proximity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, closeStore, err := initService(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		r, err := svc.GetRound(ctx, args[0])
		if err != nil {
			return err
		}
		ranked, err := svc.Ranked(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "round %s  status=%s  guesses=%d\n", r.ID, r.Status, len(r.Guesses))
		if r.Status != model.RoundStatusActive {
			fmt.Fprintf(out, "target: %s\n", r.Target.Name)
		}
		printRanked(out, ranked)
		return nil
	},
}

var roundGuessCmd = &cobra.Command{
	Use:   "guess <round-id> <country>",
	Short: "Submit a guess to a round",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, closeStore, err := initService(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		g, err := svc.Guess(ctx, args[0], args[1])
		if err != nil {
			if eris.Is(err, game.ErrDuplicateGuess) {
				return eris.Errorf("already guessed %s", args[1])
			}
			return err
		}

		out := cmd.OutOrStdout()
		if g.DistanceKm == 0 {
			fmt.Fprintf(out, "Correct! The country was %s.\n", g.Country.Name)
			return nil
		}
		fmt.Fprintf(out, "%s is %d km away (%s).\n",
			g.Country.Name, geodist.RoundKm(g.DistanceKm), tierLabel(g.Tier))
		return nil
	},
}

var roundAbandonCmd = &cobra.Command{
	Use:   "abandon <round-id>",
	Short: "Give up on a round and reveal the target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		svc, closeStore, err := initService(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		if err := svc.Abandon(ctx, args[0]); err != nil {
			return err
		}
		r, err := svc.GetRound(ctx, args[0])
		if err != nil {
			return err
		}

		zap.L().Info("round abandoned", zap.String("round_id", r.ID))
		fmt.Fprintf(cmd.OutOrStdout(), "The country was %s (capital %s).\n", r.Target.Name, r.Target.Capital)
		return nil
	},
}

func init() {
	roundNewCmd.Flags().StringVar(&roundTarget, "target", "", "fix the target country (default random)")
	roundCmd.AddCommand(roundNewCmd, roundShowCmd, roundGuessCmd, roundAbandonCmd)
	rootCmd.AddCommand(roundCmd)
}
