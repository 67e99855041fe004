package main

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/ozcodx/marcopolo/internal/dataset"
	"github.com/ozcodx/marcopolo/internal/game"
	"github.com/ozcodx/marcopolo/internal/geodist"
	"github.com/ozcodx/marcopolo/internal/model"
)

var playTarget string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a round in the terminal",
	Long:  "Starts an interactive round: type country names, get distance and tier feedback, ranked closest-first after each guess. Type 'quit' to give up.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := dataset.Load()
		if err != nil {
			return err
		}

		var target model.Country
		if playTarget != "" {
			target, err = ds.Resolve(playTarget)
			if err != nil {
				return err
			}
		} else {
			target = ds.Random(rand.New(rand.NewSource(time.Now().UnixNano())))
		}

		ledger := game.NewLedger(target)
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "A country has been chosen. Guess it!")

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				break
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}
			if strings.EqualFold(input, "quit") {
				fmt.Fprintf(out, "The country was %s (capital %s).\n", target.Name, target.Capital)
				return nil
			}

			candidate, err := ds.Resolve(input)
			if err != nil {
				if eris.Is(err, dataset.ErrNotFound) {
					suggestGuess(out, ds, input)
					continue
				}
				return err
			}

			g, err := ledger.Submit(candidate)
			if err != nil {
				if eris.Is(err, game.ErrDuplicateGuess) {
					fmt.Fprintf(out, "You already guessed %s.\n", candidate.Name)
					continue
				}
				return err
			}

			if ledger.Won() {
				fmt.Fprintf(out, "Correct! %s in %d guesses.\n", target.Name, ledger.Len())
				return nil
			}

			fmt.Fprintf(out, "%s is %d km away (%s).\n",
				g.Country.Name, geodist.RoundKm(g.DistanceKm), tierLabel(g.Tier))
			printRanked(out, ledger.Ranked())
		}
		return scanner.Err()
	},
}

func init() {
	playCmd.Flags().StringVar(&playTarget, "target", "", "fix the target country (for testing)")
	rootCmd.AddCommand(playCmd)
}

func suggestGuess(out io.Writer, ds *dataset.Dataset, input string) {
	matches := ds.Search(input, 3)
	if len(matches) == 0 {
		fmt.Fprintf(out, "Unknown country %q.\n", input)
		return
	}
	names := make([]string, 0, len(matches))
	for _, c := range matches {
		names = append(names, c.Name)
	}
	fmt.Fprintf(out, "Unknown country %q. Did you mean: %s?\n", input, strings.Join(names, ", "))
}

func printRanked(out io.Writer, ranked []model.Guess) {
	for i, g := range ranked {
		fmt.Fprintf(out, "  %2d. %-25s %6d km  %s\n",
			i+1, g.Country.Name, geodist.RoundKm(g.DistanceKm), tierLabel(g.Tier))
	}
}

func tierLabel(t model.Tier) string {
	switch t {
	case model.TierNear:
		return "burning hot"
	case model.TierMedium:
		return "warm"
	case model.TierFar:
		return "cold"
	default:
		return "freezing"
	}
}
