// Package game implements the guess ledger: validated, distance-annotated
// guesses against a hidden target country.
package game

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/ozcodx/marcopolo/internal/geodist"
	"github.com/ozcodx/marcopolo/internal/model"
)

// ErrDuplicateGuess is returned when a candidate's normalized name matches
// an existing guess. The ledger is left unchanged.
var ErrDuplicateGuess = eris.New("country already guessed")

// Ledger holds the guesses of one round in submission order. Submission
// order is the source of truth; Ranked is a read-only projection.
//
// The ledger is single-writer and synchronous: all mutation happens on
// the caller's goroutine in response to a single submit operation.
type Ledger struct {
	target  model.Country
	guesses []model.Guess
	seen    map[string]struct{}
	won     bool
}

// NewLedger creates an empty ledger for a round with the given target.
func NewLedger(target model.Country) *Ledger {
	return &Ledger{
		target: target,
		seen:   map[string]struct{}{},
	}
}

// Target returns the hidden target country.
func (l *Ledger) Target() model.Country {
	return l.target
}

// Submit validates a resolved candidate country and appends it as a new
// guess. A candidate whose normalized name equals that of any existing
// guess is rejected with ErrDuplicateGuess and the ledger is left
// unchanged. On success the ledger grows by exactly one entry.
func (l *Ledger) Submit(candidate model.Country) (*model.Guess, error) {
	key := Normalize(candidate.Name)
	if _, dup := l.seen[key]; dup {
		return nil, eris.Wrapf(ErrDuplicateGuess, "%s", candidate.Name)
	}

	km := geodist.Between(candidate, l.target)
	g := model.Guess{
		ID:         uuid.New().String(),
		Country:    candidate,
		DistanceKm: km,
		Tier:       geodist.Tier(km),
		Seq:        len(l.guesses) + 1,
		GuessedAt:  time.Now().UTC(),
	}

	l.seen[key] = struct{}{}
	l.guesses = append(l.guesses, g)
	if key == Normalize(l.target.Name) {
		l.won = true
	}
	return &g, nil
}

// Guesses returns the guesses in submission order.
func (l *Ledger) Guesses() []model.Guess {
	out := make([]model.Guess, len(l.guesses))
	copy(out, l.guesses)
	return out
}

// Ranked returns the guesses sorted ascending by distance. Ties keep
// submission order (stable sort). Submission order is not mutated.
func (l *Ledger) Ranked() []model.Guess {
	out := l.Guesses()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

// Len returns the number of guesses.
func (l *Ledger) Len() int {
	return len(l.guesses)
}

// Won reports whether the target itself has been guessed.
func (l *Ledger) Won() bool {
	return l.won
}

// Restore rebuilds a ledger from previously persisted guesses, e.g. when
// a round is loaded from the store. Guesses must be in submission order.
func Restore(target model.Country, guesses []model.Guess) *Ledger {
	l := NewLedger(target)
	tkey := Normalize(target.Name)
	for _, g := range guesses {
		key := Normalize(g.Country.Name)
		l.seen[key] = struct{}{}
		if key == tkey {
			l.won = true
		}
	}
	l.guesses = append(l.guesses, guesses...)
	return l
}
