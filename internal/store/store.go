// Package store persists rounds and guesses so the HTTP API can serve
// stateless clients across restarts.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/ozcodx/marcopolo/internal/model"
)

// ErrRoundNotFound is returned when a round ID does not exist.
var ErrRoundNotFound = eris.New("round not found")

// RoundFilter specifies criteria for listing rounds.
type RoundFilter struct {
	Status model.RoundStatus `json:"status,omitempty"`
	Limit  int               `json:"limit,omitempty"`
	Offset int               `json:"offset,omitempty"`
}

// Store defines the persistence interface for rounds and guesses.
type Store interface {
	// Rounds
	CreateRound(ctx context.Context, target model.Country) (*model.Round, error)
	GetRound(ctx context.Context, roundID string) (*model.Round, error)
	ListRounds(ctx context.Context, filter RoundFilter) ([]model.Round, error)
	UpdateRoundStatus(ctx context.Context, roundID string, status model.RoundStatus) error

	// Guesses
	AppendGuess(ctx context.Context, roundID string, guess model.Guess) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
