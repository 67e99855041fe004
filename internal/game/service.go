package game

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ozcodx/marcopolo/internal/model"
)

// ErrRoundFinished is returned when a guess is submitted to a round that
// is no longer active.
var ErrRoundFinished = eris.New("round is finished")

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRand sets the random source used for target selection, for
// deterministic tests.
func WithRand(rng *rand.Rand) ServiceOption {
	return func(s *Service) {
		s.rng = rng
	}
}

// Resolver maps player input to countries of the reference dataset.
// dataset.Dataset satisfies it.
type Resolver interface {
	Resolve(name string) (model.Country, error)
	Search(query string, limit int) []model.Country
	Random(rng *rand.Rand) model.Country
}

// Service runs rounds against a store: it resolves guesses, replays the
// round's ledger, and persists accepted guesses.
type Service struct {
	store RoundStore
	data  Resolver

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// RoundStore is the persistence surface the service needs. It matches
// the store.Store round operations.
type RoundStore interface {
	CreateRound(ctx context.Context, target model.Country) (*model.Round, error)
	GetRound(ctx context.Context, roundID string) (*model.Round, error)
	UpdateRoundStatus(ctx context.Context, roundID string, status model.RoundStatus) error
	AppendGuess(ctx context.Context, roundID string, guess model.Guess) error
}

// NewService creates a Service over the given store and reference dataset.
func NewService(st RoundStore, data Resolver, opts ...ServiceOption) *Service {
	s := &Service{
		store: st,
		data:  data,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolver returns the reference dataset used for name resolution.
func (s *Service) Resolver() Resolver {
	return s.data
}

// StartRound creates a new round. An empty targetName picks a random
// target from the reference dataset.
func (s *Service) StartRound(ctx context.Context, targetName string) (*model.Round, error) {
	var target model.Country
	if targetName == "" {
		s.mu.Lock()
		target = s.data.Random(s.rng)
		s.mu.Unlock()
	} else {
		var err error
		target, err = s.data.Resolve(targetName)
		if err != nil {
			return nil, err
		}
	}

	r, err := s.store.CreateRound(ctx, target)
	if err != nil {
		return nil, err
	}
	zap.L().Info("round started",
		zap.String("round_id", r.ID),
		zap.String("target_iso2", target.ISO2),
	)
	return r, nil
}

// GetRound loads a round with its guesses in submission order.
func (s *Service) GetRound(ctx context.Context, roundID string) (*model.Round, error) {
	return s.store.GetRound(ctx, roundID)
}

// Guess resolves a country name and submits it to the round. Returns
// dataset.ErrNotFound for unresolved names, ErrDuplicateGuess for
// repeats, ErrRoundFinished for non-active rounds. On a winning guess
// the round status is updated to won.
func (s *Service) Guess(ctx context.Context, roundID, name string) (*model.Guess, error) {
	candidate, err := s.data.Resolve(name)
	if err != nil {
		return nil, err
	}

	r, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	if r.Status != model.RoundStatusActive {
		return nil, eris.Wrapf(ErrRoundFinished, "%s", roundID)
	}

	ledger := Restore(r.Target, r.Guesses)
	g, err := ledger.Submit(candidate)
	if err != nil {
		return nil, err
	}

	if err := s.store.AppendGuess(ctx, roundID, *g); err != nil {
		return nil, err
	}

	if ledger.Won() {
		if err := s.store.UpdateRoundStatus(ctx, roundID, model.RoundStatusWon); err != nil {
			return nil, err
		}
		zap.L().Info("round won",
			zap.String("round_id", roundID),
			zap.Int("guesses", ledger.Len()),
		)
	}
	return g, nil
}

// Ranked returns the round's guesses sorted ascending by distance, ties
// keeping submission order.
func (s *Service) Ranked(ctx context.Context, roundID string) ([]model.Guess, error) {
	r, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	return Restore(r.Target, r.Guesses).Ranked(), nil
}

// Abandon marks an active round as abandoned.
func (s *Service) Abandon(ctx context.Context, roundID string) error {
	r, err := s.store.GetRound(ctx, roundID)
	if err != nil {
		return err
	}
	if r.Status != model.RoundStatusActive {
		return eris.Wrapf(ErrRoundFinished, "%s", roundID)
	}
	return s.store.UpdateRoundStatus(ctx, roundID, model.RoundStatusAbandoned)
}
