package game_test

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ozcodx/marcopolo/internal/dataset"
	"github.com/ozcodx/marcopolo/internal/game"
	"github.com/ozcodx/marcopolo/internal/model"
	"github.com/ozcodx/marcopolo/internal/store"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *game.Service {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	ds, err := dataset.Load()
	require.NoError(t, err)

	return game.NewService(st, ds, game.WithRand(rand.New(rand.NewSource(1))))
}

func TestService_StartRound_ExplicitTarget(t *testing.T) {
	svc := newTestService(t)

	r, err := svc.StartRound(context.Background(), "France")
	require.NoError(t, err)
	assert.Equal(t, "France", r.Target.Name)
	assert.Equal(t, model.RoundStatusActive, r.Status)
}

func TestService_StartRound_RandomTarget(t *testing.T) {
	svc := newTestService(t)

	r, err := svc.StartRound(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, r.Target.Name)
}

func TestService_StartRound_UnknownTarget(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.StartRound(context.Background(), "Atlantis")
	assert.True(t, eris.Is(err, dataset.ErrNotFound))
}

func TestService_Guess_Flow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	r, err := svc.StartRound(ctx, "France")
	require.NoError(t, err)

	g, err := svc.Guess(ctx, r.ID, "Germany")
	require.NoError(t, err)
	assert.Equal(t, 1, g.Seq)
	assert.Greater(t, g.DistanceKm, 0.0)

	// Duplicate, under an accent variation.
	_, err = svc.Guess(ctx, r.ID, "GERMÁNY")
	assert.True(t, eris.Is(err, game.ErrDuplicateGuess))

	// Ledger unchanged after rejection.
	got, err := svc.GetRound(ctx, r.ID)
	require.NoError(t, err)
	assert.Len(t, got.Guesses, 1)

	// Unresolved name.
	_, err = svc.Guess(ctx, r.ID, "Narnia")
	assert.True(t, eris.Is(err, dataset.ErrNotFound))

	// Winning guess flips the round to won.
	win, err := svc.Guess(ctx, r.ID, "france")
	require.NoError(t, err)
	assert.Zero(t, win.DistanceKm)

	got, err = svc.GetRound(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoundStatusWon, got.Status)

	// No more guesses after the round is over.
	_, err = svc.Guess(ctx, r.ID, "Spain")
	assert.True(t, eris.Is(err, game.ErrRoundFinished))
}

func TestService_Ranked(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	r, err := svc.StartRound(ctx, "France")
	require.NoError(t, err)

	for _, name := range []string{"Japan", "Spain", "Brazil"} {
		_, err := svc.Guess(ctx, r.ID, name)
		require.NoError(t, err)
	}

	ranked, err := svc.Ranked(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "Spain", ranked[0].Country.Name)
	assert.Equal(t, "Japan", ranked[2].Country.Name)
}

func TestService_Abandon(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	r, err := svc.StartRound(ctx, "France")
	require.NoError(t, err)

	require.NoError(t, svc.Abandon(ctx, r.ID))

	got, err := svc.GetRound(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoundStatusAbandoned, got.Status)

	// Abandoning twice fails.
	assert.True(t, eris.Is(svc.Abandon(ctx, r.ID), game.ErrRoundFinished))
}

func TestService_Guess_UnknownRound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Guess(context.Background(), "missing", "France")
	assert.True(t, eris.Is(err, store.ErrRoundNotFound))
}
