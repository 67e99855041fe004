package game

import (
	"sort"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozcodx/marcopolo/internal/model"
)

var (
	targetFrance = model.Country{Name: "France", ISO2: "FR", Capital: "Paris", Lat: 46.2276, Lng: 2.2137}
	germany      = model.Country{Name: "Germany", ISO2: "DE", Capital: "Berlin", Lat: 51.1657, Lng: 10.4515}
	spain        = model.Country{Name: "Spain", ISO2: "ES", Capital: "Madrid", Lat: 40.4637, Lng: -3.7492}
	japan        = model.Country{Name: "Japan", ISO2: "JP", Capital: "Tokyo", Lat: 36.2048, Lng: 138.2529}
	brazil       = model.Country{Name: "Brazil", ISO2: "BR", Capital: "Brasília", Lat: -14.2350, Lng: -51.9253}
)

func TestLedger_Submit(t *testing.T) {
	l := NewLedger(targetFrance)

	g, err := l.Submit(germany)
	require.NoError(t, err)
	require.NotNil(t, g)

	assert.Equal(t, "Germany", g.Country.Name)
	assert.Equal(t, 1, g.Seq)
	assert.Greater(t, g.DistanceKm, 0.0)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, 1, l.Len())
	assert.False(t, l.Won())
}

func TestLedger_Submit_Duplicate(t *testing.T) {
	l := NewLedger(targetFrance)

	_, err := l.Submit(germany)
	require.NoError(t, err)

	_, err = l.Submit(germany)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrDuplicateGuess))
	assert.Equal(t, 1, l.Len(), "ledger must be unchanged after rejection")
}

func TestLedger_Submit_DuplicateAccentVariant(t *testing.T) {
	l := NewLedger(targetFrance)

	mexico := model.Country{Name: "Mexico", ISO2: "MX", Lat: 23.6345, Lng: -102.5528}
	_, err := l.Submit(mexico)
	require.NoError(t, err)

	// Same country under a different spelling must still be rejected.
	variant := mexico
	variant.Name = "MÉXICO"
	_, err = l.Submit(variant)
	assert.True(t, eris.Is(err, ErrDuplicateGuess))
	assert.Equal(t, 1, l.Len())
}

func TestLedger_Submit_TargetWinsRound(t *testing.T) {
	l := NewLedger(targetFrance)

	g, err := l.Submit(targetFrance)
	require.NoError(t, err)
	assert.Zero(t, g.DistanceKm)
	assert.Equal(t, model.TierNear, g.Tier)
	assert.True(t, l.Won())
}

func TestLedger_Ranked(t *testing.T) {
	l := NewLedger(targetFrance)

	// Deliberately out of proximity order.
	for _, c := range []model.Country{japan, spain, brazil, germany} {
		_, err := l.Submit(c)
		require.NoError(t, err)
	}

	ranked := l.Ranked()
	require.Len(t, ranked, 4)

	assert.True(t, sort.SliceIsSorted(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	}))
	assert.Equal(t, "Spain", ranked[0].Country.Name)
	assert.Equal(t, "Germany", ranked[1].Country.Name)

	// Permutation of the submissions: same set of sequence numbers.
	seqs := map[int]bool{}
	for _, g := range ranked {
		seqs[g.Seq] = true
	}
	assert.Len(t, seqs, 4)

	// Submission order untouched.
	order := l.Guesses()
	assert.Equal(t, "Japan", order[0].Country.Name)
	assert.Equal(t, "Germany", order[3].Country.Name)
}

func TestLedger_Ranked_StableOnTies(t *testing.T) {
	l := NewLedger(targetFrance)

	// Two fake countries equidistant from the target.
	north := model.Country{Name: "Northland", Lat: targetFrance.Lat + 5, Lng: targetFrance.Lng}
	south := model.Country{Name: "Southland", Lat: targetFrance.Lat - 5, Lng: targetFrance.Lng}

	_, err := l.Submit(north)
	require.NoError(t, err)
	_, err = l.Submit(south)
	require.NoError(t, err)

	ranked := l.Ranked()
	require.Len(t, ranked, 2)
	assert.InDelta(t, ranked[0].DistanceKm, ranked[1].DistanceKm, 1e-6)
	assert.Equal(t, "Northland", ranked[0].Country.Name, "ties keep submission order")
}

func TestRestore(t *testing.T) {
	l := NewLedger(targetFrance)
	_, err := l.Submit(germany)
	require.NoError(t, err)
	_, err = l.Submit(targetFrance)
	require.NoError(t, err)

	restored := Restore(targetFrance, l.Guesses())
	assert.Equal(t, 2, restored.Len())
	assert.True(t, restored.Won())

	// Duplicates are still detected after a restore.
	_, err = restored.Submit(germany)
	assert.True(t, eris.Is(err, ErrDuplicateGuess))
}
