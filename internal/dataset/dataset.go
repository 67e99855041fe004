// Package dataset embeds the country reference list and resolves player
// input (exact or substring, case- and accent-insensitive) against it.
package dataset

import (
	_ "embed"
	"encoding/json"
	"math/rand"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ozcodx/marcopolo/internal/game"
	"github.com/ozcodx/marcopolo/internal/model"
)

//go:embed countries.json
var countriesJSON []byte

// ErrNotFound is returned when a name does not resolve to any country.
var ErrNotFound = eris.New("country not found")

// Dataset is the immutable country reference list with a normalized-name
// index. Safe for concurrent reads.
type Dataset struct {
	countries []model.Country
	byName    map[string]int
	byISO     map[string]int
}

// Load parses the embedded reference list.
func Load() (*Dataset, error) {
	return Parse(countriesJSON)
}

// Parse builds a Dataset from raw JSON, for callers that supply their
// own reference list.
func Parse(data []byte) (*Dataset, error) {
	var countries []model.Country
	if err := json.Unmarshal(data, &countries); err != nil {
		return nil, eris.Wrap(err, "dataset: parse countries")
	}
	if len(countries) == 0 {
		return nil, eris.New("dataset: empty country list")
	}

	d := &Dataset{
		countries: countries,
		byName:    make(map[string]int, len(countries)),
		byISO:     make(map[string]int, len(countries)),
	}
	for i, c := range countries {
		key := game.Normalize(c.Name)
		if _, dup := d.byName[key]; dup {
			return nil, eris.Errorf("dataset: duplicate country name %q", c.Name)
		}
		d.byName[key] = i
		d.byISO[strings.ToUpper(c.ISO2)] = i
	}
	return d, nil
}

// Len returns the number of countries in the reference list.
func (d *Dataset) Len() int {
	return len(d.countries)
}

// All returns the full reference list in dataset order.
func (d *Dataset) All() []model.Country {
	out := make([]model.Country, len(d.countries))
	copy(out, d.countries)
	return out
}

// Resolve finds a country by exact normalized name match.
func (d *Dataset) Resolve(name string) (model.Country, error) {
	if i, ok := d.byName[game.Normalize(name)]; ok {
		return d.countries[i], nil
	}
	return model.Country{}, eris.Wrapf(ErrNotFound, "%s", name)
}

// ResolveISO finds a country by ISO 3166-1 alpha-2 code.
func (d *Dataset) ResolveISO(code string) (model.Country, error) {
	if i, ok := d.byISO[strings.ToUpper(code)]; ok {
		return d.countries[i], nil
	}
	return model.Country{}, eris.Wrapf(ErrNotFound, "%s", code)
}

// Search returns up to limit countries whose normalized names contain the
// normalized query, in dataset order. An empty query matches nothing.
// This mirrors the autocomplete behavior of the game frontend.
func (d *Dataset) Search(query string, limit int) []model.Country {
	q := game.Normalize(query)
	if q == "" {
		return nil
	}
	if limit <= 0 {
		limit = 10
	}

	var out []model.Country
	for _, c := range d.countries {
		if strings.Contains(game.Normalize(c.Name), q) {
			out = append(out, c)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// Random picks a target country using the given source.
func (d *Dataset) Random(rng *rand.Rand) model.Country {
	return d.countries[rng.Intn(len(d.countries))]
}
