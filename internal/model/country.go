package model

import "strings"

// Country is one entry of the reference dataset. Name is the unique
// identifier for matching; matching is case- and accent-insensitive.
type Country struct {
	Name    string  `json:"name"`
	ISO2    string  `json:"iso2"`
	Capital string  `json:"capital"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// FlagURL returns the CDN URL for the country's flag image.
func (c Country) FlagURL() string {
	return "https://flagcdn.com/w80/" + strings.ToLower(c.ISO2) + ".png"
}
