package model

import "time"

// Tier is the coarse distance bucket used for marker coloring.
type Tier string

const (
	TierNear    Tier = "near"     // < 500 km
	TierMedium  Tier = "medium"   // < 1500 km
	TierFar     Tier = "far"      // < 3000 km
	TierVeryFar Tier = "very_far" // >= 3000 km
)

// Guess is a single submitted country annotated with its distance to the
// hidden target. Guesses are immutable once created.
type Guess struct {
	ID         string    `json:"id"`
	Country    Country   `json:"country"`
	DistanceKm float64   `json:"distance_km"`
	Tier       Tier      `json:"tier"`
	Seq        int       `json:"seq"`
	GuessedAt  time.Time `json:"guessed_at"`
}

// RoundStatus represents the lifecycle state of a round.
type RoundStatus string

const (
	RoundStatusActive    RoundStatus = "active"
	RoundStatusWon       RoundStatus = "won"
	RoundStatusAbandoned RoundStatus = "abandoned"
)

// Round is one game: a hidden target country and the guesses made
// against it, in submission order.
type Round struct {
	ID        string      `json:"id"`
	Target    Country     `json:"target"`
	Status    RoundStatus `json:"status"`
	Guesses   []Guess     `json:"guesses,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
