package domain

import (
	"time"
)

// Incident represents a single shooting incident after schema normalization.
// OccurredOn is zero when the source date string could not be parsed; the
// record is kept because grouping never keys on date.
type Incident struct {
	OccurredOn time.Time `json:"occurred_on"`
	Region     string    `json:"region"`
	VictimRace string    `json:"victim_race"`
	Fatal      bool      `json:"fatal"`
}

// HasDate reports whether the incident carries a parseable occurrence date.
func (i Incident) HasDate() bool {
	return !i.OccurredOn.IsZero()
}

// Victim race labels observed in the source dataset. The vocabulary is open;
// these constants cover the values the published dataset uses.
const (
	RaceBlack          = "BLACK"
	RaceWhite          = "WHITE"
	RaceWhiteHispanic  = "WHITE HISPANIC"
	RaceBlackHispanic  = "BLACK HISPANIC"
	RaceAsianPacific   = "ASIAN / PACIFIC ISLANDER"
	RaceAmericanIndian = "AMERICAN INDIAN/ALASKAN NATIVE"
	RaceUnknown        = "UNKNOWN"
)
