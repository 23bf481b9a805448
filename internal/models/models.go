package models

import "time"

// Country is one nation's Olympic participation history, as served by the
// dataset source.
type Country struct {
	ID      int    `json:"id"`
	Country string `json:"country"`
	// Participations is nil when the field is missing from the source and
	// non-nil (possibly empty) when present.
	Participations []Participation `json:"participations"`
}

// HasParticipations reports whether the participations field was present.
func (c Country) HasParticipations() bool {
	return c.Participations != nil
}

// Participation is one country's result at one edition of the games. ID and
// City are carried through unchanged when the source provides them.
type Participation struct {
	ID           int    `json:"id,omitempty"`
	Year         int    `json:"year"`
	City         string `json:"city,omitempty"`
	MedalsCount  int    `json:"medalsCount"`
	AthleteCount int    `json:"athleteCount"`
}

// MedalTotal is one category/value pair of the overview chart.
type MedalTotal struct {
	ID      int    `json:"id"`
	Country string `json:"country"`
	Medals  int    `json:"medals"`
}

type Card struct {
	Title string `json:"title"`
	Value int    `json:"value"`
}

type Overview struct {
	Games     int          `json:"games"`
	Countries int          `json:"countries"`
	Totals    []MedalTotal `json:"totals"`
}

// CountryDetail holds the per-country statistics. The pointer fields are nil
// when the country carries no participation data at all.
type CountryDetail struct {
	ID       int    `json:"id"`
	Country  string `json:"country"`
	Entries  *int   `json:"entries"`
	Medals   *int   `json:"medals"`
	Athletes *int   `json:"athletes"`
}

type StoreStatus struct {
	State    string    `json:"state"`
	Records  int       `json:"records"`
	Error    string    `json:"error,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitempty"`
}
