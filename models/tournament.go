package models

import "time"

// Tournament представляет турнир из справочника.
type Tournament struct {
	TournamentID   string     `json:"tournament_id" db:"tournament_id"`
	TournamentName string     `json:"tournament_name" db:"tournament_name"`
	Location       string     `json:"location" db:"location"`
	StartDate      *time.Time `json:"start_date,omitempty" db:"start_date"`
	EndDate        *time.Time `json:"end_date,omitempty" db:"end_date"`
}
