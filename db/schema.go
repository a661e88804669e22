package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements создают таблицы live-матчей и справочников, если их ещё нет.
// Справочники (tournaments, teams, team_members) наполняются внешними сервисами регистрации.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tournaments (
		tournament_id   TEXT PRIMARY KEY,
		tournament_name TEXT NOT NULL,
		location        TEXT NOT NULL DEFAULT '',
		start_date      TIMESTAMPTZ,
		end_date        TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS teams (
		team_id       TEXT PRIMARY KEY,
		team_name     TEXT NOT NULL UNIQUE,
		tournament_id TEXT REFERENCES tournaments (tournament_id) ON DELETE SET NULL,
		city          TEXT NOT NULL DEFAULT '',
		logo_url      TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS team_members (
		id           SERIAL PRIMARY KEY,
		team_id      TEXT NOT NULL REFERENCES teams (team_id) ON DELETE CASCADE,
		user_id      TEXT NOT NULL,
		name         TEXT NOT NULL,
		role         TEXT NOT NULL DEFAULT 'Player',
		phone_number TEXT NOT NULL DEFAULT '',
		UNIQUE (team_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS live_matches (
		match_id        TEXT PRIMARY KEY,
		tournament_id   TEXT NOT NULL DEFAULT '',
		team1_name      TEXT NOT NULL,
		team2_name      TEXT NOT NULL,
		team1_id        TEXT NOT NULL DEFAULT '',
		team2_id        TEXT NOT NULL DEFAULT '',
		venue           TEXT NOT NULL DEFAULT '',
		match_date      TEXT NOT NULL DEFAULT '',
		match_time      TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL DEFAULT 'Upcoming',
		team1_score     INTEGER NOT NULL DEFAULT 0 CHECK (team1_score >= 0),
		team2_score     INTEGER NOT NULL DEFAULT 0 CHECK (team2_score >= 0),
		quarters        JSONB NOT NULL DEFAULT '["Q1","Q2","Q3","Q4"]',
		current_quarter TEXT NOT NULL DEFAULT 'Q1',
		total_seconds   INTEGER NOT NULL DEFAULT 0 CHECK (total_seconds >= 0),
		is_paused       BOOLEAN NOT NULL DEFAULT TRUE,
		team1_players   JSONB NOT NULL DEFAULT '[]',
		team2_players   JSONB NOT NULL DEFAULT '[]',
		match_events    JSONB NOT NULL DEFAULT '[]',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS live_matches_tournament_idx ON live_matches (tournament_id)`,
	`CREATE INDEX IF NOT EXISTS live_matches_status_idx ON live_matches (status)`,
}

// EnsureSchema идемпотентно применяет DDL.
func EnsureSchema(ctx context.Context, conn *sql.DB) error {
	for i, stmt := range schemaStatements {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i+1, err)
		}
	}
	return nil
}
