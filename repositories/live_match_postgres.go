package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/hockey-live/models"
	"github.com/lib/pq"
)

const liveMatchColumns = `match_id, tournament_id, team1_name, team2_name, team1_id, team2_id,
	venue, match_date, match_time, status, team1_score, team2_score, quarters, current_quarter,
	total_seconds, is_paused, team1_players, team2_players, match_events, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type postgresLiveMatchRepository struct {
	db SQLExecutor
}

func NewPostgresLiveMatchRepository(db SQLExecutor) LiveMatchRepository {
	return &postgresLiveMatchRepository{db: db}
}

func (r *postgresLiveMatchRepository) Create(ctx context.Context, m *models.LiveMatch) error {
	m.ApplyDefaults()

	quarters, err := json.Marshal(m.Quarters)
	if err != nil {
		return fmt.Errorf("failed to encode quarters: %w", err)
	}
	team1Players, err := json.Marshal(m.Team1Players)
	if err != nil {
		return fmt.Errorf("failed to encode team1 players: %w", err)
	}
	team2Players, err := json.Marshal(m.Team2Players)
	if err != nil {
		return fmt.Errorf("failed to encode team2 players: %w", err)
	}
	events, err := json.Marshal(m.MatchEvents)
	if err != nil {
		return fmt.Errorf("failed to encode match events: %w", err)
	}

	// jsonb передаём строкой: []byte lib/pq кодирует как bytea.
	query := `
		INSERT INTO live_matches (
			match_id, tournament_id, team1_name, team2_name, team1_id, team2_id,
			venue, match_date, match_time, status, team1_score, team2_score, quarters, current_quarter,
			total_seconds, is_paused, team1_players, team2_players, match_events
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		m.MatchID, m.TournamentID, m.Team1Name, m.Team2Name, m.Team1ID, m.Team2ID,
		m.Venue, m.MatchDate, m.MatchTime, m.Status, m.Team1Score, m.Team2Score, string(quarters), m.CurrentQuarter,
		m.TotalSeconds, m.IsPaused, string(team1Players), string(team2Players), string(events),
	).Scan(&m.CreatedAt, &m.UpdatedAt)

	return r.handleLiveMatchError(err)
}

func (r *postgresLiveMatchRepository) GetByMatchID(ctx context.Context, matchID string) (*models.LiveMatch, error) {
	query := `SELECT ` + liveMatchColumns + ` FROM live_matches WHERE match_id = $1`
	return r.queryOne(ctx, query, matchID)
}

func (r *postgresLiveMatchRepository) List(ctx context.Context, filter LiveMatchFilter) ([]*models.LiveMatch, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + liveMatchColumns + ` FROM live_matches WHERE 1=1`)

	args := []interface{}{}
	placeholderIndex := 1

	if filter.Status != nil {
		queryBuilder.WriteString(" AND status = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.Status)
		placeholderIndex++
	}
	if filter.TournamentID != nil {
		queryBuilder.WriteString(" AND tournament_id = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *filter.TournamentID)
		placeholderIndex++
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC, match_id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.LiveMatch, 0)
	for rows.Next() {
		m, scanErr := scanLiveMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *postgresLiveMatchRepository) IncrementScore(ctx context.Context, matchID string, side models.TeamSide) (*models.LiveMatch, error) {
	var column string
	switch side {
	case models.Team1:
		column = "team1_score"
	case models.Team2:
		column = "team2_score"
	default:
		return nil, fmt.Errorf("invalid team side %d", side)
	}

	// Инкремент выполняется в самом UPDATE, без чтения значения на стороне приложения.
	query := `UPDATE live_matches SET ` + column + ` = ` + column + ` + 1, updated_at = NOW()
		WHERE match_id = $1 RETURNING ` + liveMatchColumns
	return r.queryOne(ctx, query, matchID)
}

func (r *postgresLiveMatchRepository) UpdateTimer(ctx context.Context, matchID string, totalSeconds int, isPaused bool) (*models.LiveMatch, error) {
	query := `UPDATE live_matches SET total_seconds = $2, is_paused = $3, updated_at = NOW()
		WHERE match_id = $1 RETURNING ` + liveMatchColumns
	return r.queryOne(ctx, query, matchID, totalSeconds, isPaused)
}

func (r *postgresLiveMatchRepository) AppendEvent(ctx context.Context, matchID string, event models.MatchEvent) (*models.LiveMatch, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to encode match event: %w", err)
	}
	query := `UPDATE live_matches SET match_events = match_events || jsonb_build_array($2::jsonb), updated_at = NOW()
		WHERE match_id = $1 RETURNING ` + liveMatchColumns
	return r.queryOne(ctx, query, matchID, string(payload))
}

func (r *postgresLiveMatchRepository) SetQuarter(ctx context.Context, matchID string, quarter models.Quarter) (*models.LiveMatch, error) {
	query := `UPDATE live_matches SET current_quarter = $2, updated_at = NOW()
		WHERE match_id = $1 RETURNING ` + liveMatchColumns
	return r.queryOne(ctx, query, matchID, quarter)
}

func (r *postgresLiveMatchRepository) SetStatus(ctx context.Context, matchID string, status models.MatchStatus) (*models.LiveMatch, error) {
	query := `UPDATE live_matches SET status = $2, updated_at = NOW()
		WHERE match_id = $1 RETURNING ` + liveMatchColumns
	return r.queryOne(ctx, query, matchID, status)
}

func (r *postgresLiveMatchRepository) Delete(ctx context.Context, matchID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM live_matches WHERE match_id = $1`, matchID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrLiveMatchNotFound)
}

func (r *postgresLiveMatchRepository) queryOne(ctx context.Context, query string, args ...interface{}) (*models.LiveMatch, error) {
	m, err := scanLiveMatch(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLiveMatchNotFound
		}
		return nil, r.handleLiveMatchError(err)
	}
	return m, nil
}

func scanLiveMatch(row rowScanner) (*models.LiveMatch, error) {
	var m models.LiveMatch
	var quarters, team1Players, team2Players, events []byte
	err := row.Scan(
		&m.MatchID, &m.TournamentID, &m.Team1Name, &m.Team2Name, &m.Team1ID, &m.Team2ID,
		&m.Venue, &m.MatchDate, &m.MatchTime, &m.Status, &m.Team1Score, &m.Team2Score, &quarters, &m.CurrentQuarter,
		&m.TotalSeconds, &m.IsPaused, &team1Players, &team2Players, &events, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(quarters, &m.Quarters); err != nil {
		return nil, fmt.Errorf("failed to decode quarters of match %s: %w", m.MatchID, err)
	}
	if err := json.Unmarshal(team1Players, &m.Team1Players); err != nil {
		return nil, fmt.Errorf("failed to decode team1 players of match %s: %w", m.MatchID, err)
	}
	if err := json.Unmarshal(team2Players, &m.Team2Players); err != nil {
		return nil, fmt.Errorf("failed to decode team2 players of match %s: %w", m.MatchID, err)
	}
	if err := json.Unmarshal(events, &m.MatchEvents); err != nil {
		return nil, fmt.Errorf("failed to decode events of match %s: %w", m.MatchID, err)
	}
	m.ApplyDefaults()
	return &m, nil
}

func (r *postgresLiveMatchRepository) handleLiveMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch {
	case pqErr.Code == "23505": // unique_violation
		return ErrLiveMatchConflict
	case pqErr.Code.Class() == "22": // data_exception
		return fmt.Errorf("%w: %s", ErrLiveMatchInvalidValue, pqErr.Message)
	}
	return err
}
