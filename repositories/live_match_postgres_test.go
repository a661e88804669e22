package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/hockey-live/models"
)

var liveMatchColumnNames = []string{
	"match_id", "tournament_id", "team1_name", "team2_name", "team1_id", "team2_id",
	"venue", "match_date", "match_time", "status", "team1_score", "team2_score", "quarters", "current_quarter",
	"total_seconds", "is_paused", "team1_players", "team2_players", "match_events", "created_at", "updated_at",
}

func newMockLiveMatchRepo(t *testing.T) (LiveMatchRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresLiveMatchRepository(db), mock
}

func liveMatchRows(team1Score, team2Score int, events ...models.MatchEvent) *sqlmock.Rows {
	if events == nil {
		events = []models.MatchEvent{}
	}
	rawEvents, _ := json.Marshal(events)
	ts := time.Date(2025, 8, 11, 15, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(liveMatchColumnNames).AddRow(
		"m1", "TOUR001", "Alpha", "Beta", "T001", "T002",
		"National Stadium", "2025-08-11", "15:00", "Live", team1Score, team2Score, []byte(`["Q1","Q2","Q3","Q4"]`), "Q2",
		754, false, []byte(`[{"player_id":"al01","player_name":"Player A1"}]`), []byte(`[]`), rawEvents, ts, ts,
	)
}

func TestPostgresCreate(t *testing.T) {
	repo, mock := newMockLiveMatchRepo(t)
	ts := time.Date(2025, 8, 11, 15, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO live_matches")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(ts, ts))

	m := &models.LiveMatch{MatchID: "m1", Team1Name: "Alpha", Team2Name: "Beta", IsPaused: true}
	require.NoError(t, repo.Create(context.Background(), m))
	assert.Equal(t, ts, m.CreatedAt)
	assert.Equal(t, models.MatchStatusUpcoming, m.Status)
	assert.Equal(t, models.QuarterQ1, m.CurrentQuarter)
}

func TestPostgresCreateDuplicate(t *testing.T) {
	repo, mock := newMockLiveMatchRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO live_matches")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.LiveMatch{MatchID: "m1", Team1Name: "Alpha", Team2Name: "Beta"})
	assert.ErrorIs(t, err, ErrLiveMatchConflict)
}

func TestPostgresGetByMatchID(t *testing.T) {
	repo, mock := newMockLiveMatchRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM live_matches WHERE match_id = $1")).
		WithArgs("m1").
		WillReturnRows(liveMatchRows(2, 1))

	m, err := repo.GetByMatchID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", m.MatchID)
	assert.Equal(t, models.MatchStatusLive, m.Status)
	assert.Equal(t, models.QuarterQ2, m.CurrentQuarter)
	assert.Equal(t, 2, m.Team1Score)
	assert.Equal(t, 754, m.TotalSeconds)
	assert.Equal(t, models.DefaultQuarters(), m.Quarters)
	assert.Equal(t, []models.PlayerRef{{PlayerID: "al01", PlayerName: "Player A1"}}, m.Team1Players)
	assert.Empty(t, m.Team2Players)
	assert.NotNil(t, m.MatchEvents)
}

func TestPostgresGetMissing(t *testing.T) {
	repo, mock := newMockLiveMatchRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM live_matches WHERE match_id = $1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByMatchID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrLiveMatchNotFound)
}

func TestPostgresIncrementScoreIsSingleStatement(t *testing.T) {
	repo, mock := newMockLiveMatchRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE live_matches SET team2_score = team2_score + 1")).
		WithArgs("m1").
		WillReturnRows(liveMatchRows(0, 1))

	m, err := repo.IncrementScore(context.Background(), "m1", models.Team2)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Team2Score)
}

func TestPostgresIncrementScoreMissing(t *testing.T) {
	repo, mock := newMockLiveMatchRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE live_matches SET team1_score = team1_score + 1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(liveMatchColumnNames))

	_, err := repo.IncrementScore(context.Background(), "ghost", models.Team1)
	assert.ErrorIs(t, err, ErrLiveMatchNotFound)
}

func TestPostgresAppendEvent(t *testing.T) {
	repo, mock := newMockLiveMatchRepo(t)
	ev := models.MatchEvent{
		Time: "12:34", Team: "Alpha", PlayerID: "al01", PlayerName: "Player A1",
		Type: models.EventTypeGoal, Quarter: models.QuarterQ2,
	}
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("match_events = match_events || jsonb_build_array($2::jsonb)")).
		WithArgs("m1", string(raw)).
		WillReturnRows(liveMatchRows(0, 0, ev))

	m, err := repo.AppendEvent(context.Background(), "m1", ev)
	require.NoError(t, err)
	require.Len(t, m.MatchEvents, 1)
	assert.Equal(t, ev, m.MatchEvents[0])
}

func TestPostgresUpdateTimer(t *testing.T) {
	repo, mock := newMockLiveMatchRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SET total_seconds = $2, is_paused = $3")).
		WithArgs("m1", 754, false).
		WillReturnRows(liveMatchRows(0, 0))

	m, err := repo.UpdateTimer(context.Background(), "m1", 754, false)
	require.NoError(t, err)
	assert.Equal(t, 754, m.TotalSeconds)
	assert.False(t, m.IsPaused)
}

func TestPostgresUpdateTimerOutOfRange(t *testing.T) {
	repo, mock := newMockLiveMatchRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SET total_seconds = $2, is_paused = $3")).
		WithArgs("m1", 1<<40, true).
		WillReturnError(&pq.Error{Code: "22003", Message: "integer out of range"})

	_, err := repo.UpdateTimer(context.Background(), "m1", 1<<40, true)
	assert.ErrorIs(t, err, ErrLiveMatchInvalidValue)
	assert.Contains(t, err.Error(), "integer out of range")
}

func TestPostgresDelete(t *testing.T) {
	repo, mock := newMockLiveMatchRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM live_matches WHERE match_id = $1")).
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM live_matches WHERE match_id = $1")).
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "m1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "m1"), ErrLiveMatchNotFound)
}

func TestPostgresListAppliesFilters(t *testing.T) {
	repo, mock := newMockLiveMatchRepo(t)
	status := models.MatchStatusLive
	tour := "TOUR001"

	mock.ExpectQuery(regexp.QuoteMeta("AND status = $1 AND tournament_id = $2 ORDER BY created_at DESC")).
		WithArgs("Live", "TOUR001").
		WillReturnRows(liveMatchRows(3, 2))

	matches, err := repo.List(context.Background(), LiveMatchFilter{Status: &status, TournamentID: &tour})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 3, matches[0].Team1Score)
}
