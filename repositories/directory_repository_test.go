package repositories

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestTeamRepositoryGetByName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresTeamRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM teams WHERE team_name = $1")).
		WithArgs("Alpha").
		WillReturnRows(sqlmock.NewRows([]string{"team_id", "team_name", "tournament_id", "city", "logo_url"}).
			AddRow("T001", "Alpha", "TOUR001", "Delhi", nil))

	team, err := repo.GetByName(context.Background(), "Alpha")
	require.NoError(t, err)
	assert.Equal(t, "T001", team.TeamID)
	require.NotNil(t, team.TournamentID)
	assert.Equal(t, "TOUR001", *team.TournamentID)
	assert.Nil(t, team.LogoURL)
}

func TestTeamRepositoryNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresTeamRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM teams WHERE team_id = $1")).
		WithArgs("T404").
		WillReturnRows(sqlmock.NewRows([]string{"team_id", "team_name", "tournament_id", "city", "logo_url"}))

	_, err := repo.GetByTeamID(context.Background(), "T404")
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestTournamentRepositoryNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresTournamentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM tournaments")).
		WithArgs("TOUR404").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByTournamentID(context.Background(), "TOUR404")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestTeamMemberRepositoryListByTeamID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresTeamMemberRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM team_members")).
		WithArgs("T001").
		WillReturnRows(sqlmock.NewRows([]string{"team_id", "user_id", "name", "role", "phone_number"}).
			AddRow("T001", "al01", "Player A1", "Player", "+100").
			AddRow("T001", "co01", "Coach A", "Coach", "+101"))

	members, err := repo.ListByTeamID(context.Background(), "T001")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "al01", members[0].UserID)
	assert.Equal(t, "Coach", members[1].Role)
}
