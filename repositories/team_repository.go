package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/hockey-live/models"
)

var ErrTeamNotFound = errors.New("team not found")

// TeamRepository даёт read-only доступ к справочнику команд.
type TeamRepository interface {
	GetByTeamID(ctx context.Context, teamID string) (*models.Team, error)
	GetByName(ctx context.Context, name string) (*models.Team, error)
}

type postgresTeamRepository struct {
	db SQLExecutor
}

func NewPostgresTeamRepository(db SQLExecutor) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) GetByTeamID(ctx context.Context, teamID string) (*models.Team, error) {
	query := `SELECT team_id, team_name, tournament_id, city, logo_url FROM teams WHERE team_id = $1`
	return r.getOne(ctx, query, teamID)
}

func (r *postgresTeamRepository) GetByName(ctx context.Context, name string) (*models.Team, error) {
	query := `SELECT team_id, team_name, tournament_id, city, logo_url FROM teams WHERE team_name = $1`
	return r.getOne(ctx, query, name)
}

func (r *postgresTeamRepository) getOne(ctx context.Context, query string, arg string) (*models.Team, error) {
	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&team.TeamID,
		&team.TeamName,
		&team.TournamentID,
		&team.City,
		&team.LogoURL,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}
