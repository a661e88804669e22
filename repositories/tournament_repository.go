package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/hockey-live/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	GetByTournamentID(ctx context.Context, tournamentID string) (*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db SQLExecutor
}

func NewPostgresTournamentRepository(db SQLExecutor) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) GetByTournamentID(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	query := `
		SELECT tournament_id, tournament_name, location, start_date, end_date
		FROM tournaments
		WHERE tournament_id = $1`

	t := &models.Tournament{}
	err := r.db.QueryRowContext(ctx, query, tournamentID).Scan(
		&t.TournamentID, &t.TournamentName, &t.Location, &t.StartDate, &t.EndDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}
