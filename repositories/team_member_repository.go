package repositories

import (
	"context"

	"github.com/Dosada05/hockey-live/models"
)

type TeamMemberRepository interface {
	ListByTeamID(ctx context.Context, teamID string) ([]*models.TeamMember, error)
}

type postgresTeamMemberRepository struct {
	db SQLExecutor
}

func NewPostgresTeamMemberRepository(db SQLExecutor) TeamMemberRepository {
	return &postgresTeamMemberRepository{db: db}
}

// ListByTeamID возвращает участников в порядке добавления в команду.
func (r *postgresTeamMemberRepository) ListByTeamID(ctx context.Context, teamID string) ([]*models.TeamMember, error) {
	query := `
		SELECT team_id, user_id, name, role, phone_number
		FROM team_members
		WHERE team_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		if scanErr := rows.Scan(&m.TeamID, &m.UserID, &m.Name, &m.Role, &m.PhoneNumber); scanErr != nil {
			return nil, scanErr
		}
		members = append(members, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}
