package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/hockey-live/models"
)

var (
	ErrLiveMatchNotFound = errors.New("live match not found")
	ErrLiveMatchConflict = errors.New("live match with this match_id already exists")
	// Значение не помещается в колонку (класс ошибок 22 в Postgres).
	ErrLiveMatchInvalidValue = errors.New("live match value rejected by storage")
)

type LiveMatchFilter struct {
	Status       *models.MatchStatus
	TournamentID *string
}

// LiveMatchRepository хранит состояние live-матчей по публичному match_id.
// Каждый мутатор атомарен в пределах одного документа и возвращает состояние после записи.
type LiveMatchRepository interface {
	Create(ctx context.Context, match *models.LiveMatch) error
	GetByMatchID(ctx context.Context, matchID string) (*models.LiveMatch, error)
	List(ctx context.Context, filter LiveMatchFilter) ([]*models.LiveMatch, error)
	IncrementScore(ctx context.Context, matchID string, side models.TeamSide) (*models.LiveMatch, error)
	UpdateTimer(ctx context.Context, matchID string, totalSeconds int, isPaused bool) (*models.LiveMatch, error)
	AppendEvent(ctx context.Context, matchID string, event models.MatchEvent) (*models.LiveMatch, error)
	SetQuarter(ctx context.Context, matchID string, quarter models.Quarter) (*models.LiveMatch, error)
	SetStatus(ctx context.Context, matchID string, status models.MatchStatus) (*models.LiveMatch, error)
	Delete(ctx context.Context, matchID string) error
}

func matchesFilter(m *models.LiveMatch, filter LiveMatchFilter) bool {
	if filter.Status != nil && m.Status != *filter.Status {
		return false
	}
	if filter.TournamentID != nil && m.TournamentID != *filter.TournamentID {
		return false
	}
	return true
}
