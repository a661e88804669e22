package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/hockey-live/repositories"
)

// handleRepositoryError переводит ошибки репозиториев в ошибки сервисного слоя.
// Всё, что не распознано, считается сбоем хранилища.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrLiveMatchNotFound):
		return ErrLiveMatchNotFound
	case errors.Is(err, repositories.ErrLiveMatchConflict):
		return ErrMatchIDConflict
	case errors.Is(err, repositories.ErrLiveMatchInvalidValue):
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	default:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
}

func normalizeMatchID(matchID string) (string, error) {
	id := strings.TrimSpace(matchID)
	if id == "" {
		return "", ErrMatchIDRequired
	}
	return id, nil
}
