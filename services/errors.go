package services

import "errors"

// Общие ошибки, используемые в сервисах и маппинге HTTP.
var (
	// Не найдено
	ErrLiveMatchNotFound  = errors.New("live match not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrTournamentNotFound = errors.New("tournament not found")

	// Ошибки валидации входных данных
	ErrValidationFailed   = errors.New("validation failed")
	ErrMatchIDRequired    = errors.New("match id is required")
	ErrTeamNameRequired   = errors.New("team name is required")
	ErrUnknownTeamName    = errors.New("team name does not match either team of the match")
	ErrTeamNamesRequired  = errors.New("both teams must be given by name or by team id")
	ErrTeamNamesEqual     = errors.New("team names must differ")
	ErrInvalidMatchStatus = errors.New("invalid match status")
	ErrInvalidQuarter     = errors.New("invalid quarter")
	ErrInvalidTimer       = errors.New("total seconds must be between 0 and 2147483647")
	ErrInvalidEvent       = errors.New("invalid match event")

	// Ошибки конфликтов
	ErrMatchIDConflict = errors.New("match with this match_id already exists")

	// Хранилище или справочники недоступны
	ErrUnavailable = errors.New("service temporarily unavailable")
)
