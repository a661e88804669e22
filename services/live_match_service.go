package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"

	"github.com/Dosada05/hockey-live/models"
	"github.com/Dosada05/hockey-live/repositories"
	"github.com/Dosada05/hockey-live/storage"
)

// Имена событий канала подписки. Одно и то же имя уходит и всем клиентам, и в комнату матча.
const (
	EventMatchCreated       = "matchCreated"
	EventScoreUpdated       = "scoreUpdated"
	EventTimerUpdated       = "timerUpdated"
	EventEventAdded         = "eventAdded"
	EventQuarterChanged     = "quarterChanged"
	EventMatchStatusChanged = "matchStatusChanged"
	EventMatchDeleted       = "matchDeleted"
)

const archiveTimeout = 30 * time.Second

// Notifier рассылает уведомление об изменении матча. Вызов не должен блокироваться.
type Notifier interface {
	Publish(matchID, event string, payload interface{})
}

type MatchCreatedPayload struct {
	MatchID   string             `json:"match_id"`
	Team1Name string             `json:"team1_name"`
	Team2Name string             `json:"team2_name"`
	Status    models.MatchStatus `json:"status"`
}

type ScoreUpdatedPayload struct {
	MatchID    string `json:"match_id"`
	TeamName   string `json:"team_name"`
	Team1Score int    `json:"team1_score"`
	Team2Score int    `json:"team2_score"`
}

type TimerUpdatedPayload struct {
	MatchID      string `json:"match_id"`
	TotalSeconds int    `json:"total_seconds"`
	IsPaused     bool   `json:"is_paused"`
}

type EventAddedPayload struct {
	MatchID     string            `json:"match_id"`
	Event       models.MatchEvent `json:"event"`
	EventsCount int               `json:"events_count"`
}

type QuarterChangedPayload struct {
	MatchID        string         `json:"match_id"`
	CurrentQuarter models.Quarter `json:"current_quarter"`
}

type MatchStatusChangedPayload struct {
	MatchID string             `json:"match_id"`
	Status  models.MatchStatus `json:"status"`
}

type MatchDeletedPayload struct {
	MatchID string `json:"match_id"`
}

// CreateLiveMatchInput описывает новый матч. Команда задаётся именем, id из справочника или обоими.
type CreateLiveMatchInput struct {
	MatchID      string
	TournamentID string
	Team1ID      string
	Team2ID      string
	Team1Name    string
	Team2Name    string
	Venue        string
	MatchDate    string
	MatchTime    string
	TotalSeconds int
}

type LiveMatchService struct {
	matches  repositories.LiveMatchRepository
	lookup   *LookupService
	notifier Notifier
	archive  *storage.MatchArchive
	validate *validator.Validate
	logger   *slog.Logger

	newMatchID func() string
	background sync.WaitGroup
}

// NewLiveMatchService создаёт сервис мутаций. archive может быть nil.
func NewLiveMatchService(
	matches repositories.LiveMatchRepository,
	lookup *LookupService,
	notifier Notifier,
	archive *storage.MatchArchive,
	logger *slog.Logger,
) *LiveMatchService {
	return &LiveMatchService{
		matches:    matches,
		lookup:     lookup,
		notifier:   notifier,
		archive:    archive,
		validate:   validator.New(),
		logger:     logger,
		newMatchID: func() string { return xid.New().String() },
	}
}

func (s *LiveMatchService) CreateMatch(ctx context.Context, input CreateLiveMatchInput) (*models.LiveMatch, error) {
	match := &models.LiveMatch{
		MatchID:      strings.TrimSpace(input.MatchID),
		TournamentID: strings.TrimSpace(input.TournamentID),
		Team1ID:      strings.TrimSpace(input.Team1ID),
		Team2ID:      strings.TrimSpace(input.Team2ID),
		Team1Name:    strings.TrimSpace(input.Team1Name),
		Team2Name:    strings.TrimSpace(input.Team2Name),
		Venue:        input.Venue,
		MatchDate:    input.MatchDate,
		MatchTime:    input.MatchTime,
		Status:       models.MatchStatusUpcoming,
		TotalSeconds: input.TotalSeconds,
		IsPaused:     true,
	}
	if !models.ValidTotalSeconds(match.TotalSeconds) {
		return nil, ErrInvalidTimer
	}
	if match.MatchID == "" {
		match.MatchID = s.newMatchID()
	}

	if err := s.resolveTeamSide(ctx, &match.Team1ID, &match.Team1Name, &match.Team1Players); err != nil {
		return nil, fmt.Errorf("team1: %w", err)
	}
	if err := s.resolveTeamSide(ctx, &match.Team2ID, &match.Team2Name, &match.Team2Players); err != nil {
		return nil, fmt.Errorf("team2: %w", err)
	}
	if match.Team1Name == "" || match.Team2Name == "" {
		return nil, ErrTeamNamesRequired
	}
	if match.Team1Name == match.Team2Name {
		return nil, ErrTeamNamesEqual
	}

	if match.TournamentID != "" {
		if _, err := s.lookup.ResolveTournament(ctx, match.TournamentID); err != nil {
			return nil, err
		}
	}

	if err := s.matches.Create(ctx, match); err != nil {
		return nil, handleRepositoryError(err)
	}

	s.logger.InfoContext(ctx, "Live match created",
		slog.String("match_id", match.MatchID),
		slog.String("team1", match.Team1Name),
		slog.String("team2", match.Team2Name))

	s.notifier.Publish(match.MatchID, EventMatchCreated, MatchCreatedPayload{
		MatchID:   match.MatchID,
		Team1Name: match.Team1Name,
		Team2Name: match.Team2Name,
		Status:    match.Status,
	})
	return match, nil
}

// resolveTeamSide дополняет сторону матча из справочника команд: по id, а без id по названию.
// Состав копируется на момент создания и дальше не синхронизируется.
func (s *LiveMatchService) resolveTeamSide(ctx context.Context, teamID, teamName *string, players *[]models.PlayerRef) error {
	var (
		team   *models.Team
		roster []models.PlayerRef
		err    error
	)
	switch {
	case *teamID != "":
		team, roster, err = s.lookup.ResolveTeam(ctx, *teamID)
	case *teamName != "":
		team, roster, err = s.lookup.ResolveTeamByName(ctx, *teamName)
	default:
		return nil
	}
	if err != nil {
		return err
	}

	*teamID = team.TeamID
	if *teamName == "" {
		*teamName = team.TeamName
	}
	*players = roster
	return nil
}

func (s *LiveMatchService) GetMatch(ctx context.Context, matchID string) (*MatchView, error) {
	return s.lookup.GetMatchView(ctx, matchID)
}

func (s *LiveMatchService) ListMatches(ctx context.Context, filter repositories.LiveMatchFilter) ([]*models.LiveMatch, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMatchStatus, *filter.Status)
	}
	matches, err := s.matches.List(ctx, filter)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return matches, nil
}

// UpdateScore увеличивает на единицу счёт команды с указанным названием.
func (s *LiveMatchService) UpdateScore(ctx context.Context, matchID, teamName string) (*models.LiveMatch, error) {
	id, err := normalizeMatchID(matchID)
	if err != nil {
		return nil, err
	}
	if teamName == "" {
		return nil, ErrTeamNameRequired
	}

	match, err := s.matches.GetByMatchID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	side, ok := match.SideOf(teamName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTeamName, teamName)
	}

	updated, err := s.matches.IncrementScore(ctx, id, side)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.notifier.Publish(id, EventScoreUpdated, ScoreUpdatedPayload{
		MatchID:    id,
		TeamName:   teamName,
		Team1Score: updated.Team1Score,
		Team2Score: updated.Team2Score,
	})
	return updated, nil
}

func (s *LiveMatchService) UpdateTimer(ctx context.Context, matchID string, totalSeconds int, isPaused bool) (*models.LiveMatch, error) {
	id, err := normalizeMatchID(matchID)
	if err != nil {
		return nil, err
	}
	if !models.ValidTotalSeconds(totalSeconds) {
		return nil, ErrInvalidTimer
	}

	updated, err := s.matches.UpdateTimer(ctx, id, totalSeconds, isPaused)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.notifier.Publish(id, EventTimerUpdated, TimerUpdatedPayload{
		MatchID:      id,
		TotalSeconds: updated.TotalSeconds,
		IsPaused:     updated.IsPaused,
	})
	return updated, nil
}

// AddEvent дописывает событие в протокол. Счёт не меняется: гол засчитывается отдельным вызовом UpdateScore.
func (s *LiveMatchService) AddEvent(ctx context.Context, matchID string, event models.MatchEvent) (*models.LiveMatch, error) {
	id, err := normalizeMatchID(matchID)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(event); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if !event.Quarter.IsValid() {
		return nil, fmt.Errorf("%w: %w %q", ErrInvalidEvent, ErrInvalidQuarter, event.Quarter)
	}

	updated, err := s.matches.AppendEvent(ctx, id, event)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.notifier.Publish(id, EventEventAdded, EventAddedPayload{
		MatchID:     id,
		Event:       event,
		EventsCount: len(updated.MatchEvents),
	})
	return updated, nil
}

func (s *LiveMatchService) ChangeQuarter(ctx context.Context, matchID string, quarter models.Quarter) (*models.LiveMatch, error) {
	id, err := normalizeMatchID(matchID)
	if err != nil {
		return nil, err
	}
	if !quarter.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidQuarter, quarter)
	}

	updated, err := s.matches.SetQuarter(ctx, id, quarter)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.notifier.Publish(id, EventQuarterChanged, QuarterChangedPayload{
		MatchID:        id,
		CurrentQuarter: updated.CurrentQuarter,
	})
	return updated, nil
}

// ChangeStatus меняет статус матча. При переходе в Finished снимок матча уходит в архив в фоне.
func (s *LiveMatchService) ChangeStatus(ctx context.Context, matchID string, status models.MatchStatus) (*models.LiveMatch, error) {
	id, err := normalizeMatchID(matchID)
	if err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMatchStatus, status)
	}

	updated, err := s.matches.SetStatus(ctx, id, status)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	s.notifier.Publish(id, EventMatchStatusChanged, MatchStatusChangedPayload{
		MatchID: id,
		Status:  updated.Status,
	})

	if updated.Status == models.MatchStatusFinished {
		s.archiveSnapshot(updated)
	}
	return updated, nil
}

func (s *LiveMatchService) DeleteMatch(ctx context.Context, matchID string) error {
	id, err := normalizeMatchID(matchID)
	if err != nil {
		return err
	}

	if err := s.matches.Delete(ctx, id); err != nil {
		return handleRepositoryError(err)
	}

	s.logger.InfoContext(ctx, "Live match deleted", slog.String("match_id", id))
	s.notifier.Publish(id, EventMatchDeleted, MatchDeletedPayload{MatchID: id})

	s.removeSnapshot(id)
	return nil
}

// Wait дожидается завершения фоновых операций с архивом.
func (s *LiveMatchService) Wait() {
	s.background.Wait()
}

func (s *LiveMatchService) archiveSnapshot(match *models.LiveMatch) {
	if s.archive == nil {
		return
	}
	snapshot := *match
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		res, err := s.archive.Store(ctx, &snapshot)
		if err != nil {
			s.logger.Error("Failed to archive finished match", slog.String("match_id", snapshot.MatchID), slog.Any("error", err))
			return
		}
		s.logger.Info("Finished match archived", slog.String("match_id", snapshot.MatchID), slog.String("key", res.Key))
	}()
}

func (s *LiveMatchService) removeSnapshot(matchID string) {
	if s.archive == nil {
		return
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		defer cancel()

		if err := s.archive.Remove(ctx, matchID); err != nil {
			s.logger.Warn("Failed to remove archived match snapshot", slog.String("match_id", matchID), slog.Any("error", err))
		}
	}()
}

// IsBadRequest сообщает, относится ли ошибка к невалидному вводу клиента.
func IsBadRequest(err error) bool {
	for _, target := range []error{
		ErrValidationFailed, ErrMatchIDRequired, ErrTeamNameRequired, ErrUnknownTeamName,
		ErrTeamNamesRequired, ErrTeamNamesEqual, ErrInvalidMatchStatus, ErrInvalidQuarter,
		ErrInvalidTimer, ErrInvalidEvent,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
