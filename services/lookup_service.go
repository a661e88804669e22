package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/hockey-live/models"
	"github.com/Dosada05/hockey-live/repositories"
	"github.com/Dosada05/hockey-live/storage"
)

// MatchView содержит запись матча, дополненную названиями из справочников.
type MatchView struct {
	*models.LiveMatch
	Team1DisplayName string `json:"team1_display_name"`
	Team2DisplayName string `json:"team2_display_name"`
	TournamentName   string `json:"tournament_name"`
	ArchiveURL       string `json:"archive_url,omitempty"`
}

type LookupService struct {
	matches     repositories.LiveMatchRepository
	teams       repositories.TeamRepository
	members     repositories.TeamMemberRepository
	tournaments repositories.TournamentRepository
	archive     *storage.MatchArchive
	logger      *slog.Logger
}

// NewLookupService создаёт сервис поиска. archive может быть nil.
func NewLookupService(
	matches repositories.LiveMatchRepository,
	teams repositories.TeamRepository,
	members repositories.TeamMemberRepository,
	tournaments repositories.TournamentRepository,
	archive *storage.MatchArchive,
	logger *slog.Logger,
) *LookupService {
	return &LookupService{
		matches:     matches,
		teams:       teams,
		members:     members,
		tournaments: tournaments,
		archive:     archive,
		logger:      logger,
	}
}

func (s *LookupService) GetMatchView(ctx context.Context, matchID string) (*MatchView, error) {
	id, err := normalizeMatchID(matchID)
	if err != nil {
		return nil, err
	}

	match, err := s.matches.GetByMatchID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	view := &MatchView{LiveMatch: match}

	g, gctx := errgroup.WithContext(ctx)
	if match.Team1ID != "" {
		g.Go(func() error {
			name, err := s.teamName(gctx, match.Team1ID)
			view.Team1DisplayName = name
			return err
		})
	}
	if match.Team2ID != "" {
		g.Go(func() error {
			name, err := s.teamName(gctx, match.Team2ID)
			view.Team2DisplayName = name
			return err
		})
	}
	if match.TournamentID != "" {
		g.Go(func() error {
			t, err := s.tournaments.GetByTournamentID(gctx, match.TournamentID)
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				s.logger.WarnContext(ctx, "Tournament of live match not found",
					slog.String("match_id", id), slog.String("tournament_id", match.TournamentID))
				return nil
			}
			if err != nil {
				return err
			}
			view.TournamentName = t.TournamentName
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: directory lookup for match %s: %w", ErrUnavailable, id, err)
	}

	if s.archive != nil && match.Status == models.MatchStatusFinished {
		view.ArchiveURL = s.archive.URL(match.MatchID)
	}
	return view, nil
}

// teamName возвращает пустую строку, если команды нет в справочнике.
func (s *LookupService) teamName(ctx context.Context, teamID string) (string, error) {
	team, err := s.teams.GetByTeamID(ctx, teamID)
	if errors.Is(err, repositories.ErrTeamNotFound) {
		s.logger.WarnContext(ctx, "Team of live match not found", slog.String("team_id", teamID))
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return team.TeamName, nil
}

// ResolveTeam возвращает команду и снимок её состава (только участники с ролью Player).
func (s *LookupService) ResolveTeam(ctx context.Context, teamID string) (*models.Team, []models.PlayerRef, error) {
	team, err := s.teams.GetByTeamID(ctx, teamID)
	if err != nil {
		return nil, nil, handleRepositoryError(err)
	}
	return s.withRoster(ctx, team)
}

// ResolveTeamByName ищет команду по точному названию.
func (s *LookupService) ResolveTeamByName(ctx context.Context, name string) (*models.Team, []models.PlayerRef, error) {
	team, err := s.teams.GetByName(ctx, name)
	if errors.Is(err, repositories.ErrTeamNotFound) {
		return nil, nil, fmt.Errorf("%w: %q", ErrTeamNotFound, name)
	}
	if err != nil {
		return nil, nil, handleRepositoryError(err)
	}
	return s.withRoster(ctx, team)
}

func (s *LookupService) withRoster(ctx context.Context, team *models.Team) (*models.Team, []models.PlayerRef, error) {
	members, err := s.members.ListByTeamID(ctx, team.TeamID)
	if err != nil {
		return nil, nil, handleRepositoryError(err)
	}

	players := make([]models.PlayerRef, 0, len(members))
	for _, m := range members {
		if !strings.EqualFold(m.Role, models.MemberRolePlayer) {
			continue
		}
		players = append(players, models.PlayerRef{PlayerID: m.UserID, PlayerName: m.Name})
	}
	return team, players, nil
}

func (s *LookupService) ResolveTournament(ctx context.Context, tournamentID string) (*models.Tournament, error) {
	t, err := s.tournaments.GetByTournamentID(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return t, nil
}
