package models

import (
	"math"
	"time"
)

// MatchStatus задаёт статус live-матча. Закрытый набор значений.
type MatchStatus string

const (
	MatchStatusUpcoming MatchStatus = "Upcoming"
	MatchStatusLive     MatchStatus = "Live"
	MatchStatusFinished MatchStatus = "Finished"
)

func (s MatchStatus) IsValid() bool {
	switch s {
	case MatchStatusUpcoming, MatchStatusLive, MatchStatusFinished:
		return true
	}
	return false
}

// Quarter обозначает период матча (четверть) или овертайм.
type Quarter string

const (
	QuarterQ1        Quarter = "Q1"
	QuarterQ2        Quarter = "Q2"
	QuarterQ3        Quarter = "Q3"
	QuarterQ4        Quarter = "Q4"
	QuarterExtraTime Quarter = "Extra Time"
)

func (q Quarter) IsValid() bool {
	switch q {
	case QuarterQ1, QuarterQ2, QuarterQ3, QuarterQ4, QuarterExtraTime:
		return true
	}
	return false
}

// DefaultQuarters возвращает порядок четвертей для нового матча.
func DefaultQuarters() []Quarter {
	return []Quarter{QuarterQ1, QuarterQ2, QuarterQ3, QuarterQ4}
}

// Известные типы событий. Поле MatchEvent.Type ими не ограничено.
const (
	EventTypeGoal                = "Goal"
	EventTypePenaltyCornerEarned = "Penalty Corner Earned"
	EventTypePCScored            = "PC Scored"
	EventTypeGreenCard           = "Green Card"
	EventTypeYellowCard          = "Yellow Card"
	EventTypeRedCard             = "Red Card"
)

// MaxTotalSeconds ограничен колонкой INTEGER в Postgres.
const MaxTotalSeconds = math.MaxInt32

// ValidTotalSeconds сообщает, помещается ли значение таймера в хранилище.
func ValidTotalSeconds(n int) bool {
	return n >= 0 && n <= MaxTotalSeconds
}

// TeamSide указывает, чей счёт увеличивать.
type TeamSide int

const (
	Team1 TeamSide = 1
	Team2 TeamSide = 2
)

// PlayerRef хранит снимок игрока состава на момент создания матча.
type PlayerRef struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`
}

// MatchEvent описывает запись протокола матча (гол, карточка, штрафной угловой...).
type MatchEvent struct {
	Time       string  `json:"time" validate:"required"`
	Team       string  `json:"team" validate:"required"`
	PlayerID   string  `json:"player_id" validate:"required"`
	PlayerName string  `json:"player_name" validate:"required"`
	Type       string  `json:"type" validate:"required"`
	Quarter    Quarter `json:"quarter" validate:"required"`
}

// LiveMatch хранит состояние одного матча: счёт, таймер, четверть, составы и протокол событий.
// MatchID является публичным идентификатором, неизменяемым после создания.
type LiveMatch struct {
	MatchID      string `json:"match_id"`
	TournamentID string `json:"tournament_id,omitempty"`

	Team1Name string `json:"team1_name"`
	Team2Name string `json:"team2_name"`
	Team1ID   string `json:"team1_id,omitempty"`
	Team2ID   string `json:"team2_id,omitempty"`

	Venue     string `json:"venue"`
	MatchDate string `json:"match_date"`
	MatchTime string `json:"match_time"`

	Status MatchStatus `json:"status"`

	Team1Score int `json:"team1_score"`
	Team2Score int `json:"team2_score"`

	Quarters       []Quarter `json:"quarters"`
	CurrentQuarter Quarter   `json:"current_quarter"`

	TotalSeconds int  `json:"total_seconds"`
	IsPaused     bool `json:"is_paused"`

	Team1Players []PlayerRef  `json:"team1_players"`
	Team2Players []PlayerRef  `json:"team2_players"`
	MatchEvents  []MatchEvent `json:"match_events"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SideOf возвращает сторону по названию команды. Сравнение точное, как в исходных данных.
func (m *LiveMatch) SideOf(teamName string) (TeamSide, bool) {
	switch teamName {
	case "":
		return 0, false
	case m.Team1Name:
		return Team1, true
	case m.Team2Name:
		return Team2, true
	}
	return 0, false
}

// ApplyDefaults заполняет значения по умолчанию для нового матча.
func (m *LiveMatch) ApplyDefaults() {
	if m.Status == "" {
		m.Status = MatchStatusUpcoming
	}
	if len(m.Quarters) == 0 {
		m.Quarters = DefaultQuarters()
	}
	if m.CurrentQuarter == "" {
		m.CurrentQuarter = QuarterQ1
	}
	if m.Team1Players == nil {
		m.Team1Players = []PlayerRef{}
	}
	if m.Team2Players == nil {
		m.Team2Players = []PlayerRef{}
	}
	if m.MatchEvents == nil {
		m.MatchEvents = []MatchEvent{}
	}
}
