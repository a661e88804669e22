package models

// Team описывает запись справочника команд. Ведётся сервисом регистрации.
type Team struct {
	TeamID       string  `json:"team_id" db:"team_id"`
	TeamName     string  `json:"team_name" db:"team_name"`
	TournamentID *string `json:"tournament_id,omitempty" db:"tournament_id"`
	City         string  `json:"city" db:"city"`
	LogoURL      *string `json:"logo_url,omitempty" db:"logo_url"`
}

// TeamMember описывает участника команды (игрок, тренер и т.д.).
type TeamMember struct {
	TeamID      string `json:"team_id" db:"team_id"`
	UserID      string `json:"user_id" db:"user_id"`
	Name        string `json:"name" db:"name"`
	Role        string `json:"role" db:"role"`
	PhoneNumber string `json:"phone_number" db:"phone_number"`
}

const MemberRolePlayer = "Player"
