package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие значениям в БД.
type TournamentStatus string

const (
	StatusOpen      TournamentStatus = "OPEN"
	StatusFull      TournamentStatus = "FULL"
	StatusCancelled TournamentStatus = "CANCELLED"
	StatusCompleted TournamentStatus = "COMPLETED"
)

// IsValidTournamentStatus проверяет, что строка является одним из известных статусов.
func IsValidTournamentStatus(s TournamentStatus) bool {
	switch s {
	case StatusOpen, StatusFull, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

// Tournament представляет турнир.
type Tournament struct {
	ID          int              `json:"id" db:"id"`
	Name        string           `json:"name" db:"name"`
	Type        *string          `json:"type,omitempty" db:"type"`
	Date        time.Time        `json:"date" db:"date"`
	StartTime   *string          `json:"start_time,omitempty" db:"start_time"`
	Location    *string          `json:"location,omitempty" db:"location"`
	Description *string          `json:"description,omitempty" db:"description"`
	Rules       *string          `json:"rules,omitempty" db:"rules"`
	Prizes      *string          `json:"prizes,omitempty" db:"prizes"`
	MaxPlayers  int              `json:"max_players" db:"max_players"`
	Status      TournamentStatus `json:"status" db:"status"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	PosterKey   *string          `json:"-" db:"poster_key"`
	PosterURL   *string          `json:"poster_url,omitempty" db:"-"`

	// Количество записавшихся; агрегат, не колонка.
	SignupCount int `json:"signup_count" db:"-"`
}
