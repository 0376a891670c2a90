package models

import "time"

// Signup представляет запись игрока в турнир.
type Signup struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	UserID       *int      `json:"user_id,omitempty" db:"user_id"`
	PlayerName   string    `json:"player_name" db:"player_name"`
	Email        *string   `json:"email,omitempty" db:"email"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	Paid         bool      `json:"paid" db:"paid"`
	SignedUpAt   time.Time `json:"signed_up_at" db:"signed_up_at"`

	// Данные привязанного пользователя, если запись сделана из-под аккаунта.
	User *SignupUser `json:"user,omitempty" db:"-"`
}

// SignupUser — урезанная проекция пользователя для списка записей.
type SignupUser struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}
