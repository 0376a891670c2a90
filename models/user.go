package models

import "time"

type User struct {
	ID          int       `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	// NULL для пользователей, пришедших через OAuth.
	PasswordHash *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
