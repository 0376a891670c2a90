package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ошибки валидации и бизнес-правил
	ErrValidationFailed        = errors.New("validation failed")
	ErrPlayerNameRequired      = errors.New("player name is required")
	ErrRegistrationNotOpen     = errors.New("tournament is not open for signups")
	ErrTournamentFull          = errors.New("tournament is full")
	ErrPasswordTooShort        = errors.New("password is too short")
	ErrTournamentInvalidDate   = errors.New("invalid tournament date")
	ErrTournamentInvalidStatus = errors.New("invalid tournament status provided")

	// Ошибки конфликтов
	ErrPlayerNameConflict = errors.New("this player name is already signed up for this tournament")
	ErrUserEmailConflict  = errors.New("email address is already in use")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrAuthInvalidCredentials = errors.New("invalid email or password")

	// Ошибки, специфичные для сущностей
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrSignupNotFound     = errors.New("signup not found")
	ErrUserNotFound       = errors.New("user not found")

	// Хранилище постеров не сконфигурировано
	ErrStorageUnavailable = errors.New("file storage is not configured")
)
