package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-signup/auth"
	"github.com/Dosada05/tournament-signup/models"
	"github.com/Dosada05/tournament-signup/repositories"
)

// RosterNotifier уведомляет подписчиков об изменении состава турнира.
// Реализуется websocket-хабом; nil отключает уведомления.
type RosterNotifier interface {
	BroadcastToRoom(roomID string, message interface{})
}

const (
	eventSignupCreated   = "SIGNUP_CREATED"
	eventSignupCancelled = "SIGNUP_CANCELLED"
)

type SignupInput struct {
	PlayerName string  `json:"player_name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Notes      *string `json:"notes"`
}

// SignupService инкапсулирует допуск, просмотр и отмену записей в турнир.
type SignupService interface {
	Admit(ctx context.Context, tournamentID int, input SignupInput, caller auth.Identity) (*models.Signup, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Signup, error)
	SetPaid(ctx context.Context, signupID int, paid bool, caller auth.Identity) (*models.Signup, error)
	Cancel(ctx context.Context, signupID int, caller auth.Identity) error
}

type signupService struct {
	db             *sql.DB
	signupRepo     repositories.SignupRepository
	tournamentRepo repositories.TournamentRepository
	notifier       RosterNotifier
}

func NewSignupService(
	db *sql.DB,
	signupRepo repositories.SignupRepository,
	tournamentRepo repositories.TournamentRepository,
	notifier RosterNotifier,
) SignupService {
	return &signupService{
		db:             db,
		signupRepo:     signupRepo,
		tournamentRepo: tournamentRepo,
		notifier:       notifier,
	}
}

// Admit проверяет и допускает запись в турнир. Порядок проверок фиксирован:
// имя → существование турнира → статус OPEN → дубликат имени → вместимость.
// Проверки и вставка выполняются в одной транзакции; уникальный констрейнт
// (tournament_id, player_name) страхует гонку двух одновременных вставок.
func (s *signupService) Admit(ctx context.Context, tournamentID int, input SignupInput, caller auth.Identity) (*models.Signup, error) {
	playerName := strings.TrimSpace(input.PlayerName)
	if playerName == "" {
		return nil, ErrPlayerNameRequired
	}

	signup := &models.Signup{
		TournamentID: tournamentID,
		PlayerName:   playerName,
		Email:        trimPtr(input.Email),
		Phone:        trimPtr(input.Phone),
		Notes:        trimPtr(input.Notes),
		Paid:         false,
	}
	if caller.IsAuthenticated() {
		userID := caller.UserID
		signup.UserID = &userID
	}

	var rosterSize int
	err := runInTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return fmt.Errorf("failed to load tournament %d: %w", tournamentID, err)
		}

		if tournament.Status != models.StatusOpen {
			return ErrRegistrationNotOpen
		}

		existing, err := s.signupRepo.FindByTournamentAndName(ctx, exec, tournamentID, playerName)
		if err != nil {
			return fmt.Errorf("failed to check for duplicate signup: %w", err)
		}
		if existing != nil {
			return ErrPlayerNameConflict
		}

		count, err := s.signupRepo.CountByTournament(ctx, exec, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to count signups: %w", err)
		}
		if count >= tournament.MaxPlayers {
			return ErrTournamentFull
		}

		if err := s.signupRepo.Create(ctx, exec, signup); err != nil {
			if errors.Is(err, repositories.ErrSignupNameConflict) {
				return ErrPlayerNameConflict
			}
			return fmt.Errorf("failed to create signup: %w", err)
		}
		rosterSize = count + 1
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyRosterChange(eventSignupCreated, tournamentID, rosterSize, signup)
	return signup, nil
}

func (s *signupService) ListByTournament(ctx context.Context, tournamentID int) ([]models.Signup, error) {
	return s.signupRepo.ListByTournament(ctx, tournamentID)
}

// SetPaid меняет отметку об оплате. Только для админа.
func (s *signupService) SetPaid(ctx context.Context, signupID int, paid bool, caller auth.Identity) (*models.Signup, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	signup, err := s.signupRepo.GetByID(ctx, signupID)
	if err != nil {
		if errors.Is(err, repositories.ErrSignupNotFound) {
			return nil, ErrSignupNotFound
		}
		return nil, err
	}

	if err := s.signupRepo.UpdatePaid(ctx, signupID, paid); err != nil {
		if errors.Is(err, repositories.ErrSignupNotFound) {
			return nil, ErrSignupNotFound
		}
		return nil, err
	}

	signup.Paid = paid
	return signup, nil
}

// Cancel удаляет запись. Анонимно отменять нельзя; владелец отменяет свою
// запись, админ — любую. Запись без user_id (анонимная) доступна только админу.
func (s *signupService) Cancel(ctx context.Context, signupID int, caller auth.Identity) error {
	signup, err := s.signupRepo.GetByID(ctx, signupID)
	if err != nil {
		if errors.Is(err, repositories.ErrSignupNotFound) {
			return ErrSignupNotFound
		}
		return err
	}

	if !caller.IsAuthenticated() {
		return ErrAuthenticationRequired
	}
	isOwner := signup.UserID != nil && *signup.UserID == caller.UserID
	if !isOwner && !caller.IsAdmin() {
		return ErrForbiddenOperation
	}

	if err := s.signupRepo.Delete(ctx, signupID); err != nil {
		if errors.Is(err, repositories.ErrSignupNotFound) {
			return ErrSignupNotFound
		}
		return err
	}

	rosterSize, countErr := s.signupRepo.CountByTournament(ctx, nil, signup.TournamentID)
	if countErr != nil {
		rosterSize = -1
	}
	s.notifyRosterChange(eventSignupCancelled, signup.TournamentID, rosterSize, signup)
	return nil
}

func (s *signupService) notifyRosterChange(eventType string, tournamentID, rosterSize int, signup *models.Signup) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastToRoom(strconv.Itoa(tournamentID), map[string]interface{}{
		"type":          eventType,
		"tournament_id": tournamentID,
		"signup_count":  rosterSize,
		"signup":        signup,
	})
}
