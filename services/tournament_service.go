package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/tournament-signup/auth"
	"github.com/Dosada05/tournament-signup/models"
	"github.com/Dosada05/tournament-signup/repositories"
	"github.com/Dosada05/tournament-signup/storage"
)

type CreateTournamentInput struct {
	Name        string  `json:"name"`
	Type        *string `json:"type"`
	Date        string  `json:"date"`
	StartTime   *string `json:"start_time"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	Rules       *string `json:"rules"`
	Prizes      *string `json:"prizes"`
	MaxPlayers  int     `json:"max_players"`
}

// UpdateTournamentInput — частичное обновление: применяются только
// присутствующие в запросе поля.
type UpdateTournamentInput struct {
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	Date        *string `json:"date"`
	StartTime   *string `json:"start_time"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	Rules       *string `json:"rules"`
	Prizes      *string `json:"prizes"`
	MaxPlayers  *int    `json:"max_players"`
	Status      *string `json:"status"`
}

// TournamentService инкапсулирует жизненный цикл турниров.
type TournamentService interface {
	List(ctx context.Context) ([]models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	Create(ctx context.Context, input CreateTournamentInput, caller auth.Identity) (*models.Tournament, error)
	Update(ctx context.Context, id int, input UpdateTournamentInput, caller auth.Identity) (*models.Tournament, error)
	Delete(ctx context.Context, id int, caller auth.Identity) error
	UploadPoster(ctx context.Context, id int, contentType string, file io.Reader, caller auth.Identity) (*models.Tournament, error)
}

type tournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	signupRepo     repositories.SignupRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	signupRepo repositories.SignupRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		signupRepo:     signupRepo,
		uploader:       uploader,
		logger:         logger,
	}
}

func (s *tournamentService) List(ctx context.Context) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for i := range tournaments {
		s.populatePosterURL(&tournaments[i])
	}
	return tournaments, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	s.populatePosterURL(tournament)
	return tournament, nil
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput, caller auth.Identity) (*models.Tournament, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	date, err := parseTournamentDate(input.Date)
	if err != nil {
		return nil, ErrTournamentInvalidDate
	}

	tournament := &models.Tournament{
		Name:        strings.TrimSpace(input.Name),
		Type:        trimPtr(input.Type),
		Date:        date,
		StartTime:   trimPtr(input.StartTime),
		Location:    trimPtr(input.Location),
		Description: trimPtr(input.Description),
		Rules:       trimPtr(input.Rules),
		Prizes:      trimPtr(input.Prizes),
		MaxPlayers:  input.MaxPlayers,
		Status:      models.StatusOpen,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentInvalidData) {
			return nil, ErrValidationFailed
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.logger.Info("tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.String("name", tournament.Name))
	return tournament, nil
}

func (s *tournamentService) Update(ctx context.Context, id int, input UpdateTournamentInput, caller auth.Identity) (*models.Tournament, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	if input.Name != nil {
		tournament.Name = strings.TrimSpace(*input.Name)
	}
	if input.Type != nil {
		tournament.Type = trimPtr(input.Type)
	}
	if input.Date != nil {
		date, parseErr := parseTournamentDate(*input.Date)
		if parseErr != nil {
			return nil, ErrTournamentInvalidDate
		}
		tournament.Date = date
	}
	if input.StartTime != nil {
		tournament.StartTime = trimPtr(input.StartTime)
	}
	if input.Location != nil {
		tournament.Location = trimPtr(input.Location)
	}
	if input.Description != nil {
		tournament.Description = trimPtr(input.Description)
	}
	if input.Rules != nil {
		tournament.Rules = trimPtr(input.Rules)
	}
	if input.Prizes != nil {
		tournament.Prizes = trimPtr(input.Prizes)
	}
	if input.MaxPlayers != nil {
		tournament.MaxPlayers = *input.MaxPlayers
	}
	if input.Status != nil {
		status := models.TournamentStatus(*input.Status)
		if !models.IsValidTournamentStatus(status) {
			return nil, ErrTournamentInvalidStatus
		}
		tournament.Status = status
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentNotFound):
			return nil, ErrTournamentNotFound
		case errors.Is(err, repositories.ErrTournamentInvalidData):
			return nil, ErrValidationFailed
		}
		return nil, fmt.Errorf("failed to update tournament %d: %w", id, err)
	}

	s.populatePosterURL(tournament)
	return tournament, nil
}

// Delete удаляет турнир вместе со всеми его записями. Турнир владеет
// записями, поэтому каскад выполняется явно и в одной транзакции.
func (s *tournamentService) Delete(ctx context.Context, id int, caller auth.Identity) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}

	err := runInTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		if err := s.signupRepo.DeleteByTournament(ctx, exec, id); err != nil {
			return fmt.Errorf("failed to delete signups of tournament %d: %w", id, err)
		}
		if err := s.tournamentRepo.Delete(ctx, exec, id); err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return fmt.Errorf("failed to delete tournament %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("tournament deleted", slog.Int("tournament_id", id))
	return nil
}

// UploadPoster сохраняет постер турнира в объектное хранилище и запоминает
// ключ. Предыдущий постер удаляется best-effort.
func (s *tournamentService) UploadPoster(ctx context.Context, id int, contentType string, file io.Reader, caller auth.Identity) (*models.Tournament, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, ErrStorageUnavailable
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%d/poster-%d", id, time.Now().UnixNano())
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload poster: %w", err)
	}

	oldKey := tournament.PosterKey
	if err := s.tournamentRepo.UpdatePosterKey(ctx, id, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store poster key: %w", err)
	}
	tournament.PosterKey = &result.Key

	if oldKey != nil && *oldKey != result.Key {
		if delErr := s.uploader.Delete(ctx, *oldKey); delErr != nil {
			s.logger.Warn("failed to delete previous poster",
				slog.String("key", *oldKey), slog.Any("error", delErr))
		}
	}

	s.populatePosterURL(tournament)
	return tournament, nil
}

func (s *tournamentService) populatePosterURL(t *models.Tournament) {
	if s.uploader == nil || t.PosterKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*t.PosterKey)
	t.PosterURL = &url
}

// parseTournamentDate принимает дату календарного вида или полную метку RFC 3339.
func parseTournamentDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
