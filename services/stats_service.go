package services

import (
	"context"

	"github.com/Dosada05/tournament-signup/auth"
	"github.com/Dosada05/tournament-signup/models"
	"github.com/Dosada05/tournament-signup/repositories"
	"golang.org/x/sync/errgroup"
)

type Stats struct {
	TournamentsTotal int `json:"tournaments_total"`
	TournamentsOpen  int `json:"tournaments_open"`
	SignupsTotal     int `json:"signups_total"`
	SignupsPaid      int `json:"signups_paid"`
	UsersTotal       int `json:"users_total"`
}

// StatsService собирает счётчики для админской панели.
type StatsService interface {
	GetStats(ctx context.Context, caller auth.Identity) (*Stats, error)
}

type statsService struct {
	tournamentRepo repositories.TournamentRepository
	signupRepo     repositories.SignupRepository
	userRepo       repositories.UserRepository
}

func NewStatsService(
	tournamentRepo repositories.TournamentRepository,
	signupRepo repositories.SignupRepository,
	userRepo repositories.UserRepository,
) StatsService {
	return &statsService{
		tournamentRepo: tournamentRepo,
		signupRepo:     signupRepo,
		userRepo:       userRepo,
	}
}

func (s *statsService) GetStats(ctx context.Context, caller auth.Identity) (*Stats, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	stats := &Stats{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.tournamentRepo.CountByStatus(gCtx, nil)
		stats.TournamentsTotal = n
		return err
	})
	g.Go(func() error {
		open := models.StatusOpen
		n, err := s.tournamentRepo.CountByStatus(gCtx, &open)
		stats.TournamentsOpen = n
		return err
	})
	g.Go(func() error {
		n, err := s.signupRepo.CountAll(gCtx, false)
		stats.SignupsTotal = n
		return err
	})
	g.Go(func() error {
		n, err := s.signupRepo.CountAll(gCtx, true)
		stats.SignupsPaid = n
		return err
	})
	g.Go(func() error {
		n, err := s.userRepo.Count(gCtx)
		stats.UsersTotal = n
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
