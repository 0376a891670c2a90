package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-signup/models"
	"github.com/lib/pq"
)

var (
	ErrSignupNotFound = errors.New("signup not found")
	// Сработал UNIQUE (tournament_id, player_name).
	ErrSignupNameConflict = errors.New("player name already signed up for this tournament")
)

type SignupRepository interface {
	Create(ctx context.Context, exec SQLExecutor, signup *models.Signup) error
	GetByID(ctx context.Context, id int) (*models.Signup, error)
	FindByTournamentAndName(ctx context.Context, exec SQLExecutor, tournamentID int, playerName string) (*models.Signup, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Signup, error)
	UpdatePaid(ctx context.Context, id int, paid bool) error
	Delete(ctx context.Context, id int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
	CountAll(ctx context.Context, paidOnly bool) (int, error)
}

type postgresSignupRepository struct {
	db *sql.DB
}

func NewPostgresSignupRepository(db *sql.DB) SignupRepository {
	return &postgresSignupRepository{db: db}
}

func (r *postgresSignupRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSignupRepository) Create(ctx context.Context, exec SQLExecutor, s *models.Signup) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_signups (tournament_id, user_id, player_name, email, phone, notes, paid)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, signed_up_at`

	err := executor.QueryRowContext(ctx, query,
		s.TournamentID, s.UserID, s.PlayerName, s.Email, s.Phone, s.Notes, s.Paid,
	).Scan(&s.ID, &s.SignedUpAt)

	return handleSignupError(err)
}

func (r *postgresSignupRepository) GetByID(ctx context.Context, id int) (*models.Signup, error) {
	query := `
		SELECT id, tournament_id, user_id, player_name, email, phone, notes, paid, signed_up_at
		FROM tournament_signups
		WHERE id = $1`

	s := &models.Signup{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.TournamentID, &s.UserID, &s.PlayerName, &s.Email, &s.Phone, &s.Notes, &s.Paid, &s.SignedUpAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSignupNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresSignupRepository) FindByTournamentAndName(ctx context.Context, exec SQLExecutor, tournamentID int, playerName string) (*models.Signup, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, user_id, player_name, email, phone, notes, paid, signed_up_at
		FROM tournament_signups
		WHERE tournament_id = $1 AND player_name = $2`

	s := &models.Signup{}
	err := executor.QueryRowContext(ctx, query, tournamentID, playerName).Scan(
		&s.ID, &s.TournamentID, &s.UserID, &s.PlayerName, &s.Email, &s.Phone, &s.Notes, &s.Paid, &s.SignedUpAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *postgresSignupRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tournament_signups WHERE tournament_id = $1`,
		tournamentID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresSignupRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Signup, error) {
	query := `
		SELECT
			s.id, s.tournament_id, s.user_id, s.player_name, s.email, s.phone, s.notes, s.paid, s.signed_up_at,
			u.email, u.display_name
		FROM tournament_signups s
		LEFT JOIN users u ON u.id = s.user_id
		WHERE s.tournament_id = $1
		ORDER BY s.signed_up_at ASC, s.id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	signups := make([]models.Signup, 0)
	for rows.Next() {
		var s models.Signup
		var userEmail, userDisplay sql.NullString
		if scanErr := rows.Scan(
			&s.ID, &s.TournamentID, &s.UserID, &s.PlayerName, &s.Email, &s.Phone, &s.Notes, &s.Paid, &s.SignedUpAt,
			&userEmail, &userDisplay,
		); scanErr != nil {
			return nil, scanErr
		}
		if s.UserID != nil && userEmail.Valid {
			s.User = &models.SignupUser{
				Email:       userEmail.String,
				DisplayName: userDisplay.String,
			}
		}
		signups = append(signups, s)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return signups, nil
}

func (r *postgresSignupRepository) UpdatePaid(ctx context.Context, id int, paid bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournament_signups SET paid = $1 WHERE id = $2`,
		paid, id,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSignupNotFound)
}

func (r *postgresSignupRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tournament_signups WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSignupNotFound)
}

// DeleteByTournament удаляет все записи турнира; используется при каскадном
// удалении самого турнира. Ноль затронутых строк — не ошибка.
func (r *postgresSignupRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx,
		`DELETE FROM tournament_signups WHERE tournament_id = $1`,
		tournamentID,
	)
	return err
}

func (r *postgresSignupRepository) CountAll(ctx context.Context, paidOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM tournament_signups`
	if paidOnly {
		query += ` WHERE paid`
	}

	var count int
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

func handleSignupError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "unique_violation":
			if pqErr.Constraint == "tournament_signups_name_uniq" {
				return ErrSignupNameConflict
			}
		case "foreign_key_violation":
			return ErrTournamentNotFound
		}
	}
	return err
}
