package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/tournament-signup/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	// Нарушение NOT NULL / CHECK при вставке или обновлении турнира.
	ErrTournamentInvalidData = errors.New("tournament data rejected by the store")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	UpdatePosterKey(ctx context.Context, id int, posterKey *string) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	CountByStatus(ctx context.Context, status *models.TournamentStatus) (int, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	t.id, t.name, t.type, t.date, t.start_time, t.location,
	t.description, t.rules, t.prizes, t.max_players, t.status, t.created_at, t.poster_key,
	(SELECT COUNT(*) FROM tournament_signups s WHERE s.tournament_id = t.id) AS signup_count`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			name, type, date, start_time, location, description, rules, prizes, max_players, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.Name, t.Type, t.Date, t.StartTime, t.Location,
		t.Description, t.Rules, t.Prizes, t.MaxPlayers, t.Status,
	).Scan(&t.ID, &t.CreatedAt)

	return handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + tournamentColumns + ` FROM tournaments t WHERE t.id = $1`

	t := &models.Tournament{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Type, &t.Date, &t.StartTime, &t.Location,
		&t.Description, &t.Rules, &t.Prizes, &t.MaxPlayers, &t.Status, &t.CreatedAt, &t.PosterKey,
		&t.SignupCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments t ORDER BY t.date ASC, t.id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := rows.Scan(
			&t.ID, &t.Name, &t.Type, &t.Date, &t.StartTime, &t.Location,
			&t.Description, &t.Rules, &t.Prizes, &t.MaxPlayers, &t.Status, &t.CreatedAt, &t.PosterKey,
			&t.SignupCount,
		); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $1,
			type = $2,
			date = $3,
			start_time = $4,
			location = $5,
			description = $6,
			rules = $7,
			prizes = $8,
			max_players = $9,
			status = $10
		WHERE id = $11`

	result, err := r.db.ExecContext(ctx, query,
		t.Name, t.Type, t.Date, t.StartTime, t.Location,
		t.Description, t.Rules, t.Prizes, t.MaxPlayers, t.Status,
		t.ID,
	)
	if err != nil {
		return handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) UpdatePosterKey(ctx context.Context, id int, posterKey *string) error {
	query := `UPDATE tournaments SET poster_key = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, posterKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM tournaments WHERE id = $1`
	result, err := executor.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// CountByStatus возвращает число турниров; nil status считает все.
func (r *postgresTournamentRepository) CountByStatus(ctx context.Context, status *models.TournamentStatus) (int, error) {
	query := `SELECT COUNT(*) FROM tournaments`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}

	var count int
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

func handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Name() {
		case "not_null_violation", "check_violation", "invalid_text_representation":
			return ErrTournamentInvalidData
		}
	}
	return err
}
