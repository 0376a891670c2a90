package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-signup/auth"
	"github.com/Dosada05/tournament-signup/repositories"
)

// requireAdmin различает "не аутентифицирован" и "не хватает прав".
func requireAdmin(caller auth.Identity) error {
	if !caller.IsAuthenticated() {
		return ErrAuthenticationRequired
	}
	if !caller.IsAdmin() {
		return ErrForbiddenOperation
	}
	return nil
}

// runInTx выполняет fn внутри транзакции. При nil db (репозитории без общего
// пула) шаги выполняются без транзакции, каждый на своём соединении.
func runInTx(ctx context.Context, db *sql.DB, fn func(exec repositories.SQLExecutor) error) error {
	if db == nil {
		return fn(nil)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// trimPtr обрезает пробелы; пустая после обрезки строка превращается в nil.
func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
