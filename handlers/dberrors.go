package handlers

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres unique_violation
const uniqueViolationCode = "23505"

// isUniqueViolation reports whether err is a unique-constraint
// conflict, either as the raw driver error or gorm's translated form.
// Anything else is a plain database failure and maps to 500.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
