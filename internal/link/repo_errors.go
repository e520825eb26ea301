package link

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sundayezeilo/shortlinks/internal/errx"
)

const (
	pgForeignKeyViolation  = "23503"
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}
	return pgErr.Code
}

func mapRepoError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errx.KindOf(err) != errx.Unknown {
		return errx.Wrap(op, err)
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errx.E(op, errx.NotFound, err)
	}

	switch pgCode(err) {
	case pgForeignKeyViolation:
		return errx.E(op, errx.NotFound, err)
	case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
		return errx.E(op, errx.Conflict, err)
	default:
		return errx.E(op, errx.Unavailable, err)
	}
}
