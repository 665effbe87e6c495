package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// IsRetryable reports whether a PostgreSQL error is transient: the statement never
// reached the server, the connection dropped (class 08), or a serialization failure (40001).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if pgconn.SafeToRetry(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "40001"
	}

	return false
}
