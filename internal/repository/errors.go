package repository

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/streetburger/issuedesk/pkg/util/errorutil"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// SQLSTATE codes the repositories react to.
const (
	pgUndefinedTable     = "42P01"
	pgUndefinedColumn    = "42703"
	pgUndefinedFunction  = "42883"
	pgInfiniteRecursion  = "42P17"
	pgUniqueViolation    = "23505"
	pgInvalidTextRep     = "22P02"
	pgInvalidParameter   = "22023"
	pgNoDataFound        = "P0002"
	pgClassConnection    = "08"
	pgClassInsufficient  = "53"
	pgClassAdminShutdown = "57"
)

func requirePool(ready bool) error {
	if !ready {
		return apperrors.NewStoreUnavailable("database connection is not configured", nil)
	}
	return nil
}

// classify maps driver errors onto the shared error taxonomy. Errors it does
// not recognise are wrapped with the operation name and passed through.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUndefinedTable || pgErr.Code == pgUndefinedColumn:
			return apperrors.NewSchemaMissing(
				"Database setup incomplete. The issue tables are missing. Please run the SQL setup script.", err)
		case pgErr.Code == pgInfiniteRecursion:
			return apperrors.NewSchemaMissing(
				"Database configuration error. Infinite recursion in policies detected. Please run the SQL fix script.", err)
		case pgErr.Code == pgInvalidTextRep || pgErr.Code == pgNoDataFound:
			return ErrNotFound
		case pgErr.Code == pgUniqueViolation:
			return apperrors.NewConflict(pgErr.Message, map[string]any{"constraint": pgErr.ConstraintName})
		case pgErr.Code == pgInvalidParameter:
			return apperrors.NewValidationError(pgErr.Message, nil)
		case len(pgErr.Code) >= 2 && (pgErr.Code[:2] == pgClassConnection ||
			pgErr.Code[:2] == pgClassInsufficient || pgErr.Code[:2] == pgClassAdminShutdown):
			return apperrors.NewStoreUnavailable("database is unavailable: "+pgErr.Message, err)
		}
		return fmt.Errorf("%s: %s: %w", op, pgErr.Message, err)
	}

	var connectErr *pgconn.ConnectError
	var netErr net.Error
	if errors.As(err, &connectErr) || errors.As(err, &netErr) || pgconn.Timeout(err) ||
		errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewStoreUnavailable("database is unreachable", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// classifyRPC is classify for privileged server-side functions.
func classifyRPC(function string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUndefinedFunction {
		return apperrors.NewRemoteFunctionMissing(function)
	}
	return classify(function, err)
}
