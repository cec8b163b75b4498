package engine

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrSelfTransfer      = errors.New("cannot transfer to self")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrOverflow          = errors.New("balance overflow")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// classifyStore tags transport-level persistence failures with
// ErrStoreUnavailable so callers can tell a retryable infrastructure
// fault from a business rejection. Anything else passes through as is.
func classifyStore(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		// 08 connection_exception, 53 insufficient_resources,
		// 57 operator_intervention (incl. 57014 query_canceled), 58 system_error
		case "08", "53", "57", "58":
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	}

	return err
}
