package apperrors

import (
	"context"
	"database/sql/driver"
	stdErrors "errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// transientSQLStates are postgres error codes that clear up on retry.
var transientSQLStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"57P01": true, // admin_shutdown
	"57P03": true, // cannot_connect_now
	"53300": true, // too_many_connections
}

// FromDB classifies a database error. Typed errors pass through untouched.
func FromDB(err error, message string) error {
	if err == nil {
		return nil
	}
	if As(err) != nil {
		return err
	}
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return Wrap(CodeNotFound, err, message)
	}
	if IsTransient(err) {
		return Wrap(CodeTransient, err, message)
	}
	return Wrap(CodeInternal, err, message)
}

// IsTransient reports whether err looks like a connectivity or contention failure.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if stdErrors.Is(err, driver.ErrBadConn) || stdErrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if stdErrors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || transientSQLStates[pgErr.Code]
	}
	var netErr net.Error
	if stdErrors.As(err, &netErr) {
		return true
	}
	var connectErr *pgconn.ConnectError
	return stdErrors.As(err, &connectErr)
}
