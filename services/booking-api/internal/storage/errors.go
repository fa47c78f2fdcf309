package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/md-rashed-zaman/apptbook/services/booking-api/internal/apperr"
)

// Errors returned by every store implementation. They already carry the
// client-facing kind and message.
var (
	ErrTenantSlugTaken     = apperr.Conflict("Tenant slug already exists. Try a different name/slug.")
	ErrUserEmailTaken      = apperr.Conflict("Email already registered for this tenant")
	ErrServiceNameTaken    = apperr.Conflict("A service with this name already exists")
	ErrPriceOutOfRange     = apperr.InvalidInput("price is out of range")
	ErrSlotTaken           = apperr.Conflict("Time slot already booked")
	ErrTenantNotFound      = apperr.NotFound("Tenant not found")
	ErrUserNotFound        = apperr.NotFound("User not found")
	ErrServiceNotFound     = apperr.NotFound("Service not found")
	ErrAppointmentNotFound = apperr.NotFound("Appointment not found")

	// ErrStatusChanged means the appointment no longer had the expected
	// status when the update ran.
	ErrStatusChanged = errors.New("storage: appointment status changed concurrently")
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeExclusionViolation  = "23P01"
	codeNumericOutOfRange   = "22003"
)

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}

func IsExclusionViolation(err error) bool {
	return pgCode(err) == codeExclusionViolation
}

func IsNumericOutOfRange(err error) bool {
	return pgCode(err) == codeNumericOutOfRange
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
