package main

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrAlreadyMember       = errors.New("already attending this event")
	ErrNotMember           = errors.New("not attending this event")
	ErrCreatorCannotLeave  = errors.New("event creator cannot unattend their own event")
	ErrForbidden           = errors.New("only the event creator can do this")
	ErrEventNotFound       = errors.New("event not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrDuplicateMembership = errors.New("duplicate membership rejected by storage")

	ErrInvalidPurpose     = errors.New("purpose must be one of: Buy, Sell, Both")
	ErrInvalidLikelihood  = errors.New("attendance likelihood must be one of: Definitely, Possibly, Maybe")
	ErrEmailTaken         = errors.New("this email is already registered")
	ErrUsernameTaken      = errors.New("this username is already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// isUniqueViolation recognises unique-constraint failures from every supported driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
