package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrTimeout marks any datastore or upstream call that exceeded its deadline.
var ErrTimeout = errors.New("operation timed out")

// PersistenceError is the opaque failure returned for datastore errors that
// are not one of the specifically recognized kinds. The underlying error is
// logged at the choke point and kept for unwrapping, but handlers must never
// surface it to the end user.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("database operation failed: %s", e.Op)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// WrapError is the single funnel for datastore failures. Specific kinds
// (duplicate email, invalid credentials, not-found/unauthorized) are detected
// by the services before reaching this point; everything arriving here is
// logged with the failing operation's name and rethrown opaque, except
// deadline expiry which becomes ErrTimeout.
func WrapError(log logrus.FieldLogger, op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		log.WithField("operation", op).Warn("Database operation timed out")
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	log.WithError(err).WithField("operation", op).Error("Database operation failed")
	return &PersistenceError{Op: op, Err: err}
}

// IsUniqueViolation reports whether err is a uniqueness-constraint failure.
// GORM normalizes this for some dialects; the sqlite driver surfaces it as
// message text, so both are checked.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
