package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestWrapError(t *testing.T) {
	t.Run("Timeout", func(t *testing.T) {
		err := WrapError(testLogger(), "createApiKey", fmt.Errorf("query: %w", context.DeadlineExceeded))
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("Opaque", func(t *testing.T) {
		cause := errors.New("disk I/O error")
		err := WrapError(testLogger(), "createApiKey", cause)

		var pe *PersistenceError
		if !errors.As(err, &pe) {
			t.Fatalf("expected PersistenceError, got %v", err)
		}
		if pe.Op != "createApiKey" {
			t.Errorf("expected operation name in error, got %q", pe.Op)
		}
		if !errors.Is(err, cause) {
			t.Error("expected the cause to remain unwrappable")
		}
		// The user-facing message must not leak the raw datastore error.
		if pe.Error() != "database operation failed: createApiKey" {
			t.Errorf("unexpected message %q", pe.Error())
		}
	})
}

func TestIsUniqueViolation(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"Nil", nil, false},
		{"GormSentinel", gorm.ErrDuplicatedKey, true},
		{"SqliteMessage", errors.New("UNIQUE constraint failed: users.email"), true},
		{"Other", errors.New("no such table: users"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsUniqueViolation(tc.err); got != tc.want {
				t.Errorf("IsUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
