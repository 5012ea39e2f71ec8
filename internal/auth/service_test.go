package auth

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/kalori-makanan/dashboard-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testAuthService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	db.AutoMigrate(&models.User{})

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewService(db, logger, 5*time.Second), db
}

func TestSignup(t *testing.T) {
	svc, db := testAuthService(t)
	ctx := context.Background()

	t.Run("CreatesUser", func(t *testing.T) {
		user, err := svc.Signup(ctx, "Aina", "aina@example.com", "secret-password")
		if err != nil {
			t.Fatalf("Signup returned error: %v", err)
		}
		if user.Email != "aina@example.com" {
			t.Errorf("expected normalized email, got %q", user.Email)
		}
		if user.PasswordHash != "" {
			t.Error("returned user must not carry the password digest")
		}

		var stored models.User
		if err := db.First(&stored, user.ID).Error; err != nil {
			t.Fatalf("failed to load created user: %v", err)
		}
		if stored.PasswordHash != HashPassword("secret-password") {
			t.Error("persisted digest does not match the password")
		}
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := svc.Signup(ctx, "Other", "aina@example.com", "another-password")
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Fatalf("expected ErrDuplicateEmail, got %v", err)
		}

		var count int64
		db.Model(&models.User{}).Where("email = ?", "aina@example.com").Count(&count)
		if count != 1 {
			t.Errorf("expected 1 user for the email, got %d", count)
		}
	})

	t.Run("MissingFields", func(t *testing.T) {
		if _, err := svc.Signup(ctx, "", "x@example.com", "pw"); !errors.Is(err, ErrMissingFields) {
			t.Errorf("expected ErrMissingFields, got %v", err)
		}
	})
}

func TestLogin(t *testing.T) {
	svc, _ := testAuthService(t)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, "Aina", "aina@example.com", "secret-password"); err != nil {
		t.Fatalf("Signup returned error: %v", err)
	}

	t.Run("Success", func(t *testing.T) {
		user, err := svc.Login(ctx, "aina@example.com", "secret-password")
		if err != nil {
			t.Fatalf("Login returned error: %v", err)
		}
		if user.Name != "Aina" {
			t.Errorf("expected user Aina, got %q", user.Name)
		}
		if user.PasswordHash != "" {
			t.Error("returned user must not carry the password digest")
		}
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := svc.Login(ctx, "aina@example.com", "wrong-password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "secret-password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("IndistinguishableFailures", func(t *testing.T) {
		_, wrongPw := svc.Login(ctx, "aina@example.com", "wrong-password")
		_, unknown := svc.Login(ctx, "nobody@example.com", "whatever")
		if wrongPw.Error() != unknown.Error() {
			t.Errorf("login failures must be indistinguishable: %q vs %q", wrongPw, unknown)
		}
	})
}

func TestHashPassword(t *testing.T) {
	digest := HashPassword("secret-password")
	if len(digest) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(digest))
	}
	if !VerifyPassword("secret-password", digest) {
		t.Error("password failed to verify against its own digest")
	}
	if VerifyPassword("other-password", digest) {
		t.Error("wrong password verified")
	}
}
