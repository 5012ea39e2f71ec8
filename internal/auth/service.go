package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kalori-makanan/dashboard-api/internal/database"
	"github.com/kalori-makanan/dashboard-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Service implements signup and login against the hashed-password scheme.
type Service struct {
	db      *gorm.DB
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewService(db *gorm.DB, logger *logrus.Logger, timeout time.Duration) *Service {
	return &Service{
		db:      db,
		log:     logger.WithField("component", "auth"),
		timeout: timeout,
	}
}

func (s *Service) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Signup creates a new user. The returned record never carries the password
// digest.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	user := models.User{
		Name:         name,
		Email:        email,
		PasswordHash: HashPassword(password),
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, database.WrapError(s.log, "signup", err)
	}

	user.PasswordHash = ""
	return &user, nil
}

// Login authenticates by email and password. Unknown email and wrong
// password yield the identical error.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, database.WrapError(s.log, "login", err)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	user.PasswordHash = ""
	return &user, nil
}

// GetUserByID loads a user for the /me endpoint.
func (s *Service) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, database.WrapError(s.log, "getUserById", err)
	}

	user.PasswordHash = ""
	return &user, nil
}
