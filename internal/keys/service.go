package keys

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

// Key is the view of an API key returned to its owner. The plaintext secret
// is never part of this struct.
type Key struct {
	ID         uint       `json:"id"`
	UserID     uint       `json:"user_id"`
	Name       string     `json:"name"`
	KeyPreview string     `json:"key_preview"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	IsActive   bool       `json:"is_active"`
	UsageCount int64      `json:"usage_count"`
}

// KeyWithSecret is returned by Create only. Secret is the one-time plaintext;
// it is unrecoverable after this response.
type KeyWithSecret struct {
	Key
	Secret string `json:"key"`
}

// Service manages the lifecycle of a user's API keys. Every mutating
// statement carries the ownership predicate (`id = ? AND user_id = ?`) so
// that authorization and mutation are a single atomic operation.
type Service struct {
	db      *gorm.DB
	log     logrus.FieldLogger
	timeout time.Duration
}

func NewService(db *gorm.DB, logger *logrus.Logger, timeout time.Duration) *Service {
	return &Service{
		db:      db,
		log:     logger.WithField("component", "keys"),
		timeout: timeout,
	}
}

func (s *Service) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Create issues a new key for the user and returns it together with the
// one-time plaintext secret.
func (s *Service) Create(ctx context.Context, userID uint, name string) (*KeyWithSecret, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	secret, err := GenerateKey()
	if err != nil {
		return nil, err
	}

	record := models.APIKey{
		UserID:     userID,
		KeyHash:    HashKey(secret),
		KeyPreview: Preview(secret),
		Name:       name,
		IsActive:   true,
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, database.WrapError(s.log, "createApiKey", err)
	}

	return &KeyWithSecret{
		Key: Key{
			ID:         record.ID,
			UserID:     record.UserID,
			Name:       record.Name,
			KeyPreview: record.KeyPreview,
			CreatedAt:  record.CreatedAt,
			LastUsedAt: record.LastUsedAt,
			IsActive:   record.IsActive,
		},
		Secret: secret,
	}, nil
}

// List returns all of the user's keys, newest first, each annotated with its
// lifetime request count from the rate-limit log.
func (s *Service) List(ctx context.Context, userID uint) ([]Key, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var result []Key
	err := s.db.WithContext(ctx).
		Model(&models.APIKey{}).
		Select("api_keys.id, api_keys.user_id, api_keys.name, api_keys.key_preview, api_keys.created_at, api_keys.last_used_at, api_keys.is_active, COUNT(rate_limit_logs.id) AS usage_count").
		Joins("LEFT JOIN rate_limit_logs ON rate_limit_logs.api_key_id = api_keys.id").
		Where("api_keys.user_id = ?", userID).
		Group("api_keys.id").
		Order("api_keys.created_at DESC").
		Scan(&result).Error
	if err != nil {
		return nil, database.WrapError(s.log, "getUserApiKeys", err)
	}

	return result, nil
}

// Toggle flips is_active for the key iff it belongs to the user and returns
// the new state. Flip and read-back run in one transaction so the reported
// state is the one this call produced.
func (s *Service) Toggle(ctx context.Context, userID, keyID uint) (bool, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var active bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.APIKey{}).
			Where("id = ? AND user_id = ?", keyID, userID).
			Update("is_active", gorm.Expr("NOT is_active"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFoundOrUnauthorized
		}

		var record models.APIKey
		if err := tx.Where("id = ? AND user_id = ?", keyID, userID).
			First(&record).Error; err != nil {
			return err
		}
		active = record.IsActive
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFoundOrUnauthorized) {
			return false, err
		}
		return false, database.WrapError(s.log, "toggleApiKeyStatus", err)
	}

	return active, nil
}

// Delete hard-deletes the key iff it belongs to the user.
func (s *Service) Delete(ctx context.Context, userID, keyID uint) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", keyID, userID).
		Delete(&models.APIKey{})
	if res.Error != nil {
		return database.WrapError(s.log, "deleteApiKey", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFoundOrUnauthorized
	}

	return nil
}

// FindBySecret resolves a presented secret to its key record, active or not.
// Used by the request-accounting middleware; returns
// ErrNotFoundOrUnauthorized when no key matches the digest.
func (s *Service) FindBySecret(ctx context.Context, secret string) (*models.APIKey, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var record models.APIKey
	err := s.db.WithContext(ctx).
		Where("key_hash = ?", HashKey(secret)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFoundOrUnauthorized
		}
		return nil, database.WrapError(s.log, "findApiKey", err)
	}

	// Confirm the match against the stored digest in constant time.
	if !VerifyKey(secret, record.KeyHash) {
		return nil, ErrNotFoundOrUnauthorized
	}

	return &record, nil
}
