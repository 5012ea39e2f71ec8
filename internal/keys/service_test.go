package keys

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/kalori-makanan/dashboard-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	db.AutoMigrate(&models.User{}, &models.APIKey{}, &models.RateLimitLog{})

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewService(db, logger, 5*time.Second), db
}

func TestCreate(t *testing.T) {
	svc, db := testService(t)
	ctx := context.Background()

	t.Run("IssuesKeyWithOneTimeSecret", func(t *testing.T) {
		key, err := svc.Create(ctx, 1, "prod")
		if err != nil {
			t.Fatalf("Create returned error: %v", err)
		}

		format := regexp.MustCompile(`^kkm_[A-Za-z0-9]{32}$`)
		if !format.MatchString(key.Secret) {
			t.Errorf("secret %q does not match the expected format", key.Secret)
		}
		if key.KeyPreview != key.Secret[:8]+"..."+key.Secret[len(key.Secret)-4:] {
			t.Errorf("unexpected preview %q", key.KeyPreview)
		}
		if !key.IsActive {
			t.Error("new key should be active")
		}

		var record models.APIKey
		if err := db.First(&record, key.ID).Error; err != nil {
			t.Fatalf("failed to load created key: %v", err)
		}
		if record.KeyHash != HashKey(key.Secret) {
			t.Error("persisted digest does not match the secret's digest")
		}
	})

	t.Run("EmptyName", func(t *testing.T) {
		if _, err := svc.Create(ctx, 1, "  "); !errors.Is(err, ErrEmptyName) {
			t.Errorf("expected ErrEmptyName, got %v", err)
		}
	})
}

func TestList(t *testing.T) {
	svc, db := testService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, 1, "first")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	second, err := svc.Create(ctx, 1, "second")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := svc.Create(ctx, 2, "other-user"); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// Separate creation instants so the ordering is deterministic.
	db.Model(&models.APIKey{}).Where("id = ?", first.ID).Update("created_at", time.Now().UTC().Add(-time.Hour))

	for i := 0; i < 3; i++ {
		db.Create(&models.RateLimitLog{APIKeyID: second.ID, Timestamp: time.Now().UTC(), Endpoint: "/foods/search"})
	}

	list, err := svc.List(ctx, 1)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if len(list) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(list))
	}
	if list[0].ID != second.ID {
		t.Errorf("expected newest key first, got id %d", list[0].ID)
	}
	if list[0].UsageCount != 3 {
		t.Errorf("expected usage count 3, got %d", list[0].UsageCount)
	}
	if list[1].UsageCount != 0 {
		t.Errorf("expected usage count 0, got %d", list[1].UsageCount)
	}

	// The plaintext secret must not be recoverable from the listing.
	for _, k := range list {
		if k.KeyPreview == first.Secret || k.KeyPreview == second.Secret {
			t.Error("listing leaked a full secret")
		}
	}
}

func TestToggle(t *testing.T) {
	svc, db := testService(t)
	ctx := context.Background()

	key, err := svc.Create(ctx, 1, "prod")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	t.Run("RoundTrip", func(t *testing.T) {
		active, err := svc.Toggle(ctx, 1, key.ID)
		if err != nil {
			t.Fatalf("Toggle returned error: %v", err)
		}
		if active {
			t.Error("expected key to be inactive after first toggle")
		}

		active, err = svc.Toggle(ctx, 1, key.ID)
		if err != nil {
			t.Fatalf("Toggle returned error: %v", err)
		}
		if !active {
			t.Error("expected key to be active again after second toggle")
		}
	})

	t.Run("ReportedStateMatchesRow", func(t *testing.T) {
		active, err := svc.Toggle(ctx, 1, key.ID)
		if err != nil {
			t.Fatalf("Toggle returned error: %v", err)
		}

		var record models.APIKey
		if err := db.First(&record, key.ID).Error; err != nil {
			t.Fatalf("failed to read key: %v", err)
		}
		if record.IsActive != active {
			t.Errorf("Toggle reported %v but the row holds %v", active, record.IsActive)
		}

		if _, err := svc.Toggle(ctx, 1, key.ID); err != nil {
			t.Fatalf("Toggle returned error: %v", err)
		}
	})

	t.Run("ForeignUser", func(t *testing.T) {
		if _, err := svc.Toggle(ctx, 99, key.ID); !errors.Is(err, ErrNotFoundOrUnauthorized) {
			t.Errorf("expected ErrNotFoundOrUnauthorized, got %v", err)
		}
	})

	t.Run("MissingKey", func(t *testing.T) {
		if _, err := svc.Toggle(ctx, 1, 12345); !errors.Is(err, ErrNotFoundOrUnauthorized) {
			t.Errorf("expected ErrNotFoundOrUnauthorized, got %v", err)
		}
	})
}

func TestDelete(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	key, err := svc.Create(ctx, 1, "prod")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	t.Run("ForeignUser", func(t *testing.T) {
		if err := svc.Delete(ctx, 99, key.ID); !errors.Is(err, ErrNotFoundOrUnauthorized) {
			t.Errorf("expected ErrNotFoundOrUnauthorized, got %v", err)
		}
	})

	t.Run("Owner", func(t *testing.T) {
		if err := svc.Delete(ctx, 1, key.ID); err != nil {
			t.Fatalf("Delete returned error: %v", err)
		}

		list, err := svc.List(ctx, 1)
		if err != nil {
			t.Fatalf("List returned error: %v", err)
		}
		for _, k := range list {
			if k.ID == key.ID {
				t.Error("deleted key still present in listing")
			}
		}
	})

	t.Run("AlreadyDeleted", func(t *testing.T) {
		if err := svc.Delete(ctx, 1, key.ID); !errors.Is(err, ErrNotFoundOrUnauthorized) {
			t.Errorf("expected ErrNotFoundOrUnauthorized, got %v", err)
		}
	})
}

func TestFindBySecret(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	key, err := svc.Create(ctx, 1, "prod")
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	record, err := svc.FindBySecret(ctx, key.Secret)
	if err != nil {
		t.Fatalf("FindBySecret returned error: %v", err)
	}
	if record.ID != key.ID || record.UserID != 1 {
		t.Errorf("resolved wrong key: %+v", record)
	}

	if _, err := svc.FindBySecret(ctx, "kkm_nosuchkeynosuchkeynosuchkey00000"); !errors.Is(err, ErrNotFoundOrUnauthorized) {
		t.Errorf("expected ErrNotFoundOrUnauthorized, got %v", err)
	}
}
