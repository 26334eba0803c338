package profiles

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stadiumcard/stadiumcard-backend/pkg/db/models"
)

func setupRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	profiles := `
CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  name TEXT,
  real_name_kana TEXT,
  postal_code TEXT,
  address_line1 TEXT,
  address_line2 TEXT,
  phone_number TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := conn.Exec(profiles).Error; err != nil {
		t.Fatalf("create profiles: %v", err)
	}
	return conn
}

func TestRepositoryFindByID(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	if _, err := repo.FindByID(ctx, uuid.New()); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for unknown user, got %v", err)
	}

	profile := &models.Profile{
		ID:    uuid.New(),
		Email: "seller@example.com",
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("insert profile: %v", err)
	}

	found, err := repo.FindByID(ctx, profile.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.Email != "seller@example.com" {
		t.Fatalf("expected email round-trip, got %q", found.Email)
	}
}

func TestRepositoryUpdateRealNameKana(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	profile := &models.Profile{
		ID:    uuid.New(),
		Email: "seller@example.com",
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("insert profile: %v", err)
	}

	if err := repo.UpdateRealNameKana(ctx, profile.ID, "ヤマダ タロウ"); err != nil {
		t.Fatalf("UpdateRealNameKana failed: %v", err)
	}

	found, err := repo.FindByID(ctx, profile.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if found.RealNameKana == nil || *found.RealNameKana != "ヤマダ タロウ" {
		t.Fatalf("expected kana persisted, got %v", found.RealNameKana)
	}
}
