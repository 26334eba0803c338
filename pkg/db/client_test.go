package db

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stadiumcard/stadiumcard-backend/pkg/config"
)

type auditRow struct {
	ID    int
	Label string
}

func newSQLiteClient(t *testing.T) *Client {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&auditRow{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &Client{conn: conn}
}

func countLabel(t *testing.T, client *Client, label string) int64 {
	t.Helper()

	var count int64
	if err := client.DB().Model(&auditRow{}).Where("label = ?", label).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return count
}

func TestWithTxCommits(t *testing.T) {
	client := newSQLiteClient(t)
	label := "commit-" + uuid.NewString()

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&auditRow{Label: label}).Error
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}
	if got := countLabel(t, client, label); got != 1 {
		t.Fatalf("expected 1 committed row, got %d", got)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client := newSQLiteClient(t)
	label := "rollback-" + uuid.NewString()

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&auditRow{Label: label}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return the callback error")
	}
	if got := countLabel(t, client, label); got != 0 {
		t.Fatalf("expected rollback to discard the row, got %d", got)
	}
}

func TestExecAndRaw(t *testing.T) {
	client := newSQLiteClient(t)
	ctx := context.Background()
	label := "exec-" + uuid.NewString()

	if err := client.Exec(ctx, "INSERT INTO audit_rows (label) VALUES (?)", label).Error; err != nil {
		t.Fatalf("Exec failed: %v", err)
	}

	var count int64
	if err := client.Raw(ctx, "SELECT COUNT(*) FROM audit_rows WHERE label = ?", label).Scan(&count).Error; err != nil {
		t.Fatalf("Raw failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestPing(t *testing.T) {
	client := newSQLiteClient(t)
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{}, nil); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}
