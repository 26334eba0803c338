package balance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stadiumcard/stadiumcard-backend/pkg/db/models"
	"github.com/stadiumcard/stadiumcard-backend/pkg/enums"
)

func setupRepoDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  listing_id TEXT NOT NULL,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total_amount INTEGER NOT NULL,
  platform_fee INTEGER NOT NULL DEFAULT 0,
  net_earnings INTEGER NOT NULL DEFAULT 0,
  fee_rate TEXT,
  payment_intent_id TEXT,
  tracking_number TEXT,
  carrier TEXT,
  shipping_address_snapshot TEXT,
  shipped_at DATETIME,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	payouts := `
CREATE TABLE IF NOT EXISTS payouts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  amount INTEGER NOT NULL,
  fee INTEGER NOT NULL,
  payout_amount INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  processed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	if err := conn.Exec(orders).Error; err != nil {
		t.Fatalf("create orders: %v", err)
	}
	if err := conn.Exec(payouts).Error; err != nil {
		t.Fatalf("create payouts: %v", err)
	}
	return conn
}

func insertOrder(t *testing.T, db *gorm.DB, sellerID uuid.UUID, status enums.OrderStatus, total, fee, net int) {
	t.Helper()

	now := time.Now().UTC()
	order := &models.Order{
		ID:          uuid.New(),
		ListingID:   uuid.New(),
		BuyerID:     uuid.New(),
		SellerID:    sellerID,
		Status:      status,
		TotalAmount: total,
		PlatformFee: fee,
		NetEarnings: net,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if status == enums.OrderStatusCompleted {
		order.CompletedAt = &now
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("insert order: %v", err)
	}
}

func insertPayout(t *testing.T, db *gorm.DB, userID uuid.UUID, gross int, status enums.PayoutStatus) {
	t.Helper()

	payout := &models.Payout{
		ID:           uuid.New(),
		UserID:       userID,
		Amount:       gross,
		Fee:          400,
		PayoutAmount: gross - 400,
		Status:       status,
	}
	if err := db.Create(payout).Error; err != nil {
		t.Fatalf("insert payout: %v", err)
	}
}

func TestRepositoryCompletedOrdersOnly(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewRepository(db)
	sellerID := uuid.New()

	insertOrder(t, db, sellerID, enums.OrderStatusCompleted, 10000, 1000, 9000)
	insertOrder(t, db, sellerID, enums.OrderStatusShipped, 5000, 0, 0)
	insertOrder(t, db, uuid.New(), enums.OrderStatusCompleted, 3000, 300, 2700)

	orders, err := repo.CompletedOrdersBySeller(context.Background(), sellerID)
	if err != nil {
		t.Fatalf("CompletedOrdersBySeller failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 completed order, got %d", len(orders))
	}
	if orders[0].NetEarnings != 9000 {
		t.Fatalf("expected net 9000, got %d", orders[0].NetEarnings)
	}
}

func TestRepositoryPayoutsExcludeRejected(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewRepository(db)
	userID := uuid.New()

	insertPayout(t, db, userID, 3000, enums.PayoutStatusPending)
	insertPayout(t, db, userID, 5000, enums.PayoutStatusPaid)
	insertPayout(t, db, userID, 8000, enums.PayoutStatusRejected)

	payouts, err := repo.PayoutsExcludingRejected(context.Background(), userID)
	if err != nil {
		t.Fatalf("PayoutsExcludingRejected failed: %v", err)
	}
	if len(payouts) != 2 {
		t.Fatalf("expected 2 payouts, got %d", len(payouts))
	}
	for _, p := range payouts {
		if p.Status == enums.PayoutStatusRejected {
			t.Fatal("rejected payout leaked into the ledger")
		}
	}
}

// Exercises the full recompute-on-read path against a real store: frozen
// per-order amounts summed, rejected payouts returned to the balance.
func TestSummaryOverRealStore(t *testing.T) {
	db := setupRepoDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	sellerID := uuid.New()

	insertOrder(t, db, sellerID, enums.OrderStatusCompleted, 10000, 1000, 9000)
	insertOrder(t, db, sellerID, enums.OrderStatusCompleted, 20000, 2000, 18000)
	insertOrder(t, db, sellerID, enums.OrderStatusPaid, 4000, 0, 0)
	insertPayout(t, db, sellerID, 5400, enums.PayoutStatusPending)
	insertPayout(t, db, sellerID, 3400, enums.PayoutStatusRejected)

	summary, err := svc.Summary(context.Background(), sellerID)
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if summary.TotalSold != 30000 {
		t.Fatalf("expected total sold 30000, got %d", summary.TotalSold)
	}
	if summary.TotalEarnings != 27000 {
		t.Fatalf("expected earnings 27000, got %d", summary.TotalEarnings)
	}
	if summary.Withdrawn != 5400 {
		t.Fatalf("expected withdrawn 5400, got %d", summary.Withdrawn)
	}
	if summary.Available != 21600 {
		t.Fatalf("expected available 21600, got %d", summary.Available)
	}
	if summary.OrderCount != 2 {
		t.Fatalf("expected 2 completed orders, got %d", summary.OrderCount)
	}
}
