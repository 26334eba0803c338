package balance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/stadiumcard/stadiumcard-backend/pkg/errors"
)

// Summary is a seller's money position, recomputed from orders and payouts on
// every read. Nothing is cached; a read after a crash is as correct as any
// other read.
type Summary struct {
	TotalSold     int `json:"total_sold"`
	TotalFees     int `json:"total_fees"`
	TotalEarnings int `json:"total_earnings"`
	Withdrawn     int `json:"withdrawn"`
	Available     int `json:"available"`
	OrderCount    int `json:"order_count"`
}

// Service computes seller balances.
type Service interface {
	Summary(ctx context.Context, sellerID uuid.UUID) (*Summary, error)
	SummaryTx(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (*Summary, error)
}

type service struct {
	repo Repository
}

// NewService wires a balance service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("balance repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Summary(ctx context.Context, sellerID uuid.UUID) (*Summary, error) {
	return s.summarize(ctx, s.repo, sellerID)
}

// SummaryTx computes the balance inside an open transaction so a payout
// decision sees the rows it is about to change.
func (s *service) SummaryTx(ctx context.Context, tx *gorm.DB, sellerID uuid.UUID) (*Summary, error) {
	return s.summarize(ctx, s.repo.WithTx(tx), sellerID)
}

func (s *service) summarize(ctx context.Context, repo Repository, sellerID uuid.UUID) (*Summary, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}

	orders, err := repo.CompletedOrdersBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load completed orders")
	}
	payouts, err := repo.PayoutsExcludingRejected(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payouts")
	}

	summary := &Summary{OrderCount: len(orders)}
	for _, order := range orders {
		summary.TotalSold += order.TotalAmount
		summary.TotalFees += order.PlatformFee
		summary.TotalEarnings += order.NetEarnings
	}
	// Pending payouts reserve funds too; only rejections return them.
	for _, payout := range payouts {
		summary.Withdrawn += payout.Amount
	}
	summary.Available = summary.TotalEarnings - summary.Withdrawn
	return summary, nil
}
