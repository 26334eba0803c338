package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stadiumcard/stadiumcard-backend/internal/fees"
	"github.com/stadiumcard/stadiumcard-backend/internal/mailer"
	"github.com/stadiumcard/stadiumcard-backend/pkg/db"
	"github.com/stadiumcard/stadiumcard-backend/pkg/db/models"
	"github.com/stadiumcard/stadiumcard-backend/pkg/enums"
	pkgerrors "github.com/stadiumcard/stadiumcard-backend/pkg/errors"
	"github.com/stadiumcard/stadiumcard-backend/pkg/logger"
	"github.com/stadiumcard/stadiumcard-backend/pkg/metrics"
	"github.com/stadiumcard/stadiumcard-backend/pkg/tasks"
	"github.com/stadiumcard/stadiumcard-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type profileReader interface {
	FindByID(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// Service drives the order state machine: pending at checkout, paid by the
// payment webhook, shipped by the seller, completed by the buyer.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	MarkAsShipped(ctx context.Context, input ShipInput) (*models.Order, error)
	MarkAsReceived(ctx context.Context, input ReceiveInput) (*models.Order, error)
	Get(ctx context.Context, orderID, actorID uuid.UUID) (*models.Order, error)
	ListPurchases(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error)
	ListSales(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error)
}

type service struct {
	repo     Repository
	tx       txRunner
	profiles profileReader
	sender   mailer.Sender
	logg     *logger.Logger
	feeRate  decimal.Decimal
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, profiles profileReader, sender mailer.Sender, logg *logger.Logger, feeRate decimal.Decimal) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if profiles == nil {
		return nil, fmt.Errorf("profile reader required")
	}
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		profiles: profiles,
		sender:   sender,
		logg:     logg,
		feeRate:  feeRate,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.BuyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.ListingID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id required")
	}

	buyer, err := s.profiles.FindByID(ctx, input.BuyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "buyer profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer profile")
	}
	snapshot := addressSnapshot(buyer)
	if !snapshot.IsComplete() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping address is incomplete")
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		listing, err := repo.FindListing(ctx, input.ListingID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
		}
		if listing.SellerID == input.BuyerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cannot purchase your own listing")
		}
		if !listing.Status.IsPurchasable() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing is not available for purchase")
		}
		if _, err := repo.FindInFlightByListing(ctx, input.ListingID); err == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "listing already has an order in progress")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check in-flight orders")
		}

		order = &models.Order{
			ListingID:               listing.ID,
			BuyerID:                 input.BuyerID,
			SellerID:                listing.SellerID,
			Status:                  enums.OrderStatusPending,
			TotalAmount:             listing.Price,
			ShippingAddressSnapshot: &snapshot,
		}
		if err := repo.Create(ctx, order); err != nil {
			// The partial unique index catches the race the pre-check misses.
			if db.IsUniqueViolation(err, "uniq_orders_listing_in_flight") {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "listing already has an order in progress")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		order.Listing = listing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) MarkAsShipped(ctx context.Context, input ShipInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if loaded.SellerID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the seller can mark an order shipped")
		}
		if loaded.Status != enums.OrderStatusPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not awaiting shipment")
		}

		now := time.Now().UTC()
		updates := map[string]any{
			"status":     enums.OrderStatusShipped,
			"shipped_at": now,
		}
		if input.TrackingNumber != "" {
			updates["tracking_number"] = input.TrackingNumber
		}
		if input.Carrier != "" {
			updates["carrier"] = input.Carrier
		}
		if err := repo.UpdateOrder(ctx, loaded.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		if err := repo.UpdateListingStatus(ctx, loaded.ListingID, enums.ListingStatusShipped); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing status")
		}

		loaded.Status = enums.OrderStatusShipped
		loaded.ShippedAt = &now
		if input.TrackingNumber != "" {
			loaded.TrackingNumber = &input.TrackingNumber
		}
		if input.Carrier != "" {
			loaded.Carrier = &input.Carrier
		}
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyShipped(ctx, order)
	return order, nil
}

func (s *service) MarkAsReceived(ctx context.Context, input ReceiveInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if loaded.BuyerID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the buyer can confirm receipt")
		}
		if loaded.Status != enums.OrderStatusShipped {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order has not been shipped")
		}

		fee, net := fees.SplitSale(loaded.TotalAmount, s.feeRate)
		now := time.Now().UTC()
		updates := map[string]any{
			"platform_fee": fee,
			"net_earnings": net,
			"fee_rate":     s.feeRate.String(),
			"completed_at": now,
		}
		if err := repo.UpdateOrder(ctx, loaded.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "freeze order amounts")
		}
		if err := repo.CompleteOrder(ctx, loaded.ListingID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete order")
		}

		loaded.Status = enums.OrderStatusCompleted
		loaded.PlatformFee = fee
		loaded.NetEarnings = net
		loaded.FeeRate = s.feeRate.String()
		loaded.CompletedAt = &now
		order = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCompleted.Inc()
	s.afterCompletion(ctx, order)
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID, actorID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.BuyerID != actorID && order.SellerID != actorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) ListPurchases(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}
	return orders, nil
}

func (s *service) ListSales(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	orders, err := s.repo.ListCompletedBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sales")
	}
	return orders, nil
}

func (s *service) notifyShipped(ctx context.Context, order *models.Order) {
	tasks.BestEffort(ctx, s.logg, "order-shipped-email", func(ctx context.Context) error {
		buyer, err := s.profiles.FindByID(ctx, order.BuyerID)
		if err != nil {
			return err
		}
		tracking, carrier := "", ""
		if order.TrackingNumber != nil {
			tracking = *order.TrackingNumber
		}
		if order.Carrier != nil {
			carrier = *order.Carrier
		}
		return s.sender.Send(ctx, mailer.ItemShipped(buyer.Email, itemTitle(order), tracking, carrier))
	})
}

// afterCompletion runs the side effects of a completed trade. The financial
// state is already committed; a failed clone or email never rolls it back.
func (s *service) afterCompletion(ctx context.Context, order *models.Order) {
	tasks.BestEffortGroup(ctx, s.logg, "order-completed",
		func(ctx context.Context) error {
			return s.cloneListingToBuyer(ctx, order)
		},
		func(ctx context.Context) error {
			seller, err := s.profiles.FindByID(ctx, order.SellerID)
			if err != nil {
				return err
			}
			return s.sender.Send(ctx, mailer.FundsReleased(seller.Email, itemTitle(order), order.NetEarnings))
		},
	)
}

// cloneListingToBuyer copies the traded card into the buyer's collection as a
// zero-price draft, so the card's metadata follows its new owner.
func (s *service) cloneListingToBuyer(ctx context.Context, order *models.Order) error {
	source := order.Listing
	if source == nil {
		loaded, err := s.repo.FindListing(ctx, order.ListingID)
		if err != nil {
			return err
		}
		source = loaded
	}

	clone := &models.ListingItem{
		SellerID:         order.BuyerID,
		Status:           enums.ListingStatusDraft,
		Price:            0,
		PlayerName:       source.PlayerName,
		Team:             source.Team,
		Year:             source.Year,
		Manufacturer:     source.Manufacturer,
		SeriesName:       source.SeriesName,
		CardNumber:       source.CardNumber,
		Images:           source.Images,
		GradingService:   source.GradingService,
		ConditionRating:  source.ConditionRating,
		ConditionGrading: source.ConditionGrading,
		OriginOrderID:    &order.ID,
	}
	return s.repo.CreateListing(ctx, clone)
}

func addressSnapshot(profile *models.Profile) types.ShippingAddress {
	snapshot := types.ShippingAddress{Name: profile.DisplayName()}
	if profile.PostalCode != nil {
		snapshot.PostalCode = *profile.PostalCode
	}
	address := ""
	if profile.AddressLine1 != nil {
		address = *profile.AddressLine1
	}
	if profile.AddressLine2 != nil && *profile.AddressLine2 != "" {
		address += " " + *profile.AddressLine2
	}
	snapshot.Address = address
	if profile.PhoneNumber != nil {
		snapshot.Phone = *profile.PhoneNumber
	}
	return snapshot
}

func itemTitle(order *models.Order) string {
	if order.Listing != nil {
		return order.Listing.Title()
	}
	return "card"
}
