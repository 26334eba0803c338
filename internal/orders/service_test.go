package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stadiumcard/stadiumcard-backend/internal/fees"
	"github.com/stadiumcard/stadiumcard-backend/internal/mailer"
	"github.com/stadiumcard/stadiumcard-backend/pkg/db/models"
	"github.com/stadiumcard/stadiumcard-backend/pkg/enums"
	pkgerrors "github.com/stadiumcard/stadiumcard-backend/pkg/errors"
)

type fakeRepo struct {
	listing  *models.ListingItem
	order    *models.Order
	inFlight *models.Order

	createdOrder   *models.Order
	createdListing *models.ListingItem
	orderUpdates   map[string]any
	listingStatus  enums.ListingStatus
	completedFor   uuid.UUID

	updateOrderErr error
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Create(ctx context.Context, order *models.Order) error {
	f.createdOrder = order
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if f.order == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.order
	return &copied, nil
}

func (f *fakeRepo) FindInFlightByListing(ctx context.Context, listingID uuid.UUID) (*models.Order, error) {
	if f.inFlight == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.inFlight, nil
}

func (f *fakeRepo) FindListing(ctx context.Context, listingID uuid.UUID) (*models.ListingItem, error) {
	if f.listing == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.listing, nil
}

func (f *fakeRepo) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	if f.updateOrderErr != nil {
		return f.updateOrderErr
	}
	f.orderUpdates = updates
	return nil
}

func (f *fakeRepo) UpdateListingStatus(ctx context.Context, listingID uuid.UUID, status enums.ListingStatus) error {
	f.listingStatus = status
	return nil
}

func (f *fakeRepo) CompleteOrder(ctx context.Context, listingID uuid.UUID) error {
	f.completedFor = listingID
	return nil
}

func (f *fakeRepo) CreateListing(ctx context.Context, listing *models.ListingItem) error {
	f.createdListing = listing
	return nil
}

func (f *fakeRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

func (f *fakeRepo) ListCompletedBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	return nil, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeProfiles struct {
	profiles map[uuid.UUID]*models.Profile
}

func (f *fakeProfiles) FindByID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if p, ok := f.profiles[userID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeSender struct {
	sent []mailer.Message
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func strPtr(s string) *string { return &s }

func completeProfile(id uuid.UUID, email string) *models.Profile {
	return &models.Profile{
		ID:           id,
		Email:        email,
		Name:         strPtr("Test User"),
		PostalCode:   strPtr("100-0001"),
		AddressLine1: strPtr("東京都千代田区1-1"),
		PhoneNumber:  strPtr("090-0000-0000"),
	}
}

func newTestService(repo *fakeRepo, profiles *fakeProfiles, sender *fakeSender) Service {
	svc, err := NewService(repo, fakeTx{}, profiles, sender, nil, fees.ResolveRate(""))
	if err != nil {
		panic(err)
	}
	return svc
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", code)
	}
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
}

func TestCreateOrder(t *testing.T) {
	buyerID := uuid.New()
	sellerID := uuid.New()
	listing := &models.ListingItem{
		ID:       uuid.New(),
		SellerID: sellerID,
		Status:   enums.ListingStatusActive,
		Price:    12000,
	}
	repo := &fakeRepo{listing: listing}
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*models.Profile{
		buyerID: completeProfile(buyerID, "buyer@example.com"),
	}}
	svc := newTestService(repo, profiles, &fakeSender{})

	order, err := svc.Create(context.Background(), CreateOrderInput{BuyerID: buyerID, ListingID: listing.ID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if order.Status != enums.OrderStatusPending {
		t.Errorf("status = %s, want pending", order.Status)
	}
	if order.TotalAmount != 12000 {
		t.Errorf("total = %d, want listing price", order.TotalAmount)
	}
	if order.SellerID != sellerID {
		t.Errorf("seller = %s, want listing seller", order.SellerID)
	}
	if order.ShippingAddressSnapshot == nil || !order.ShippingAddressSnapshot.IsComplete() {
		t.Error("expected complete address snapshot")
	}
	if repo.createdOrder == nil {
		t.Fatal("order not persisted")
	}
}

func TestCreateOrderRejectsOwnListing(t *testing.T) {
	sellerID := uuid.New()
	listing := &models.ListingItem{ID: uuid.New(), SellerID: sellerID, Status: enums.ListingStatusActive, Price: 100}
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*models.Profile{
		sellerID: completeProfile(sellerID, "seller@example.com"),
	}}
	svc := newTestService(&fakeRepo{listing: listing}, profiles, &fakeSender{})

	_, err := svc.Create(context.Background(), CreateOrderInput{BuyerID: sellerID, ListingID: listing.ID})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestCreateOrderRejectsUnpurchasableListing(t *testing.T) {
	buyerID := uuid.New()
	listing := &models.ListingItem{ID: uuid.New(), SellerID: uuid.New(), Status: enums.ListingStatusDraft, Price: 100}
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*models.Profile{
		buyerID: completeProfile(buyerID, "buyer@example.com"),
	}}
	svc := newTestService(&fakeRepo{listing: listing}, profiles, &fakeSender{})

	_, err := svc.Create(context.Background(), CreateOrderInput{BuyerID: buyerID, ListingID: listing.ID})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestCreateOrderRejectsInFlightOrder(t *testing.T) {
	buyerID := uuid.New()
	listing := &models.ListingItem{ID: uuid.New(), SellerID: uuid.New(), Status: enums.ListingStatusActive, Price: 100}
	repo := &fakeRepo{listing: listing, inFlight: &models.Order{ID: uuid.New()}}
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*models.Profile{
		buyerID: completeProfile(buyerID, "buyer@example.com"),
	}}
	svc := newTestService(repo, profiles, &fakeSender{})

	_, err := svc.Create(context.Background(), CreateOrderInput{BuyerID: buyerID, ListingID: listing.ID})
	expectCode(t, err, pkgerrors.CodeStateConflict)
	if repo.createdOrder != nil {
		t.Error("order must not be created when one is in flight")
	}
}

func TestCreateOrderRequiresShippingAddress(t *testing.T) {
	buyerID := uuid.New()
	listing := &models.ListingItem{ID: uuid.New(), SellerID: uuid.New(), Status: enums.ListingStatusActive, Price: 100}
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*models.Profile{
		buyerID: {ID: buyerID, Email: "buyer@example.com"},
	}}
	svc := newTestService(&fakeRepo{listing: listing}, profiles, &fakeSender{})

	_, err := svc.Create(context.Background(), CreateOrderInput{BuyerID: buyerID, ListingID: listing.ID})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestMarkAsShipped(t *testing.T) {
	buyerID := uuid.New()
	sellerID := uuid.New()
	listingID := uuid.New()
	repo := &fakeRepo{order: &models.Order{
		ID:        uuid.New(),
		ListingID: listingID,
		BuyerID:   buyerID,
		SellerID:  sellerID,
		Status:    enums.OrderStatusPaid,
	}}
	sender := &fakeSender{}
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*models.Profile{
		buyerID: completeProfile(buyerID, "buyer@example.com"),
	}}
	svc := newTestService(repo, profiles, sender)

	order, err := svc.MarkAsShipped(context.Background(), ShipInput{
		OrderID:        repo.order.ID,
		ActorID:        sellerID,
		TrackingNumber: "1234-5678",
		Carrier:        "ヤマト運輸",
	})
	if err != nil {
		t.Fatalf("MarkAsShipped: %v", err)
	}
	if order.Status != enums.OrderStatusShipped {
		t.Errorf("status = %s, want shipped", order.Status)
	}
	if order.ShippedAt == nil {
		t.Error("shipped_at not set")
	}
	if repo.listingStatus != enums.ListingStatusShipped {
		t.Errorf("listing status = %s, want Shipped", repo.listingStatus)
	}
	if len(sender.sent) != 1 || sender.sent[0].To[0] != "buyer@example.com" {
		t.Errorf("expected one shipped email to buyer, got %+v", sender.sent)
	}
}

func TestMarkAsShippedSellerOnly(t *testing.T) {
	repo := &fakeRepo{order: &models.Order{
		ID:       uuid.New(),
		BuyerID:  uuid.New(),
		SellerID: uuid.New(),
		Status:   enums.OrderStatusPaid,
	}}
	svc := newTestService(repo, &fakeProfiles{}, &fakeSender{})

	_, err := svc.MarkAsShipped(context.Background(), ShipInput{OrderID: repo.order.ID, ActorID: repo.order.BuyerID})
	expectCode(t, err, pkgerrors.CodeForbidden)
	if repo.orderUpdates != nil {
		t.Error("no update may happen on authorization failure")
	}
}

func TestMarkAsShippedRequiresPaidOrder(t *testing.T) {
	sellerID := uuid.New()
	repo := &fakeRepo{order: &models.Order{
		ID:       uuid.New(),
		BuyerID:  uuid.New(),
		SellerID: sellerID,
		Status:   enums.OrderStatusPending,
	}}
	svc := newTestService(repo, &fakeProfiles{}, &fakeSender{})

	_, err := svc.MarkAsShipped(context.Background(), ShipInput{OrderID: repo.order.ID, ActorID: sellerID})
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestMarkAsReceived(t *testing.T) {
	buyerID := uuid.New()
	sellerID := uuid.New()
	listingID := uuid.New()
	title := "大谷翔平"
	repo := &fakeRepo{order: &models.Order{
		ID:          uuid.New(),
		ListingID:   listingID,
		BuyerID:     buyerID,
		SellerID:    sellerID,
		Status:      enums.OrderStatusShipped,
		TotalAmount: 10000,
		Listing: &models.ListingItem{
			ID:         listingID,
			SellerID:   sellerID,
			PlayerName: &title,
			Price:      10000,
		},
	}}
	sender := &fakeSender{}
	profiles := &fakeProfiles{profiles: map[uuid.UUID]*models.Profile{
		sellerID: completeProfile(sellerID, "seller@example.com"),
	}}
	svc := newTestService(repo, profiles, sender)

	order, err := svc.MarkAsReceived(context.Background(), ReceiveInput{OrderID: repo.order.ID, ActorID: buyerID})
	if err != nil {
		t.Fatalf("MarkAsReceived: %v", err)
	}
	if order.Status != enums.OrderStatusCompleted {
		t.Errorf("status = %s, want completed", order.Status)
	}
	if order.PlatformFee != 1000 || order.NetEarnings != 9000 {
		t.Errorf("split = (%d, %d), want (1000, 9000)", order.PlatformFee, order.NetEarnings)
	}
	if repo.completedFor != listingID {
		t.Error("complete_order not invoked for the listing")
	}

	// Side effects: card cloned to buyer as a zero-price draft, seller mailed.
	clone := repo.createdListing
	if clone == nil {
		t.Fatal("listing not cloned to buyer")
	}
	if clone.SellerID != buyerID || clone.Status != enums.ListingStatusDraft || clone.Price != 0 {
		t.Errorf("clone = owner %s status %s price %d", clone.SellerID, clone.Status, clone.Price)
	}
	if clone.OriginOrderID == nil || *clone.OriginOrderID != order.ID {
		t.Error("clone missing origin order reference")
	}
	if len(sender.sent) != 1 || sender.sent[0].To[0] != "seller@example.com" {
		t.Errorf("expected funds-released email to seller, got %+v", sender.sent)
	}
}

func TestMarkAsReceivedBuyerOnly(t *testing.T) {
	repo := &fakeRepo{order: &models.Order{
		ID:       uuid.New(),
		BuyerID:  uuid.New(),
		SellerID: uuid.New(),
		Status:   enums.OrderStatusShipped,
	}}
	svc := newTestService(repo, &fakeProfiles{}, &fakeSender{})

	_, err := svc.MarkAsReceived(context.Background(), ReceiveInput{OrderID: repo.order.ID, ActorID: repo.order.SellerID})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestMarkAsReceivedRequiresShippedOrder(t *testing.T) {
	buyerID := uuid.New()
	repo := &fakeRepo{order: &models.Order{
		ID:       uuid.New(),
		BuyerID:  buyerID,
		SellerID: uuid.New(),
		Status:   enums.OrderStatusPaid,
	}}
	svc := newTestService(repo, &fakeProfiles{}, &fakeSender{})

	_, err := svc.MarkAsReceived(context.Background(), ReceiveInput{OrderID: repo.order.ID, ActorID: buyerID})
	expectCode(t, err, pkgerrors.CodeStateConflict)
	if repo.completedFor != uuid.Nil {
		t.Error("complete_order must not run for an unshipped order")
	}
}

func TestGetRestrictedToParties(t *testing.T) {
	repo := &fakeRepo{order: &models.Order{
		ID:       uuid.New(),
		BuyerID:  uuid.New(),
		SellerID: uuid.New(),
		Status:   enums.OrderStatusPaid,
	}}
	svc := newTestService(repo, &fakeProfiles{}, &fakeSender{})

	if _, err := svc.Get(context.Background(), repo.order.ID, repo.order.BuyerID); err != nil {
		t.Fatalf("buyer read: %v", err)
	}
	if _, err := svc.Get(context.Background(), repo.order.ID, repo.order.SellerID); err != nil {
		t.Fatalf("seller read: %v", err)
	}
	_, err := svc.Get(context.Background(), repo.order.ID, uuid.New())
	expectCode(t, err, pkgerrors.CodeForbidden)
}
