package payouts

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stadiumcard/stadiumcard-backend/internal/balance"
	"github.com/stadiumcard/stadiumcard-backend/internal/fees"
	"github.com/stadiumcard/stadiumcard-backend/internal/mailer"
	"github.com/stadiumcard/stadiumcard-backend/pkg/config"
	"github.com/stadiumcard/stadiumcard-backend/pkg/db/models"
	"github.com/stadiumcard/stadiumcard-backend/pkg/enums"
	pkgerrors "github.com/stadiumcard/stadiumcard-backend/pkg/errors"
)

type fakeRepo struct {
	bankAccount *models.BankAccount
	payout      *models.Payout
	payouts     []models.Payout

	created       *models.Payout
	upserted      *models.BankAccount
	payoutUpdates map[string]any
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) CreatePayout(ctx context.Context, payout *models.Payout) error {
	f.created = payout
	return nil
}

func (f *fakeRepo) FindPayout(ctx context.Context, payoutID uuid.UUID) (*models.Payout, error) {
	if f.payout == nil {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.payout
	return &copied, nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Payout, error) {
	return f.payouts, nil
}

func (f *fakeRepo) ListByStatus(ctx context.Context, status enums.PayoutStatus) ([]models.Payout, error) {
	return f.payouts, nil
}

func (f *fakeRepo) UpdatePayout(ctx context.Context, payoutID uuid.UUID, updates map[string]any) error {
	f.payoutUpdates = updates
	return nil
}

func (f *fakeRepo) FindBankAccount(ctx context.Context, userID uuid.UUID) (*models.BankAccount, error) {
	if f.bankAccount == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.bankAccount, nil
}

func (f *fakeRepo) UpsertBankAccount(ctx context.Context, account *models.BankAccount) error {
	f.upserted = account
	return nil
}

type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeBalanceRepo struct {
	orders  []models.Order
	payouts []models.Payout
}

func (f *fakeBalanceRepo) WithTx(tx *gorm.DB) balance.Repository { return f }

func (f *fakeBalanceRepo) CompletedOrdersBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Order, error) {
	return f.orders, nil
}

func (f *fakeBalanceRepo) PayoutsExcludingRejected(ctx context.Context, userID uuid.UUID) ([]models.Payout, error) {
	return f.payouts, nil
}

type fakeProfiles struct {
	profile *models.Profile
}

func (f *fakeProfiles) FindByID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if f.profile == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.profile, nil
}

type fakeSender struct {
	sent []mailer.Message
}

func (f *fakeSender) Send(ctx context.Context, msg mailer.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

func strPtr(s string) *string { return &s }

func newTestService(t *testing.T, repo *fakeRepo, available int, profile *models.Profile, sender *fakeSender) Service {
	t.Helper()
	balances, err := balance.NewService(&fakeBalanceRepo{
		orders: []models.Order{{TotalAmount: available, NetEarnings: available}},
	})
	if err != nil {
		t.Fatalf("balance.NewService: %v", err)
	}
	schedule := fees.NewSchedule(config.FeesConfig{MinPayoutAmount: 1000})
	svc, err := NewService(repo, fakeTx{}, balances, schedule, &fakeProfiles{profile: profile}, sender, []string{"ops@example.com"}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
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

func TestRequestPayoutGrossNetSplit(t *testing.T) {
	userID := uuid.New()
	repo := &fakeRepo{bankAccount: &models.BankAccount{UserID: userID}}
	sender := &fakeSender{}
	svc := newTestService(t, repo, 50000, &models.Profile{ID: userID, Email: "seller@example.com"}, sender)

	payout, err := svc.RequestPayout(context.Background(), userID, 10000)
	if err != nil {
		t.Fatalf("RequestPayout: %v", err)
	}
	if payout.PayoutAmount != 10000 {
		t.Errorf("payout_amount = %d, want 10000", payout.PayoutAmount)
	}
	if payout.Fee != 200 {
		t.Errorf("fee = %d, want 200", payout.Fee)
	}
	if payout.Amount != 10200 {
		t.Errorf("amount = %d, want gross 10200", payout.Amount)
	}
	if payout.Status != enums.PayoutStatusPending {
		t.Errorf("status = %s, want pending", payout.Status)
	}
	if repo.created == nil {
		t.Fatal("payout not persisted")
	}
	if len(sender.sent) != 1 || sender.sent[0].To[0] != "ops@example.com" {
		t.Errorf("expected operator notification, got %+v", sender.sent)
	}
}

func TestRequestPayoutChecksGrossAgainstBalance(t *testing.T) {
	userID := uuid.New()
	repo := &fakeRepo{bankAccount: &models.BankAccount{UserID: userID}}
	// Available covers the net but not the fee on top.
	svc := newTestService(t, repo, 10000, &models.Profile{ID: userID, Email: "seller@example.com"}, &fakeSender{})

	_, err := svc.RequestPayout(context.Background(), userID, 10000)
	expectCode(t, err, pkgerrors.CodeValidation)
	if !strings.Contains(err.Error(), "10200") || !strings.Contains(err.Error(), "10000") {
		t.Errorf("error must state required gross and available: %v", err)
	}
	if repo.created != nil {
		t.Error("payout must not be created on insufficient balance")
	}
}

func TestRequestPayoutRequiresBankAccount(t *testing.T) {
	userID := uuid.New()
	svc := newTestService(t, &fakeRepo{}, 50000, &models.Profile{ID: userID}, &fakeSender{})

	_, err := svc.RequestPayout(context.Background(), userID, 10000)
	expectCode(t, err, pkgerrors.CodeValidation)
	if !strings.Contains(err.Error(), "register bank account") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestRequestPayoutEnforcesMinimum(t *testing.T) {
	userID := uuid.New()
	repo := &fakeRepo{bankAccount: &models.BankAccount{UserID: userID}}
	svc := newTestService(t, repo, 50000, &models.Profile{ID: userID}, &fakeSender{})

	for _, amount := range []int{-100, 0, 999} {
		_, err := svc.RequestPayout(context.Background(), userID, amount)
		expectCode(t, err, pkgerrors.CodeValidation)
	}
	if _, err := svc.RequestPayout(context.Background(), userID, 1000); err != nil {
		t.Fatalf("minimum amount must be accepted: %v", err)
	}
}

func TestRegisterBankAccountOverridesHolderName(t *testing.T) {
	userID := uuid.New()
	repo := &fakeRepo{}
	profile := &models.Profile{ID: userID, Email: "seller@example.com", RealNameKana: strPtr("ヤマダ　タロウ")}
	svc := newTestService(t, repo, 0, profile, &fakeSender{})

	account, err := svc.RegisterBankAccount(context.Background(), RegisterBankAccountInput{
		UserID:            userID,
		BankName:          "テスト銀行",
		BranchName:        "本店",
		AccountType:       "ordinary",
		AccountNumber:     "1234567",
		AccountHolderName: "ATTACKER NAME",
	})
	if err != nil {
		t.Fatalf("RegisterBankAccount: %v", err)
	}
	if account.AccountHolderName != "ヤマダタロウ" {
		t.Fatalf("holder name = %q, want profile kana", account.AccountHolderName)
	}
	if repo.upserted == nil || repo.upserted.AccountHolderName != "ヤマダタロウ" {
		t.Fatal("persisted holder name must be the profile kana")
	}
}

func TestRegisterBankAccountRequiresKanaName(t *testing.T) {
	userID := uuid.New()
	svc := newTestService(t, &fakeRepo{}, 0, &models.Profile{ID: userID, Email: "seller@example.com"}, &fakeSender{})

	_, err := svc.RegisterBankAccount(context.Background(), RegisterBankAccountInput{
		UserID:        userID,
		BankName:      "テスト銀行",
		BranchName:    "本店",
		AccountType:   "ordinary",
		AccountNumber: "1234567",
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestSettleGuardsPendingStatus(t *testing.T) {
	payoutID := uuid.New()
	repo := &fakeRepo{payout: &models.Payout{ID: payoutID, Status: enums.PayoutStatusPaid}}
	svc := newTestService(t, repo, 0, nil, &fakeSender{})

	_, err := svc.MarkPaid(context.Background(), payoutID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
	_, err = svc.Reject(context.Background(), payoutID)
	expectCode(t, err, pkgerrors.CodeStateConflict)
}

func TestMarkPaidSetsProcessedAt(t *testing.T) {
	payoutID := uuid.New()
	repo := &fakeRepo{payout: &models.Payout{ID: payoutID, Status: enums.PayoutStatusPending}}
	svc := newTestService(t, repo, 0, nil, &fakeSender{})

	payout, err := svc.MarkPaid(context.Background(), payoutID)
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if payout.Status != enums.PayoutStatusPaid || payout.ProcessedAt == nil {
		t.Fatalf("payout = %+v, want paid with processed_at", payout)
	}
}

func TestRejectReleasesBalance(t *testing.T) {
	payoutID := uuid.New()
	repo := &fakeRepo{payout: &models.Payout{ID: payoutID, Status: enums.PayoutStatusPending, Amount: 10200}}
	svc := newTestService(t, repo, 0, nil, &fakeSender{})

	payout, err := svc.Reject(context.Background(), payoutID)
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if payout.Status != enums.PayoutStatusRejected {
		t.Fatalf("status = %s, want rejected", payout.Status)
	}
	if repo.payoutUpdates["status"] != enums.PayoutStatusRejected {
		t.Fatal("rejection not persisted")
	}
}
