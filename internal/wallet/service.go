package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/metrics"
	"github.com/youssefhamdan/tijara-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service maintains customer wallets. Every balance change appends a ledger
// row capturing the balance before and after, so the mirror column on the
// customer row can always be audited.
type Service interface {
	Credit(ctx context.Context, input EntryInput) (*models.WalletTransaction, error)
	Debit(ctx context.Context, input EntryInput) (*models.WalletTransaction, error)
	CreditTx(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.WalletTransaction, error)
	DebitTx(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.WalletTransaction, error)
	RefundOrderTx(ctx context.Context, tx *gorm.DB, orderID, customerID uuid.UUID) (decimal.Decimal, error)
	PaidFromWallet(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
	Transactions(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*Page, error)
}

type service struct {
	repo LedgerRepository
	tx   txRunner
	met  *metrics.Metrics
}

// NewService builds the wallet service.
func NewService(repo LedgerRepository, tx txRunner, met *metrics.Metrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if met == nil {
		return nil, fmt.Errorf("metrics required")
	}
	return &service{repo: repo, tx: tx, met: met}, nil
}

// EntryInput describes one wallet mutation.
type EntryInput struct {
	CustomerID  uuid.UUID
	OrderID     *uuid.UUID
	Type        enums.WalletTransactionType
	Amount      decimal.Decimal
	Description string
}

// Page is one cursor page of ledger rows.
type Page struct {
	Transactions []models.WalletTransaction
	NextCursor   string
}

func (s *service) Credit(ctx context.Context, input EntryInput) (*models.WalletTransaction, error) {
	var entry *models.WalletTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = s.CreditTx(ctx, tx, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) Debit(ctx context.Context, input EntryInput) (*models.WalletTransaction, error) {
	var entry *models.WalletTransaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = s.DebitTx(ctx, tx, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreditTx adds funds inside the caller's transaction.
func (s *service) CreditTx(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.WalletTransaction, error) {
	if err := validateEntry(input, true); err != nil {
		return nil, err
	}
	return s.apply(ctx, tx, input, input.Amount)
}

// DebitTx removes funds inside the caller's transaction, refusing to take the
// balance negative.
func (s *service) DebitTx(ctx context.Context, tx *gorm.DB, input EntryInput) (*models.WalletTransaction, error) {
	if err := validateEntry(input, false); err != nil {
		return nil, err
	}
	return s.apply(ctx, tx, input, input.Amount.Neg())
}

func (s *service) apply(ctx context.Context, tx *gorm.DB, input EntryInput, delta decimal.Decimal) (*models.WalletTransaction, error) {
	repo := s.repo.WithTx(tx)

	customer, err := repo.LockCustomer(ctx, input.CustomerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "locking customer wallet")
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}

	before := customer.WalletBalance
	after := before.Add(delta)
	if after.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient wallet balance").
			WithDetails(map[string]any{
				"balance":   before.String(),
				"requested": delta.Abs().String(),
			})
	}

	customer.WalletBalance = after
	if err := repo.SaveBalance(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving wallet balance")
	}

	entry := &models.WalletTransaction{
		CustomerID:    input.CustomerID,
		OrderID:       input.OrderID,
		Type:          input.Type,
		Amount:        input.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   strings.TrimSpace(input.Description),
	}
	if err := repo.AppendTransaction(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "appending ledger row")
	}

	s.met.WalletTransactions.WithLabelValues(string(input.Type)).Inc()
	return entry, nil
}

// RefundOrderTx credits back everything the wallet paid toward an order. The
// refund is recorded once; later calls for the same order are no-ops.
func (s *service) RefundOrderTx(ctx context.Context, tx *gorm.DB, orderID, customerID uuid.UUID) (decimal.Decimal, error) {
	if orderID == uuid.Nil || customerID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "order and customer ids are required")
	}

	repo := s.repo.WithTx(tx)

	refunded, err := repo.HasRefundForOrder(ctx, orderID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking refund state")
	}
	if refunded {
		return decimal.Zero, nil
	}

	payments, err := repo.PaymentsForOrder(ctx, orderID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order payments")
	}

	total := decimal.Zero
	for _, payment := range payments {
		total = total.Add(payment.Amount)
	}
	if !total.IsPositive() {
		return decimal.Zero, nil
	}

	oid := orderID
	_, err = s.CreditTx(ctx, tx, EntryInput{
		CustomerID:  customerID,
		OrderID:     &oid,
		Type:        enums.WalletTransactionRefund,
		Amount:      total,
		Description: "refund for cancelled order",
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// PaidFromWallet sums the wallet payments recorded against an order.
func (s *service) PaidFromWallet(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	if orderID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	payments, err := s.repo.PaymentsForOrder(ctx, orderID)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order payments")
	}
	total := decimal.Zero
	for _, payment := range payments {
		total = total.Add(payment.Amount)
	}
	return total, nil
}

func (s *service) Transactions(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*Page, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	rows, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing wallet transactions")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &Page{Transactions: rows}
	if len(rows) > limit {
		page.Transactions = rows[:limit]
		last := page.Transactions[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

func validateEntry(input EntryInput, credit bool) error {
	if input.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if !input.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown wallet transaction type")
	}
	if credit != input.Type.IsCredit() {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction type does not match direction")
	}
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if strings.TrimSpace(input.Description) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "description is required")
	}
	return nil
}
