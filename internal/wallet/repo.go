package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	"github.com/youssefhamdan/tijara-backend/pkg/pagination"
)

// LedgerRepository defines the persistence surface required by the wallet service.
type LedgerRepository interface {
	WithTx(tx *gorm.DB) LedgerRepository
	LockCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error)
	SaveBalance(ctx context.Context, customer *models.Customer) error
	AppendTransaction(ctx context.Context, tx *models.WalletTransaction) error
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, error)
	PaymentsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.WalletTransaction, error)
	HasRefundForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// Repository manages the wallet ledger and the mirrored customer balance.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) LedgerRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// LockCustomer loads the customer row under FOR UPDATE so balance math is
// serialized per customer.
func (r *Repository) LockCustomer(ctx context.Context, customerID uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&customer, "id = ?", customerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// SaveBalance persists the updated mirror balance.
func (r *Repository) SaveBalance(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("id = ?", customer.ID).
		Update("wallet_balance", customer.WalletBalance).Error
}

// AppendTransaction writes one ledger row.
func (r *Repository) AppendTransaction(ctx context.Context, tx *models.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// ListByCustomer returns a cursor page of ledger rows, newest first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.WalletTransaction, error) {
	query := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.WalletTransaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// PaymentsForOrder returns the payment ledger rows attached to an order.
func (r *Repository) PaymentsForOrder(ctx context.Context, orderID uuid.UUID) ([]models.WalletTransaction, error) {
	var rows []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND type = ?", orderID, enums.WalletTransactionPayment).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// HasRefundForOrder reports whether the order already has a refund row.
func (r *Repository) HasRefundForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("order_id = ? AND type = ?", orderID, enums.WalletTransactionRefund).
		Count(&count).Error
	return count > 0, err
}
