package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Upsert(ctx context.Context, item *models.CartItem) error
	Get(ctx context.Context, customerID, productID uuid.UUID) (*models.CartItem, error)
	ListWithProducts(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error)
	Remove(ctx context.Context, customerID, productID uuid.UUID) error
	Clear(ctx context.Context, customerID uuid.UUID) error
}

// Repository manages cart line items.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Upsert inserts the line or replaces its quantity when the customer already
// has the product in the cart.
func (r *Repository) Upsert(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}, {Name: "product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"qty", "updated_at"}),
		}).
		Create(item).Error
}

// Get loads one cart line.
func (r *Repository) Get(ctx context.Context, customerID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		First(&item, "customer_id = ? AND product_id = ?", customerID, productID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListWithProducts loads the customer's cart with product rows preloaded.
func (r *Repository) ListWithProducts(ctx context.Context, customerID uuid.UUID) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// Remove deletes one line from the cart.
func (r *Repository) Remove(ctx context.Context, customerID, productID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.CartItem{}, "customer_id = ? AND product_id = ?", customerID, productID).Error
}

// Clear empties the customer's cart.
func (r *Repository) Clear(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&models.CartItem{}, "customer_id = ?", customerID).Error
}
