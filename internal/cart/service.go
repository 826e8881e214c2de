package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
)

type productLoader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service manages per-customer carts. Quantities are clamped against live
// stock at write time; checkout re-validates everything anyway.
type Service interface {
	AddItem(ctx context.Context, customerID uuid.UUID, input ItemInput) (*Snapshot, error)
	UpdateItem(ctx context.Context, customerID uuid.UUID, input ItemInput) (*Snapshot, error)
	RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*Snapshot, error)
	Get(ctx context.Context, customerID uuid.UUID) (*Snapshot, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type service struct {
	repo     CartRepository
	products productLoader
}

// NewService builds the cart service.
func NewService(repo CartRepository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

// ItemInput is one add or update request.
type ItemInput struct {
	ProductID uuid.UUID
	Qty       int
}

// Line is one priced cart row.
type Line struct {
	Item      models.CartItem
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Snapshot is the customer's cart with server-side pricing applied.
type Snapshot struct {
	Lines    []Line
	Subtotal decimal.Decimal
}

func (s *service) AddItem(ctx context.Context, customerID uuid.UUID, input ItemInput) (*Snapshot, error) {
	return s.put(ctx, customerID, input, false)
}

// UpdateItem sets the line quantity. Zero removes the line.
func (s *service) UpdateItem(ctx context.Context, customerID uuid.UUID, input ItemInput) (*Snapshot, error) {
	if input.Qty == 0 {
		return s.RemoveItem(ctx, customerID, input.ProductID)
	}
	return s.put(ctx, customerID, input, true)
}

func (s *service) put(ctx context.Context, customerID uuid.UUID, input ItemInput, mustExist bool) (*Snapshot, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	product, err := s.products.GetProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not available")
	}
	if product.Stock <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is out of stock").
			WithDetails(map[string]any{"product": product.Name})
	}

	if mustExist {
		existing, err := s.repo.Get(ctx, customerID, input.ProductID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart line")
		}
		if existing == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not in cart")
		}
	}

	qty := input.Qty
	if qty > product.Stock {
		qty = product.Stock
	}

	item := &models.CartItem{
		CustomerID: customerID,
		ProductID:  input.ProductID,
		Qty:        qty,
	}
	if err := s.repo.Upsert(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart line")
	}

	return s.Get(ctx, customerID)
}

func (s *service) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*Snapshot, error) {
	if customerID == uuid.Nil || productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer and product ids are required")
	}
	if err := s.repo.Remove(ctx, customerID, productID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart line")
	}
	return s.Get(ctx, customerID)
}

// Get prices the cart from the live catalog. Lines whose product vanished or
// went inactive are shown with a zero price so the storefront can flag them.
func (s *service) Get(ctx context.Context, customerID uuid.UUID) (*Snapshot, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	rows, err := s.repo.ListWithProducts(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}

	snapshot := &Snapshot{Subtotal: decimal.Zero}
	for _, row := range rows {
		line := Line{Item: row}
		if row.Product != nil && row.Product.IsActive {
			line.UnitPrice = row.Product.EffectivePrice()
			line.LineTotal = line.UnitPrice.Mul(decimal.NewFromInt(int64(row.Qty)))
			snapshot.Subtotal = snapshot.Subtotal.Add(line.LineTotal)
		}
		snapshot.Lines = append(snapshot.Lines, line)
	}
	return snapshot, nil
}

func (s *service) Clear(ctx context.Context, customerID uuid.UUID) error {
	if customerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if err := s.repo.Clear(ctx, customerID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	return nil
}
