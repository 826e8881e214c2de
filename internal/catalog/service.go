package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/pagination"
)

type productRepo interface {
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryRepo interface {
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	CountProducts(ctx context.Context, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Service exposes catalog reads for the storefront and writes for the back office.
type Service interface {
	ListProducts(ctx context.Context, filter ListFilter, params pagination.Params) (*ProductPage, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

type service struct {
	products   productRepo
	categories categoryRepo
}

// NewService builds the catalog service.
func NewService(products productRepo, categories categoryRepo) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{products: products, categories: categories}, nil
}

// ProductPage is one cursor page of products.
type ProductPage struct {
	Products   []models.Product
	NextCursor string
}

// ProductInput carries the writable product fields.
type ProductInput struct {
	Name        string
	Description *string
	CategoryID  *uuid.UUID
	Price       decimal.Decimal
	SalePrice   *decimal.Decimal
	Stock       int
	Options     []string
	ImageURL    *string
	IsActive    bool
}

// CategoryInput carries the writable category fields.
type CategoryInput struct {
	Name      string
	ParentID  *uuid.UUID
	SortOrder int
}

func (s *service) ListProducts(ctx context.Context, filter ListFilter, params pagination.Params) (*ProductPage, error) {
	rows, err := s.products.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &ProductPage{Products: rows}
	if len(rows) > limit {
		page.Products = rows[:limit]
		last := page.Products[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if err := s.validateProductInput(ctx, input); err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		CategoryID:  input.CategoryID,
		Price:       input.Price,
		SalePrice:   input.SalePrice,
		Stock:       input.Stock,
		Options:     input.Options,
		ImageURL:    input.ImageURL,
		IsActive:    input.IsActive,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateProductInput(ctx, input); err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.CategoryID = input.CategoryID
	product.Price = input.Price
	product.SalePrice = input.SalePrice
	product.Stock = input.Stock
	product.Options = input.Options
	product.ImageURL = input.ImageURL
	product.IsActive = input.IsActive

	if err := s.products.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
	}
	return product, nil
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting product")
	}
	return nil
}

func (s *service) validateProductInput(ctx context.Context, input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if !input.Price.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "product price must be positive")
	}
	if input.SalePrice != nil && input.SalePrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale price cannot be negative")
	}
	if input.SalePrice != nil && input.SalePrice.GreaterThanOrEqual(input.Price) {
		return pkgerrors.New(pkgerrors.CodeValidation, "sale price must be below the list price")
	}
	if input.Stock < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	if input.CategoryID != nil {
		category, err := s.categories.GetByID(ctx, *input.CategoryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking category")
		}
		if category == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
	}
	return nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.categories.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing categories")
	}
	return rows, nil
}

func (s *service) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	if err := s.validateCategoryInput(ctx, uuid.Nil, input); err != nil {
		return nil, err
	}
	category := &models.Category{
		Name:      strings.TrimSpace(input.Name),
		ParentID:  input.ParentID,
		SortOrder: input.SortOrder,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating category")
	}
	return category, nil
}

func (s *service) UpdateCategory(ctx context.Context, id uuid.UUID, input CategoryInput) (*models.Category, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category")
	}
	if category == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	if err := s.validateCategoryInput(ctx, id, input); err != nil {
		return nil, err
	}

	category.Name = strings.TrimSpace(input.Name)
	category.ParentID = input.ParentID
	category.SortOrder = input.SortOrder

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating category")
	}
	return category, nil
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category")
	}
	if category == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}

	count, err := s.categories.CountProducts(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting category products")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has products").
			WithDetails(map[string]any{"product_count": count})
	}

	if err := s.categories.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting category")
	}
	return nil
}

func (s *service) validateCategoryInput(ctx context.Context, selfID uuid.UUID, input CategoryInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	if input.ParentID != nil {
		if selfID != uuid.Nil && *input.ParentID == selfID {
			return pkgerrors.New(pkgerrors.CodeValidation, "category cannot be its own parent")
		}
		parent, err := s.categories.GetByID(ctx, *input.ParentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking parent category")
		}
		if parent == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "parent category does not exist")
		}
		if parent.ParentID != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "categories nest at most one level")
		}
	}
	return nil
}
