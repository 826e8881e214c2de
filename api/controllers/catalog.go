package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/youssefhamdan/tijara-backend/api/responses"
	"github.com/youssefhamdan/tijara-backend/api/validators"
	"github.com/youssefhamdan/tijara-backend/internal/catalog"
	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

type productResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	CategoryID  *string           `json:"category_id,omitempty"`
	Category    *categoryResponse `json:"category,omitempty"`
	Price       string            `json:"price"`
	SalePrice   *string           `json:"sale_price,omitempty"`
	Stock       int               `json:"stock"`
	Options     []string          `json:"options,omitempty"`
	ImageURL    *string           `json:"image_url,omitempty"`
	IsActive    bool              `json:"is_active"`
}

type categoryResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ParentID  *string `json:"parent_id,omitempty"`
	SortOrder int     `json:"sort_order"`
}

type productListResponse struct {
	Products   []productResponse `json:"products"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

func newProductResponse(product models.Product) productResponse {
	resp := productResponse{
		ID:          product.ID.String(),
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price.StringFixed(2),
		Stock:       product.Stock,
		Options:     product.Options,
		ImageURL:    product.ImageURL,
		IsActive:    product.IsActive,
	}
	if product.CategoryID != nil {
		id := product.CategoryID.String()
		resp.CategoryID = &id
	}
	if product.Category != nil {
		category := newCategoryResponse(*product.Category)
		resp.Category = &category
	}
	if product.SalePrice != nil {
		price := product.SalePrice.StringFixed(2)
		resp.SalePrice = &price
	}
	return resp
}

func newCategoryResponse(category models.Category) categoryResponse {
	resp := categoryResponse{
		ID:        category.ID.String(),
		Name:      category.Name,
		SortOrder: category.SortOrder,
	}
	if category.ParentID != nil {
		id := category.ParentID.String()
		resp.ParentID = &id
	}
	return resp
}

// ListProducts serves the storefront catalog. Hidden products never appear
// here; the back office uses its own listing.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.PaginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := catalog.ListFilter{
			Search: strings.TrimSpace(r.URL.Query().Get("search")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("category_id")); raw != "" {
			categoryID, err := validators.PathUUID(raw, "category_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			filter.CategoryID = &categoryID
		}

		page, err := svc.ListProducts(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := productListResponse{NextCursor: page.NextCursor}
		for _, product := range page.Products {
			resp.Products = append(resp.Products, newProductResponse(product))
		}
		responses.WriteSuccess(w, resp)
	}
}

func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductResponse(*product))
	}
}

func ListCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]categoryResponse, 0, len(rows))
		for _, category := range rows {
			out = append(out, newCategoryResponse(category))
		}
		responses.WriteSuccess(w, out)
	}
}
