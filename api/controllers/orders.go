package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/youssefhamdan/tijara-backend/api/responses"
	"github.com/youssefhamdan/tijara-backend/api/validators"
	"github.com/youssefhamdan/tijara-backend/internal/orders"
	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

type orderResponse struct {
	ID              string              `json:"id"`
	OrderNumber     string              `json:"order_number"`
	Status          string              `json:"status"`
	ContactName     string              `json:"contact_name"`
	ContactPhone    string              `json:"contact_phone"`
	Address         string              `json:"address"`
	City            string              `json:"city"`
	Region          *string             `json:"region,omitempty"`
	Courier         string              `json:"courier"`
	PaymentMethod   string              `json:"payment_method"`
	IsPaid          bool                `json:"is_paid"`
	TrackingCode    *string             `json:"tracking_code,omitempty"`
	ShippingPrice   string              `json:"shipping_price"`
	TotalAmount     string              `json:"total_amount"`
	CashbackAwarded bool                `json:"cashback_awarded"`
	Notes           *string             `json:"notes,omitempty"`
	Items           []orderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
}

type orderItemResponse struct {
	ProductID *string `json:"product_id,omitempty"`
	Name      string  `json:"name"`
	UnitPrice string  `json:"unit_price"`
	Qty       int     `json:"qty"`
	LineTotal string  `json:"line_total"`
}

type orderListResponse struct {
	Orders     []orderResponse `json:"orders"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

func newOrderResponse(order *models.Order) orderResponse {
	resp := orderResponse{
		ID:              order.ID.String(),
		OrderNumber:     order.OrderNumber,
		Status:          string(order.Status),
		ContactName:     order.ContactName,
		ContactPhone:    order.ContactPhone,
		Address:         order.Address,
		City:            order.City,
		Region:          order.Region,
		Courier:         string(order.Courier),
		PaymentMethod:   string(order.PaymentMethod),
		IsPaid:          order.IsPaid,
		TrackingCode:    order.TrackingCode,
		ShippingPrice:   order.ShippingPrice.StringFixed(2),
		TotalAmount:     order.TotalAmount.StringFixed(2),
		CashbackAwarded: order.CashbackAwarded,
		Notes:           order.Notes,
		Items:           make([]orderItemResponse, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
	}
	for _, item := range order.Items {
		out := orderItemResponse{
			Name:      item.Name,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Qty:       item.Qty,
			LineTotal: item.LineTotal.StringFixed(2),
		}
		if item.ProductID != nil {
			id := item.ProductID.String()
			out.ProductID = &id
		}
		resp.Items = append(resp.Items, out)
	}
	return resp
}

func newOrderListResponse(page *orders.Page) orderListResponse {
	resp := orderListResponse{NextCursor: page.NextCursor}
	for i := range page.Orders {
		resp.Orders = append(resp.Orders, newOrderResponse(&page.Orders[i]))
	}
	return resp
}

// MyOrders lists the authenticated customer's order history.
func MyOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := subjectID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.PaginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListForCustomer(r.Context(), customerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderListResponse(page))
	}
}

func MyOrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := subjectID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := validators.PathUUID(chi.URLParam(r, "orderId"), "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForCustomer(r.Context(), orderID, customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}

type trackOrderResponse struct {
	Order orderResponse `json:"order"`
	// CourierStatus is the provider's live view; absent when the order has
	// not shipped yet or the provider could not be reached.
	CourierStatus  string `json:"courier_status,omitempty"`
	ProviderStatus string `json:"provider_status,omitempty"`
}

// TrackOrder is the public lookup for guests: order number plus contact phone.
func TrackOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderNumber := strings.TrimSpace(r.URL.Query().Get("order_number"))
		phone := strings.TrimSpace(r.URL.Query().Get("phone"))
		if orderNumber == "" || phone == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order_number and phone are required"))
			return
		}

		result, err := svc.Track(r.Context(), orderNumber, phone)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := trackOrderResponse{Order: newOrderResponse(result.Order)}
		if result.Courier != nil {
			resp.CourierStatus = string(result.Courier.Status)
			resp.ProviderStatus = result.Courier.ProviderStatus
		}
		responses.WriteSuccess(w, resp)
	}
}
