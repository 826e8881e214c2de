package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/youssefhamdan/tijara-backend/api/middleware"
	"github.com/youssefhamdan/tijara-backend/api/responses"
	"github.com/youssefhamdan/tijara-backend/api/validators"
	checkoutsvc "github.com/youssefhamdan/tijara-backend/internal/checkout"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

type checkoutRequest struct {
	ContactName   string                `json:"contact_name" validate:"required"`
	ContactPhone  string                `json:"contact_phone" validate:"required"`
	Address       string                `json:"address" validate:"required"`
	City          string                `json:"city" validate:"required"`
	Region        *string               `json:"region,omitempty"`
	Notes         *string               `json:"notes,omitempty"`
	Courier       *string               `json:"courier,omitempty"`
	PaymentMethod string                `json:"payment_method" validate:"required"`
	Items         []checkoutItemPayload `json:"items" validate:"required,min=1,dive"`
}

type checkoutItemPayload struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Qty       int    `json:"qty" validate:"required,min=1"`
}

type checkoutResponse struct {
	Order      orderResponse `json:"order"`
	WalletPaid string        `json:"wallet_paid"`
	AmountDue  string        `json:"amount_due"`
	PaymentURL string        `json:"payment_url,omitempty"`
}

// Checkout places an order. Anonymous buyers get a guest identity keyed by
// their phone; logged-in customers keep the order on their account.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment method"))
			return
		}

		input := checkoutsvc.Input{
			ContactName:   payload.ContactName,
			ContactPhone:  payload.ContactPhone,
			Address:       payload.Address,
			City:          payload.City,
			Region:        payload.Region,
			Notes:         payload.Notes,
			PaymentMethod: method,
		}

		if payload.Courier != nil {
			courier, err := enums.ParseCourierProvider(*payload.Courier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown courier provider"))
				return
			}
			input.Courier = &courier
		}

		if customerID := middleware.SubjectIDFromContext(r.Context()); customerID != uuid.Nil {
			input.CustomerID = &customerID
		}

		for _, item := range payload.Items {
			productID, err := validators.PathUUID(item.ProductID, "product_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Items = append(input.Items, checkoutsvc.ItemInput{
				ProductID: productID,
				Qty:       item.Qty,
			})
		}

		result, err := svc.Execute(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			Order:      newOrderResponse(result.Order),
			WalletPaid: result.WalletPaid.StringFixed(2),
			AmountDue:  result.AmountDue.StringFixed(2),
			PaymentURL: result.PaymentURL,
		})
	}
}
