package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/youssefhamdan/tijara-backend/api/responses"
	"github.com/youssefhamdan/tijara-backend/api/validators"
	"github.com/youssefhamdan/tijara-backend/internal/settings"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

type settingsRequest struct {
	StoreName             string          `json:"store_name" validate:"required"`
	LogoURL               *string         `json:"logo_url,omitempty"`
	ContactEmail          *string         `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone          *string         `json:"contact_phone,omitempty"`
	DefaultCourier        string          `json:"default_courier" validate:"required"`
	CashbackEnabled       bool            `json:"cashback_enabled"`
	CashbackPercentage    decimal.Decimal `json:"cashback_percentage"`
	CashbackMinOrderValue decimal.Decimal `json:"cashback_min_order_value"`
	CashbackMinQuantity   int             `json:"cashback_min_quantity" validate:"min=0"`
}

func AdminGetSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newStoreSettingsResponse(row))
	}
}

func AdminUpdateSettings(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload settingsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		courier, err := enums.ParseCourierProvider(payload.DefaultCourier)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown courier provider"))
			return
		}

		row, err := svc.Update(r.Context(), settings.UpdateInput{
			StoreName:             payload.StoreName,
			LogoURL:               payload.LogoURL,
			ContactEmail:          payload.ContactEmail,
			ContactPhone:          payload.ContactPhone,
			DefaultCourier:        courier,
			CashbackEnabled:       payload.CashbackEnabled,
			CashbackPercentage:    payload.CashbackPercentage,
			CashbackMinOrderValue: payload.CashbackMinOrderValue,
			CashbackMinQuantity:   payload.CashbackMinQuantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newStoreSettingsResponse(row))
	}
}
