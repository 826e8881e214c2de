package controllers

import (
	"net/http"

	"github.com/youssefhamdan/tijara-backend/api/responses"
	"github.com/youssefhamdan/tijara-backend/internal/settings"
	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

type storeInfoResponse struct {
	StoreName    string  `json:"store_name"`
	LogoURL      *string `json:"logo_url,omitempty"`
	ContactEmail *string `json:"contact_email,omitempty"`
	ContactPhone *string `json:"contact_phone,omitempty"`
}

type storeSettingsResponse struct {
	storeInfoResponse
	DefaultCourier        string `json:"default_courier"`
	CashbackEnabled       bool   `json:"cashback_enabled"`
	CashbackPercentage    string `json:"cashback_percentage"`
	CashbackMinOrderValue string `json:"cashback_min_order_value"`
	CashbackMinQuantity   int    `json:"cashback_min_quantity"`
}

func newStoreInfoResponse(row *models.StoreSettings) storeInfoResponse {
	return storeInfoResponse{
		StoreName:    row.StoreName,
		LogoURL:      row.LogoURL,
		ContactEmail: row.ContactEmail,
		ContactPhone: row.ContactPhone,
	}
}

func newStoreSettingsResponse(row *models.StoreSettings) storeSettingsResponse {
	return storeSettingsResponse{
		storeInfoResponse:     newStoreInfoResponse(row),
		DefaultCourier:        string(row.DefaultCourier),
		CashbackEnabled:       row.CashbackEnabled,
		CashbackPercentage:    row.CashbackPercentage.StringFixed(2),
		CashbackMinOrderValue: row.CashbackMinOrderValue.StringFixed(2),
		CashbackMinQuantity:   row.CashbackMinQuantity,
	}
}

// StoreInfo serves the public branding fields; cashback policy and courier
// defaults stay behind the admin surface.
func StoreInfo(svc settings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, err := svc.Get(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newStoreInfoResponse(row))
	}
}
