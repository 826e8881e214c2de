package controllers

import (
	"net/http"
	"strings"

	"github.com/youssefhamdan/tijara-backend/api/responses"
	"github.com/youssefhamdan/tijara-backend/internal/shipping"
	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

type cityResponse struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	AlwaseetPrice string           `json:"alwaseet_price"`
	BarqPrice     string           `json:"barq_price"`
	Regions       []regionResponse `json:"regions,omitempty"`
}

type regionResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	AlwaseetPrice string `json:"alwaseet_price"`
	BarqPrice     string `json:"barq_price"`
}

func newCityResponse(city models.City) cityResponse {
	resp := cityResponse{
		ID:            city.ID.String(),
		Name:          city.Name,
		AlwaseetPrice: city.AlwaseetPrice.StringFixed(2),
		BarqPrice:     city.BarqPrice.StringFixed(2),
	}
	for _, region := range city.Regions {
		resp.Regions = append(resp.Regions, regionResponse{
			ID:            region.ID.String(),
			Name:          region.Name,
			AlwaseetPrice: region.AlwaseetPrice.StringFixed(2),
			BarqPrice:     region.BarqPrice.StringFixed(2),
		})
	}
	return resp
}

// ListCities serves the public delivery price table.
func ListCities(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListCities(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]cityResponse, 0, len(rows))
		for _, city := range rows {
			out = append(out, newCityResponse(city))
		}
		responses.WriteSuccess(w, out)
	}
}

// ShippingQuote previews the delivery price for a destination before checkout.
func ShippingQuote(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		city := strings.TrimSpace(r.URL.Query().Get("city"))
		if city == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "city is required"))
			return
		}

		courier, err := enums.ParseCourierProvider(r.URL.Query().Get("courier"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown courier provider"))
			return
		}

		input := shipping.QuoteInput{City: city, Courier: courier}
		if region := strings.TrimSpace(r.URL.Query().Get("region")); region != "" {
			input.Region = &region
		}

		price, err := svc.Quote(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"price": price.StringFixed(2)})
	}
}
