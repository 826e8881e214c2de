package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/youssefhamdan/tijara-backend/api/responses"
	"github.com/youssefhamdan/tijara-backend/api/validators"
	"github.com/youssefhamdan/tijara-backend/internal/couriers"
	"github.com/youssefhamdan/tijara-backend/internal/shipping"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

// CourierDirectory resolves the configured courier clients by provider.
type CourierDirectory interface {
	For(provider enums.CourierProvider) (couriers.Courier, error)
}

type cityRequest struct {
	Name          string          `json:"name" validate:"required"`
	AlwaseetPrice decimal.Decimal `json:"alwaseet_price"`
	BarqPrice     decimal.Decimal `json:"barq_price"`
}

func AdminCreateCity(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload cityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		city, err := svc.CreateCity(r.Context(), shipping.CityInput{
			Name:          payload.Name,
			AlwaseetPrice: payload.AlwaseetPrice,
			BarqPrice:     payload.BarqPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCityResponse(*city))
	}
}

func AdminUpdateCity(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "cityId"), "cityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		city, err := svc.UpdateCity(r.Context(), id, shipping.CityInput{
			Name:          payload.Name,
			AlwaseetPrice: payload.AlwaseetPrice,
			BarqPrice:     payload.BarqPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCityResponse(*city))
	}
}

func AdminDeleteCity(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "cityId"), "cityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCity(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AdminCreateRegion(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cityID, err := validators.PathUUID(chi.URLParam(r, "cityId"), "cityId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		region, err := svc.CreateRegion(r.Context(), cityID, shipping.RegionInput{
			Name:          payload.Name,
			AlwaseetPrice: payload.AlwaseetPrice,
			BarqPrice:     payload.BarqPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, regionResponse{
			ID:            region.ID.String(),
			Name:          region.Name,
			AlwaseetPrice: region.AlwaseetPrice.StringFixed(2),
			BarqPrice:     region.BarqPrice.StringFixed(2),
		})
	}
}

func AdminUpdateRegion(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "regionId"), "regionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		region, err := svc.UpdateRegion(r.Context(), id, shipping.RegionInput{
			Name:          payload.Name,
			AlwaseetPrice: payload.AlwaseetPrice,
			BarqPrice:     payload.BarqPrice,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, regionResponse{
			ID:            region.ID.String(),
			Name:          region.Name,
			AlwaseetPrice: region.AlwaseetPrice.StringFixed(2),
			BarqPrice:     region.BarqPrice.StringFixed(2),
		})
	}
}

type courierCityResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AdminCourierCities lists the destinations a provider delivers to, straight
// from the provider. Used when reconciling the delivery price table.
func AdminCourierCities(directory CourierDirectory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, err := enums.ParseCourierProvider(chi.URLParam(r, "provider"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown courier provider"))
			return
		}

		courier, err := directory.For(provider)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolving courier"))
			return
		}

		cities, err := courier.ListCities(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := make([]courierCityResponse, 0, len(cities))
		for _, city := range cities {
			resp = append(resp, courierCityResponse{ID: city.ID, Name: city.Name})
		}
		responses.WriteSuccess(w, map[string]any{"cities": resp})
	}
}

func AdminDeleteRegion(svc shipping.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "regionId"), "regionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteRegion(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
