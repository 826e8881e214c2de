package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/youssefhamdan/tijara-backend/api/middleware"
	"github.com/youssefhamdan/tijara-backend/api/responses"
	"github.com/youssefhamdan/tijara-backend/api/validators"
	"github.com/youssefhamdan/tijara-backend/internal/customers"
	"github.com/youssefhamdan/tijara-backend/pkg/config"
	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

type registerRequest struct {
	Name     string  `json:"name" validate:"required"`
	Phone    string  `json:"phone" validate:"required"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Password string  `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Name  string  `json:"name" validate:"required"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
}

type sessionResponse struct {
	Customer customerResponse `json:"customer"`
	Token    string           `json:"token"`
}

type customerResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Phone         string  `json:"phone"`
	Email         *string `json:"email,omitempty"`
	WalletBalance string  `json:"wallet_balance"`
	IsGuest       bool    `json:"is_guest"`
}

func newCustomerResponse(customer *models.Customer) customerResponse {
	return customerResponse{
		ID:            customer.ID.String(),
		Name:          customer.Name,
		Phone:         customer.Phone,
		Email:         customer.Email,
		WalletBalance: customer.WalletBalance.StringFixed(2),
		IsGuest:       customer.IsGuest,
	}
}

// CustomerRegister creates a storefront account and opens a session.
func CustomerRegister(svc customers.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Register(r.Context(), customers.RegisterInput{
			Name:     payload.Name,
			Phone:    payload.Phone,
			Email:    payload.Email,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		setSessionCookie(w, jwtCfg, session.Token)
		responses.WriteSuccessStatus(w, http.StatusCreated, sessionResponse{
			Customer: newCustomerResponse(session.Customer),
			Token:    session.Token,
		})
	}
}

func CustomerLogin(svc customers.Service, jwtCfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		session, err := svc.Login(r.Context(), customers.LoginInput{
			Phone:    payload.Phone,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		setSessionCookie(w, jwtCfg, session.Token)
		responses.WriteSuccess(w, sessionResponse{
			Customer: newCustomerResponse(session.Customer),
			Token:    session.Token,
		})
	}
}

// CustomerLogout drops the session cookie. Tokens are stateless, so the
// server keeps nothing to revoke.
func CustomerLogout(jwtCfg config.JWTConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clearSessionCookie(w, jwtCfg)
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

func CustomerProfile(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := subjectID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.Get(r.Context(), customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCustomerResponse(customer))
	}
}

func CustomerUpdateProfile(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload profileRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customerID, err := subjectID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		customer, err := svc.UpdateProfile(r.Context(), customerID, customers.ProfileInput{
			Name:  payload.Name,
			Email: payload.Email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCustomerResponse(customer))
	}
}

func setSessionCookie(w http.ResponseWriter, cfg config.JWTConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.TokenTTL() / time.Second),
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter, cfg config.JWTConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// subjectID guards handlers that must run with an authenticated principal
// even if routing mistakes ever expose them without the auth middleware.
func subjectID(r *http.Request) (uuid.UUID, error) {
	id := middleware.SubjectIDFromContext(r.Context())
	if id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return id, nil
}
