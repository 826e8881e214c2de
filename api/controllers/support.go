package controllers

import (
	"net/http"
	"time"

	"github.com/youssefhamdan/tijara-backend/api/responses"
	"github.com/youssefhamdan/tijara-backend/api/validators"
	"github.com/youssefhamdan/tijara-backend/internal/support"
	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

type supportRequest struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

type supportMessageResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	Status    string     `json:"status"`
	HandledAt *time.Time `json:"handled_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func newSupportMessageResponse(message models.SupportMessage) supportMessageResponse {
	return supportMessageResponse{
		ID:        message.ID.String(),
		Name:      message.Name,
		Phone:     message.Phone,
		Subject:   message.Subject,
		Body:      message.Body,
		Status:    string(message.Status),
		HandledAt: message.HandledAt,
		CreatedAt: message.CreatedAt,
	}
}

// SupportSubmit accepts a storefront inquiry from anyone, no account needed.
func SupportSubmit(svc support.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload supportRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message, err := svc.Submit(r.Context(), support.SubmitInput{
			Name:    payload.Name,
			Phone:   payload.Phone,
			Subject: payload.Subject,
			Body:    payload.Body,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newSupportMessageResponse(*message))
	}
}
