package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/youssefhamdan/tijara-backend/api/responses"
	"github.com/youssefhamdan/tijara-backend/api/validators"
	"github.com/youssefhamdan/tijara-backend/internal/support"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

type supportListResponse struct {
	Messages   []supportMessageResponse `json:"messages"`
	NextCursor string                   `json:"next_cursor,omitempty"`
}

func AdminListSupport(svc support.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.PaginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.SupportMessageStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseSupportMessageStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown message status"))
				return
			}
			status = &parsed
		}

		page, err := svc.List(r.Context(), status, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := supportListResponse{NextCursor: page.NextCursor}
		for _, message := range page.Messages {
			resp.Messages = append(resp.Messages, newSupportMessageResponse(message))
		}
		responses.WriteSuccess(w, resp)
	}
}

// AdminMarkSupportHandled is idempotent; re-marking a handled message keeps
// the original timestamp.
func AdminMarkSupportHandled(svc support.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "messageId"), "messageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message, err := svc.MarkHandled(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSupportMessageResponse(*message))
	}
}
