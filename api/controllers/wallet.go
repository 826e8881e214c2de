package controllers

import (
	"net/http"
	"time"

	"github.com/youssefhamdan/tijara-backend/api/responses"
	"github.com/youssefhamdan/tijara-backend/api/validators"
	"github.com/youssefhamdan/tijara-backend/internal/wallet"
	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

type walletTransactionResponse struct {
	ID            string    `json:"id"`
	OrderID       *string   `json:"order_id,omitempty"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	BalanceBefore string    `json:"balance_before"`
	BalanceAfter  string    `json:"balance_after"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

type walletHistoryResponse struct {
	Transactions []walletTransactionResponse `json:"transactions"`
	NextCursor   string                      `json:"next_cursor,omitempty"`
}

func newWalletTransactionResponse(entry models.WalletTransaction) walletTransactionResponse {
	resp := walletTransactionResponse{
		ID:            entry.ID.String(),
		Type:          string(entry.Type),
		Amount:        entry.Amount.StringFixed(2),
		BalanceBefore: entry.BalanceBefore.StringFixed(2),
		BalanceAfter:  entry.BalanceAfter.StringFixed(2),
		Description:   entry.Description,
		CreatedAt:     entry.CreatedAt,
	}
	if entry.OrderID != nil {
		id := entry.OrderID.String()
		resp.OrderID = &id
	}
	return resp
}

// WalletHistory lists the authenticated customer's ledger, newest first.
func WalletHistory(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
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

		page, err := svc.Transactions(r.Context(), customerID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := walletHistoryResponse{NextCursor: page.NextCursor}
		for _, entry := range page.Transactions {
			resp.Transactions = append(resp.Transactions, newWalletTransactionResponse(entry))
		}
		responses.WriteSuccess(w, resp)
	}
}
