package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/youssefhamdan/tijara-backend/api/responses"
	"github.com/youssefhamdan/tijara-backend/api/validators"
	"github.com/youssefhamdan/tijara-backend/internal/customers"
	"github.com/youssefhamdan/tijara-backend/internal/wallet"
	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
)

type customerListResponse struct {
	Customers  []customerResponse `json:"customers"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

type walletAdjustmentRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	Description string          `json:"description" validate:"required"`
}

func AdminListCustomers(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.PaginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("search")), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := customerListResponse{NextCursor: page.NextCursor}
		for i := range page.Customers {
			resp.Customers = append(resp.Customers, newCustomerResponse(&page.Customers[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

func AdminCustomerDetail(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.PathUUID(chi.URLParam(r, "customerId"), "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCustomerResponse(customer))
	}
}

// AdminCreditWallet tops up a customer wallet; the credit lands in the ledger
// as an admin adjustment.
func AdminCreditWallet(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return adminWalletAdjustment(svc.Credit, enums.WalletTransactionAdminCredit, logg)
}

// AdminDebitWallet removes funds, refusing to take the balance negative.
func AdminDebitWallet(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return adminWalletAdjustment(svc.Debit, enums.WalletTransactionAdminDebit, logg)
}

func adminWalletAdjustment(apply func(ctx context.Context, input wallet.EntryInput) (*models.WalletTransaction, error), txType enums.WalletTransactionType, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := validators.PathUUID(chi.URLParam(r, "customerId"), "customerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload walletAdjustmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := apply(r.Context(), wallet.EntryInput{
			CustomerID:  customerID,
			Type:        txType,
			Amount:      payload.Amount,
			Description: payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newWalletTransactionResponse(*entry))
	}
}

// AdminCustomerWallet lists the ledger for one customer.
func AdminCustomerWallet(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customerID, err := validators.PathUUID(chi.URLParam(r, "customerId"), "customerId")
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
