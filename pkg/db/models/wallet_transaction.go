package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/youssefhamdan/tijara-backend/pkg/enums"
)

// WalletTransaction is one append-only ledger row. Balance before/after are
// captured on every mutation so the mirrored Customer.WalletBalance can be
// audited against the ledger.
type WalletTransaction struct {
	ID            uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID    uuid.UUID                   `gorm:"column:customer_id;type:uuid;not null;index"`
	OrderID       *uuid.UUID                  `gorm:"column:order_id;type:uuid"`
	Type          enums.WalletTransactionType `gorm:"column:type;not null"`
	Amount        decimal.Decimal             `gorm:"column:amount;type:numeric(12,2);not null"`
	BalanceBefore decimal.Decimal             `gorm:"column:balance_before;type:numeric(12,2);not null"`
	BalanceAfter  decimal.Decimal             `gorm:"column:balance_after;type:numeric(12,2);not null"`
	Description   string                      `gorm:"column:description;not null"`
	CreatedAt     time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
