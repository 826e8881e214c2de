package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/youssefhamdan/tijara-backend/pkg/enums"
)

// StoreSettings is a single-row table holding branding and cashback policy.
type StoreSettings struct {
	ID                    int                   `gorm:"column:id;primaryKey"`
	StoreName             string                `gorm:"column:store_name;not null"`
	LogoURL               *string               `gorm:"column:logo_url"`
	ContactEmail          *string               `gorm:"column:contact_email"`
	ContactPhone          *string               `gorm:"column:contact_phone"`
	DefaultCourier        enums.CourierProvider `gorm:"column:default_courier;not null;default:'alwaseet'"`
	CashbackEnabled       bool                  `gorm:"column:cashback_enabled;not null;default:false"`
	CashbackPercentage    decimal.Decimal       `gorm:"column:cashback_percentage;type:numeric(5,2);not null;default:0"`
	CashbackMinOrderValue decimal.Decimal       `gorm:"column:cashback_min_order_value;type:numeric(12,2);not null;default:0"`
	CashbackMinQuantity   int                   `gorm:"column:cashback_min_quantity;not null;default:0"`
	UpdatedAt             time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// SettingsRowID pins the singleton row.
const SettingsRowID = 1
