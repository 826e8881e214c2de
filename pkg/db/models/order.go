package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/youssefhamdan/tijara-backend/pkg/enums"
)

// Order is created once at checkout. Contact fields are a snapshot, not a live
// link to the customer record. Status only moves forward except for cancelled.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber     string                `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID      *uuid.UUID            `gorm:"column:customer_id;type:uuid;index"`
	Customer        *Customer             `gorm:"foreignKey:CustomerID"`
	ContactName     string                `gorm:"column:contact_name;not null"`
	ContactPhone    string                `gorm:"column:contact_phone;not null"`
	Address         string                `gorm:"column:address;not null"`
	City            string                `gorm:"column:city;not null"`
	Region          *string               `gorm:"column:region"`
	Courier         enums.CourierProvider `gorm:"column:courier;not null"`
	PaymentMethod   enums.PaymentMethod   `gorm:"column:payment_method;not null"`
	Status          enums.OrderStatus     `gorm:"column:status;not null;default:'pending'"`
	IsPaid          bool                  `gorm:"column:is_paid;not null;default:false"`
	PaymentRef      *string               `gorm:"column:payment_ref"`
	TrackingCode    *string               `gorm:"column:tracking_code"`
	ShippingPrice   decimal.Decimal       `gorm:"column:shipping_price;type:numeric(12,2);not null;default:0"`
	TotalAmount     decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,2);not null"`
	CashbackAwarded bool                  `gorm:"column:cashback_awarded;not null;default:false"`
	Notes           *string               `gorm:"column:notes"`
	Items           []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// ItemCount returns the aggregate quantity across line items.
func (o Order) ItemCount() int {
	total := 0
	for _, item := range o.Items {
		total += item.Qty
	}
	return total
}
