package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// City is one row of the delivery price table, with a price column per courier.
type City struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string          `gorm:"column:name;not null;uniqueIndex"`
	AlwaseetPrice decimal.Decimal `gorm:"column:alwaseet_price;type:numeric(12,2);not null;default:0"`
	BarqPrice     decimal.Decimal `gorm:"column:barq_price;type:numeric(12,2);not null;default:0"`
	Regions       []Region        `gorm:"foreignKey:CityID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Region overrides the city price for a sub-area.
type Region struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CityID        uuid.UUID       `gorm:"column:city_id;type:uuid;not null;index"`
	Name          string          `gorm:"column:name;not null"`
	AlwaseetPrice decimal.Decimal `gorm:"column:alwaseet_price;type:numeric(12,2);not null;default:0"`
	BarqPrice     decimal.Decimal `gorm:"column:barq_price;type:numeric(12,2);not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
