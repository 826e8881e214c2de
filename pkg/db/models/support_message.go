package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/youssefhamdan/tijara-backend/pkg/enums"
)

// SupportMessage is a customer inquiry submitted from the storefront.
type SupportMessage struct {
	ID        uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string                     `gorm:"column:name;not null"`
	Phone     string                     `gorm:"column:phone;not null"`
	Subject   string                     `gorm:"column:subject;not null"`
	Body      string                     `gorm:"column:body;not null"`
	Status    enums.SupportMessageStatus `gorm:"column:status;not null;default:'open'"`
	HandledAt *time.Time                 `gorm:"column:handled_at"`
	CreatedAt time.Time                  `gorm:"column:created_at;autoCreateTime"`
}
