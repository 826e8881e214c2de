package support

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	"github.com/youssefhamdan/tijara-backend/pkg/pagination"
)

// Repository manages support message rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new support message.
func (r *Repository) Create(ctx context.Context, message *models.SupportMessage) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// GetByID loads one message, nil when absent.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.SupportMessage, error) {
	var message models.SupportMessage
	err := r.db.WithContext(ctx).First(&message, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &message, nil
}

// List returns a cursor page of messages, newest first, optionally filtered
// by status.
func (r *Repository) List(ctx context.Context, status *enums.SupportMessageStatus, params pagination.Params) ([]models.SupportMessage, error) {
	query := r.db.WithContext(ctx).
		Model(&models.SupportMessage{}).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.SupportMessage
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Update persists status changes on a message.
func (r *Repository) Update(ctx context.Context, message *models.SupportMessage) error {
	return r.db.WithContext(ctx).Save(message).Error
}
