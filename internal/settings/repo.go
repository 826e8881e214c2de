package settings

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
)

// Repository manages the single store settings row.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to the provided DB handle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Get loads the settings row, returning nil when it has not been seeded yet.
func (r *Repository) Get(ctx context.Context) (*models.StoreSettings, error) {
	var row models.StoreSettings
	err := r.db.WithContext(ctx).First(&row, "id = ?", models.SettingsRowID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// Save upserts the settings row, always pinned to the singleton id.
func (r *Repository) Save(ctx context.Context, row *models.StoreSettings) error {
	row.ID = models.SettingsRowID
	return r.db.WithContext(ctx).Save(row).Error
}
