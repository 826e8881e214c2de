package shipping

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
)

// CityRepository manages the delivery price table.
type CityRepository struct {
	db *gorm.DB
}

// NewCityRepository binds the repository to the provided DB handle.
func NewCityRepository(db *gorm.DB) *CityRepository {
	return &CityRepository{db: db}
}

// WithTx scopes the repository to the provided transaction.
func (r *CityRepository) WithTx(tx *gorm.DB) *CityRepository {
	if tx == nil {
		return r
	}
	return &CityRepository{db: tx}
}

// List returns every city with its regions, ordered by name.
func (r *CityRepository) List(ctx context.Context) ([]models.City, error) {
	var rows []models.City
	err := r.db.WithContext(ctx).
		Preload("Regions", func(db *gorm.DB) *gorm.DB {
			return db.Order("name ASC")
		}).
		Order("name ASC").
		Find(&rows).Error
	return rows, err
}

// GetByID loads one city with regions.
func (r *CityRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.City, error) {
	var city models.City
	err := r.db.WithContext(ctx).
		Preload("Regions").
		First(&city, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &city, nil
}

// GetByName looks a city up case-insensitively.
func (r *CityRepository) GetByName(ctx context.Context, name string) (*models.City, error) {
	var city models.City
	err := r.db.WithContext(ctx).
		Preload("Regions").
		First(&city, "LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &city, nil
}

// CreateCity persists a new city.
func (r *CityRepository) CreateCity(ctx context.Context, city *models.City) error {
	return r.db.WithContext(ctx).Create(city).Error
}

// UpdateCity saves the city row without touching its regions.
func (r *CityRepository) UpdateCity(ctx context.Context, city *models.City) error {
	return r.db.WithContext(ctx).Omit("Regions").Save(city).Error
}

// DeleteCity removes the city and cascades to its regions.
func (r *CityRepository) DeleteCity(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.City{}, "id = ?", id).Error
}

// CreateRegion persists a new region row.
func (r *CityRepository) CreateRegion(ctx context.Context, region *models.Region) error {
	return r.db.WithContext(ctx).Create(region).Error
}

// UpdateRegion saves the region row.
func (r *CityRepository) UpdateRegion(ctx context.Context, region *models.Region) error {
	return r.db.WithContext(ctx).Save(region).Error
}

// GetRegionByID loads one region.
func (r *CityRepository) GetRegionByID(ctx context.Context, id uuid.UUID) (*models.Region, error) {
	var region models.Region
	err := r.db.WithContext(ctx).First(&region, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &region, nil
}

// DeleteRegion removes one region row.
func (r *CityRepository) DeleteRegion(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Region{}, "id = ?", id).Error
}
