package shipping

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
)

type cityRepo interface {
	List(ctx context.Context) ([]models.City, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.City, error)
	GetByName(ctx context.Context, name string) (*models.City, error)
	CreateCity(ctx context.Context, city *models.City) error
	UpdateCity(ctx context.Context, city *models.City) error
	DeleteCity(ctx context.Context, id uuid.UUID) error
	CreateRegion(ctx context.Context, region *models.Region) error
	UpdateRegion(ctx context.Context, region *models.Region) error
	GetRegionByID(ctx context.Context, id uuid.UUID) (*models.Region, error)
	DeleteRegion(ctx context.Context, id uuid.UUID) error
}

// Service resolves delivery prices and manages the price table.
type Service interface {
	Quote(ctx context.Context, input QuoteInput) (decimal.Decimal, error)
	ListCities(ctx context.Context) ([]models.City, error)

	CreateCity(ctx context.Context, input CityInput) (*models.City, error)
	UpdateCity(ctx context.Context, id uuid.UUID, input CityInput) (*models.City, error)
	DeleteCity(ctx context.Context, id uuid.UUID) error
	CreateRegion(ctx context.Context, cityID uuid.UUID, input RegionInput) (*models.Region, error)
	UpdateRegion(ctx context.Context, id uuid.UUID, input RegionInput) (*models.Region, error)
	DeleteRegion(ctx context.Context, id uuid.UUID) error
}

type service struct {
	cities cityRepo
}

// NewService builds the shipping service.
func NewService(cities cityRepo) (Service, error) {
	if cities == nil {
		return nil, fmt.Errorf("city repository required")
	}
	return &service{cities: cities}, nil
}

// QuoteInput identifies a destination and courier.
type QuoteInput struct {
	City    string
	Region  *string
	Courier enums.CourierProvider
}

// CityInput carries the writable city fields.
type CityInput struct {
	Name          string
	AlwaseetPrice decimal.Decimal
	BarqPrice     decimal.Decimal
}

// RegionInput carries the writable region fields.
type RegionInput struct {
	Name          string
	AlwaseetPrice decimal.Decimal
	BarqPrice     decimal.Decimal
}

// Quote resolves the delivery price. A region row with a positive price for
// the courier overrides its city; an unknown city quotes zero so checkout
// never blocks on a missing table row.
func (s *service) Quote(ctx context.Context, input QuoteInput) (decimal.Decimal, error) {
	if strings.TrimSpace(input.City) == "" {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	}
	if !input.Courier.IsValid() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unknown courier provider")
	}

	city, err := s.cities.GetByName(ctx, input.City)
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up city price")
	}
	if city == nil {
		return decimal.Zero, nil
	}

	if input.Region != nil && strings.TrimSpace(*input.Region) != "" {
		wanted := strings.ToLower(strings.TrimSpace(*input.Region))
		for _, region := range city.Regions {
			if strings.ToLower(region.Name) != wanted {
				continue
			}
			if price := priceFor(input.Courier, region.AlwaseetPrice, region.BarqPrice); price.IsPositive() {
				return price, nil
			}
			break
		}
	}

	return priceFor(input.Courier, city.AlwaseetPrice, city.BarqPrice), nil
}

func priceFor(courier enums.CourierProvider, alwaseet, barq decimal.Decimal) decimal.Decimal {
	if courier == enums.CourierBarq {
		return barq
	}
	return alwaseet
}

func (s *service) ListCities(ctx context.Context) ([]models.City, error) {
	rows, err := s.cities.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing cities")
	}
	return rows, nil
}

func (s *service) CreateCity(ctx context.Context, input CityInput) (*models.City, error) {
	if err := validatePriceInput(input.Name, input.AlwaseetPrice, input.BarqPrice); err != nil {
		return nil, err
	}
	city := &models.City{
		Name:          strings.TrimSpace(input.Name),
		AlwaseetPrice: input.AlwaseetPrice,
		BarqPrice:     input.BarqPrice,
	}
	if err := s.cities.CreateCity(ctx, city); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating city")
	}
	return city, nil
}

func (s *service) UpdateCity(ctx context.Context, id uuid.UUID, input CityInput) (*models.City, error) {
	city, err := s.cities.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading city")
	}
	if city == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "city not found")
	}
	if err := validatePriceInput(input.Name, input.AlwaseetPrice, input.BarqPrice); err != nil {
		return nil, err
	}

	city.Name = strings.TrimSpace(input.Name)
	city.AlwaseetPrice = input.AlwaseetPrice
	city.BarqPrice = input.BarqPrice

	if err := s.cities.UpdateCity(ctx, city); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating city")
	}
	return city, nil
}

func (s *service) DeleteCity(ctx context.Context, id uuid.UUID) error {
	city, err := s.cities.GetByID(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading city")
	}
	if city == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "city not found")
	}
	if err := s.cities.DeleteCity(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting city")
	}
	return nil
}

func (s *service) CreateRegion(ctx context.Context, cityID uuid.UUID, input RegionInput) (*models.Region, error) {
	city, err := s.cities.GetByID(ctx, cityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading city")
	}
	if city == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "city not found")
	}
	if err := validatePriceInput(input.Name, input.AlwaseetPrice, input.BarqPrice); err != nil {
		return nil, err
	}

	region := &models.Region{
		CityID:        cityID,
		Name:          strings.TrimSpace(input.Name),
		AlwaseetPrice: input.AlwaseetPrice,
		BarqPrice:     input.BarqPrice,
	}
	if err := s.cities.CreateRegion(ctx, region); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating region")
	}
	return region, nil
}

func (s *service) UpdateRegion(ctx context.Context, id uuid.UUID, input RegionInput) (*models.Region, error) {
	region, err := s.cities.GetRegionByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading region")
	}
	if region == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "region not found")
	}
	if err := validatePriceInput(input.Name, input.AlwaseetPrice, input.BarqPrice); err != nil {
		return nil, err
	}

	region.Name = strings.TrimSpace(input.Name)
	region.AlwaseetPrice = input.AlwaseetPrice
	region.BarqPrice = input.BarqPrice

	if err := s.cities.UpdateRegion(ctx, region); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating region")
	}
	return region, nil
}

func (s *service) DeleteRegion(ctx context.Context, id uuid.UUID) error {
	region, err := s.cities.GetRegionByID(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading region")
	}
	if region == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "region not found")
	}
	if err := s.cities.DeleteRegion(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting region")
	}
	return nil
}

func validatePriceInput(name string, alwaseet, barq decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if alwaseet.IsNegative() || barq.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery prices cannot be negative")
	}
	return nil
}
