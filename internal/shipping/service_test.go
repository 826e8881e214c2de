package shipping

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
)

type stubCityRepo struct {
	cities []models.City
}

func (s *stubCityRepo) List(ctx context.Context) ([]models.City, error) { return s.cities, nil }

func (s *stubCityRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.City, error) {
	for i := range s.cities {
		if s.cities[i].ID == id {
			return &s.cities[i], nil
		}
	}
	return nil, nil
}

func (s *stubCityRepo) GetByName(ctx context.Context, name string) (*models.City, error) {
	for i := range s.cities {
		if s.cities[i].Name == name {
			return &s.cities[i], nil
		}
	}
	return nil, nil
}

func (s *stubCityRepo) CreateCity(ctx context.Context, city *models.City) error {
	city.ID = uuid.New()
	s.cities = append(s.cities, *city)
	return nil
}

func (s *stubCityRepo) UpdateCity(ctx context.Context, city *models.City) error   { return nil }
func (s *stubCityRepo) DeleteCity(ctx context.Context, id uuid.UUID) error        { return nil }
func (s *stubCityRepo) CreateRegion(ctx context.Context, r *models.Region) error  { return nil }
func (s *stubCityRepo) UpdateRegion(ctx context.Context, r *models.Region) error  { return nil }
func (s *stubCityRepo) DeleteRegion(ctx context.Context, id uuid.UUID) error      { return nil }
func (s *stubCityRepo) GetRegionByID(ctx context.Context, id uuid.UUID) (*models.Region, error) {
	return nil, nil
}

func seededRepo() *stubCityRepo {
	cityID := uuid.New()
	return &stubCityRepo{
		cities: []models.City{
			{
				ID:            cityID,
				Name:          "Baghdad",
				AlwaseetPrice: decimal.NewFromInt(5),
				BarqPrice:     decimal.NewFromInt(6),
				Regions: []models.Region{
					{
						ID:            uuid.New(),
						CityID:        cityID,
						Name:          "Karrada",
						AlwaseetPrice: decimal.NewFromInt(3),
						BarqPrice:     decimal.Zero,
					},
				},
			},
		},
	}
}

func strPtr(s string) *string { return &s }

func TestQuoteUsesRegionOverride(t *testing.T) {
	svc, err := NewService(seededRepo())
	require.NoError(t, err)

	price, err := svc.Quote(context.Background(), QuoteInput{
		City:    "Baghdad",
		Region:  strPtr("Karrada"),
		Courier: enums.CourierAlwaseet,
	})
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(3)))
}

func TestQuoteFallsBackToCityWhenRegionPriceIsZero(t *testing.T) {
	svc, err := NewService(seededRepo())
	require.NoError(t, err)

	price, err := svc.Quote(context.Background(), QuoteInput{
		City:    "Baghdad",
		Region:  strPtr("Karrada"),
		Courier: enums.CourierBarq,
	})
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(6)))
}

func TestQuoteUsesCityPriceWithoutRegion(t *testing.T) {
	svc, err := NewService(seededRepo())
	require.NoError(t, err)

	price, err := svc.Quote(context.Background(), QuoteInput{
		City:    "Baghdad",
		Courier: enums.CourierBarq,
	})
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(6)))
}

func TestQuoteUnknownCityIsFree(t *testing.T) {
	svc, err := NewService(seededRepo())
	require.NoError(t, err)

	price, err := svc.Quote(context.Background(), QuoteInput{
		City:    "Atlantis",
		Courier: enums.CourierAlwaseet,
	})
	require.NoError(t, err)
	assert.True(t, price.IsZero())
}

func TestQuoteRejectsInvalidInput(t *testing.T) {
	svc, err := NewService(seededRepo())
	require.NoError(t, err)

	_, err = svc.Quote(context.Background(), QuoteInput{City: "", Courier: enums.CourierAlwaseet})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Quote(context.Background(), QuoteInput{City: "Baghdad", Courier: "pigeon"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateCityRejectsNegativePrice(t *testing.T) {
	svc, err := NewService(seededRepo())
	require.NoError(t, err)

	_, err = svc.CreateCity(context.Background(), CityInput{
		Name:          "Basra",
		AlwaseetPrice: decimal.NewFromInt(-1),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}
