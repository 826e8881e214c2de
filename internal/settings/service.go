package settings

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/youssefhamdan/tijara-backend/pkg/config"
	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
)

type settingsRepo interface {
	Get(ctx context.Context) (*models.StoreSettings, error)
	Save(ctx context.Context, row *models.StoreSettings) error
}

// Service reads and updates the store settings singleton.
type Service interface {
	Get(ctx context.Context) (*models.StoreSettings, error)
	Update(ctx context.Context, input UpdateInput) (*models.StoreSettings, error)
}

type service struct {
	repo     settingsRepo
	defaults config.CashbackDefaults

	seedOnce sync.Once
	seedErr  error
}

// NewService builds the settings service. Cashback defaults seed the row on
// first read if an operator has never saved one.
func NewService(repo settingsRepo, defaults config.CashbackDefaults) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo, defaults: defaults}, nil
}

// UpdateInput carries the writable settings fields.
type UpdateInput struct {
	StoreName             string
	LogoURL               *string
	ContactEmail          *string
	ContactPhone          *string
	DefaultCourier        enums.CourierProvider
	CashbackEnabled       bool
	CashbackPercentage    decimal.Decimal
	CashbackMinOrderValue decimal.Decimal
	CashbackMinQuantity   int
}

func (s *service) Get(ctx context.Context) (*models.StoreSettings, error) {
	s.seedOnce.Do(func() {
		s.seedErr = s.seed(ctx)
	})
	if s.seedErr != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, s.seedErr, "seeding store settings")
	}

	row, err := s.repo.Get(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading store settings")
	}
	if row == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "store settings row missing")
	}
	return row, nil
}

func (s *service) seed(ctx context.Context) error {
	row, err := s.repo.Get(ctx)
	if err != nil {
		return err
	}
	if row != nil {
		return nil
	}
	return s.repo.Save(ctx, &models.StoreSettings{
		ID:                    models.SettingsRowID,
		StoreName:             "Tijara Store",
		DefaultCourier:        enums.CourierAlwaseet,
		CashbackEnabled:       s.defaults.Enabled,
		CashbackPercentage:    s.defaults.Percentage,
		CashbackMinOrderValue: s.defaults.MinOrderValue,
		CashbackMinQuantity:   s.defaults.MinQuantity,
	})
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*models.StoreSettings, error) {
	if strings.TrimSpace(input.StoreName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name is required")
	}
	if !input.DefaultCourier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown default courier")
	}
	if input.CashbackPercentage.IsNegative() || input.CashbackPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cashback percentage must be between 0 and 100")
	}
	if input.CashbackMinOrderValue.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cashback minimum order value cannot be negative")
	}
	if input.CashbackMinQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cashback minimum quantity cannot be negative")
	}

	row, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	row.StoreName = strings.TrimSpace(input.StoreName)
	row.LogoURL = input.LogoURL
	row.ContactEmail = input.ContactEmail
	row.ContactPhone = input.ContactPhone
	row.DefaultCourier = input.DefaultCourier
	row.CashbackEnabled = input.CashbackEnabled
	row.CashbackPercentage = input.CashbackPercentage
	row.CashbackMinOrderValue = input.CashbackMinOrderValue
	row.CashbackMinQuantity = input.CashbackMinQuantity

	if err := s.repo.Save(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving store settings")
	}
	return row, nil
}
