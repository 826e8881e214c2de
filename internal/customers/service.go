package customers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/youssefhamdan/tijara-backend/pkg/auth"
	"github.com/youssefhamdan/tijara-backend/pkg/config"
	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/pagination"
	"github.com/youssefhamdan/tijara-backend/pkg/security"
)

const guestPasswordLength = 24

// Service manages storefront customer identity.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Session, error)
	Login(ctx context.Context, input LoginInput) (*Session, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input ProfileInput) (*models.Customer, error)
	FindOrCreateGuest(ctx context.Context, tx *gorm.DB, name, phone string) (*models.Customer, error)
	List(ctx context.Context, search string, params pagination.Params) (*Page, error)
}

type service struct {
	repo        CustomerRepository
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// NewService builds the customer service.
func NewService(repo CustomerRepository, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if jwtCfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{
		repo:        repo,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		now:         time.Now,
	}, nil
}

// RegisterInput carries a storefront signup payload.
type RegisterInput struct {
	Name     string
	Phone    string
	Email    *string
	Password string
}

// LoginInput identifies a customer by phone and password.
type LoginInput struct {
	Phone    string
	Password string
}

// ProfileInput carries the self-service editable fields.
type ProfileInput struct {
	Name  string
	Email *string
}

// Session pairs a customer with a freshly minted access token.
type Session struct {
	Customer *models.Customer
	Token    string
}

// Page is one cursor page of customers.
type Page struct {
	Customers  []models.Customer
	NextCursor string
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.Phone)
	if name == "" || phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name and phone are required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	existing, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking phone")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	// A guest row created during checkout upgrades to a full account instead
	// of colliding on the phone unique index.
	if existing != nil {
		if !existing.IsGuest {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "phone already registered")
		}
		existing.Name = name
		existing.Email = normalizeEmail(input.Email)
		existing.PasswordHash = hash
		existing.IsGuest = false
		if err := s.repo.Update(ctx, existing); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upgrading guest account")
		}
		return s.sessionFor(existing)
	}

	customer := &models.Customer{
		Name:         name,
		Phone:        phone,
		Email:        normalizeEmail(input.Email),
		PasswordHash: hash,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating customer")
	}
	return s.sessionFor(customer)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*Session, error) {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" || input.Password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone and password are required")
	}

	customer, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer")
	}
	if customer == nil || customer.IsGuest {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	ok, err := security.VerifyPassword(input.Password, customer.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	return s.sessionFor(customer)
}

func (s *service) sessionFor(customer *models.Customer) (*Session, error) {
	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		SubjectID: customer.ID,
		Role:      enums.RoleCustomer,
		Name:      customer.Name,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting token")
	}
	return &Session{Customer: customer, Token: token}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading customer")
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return customer, nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, input ProfileInput) (*models.Customer, error) {
	customer, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	customer.Name = name
	customer.Email = normalizeEmail(input.Email)

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating customer")
	}
	return customer, nil
}

// FindOrCreateGuest resolves the checkout identity for an anonymous buyer.
// Repeat guest orders with the same phone land on one customer row. Runs
// inside the caller's transaction when tx is non-nil.
func (s *service) FindOrCreateGuest(ctx context.Context, tx *gorm.DB, name, phone string) (*models.Customer, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "contact name and phone are required")
	}

	repo := s.repo.WithTx(tx)

	existing, err := repo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up guest by phone")
	}
	if existing != nil {
		return existing, nil
	}

	// Guests still get a hashed random password so the row can later upgrade
	// to a real account through the normal reset flow.
	password, err := security.GenerateGuestPassword(guestPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating guest password")
	}
	hash, err := security.HashPassword(password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing guest password")
	}

	guest := &models.Customer{
		Name:         name,
		Phone:        phone,
		PasswordHash: hash,
		IsGuest:      true,
	}
	if err := repo.Create(ctx, guest); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating guest customer")
	}
	return guest, nil
}

func (s *service) List(ctx context.Context, search string, params pagination.Params) (*Page, error) {
	rows, err := s.repo.List(ctx, search, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing customers")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &Page{Customers: rows}
	if len(rows) > limit {
		page.Customers = rows[:limit]
		last := page.Customers[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page, nil
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	trimmed := strings.ToLower(strings.TrimSpace(*email))
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
