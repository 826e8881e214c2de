package checkout

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/youssefhamdan/tijara-backend/internal/orders"
	"github.com/youssefhamdan/tijara-backend/internal/payments"
	"github.com/youssefhamdan/tijara-backend/internal/shipping"
	"github.com/youssefhamdan/tijara-backend/internal/wallet"
	"github.com/youssefhamdan/tijara-backend/pkg/db"
	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
	"github.com/youssefhamdan/tijara-backend/pkg/metrics"
	"github.com/youssefhamdan/tijara-backend/pkg/postcommit"
)

const orderNumberAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productStore interface {
	GetManyByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error)
}

type customerDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	FindOrCreateGuest(ctx context.Context, tx *gorm.DB, name, phone string) (*models.Customer, error)
}

type walletOps interface {
	DebitTx(ctx context.Context, tx *gorm.DB, input wallet.EntryInput) (*models.WalletTransaction, error)
}

type shippingQuoter interface {
	Quote(ctx context.Context, input shipping.QuoteInput) (decimal.Decimal, error)
}

type settingsLoader interface {
	Get(ctx context.Context) (*models.StoreSettings, error)
}

type cartClearer interface {
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type confirmationSender interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

// Service turns a validated cart payload into a persisted order.
type Service interface {
	Execute(ctx context.Context, input Input) (*Result, error)
}

type service struct {
	tx        txRunner
	products  productStore
	orderRepo orders.OrderRepository
	customers customerDirectory
	wallet    walletOps
	shipping  shippingQuoter
	settings  settingsLoader
	cart      cartClearer
	email     confirmationSender
	gateway   payments.Gateway
	runner    *postcommit.Runner
	logg      *logger.Logger
	met       *metrics.Metrics
	now       func() time.Time
}

// Deps bundles the checkout service dependencies.
type Deps struct {
	Tx        txRunner
	Products  productStore
	OrderRepo orders.OrderRepository
	Customers customerDirectory
	Wallet    walletOps
	Shipping  shippingQuoter
	Settings  settingsLoader
	Cart      cartClearer
	Email     confirmationSender
	Gateway   payments.Gateway
	Runner    *postcommit.Runner
	Logger    *logger.Logger
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// NewService builds the checkout service.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Products == nil:
		return nil, fmt.Errorf("product store required")
	case deps.OrderRepo == nil:
		return nil, fmt.Errorf("order repository required")
	case deps.Customers == nil:
		return nil, fmt.Errorf("customer directory required")
	case deps.Wallet == nil:
		return nil, fmt.Errorf("wallet service required")
	case deps.Shipping == nil:
		return nil, fmt.Errorf("shipping service required")
	case deps.Settings == nil:
		return nil, fmt.Errorf("settings service required")
	case deps.Cart == nil:
		return nil, fmt.Errorf("cart service required")
	case deps.Email == nil:
		return nil, fmt.Errorf("email service required")
	case deps.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case deps.Runner == nil:
		return nil, fmt.Errorf("post-commit runner required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case deps.Metrics == nil:
		return nil, fmt.Errorf("metrics required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &service{
		tx:        deps.Tx,
		products:  deps.Products,
		orderRepo: deps.OrderRepo,
		customers: deps.Customers,
		wallet:    deps.Wallet,
		shipping:  deps.Shipping,
		settings:  deps.Settings,
		cart:      deps.Cart,
		email:     deps.Email,
		gateway:   deps.Gateway,
		runner:    deps.Runner,
		logg:      deps.Logger,
		met:       deps.Metrics,
		now:       deps.Now,
	}, nil
}

// ItemInput is one requested order line. Quantities and prices submitted by
// the client are never trusted; the price is re-read from the catalog.
type ItemInput struct {
	ProductID uuid.UUID
	Qty       int
}

// Input is a checkout request.
type Input struct {
	CustomerID    *uuid.UUID
	ContactName   string
	ContactPhone  string
	Address       string
	City          string
	Region        *string
	Notes         *string
	Courier       *enums.CourierProvider
	PaymentMethod enums.PaymentMethod
	Items         []ItemInput
}

// Result reports the persisted order and its settlement breakdown.
type Result struct {
	Order      *models.Order
	WalletPaid decimal.Decimal
	AmountDue  decimal.Decimal
	PaymentURL string
}

// Execute re-prices the items, checks stock, quotes shipping, settles wallet
// payments and persists the order atomically. Stock decrements, the cart
// clear and the confirmation email run after commit and never fail checkout.
func (s *service) Execute(ctx context.Context, input Input) (*Result, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	courier := settings.DefaultCourier
	if input.Courier != nil {
		courier = *input.Courier
	}
	if !courier.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown courier provider")
	}

	items, subtotal, err := s.priceItems(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	shippingPrice, err := s.shipping.Quote(ctx, shipping.QuoteInput{
		City:    input.City,
		Region:  input.Region,
		Courier: courier,
	})
	if err != nil {
		return nil, err
	}
	// Shipping is recorded on the order for display; the charged total
	// covers the items only.
	total := subtotal

	if input.PaymentMethod.UsesWallet() && input.CustomerID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet payments require an account")
	}

	result := &Result{WalletPaid: decimal.Zero, AmountDue: total}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		customer, txErr := s.resolveCustomer(ctx, tx, input)
		if txErr != nil {
			return txErr
		}

		order := &models.Order{
			CustomerID:    &customer.ID,
			Customer:      customer,
			ContactName:   strings.TrimSpace(input.ContactName),
			ContactPhone:  strings.TrimSpace(input.ContactPhone),
			Address:       strings.TrimSpace(input.Address),
			City:          strings.TrimSpace(input.City),
			Region:        input.Region,
			Courier:       courier,
			PaymentMethod: input.PaymentMethod,
			Status:        enums.OrderStatusPending,
			ShippingPrice: shippingPrice,
			TotalAmount:   total,
			Notes:         input.Notes,
			Items:         items,
		}
		if txErr := s.createWithFreshNumber(ctx, tx, order); txErr != nil {
			return txErr
		}

		walletPaid, txErr := s.settleWallet(ctx, tx, order, customer, total)
		if txErr != nil {
			return txErr
		}

		result.Order = order
		result.WalletPaid = walletPaid
		result.AmountDue = total.Sub(walletPaid)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.met.OrdersCreated.Inc()
	ctx = s.logg.WithOrderNumber(ctx, result.Order.OrderNumber)
	s.logg.Info(ctx, "order created")

	s.afterCommit(ctx, input, result.Order)

	if input.PaymentMethod == enums.PaymentMethodGateway {
		if err := s.initiateGateway(ctx, result); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func validateInput(input Input) error {
	if strings.TrimSpace(input.ContactName) == "" || strings.TrimSpace(input.ContactPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "contact name and phone are required")
	}
	if strings.TrimSpace(input.Address) == "" || strings.TrimSpace(input.City) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "address and city are required")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil || item.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "each item needs a product id and positive quantity")
		}
	}
	return nil
}

// priceItems snapshots name and effective price per line from the live
// catalog and verifies stock.
func (s *service) priceItems(ctx context.Context, inputs []ItemInput) ([]models.OrderItem, decimal.Decimal, error) {
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, item := range inputs {
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.GetManyByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading products")
	}

	items := make([]models.OrderItem, 0, len(inputs))
	subtotal := decimal.Zero
	for _, input := range inputs {
		product, ok := products[input.ProductID]
		if !ok || !product.IsActive {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "product not available").
				WithDetails(map[string]any{"product_id": input.ProductID})
		}
		if product.Stock < input.Qty {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "insufficient stock").
				WithDetails(map[string]any{
					"product":   product.Name,
					"available": product.Stock,
					"requested": input.Qty,
				})
		}

		unitPrice := product.EffectivePrice()
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(input.Qty)))
		productID := product.ID
		items = append(items, models.OrderItem{
			ProductID: &productID,
			Name:      product.Name,
			UnitPrice: unitPrice,
			Qty:       input.Qty,
			LineTotal: lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}
	return items, subtotal, nil
}

func (s *service) resolveCustomer(ctx context.Context, tx *gorm.DB, input Input) (*models.Customer, error) {
	if input.CustomerID != nil {
		return s.customers.Get(ctx, *input.CustomerID)
	}
	return s.customers.FindOrCreateGuest(ctx, tx, input.ContactName, input.ContactPhone)
}

// createWithFreshNumber retries on order number collisions, which are rare
// but possible with the time-based format.
func (s *service) createWithFreshNumber(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	repo := s.orderRepo.WithTx(tx)
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := generateOrderNumber(s.now())
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating order number")
		}
		order.OrderNumber = number

		err = repo.Create(ctx, order)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, "order_number") {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
		}
	}
	return pkgerrors.New(pkgerrors.CodeInternal, "could not allocate an order number")
}

func generateOrderNumber(now time.Time) (string, error) {
	suffix, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%06d", now.UTC().Format("20060102"), suffix.Int64()), nil
}

// settleWallet debits the wallet per the payment method and returns the
// amount actually paid from the wallet.
func (s *service) settleWallet(ctx context.Context, tx *gorm.DB, order *models.Order, customer *models.Customer, total decimal.Decimal) (decimal.Decimal, error) {
	if !order.PaymentMethod.UsesWallet() {
		return decimal.Zero, nil
	}

	amount := total
	if order.PaymentMethod == enums.PaymentMethodWalletPartial {
		amount = decimal.Min(customer.WalletBalance, total)
		if !amount.IsPositive() {
			return decimal.Zero, nil
		}
	}

	orderID := order.ID
	_, err := s.wallet.DebitTx(ctx, tx, wallet.EntryInput{
		CustomerID:  customer.ID,
		OrderID:     &orderID,
		Type:        enums.WalletTransactionPayment,
		Amount:      amount,
		Description: fmt.Sprintf("payment for order %s", order.OrderNumber),
	})
	if err != nil {
		return decimal.Zero, err
	}

	if amount.Equal(total) {
		if err := s.orderRepo.WithTx(tx).MarkPaid(ctx, order.ID); err != nil {
			return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking order paid")
		}
		order.IsPaid = true
	}
	return amount, nil
}

// afterCommit runs the side effects that must not fail the checkout: stock
// decrements, clearing the cart and the confirmation email.
func (s *service) afterCommit(ctx context.Context, input Input, order *models.Order) {
	for _, item := range order.Items {
		if item.ProductID == nil {
			continue
		}
		ok, err := s.products.DecrementStock(ctx, *item.ProductID, item.Qty)
		if err != nil {
			s.logg.Error(ctx, "stock decrement failed", err)
			continue
		}
		if !ok {
			// the pre-persist check passed, so a concurrent order won the
			// remaining stock; the oversell is logged, not rolled back
			s.logg.Warn(s.logg.WithField(ctx, "product_id", item.ProductID.String()), "stock decrement guarded, product oversold")
		}
	}

	if input.CustomerID != nil {
		customerID := *input.CustomerID
		s.runner.Go(ctx, "clear_cart", func(ctx context.Context) error {
			return s.cart.Clear(ctx, customerID)
		})
	}

	s.runner.Go(ctx, "order_confirmation_email", func(ctx context.Context) error {
		return s.email.SendOrderConfirmation(ctx, order)
	})
}

func (s *service) initiateGateway(ctx context.Context, result *Result) error {
	initiated, err := s.gateway.Initiate(ctx, payments.InitiateInput{
		OrderNumber: result.Order.OrderNumber,
		Amount:      result.AmountDue,
		Phone:       result.Order.ContactPhone,
	})
	if err != nil {
		return err
	}

	if err := s.orderRepo.SetPaymentRef(ctx, result.Order.ID, initiated.Ref); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving payment ref")
	}
	ref := initiated.Ref
	result.Order.PaymentRef = &ref
	result.PaymentURL = initiated.PaymentURL
	return nil
}
