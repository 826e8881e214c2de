package checkout

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/youssefhamdan/tijara-backend/internal/orders"
	"github.com/youssefhamdan/tijara-backend/internal/payments"
	"github.com/youssefhamdan/tijara-backend/internal/shipping"
	"github.com/youssefhamdan/tijara-backend/internal/wallet"
	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/logger"
	"github.com/youssefhamdan/tijara-backend/pkg/metrics"
	"github.com/youssefhamdan/tijara-backend/pkg/pagination"
	"github.com/youssefhamdan/tijara-backend/pkg/postcommit"
)

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubProducts struct {
	byID       map[uuid.UUID]*models.Product
	decrements map[uuid.UUID]int
	guardFails bool
}

func (s *stubProducts) GetManyByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error) {
	out := map[uuid.UUID]*models.Product{}
	for _, id := range ids {
		if product, ok := s.byID[id]; ok {
			out[id] = product
		}
	}
	return out, nil
}

func (s *stubProducts) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	if s.guardFails {
		return false, nil
	}
	if s.decrements == nil {
		s.decrements = map[uuid.UUID]int{}
	}
	s.decrements[id] += qty
	return true, nil
}

type stubOrderRepo struct {
	created    []*models.Order
	paid       map[uuid.UUID]bool
	paymentRef map[uuid.UUID]string
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{paid: map[uuid.UUID]bool{}, paymentRef: map[uuid.UUID]string{}}
}

func (s *stubOrderRepo) WithTx(tx *gorm.DB) orders.OrderRepository { return s }

func (s *stubOrderRepo) Create(ctx context.Context, order *models.Order) error {
	order.ID = uuid.New()
	s.created = append(s.created, order)
	return nil
}

func (s *stubOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return nil, nil
}
func (s *stubOrderRepo) GetByNumber(ctx context.Context, n string) (*models.Order, error) {
	return nil, nil
}
func (s *stubOrderRepo) GetByPaymentRef(ctx context.Context, ref string) (*models.Order, error) {
	return nil, nil
}
func (s *stubOrderRepo) ListByCustomer(ctx context.Context, id uuid.UUID, p pagination.Params) ([]models.Order, error) {
	return nil, nil
}
func (s *stubOrderRepo) List(ctx context.Context, f orders.ListFilter, p pagination.Params) ([]models.Order, error) {
	return nil, nil
}
func (s *stubOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, st enums.OrderStatus) error {
	return nil
}
func (s *stubOrderRepo) SetTrackingCode(ctx context.Context, id uuid.UUID, code string) error {
	return nil
}
func (s *stubOrderRepo) SetPaymentRef(ctx context.Context, id uuid.UUID, ref string) error {
	s.paymentRef[id] = ref
	return nil
}
func (s *stubOrderRepo) MarkPaid(ctx context.Context, id uuid.UUID) error {
	s.paid[id] = true
	return nil
}
func (s *stubOrderRepo) MarkCashbackAwarded(ctx context.Context, id uuid.UUID) error { return nil }

type stubCustomers struct {
	byID   map[uuid.UUID]*models.Customer
	guests []*models.Customer
}

func (s *stubCustomers) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, ok := s.byID[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return customer, nil
}

func (s *stubCustomers) FindOrCreateGuest(ctx context.Context, tx *gorm.DB, name, phone string) (*models.Customer, error) {
	guest := &models.Customer{ID: uuid.New(), Name: name, Phone: phone, IsGuest: true}
	s.guests = append(s.guests, guest)
	return guest, nil
}

type stubWallet struct {
	balance decimal.Decimal
	debits  []wallet.EntryInput
}

func (s *stubWallet) DebitTx(ctx context.Context, tx *gorm.DB, input wallet.EntryInput) (*models.WalletTransaction, error) {
	if input.Amount.GreaterThan(s.balance) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "insufficient wallet balance")
	}
	s.balance = s.balance.Sub(input.Amount)
	s.debits = append(s.debits, input)
	return &models.WalletTransaction{Amount: input.Amount}, nil
}

type stubShipping struct {
	price decimal.Decimal
}

func (s *stubShipping) Quote(ctx context.Context, input shipping.QuoteInput) (decimal.Decimal, error) {
	return s.price, nil
}

type stubSettings struct{}

func (stubSettings) Get(ctx context.Context) (*models.StoreSettings, error) {
	return &models.StoreSettings{
		StoreName:      "Test Store",
		DefaultCourier: enums.CourierAlwaseet,
	}, nil
}

type stubCart struct {
	cleared []uuid.UUID
}

func (s *stubCart) Clear(ctx context.Context, customerID uuid.UUID) error {
	s.cleared = append(s.cleared, customerID)
	return nil
}

type stubEmail struct {
	confirmations int
}

func (s *stubEmail) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	s.confirmations++
	return nil
}

type stubGateway struct {
	initiated []payments.InitiateInput
	fail      bool
}

func (s *stubGateway) Initiate(ctx context.Context, input payments.InitiateInput) (*payments.InitiateResult, error) {
	if s.fail {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway down")
	}
	s.initiated = append(s.initiated, input)
	return &payments.InitiateResult{PaymentURL: "https://pay.example/p/1", Ref: "ref-1"}, nil
}

func (s *stubGateway) Verify(ctx context.Context, ref string) (*payments.VerifyResult, error) {
	return &payments.VerifyResult{Paid: true}, nil
}

type fixture struct {
	svc       Service
	products  *stubProducts
	orderRepo *stubOrderRepo
	customers *stubCustomers
	wallet    *stubWallet
	cart      *stubCart
	email     *stubEmail
	gateway   *stubGateway
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	f := &fixture{
		products:  &stubProducts{byID: map[uuid.UUID]*models.Product{}},
		orderRepo: newStubOrderRepo(),
		customers: &stubCustomers{byID: map[uuid.UUID]*models.Customer{}},
		wallet:    &stubWallet{balance: decimal.Zero},
		cart:      &stubCart{},
		email:     &stubEmail{},
		gateway:   &stubGateway{},
	}

	svc, err := NewService(Deps{
		Tx:        passthroughTx{},
		Products:  f.products,
		OrderRepo: f.orderRepo,
		Customers: f.customers,
		Wallet:    f.wallet,
		Shipping:  &stubShipping{price: decimal.NewFromInt(5)},
		Settings:  stubSettings{},
		Cart:      f.cart,
		Email:     f.email,
		Gateway:   f.gateway,
		Runner:    postcommit.NewRunner(logg, postcommit.WithSync()),
		Logger:    logg,
		Metrics:   metrics.NewForTest(),
		Now:       func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) addProduct(t *testing.T, price int64, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		Name:     "Widget",
		Price:    decimal.NewFromInt(price),
		Stock:    stock,
		IsActive: true,
	}
	f.products.byID[product.ID] = product
	return product
}

func (f *fixture) addCustomer(t *testing.T, balance int64) *models.Customer {
	t.Helper()
	customer := &models.Customer{
		ID:            uuid.New(),
		Name:          "Sara",
		Phone:         "07700000001",
		WalletBalance: decimal.NewFromInt(balance),
	}
	f.customers.byID[customer.ID] = customer
	f.wallet.balance = customer.WalletBalance
	return customer
}

func baseInput(product *models.Product) Input {
	return Input{
		ContactName:   "Sara",
		ContactPhone:  "07700000001",
		Address:       "Street 9",
		City:          "Baghdad",
		PaymentMethod: enums.PaymentMethodCOD,
		Items:         []ItemInput{{ProductID: product.ID, Qty: 2}},
	}
}

func TestExecuteRepricesFromCatalog(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(t, 100, 10)
	sale := decimal.NewFromInt(80)
	product.SalePrice = &sale

	result, err := f.svc.Execute(context.Background(), baseInput(product))
	require.NoError(t, err)

	order := result.Order
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].UnitPrice.Equal(decimal.NewFromInt(80)))
	assert.True(t, order.Items[0].LineTotal.Equal(decimal.NewFromInt(160)))
	// shipping is quoted onto the order but never charged
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(160)))
	assert.True(t, order.ShippingPrice.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.False(t, order.IsPaid)
	assert.True(t, result.AmountDue.Equal(decimal.NewFromInt(160)))
}

func TestExecuteRejectsInsufficientStock(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(t, 50, 3)

	input := baseInput(product)
	input.Items[0].Qty = 5

	_, err := f.svc.Execute(context.Background(), input)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Widget", details["product"])
	assert.Equal(t, 3, details["available"])
	assert.Empty(t, f.orderRepo.created)
}

func TestExecuteGuestCheckoutProvisionsCustomer(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(t, 20, 10)

	result, err := f.svc.Execute(context.Background(), baseInput(product))
	require.NoError(t, err)

	require.Len(t, f.customers.guests, 1)
	guest := f.customers.guests[0]
	assert.True(t, guest.IsGuest)
	require.NotNil(t, result.Order.CustomerID)
	assert.Equal(t, guest.ID, *result.Order.CustomerID)
	// guests have no cart to clear
	assert.Empty(t, f.cart.cleared)
	assert.Equal(t, 1, f.email.confirmations)
}

func TestExecuteFullWalletPayment(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(t, 30, 10)
	customer := f.addCustomer(t, 100)

	input := baseInput(product)
	input.CustomerID = &customer.ID
	input.PaymentMethod = enums.PaymentMethodWallet

	result, err := f.svc.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.True(t, result.WalletPaid.Equal(decimal.NewFromInt(60)))
	assert.True(t, result.AmountDue.IsZero())
	assert.True(t, result.Order.IsPaid)
	require.Len(t, f.wallet.debits, 1)
	assert.Equal(t, enums.WalletTransactionPayment, f.wallet.debits[0].Type)
	assert.Equal(t, []uuid.UUID{customer.ID}, f.cart.cleared)
}

func TestExecuteFullWalletInsufficientBalanceFails(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(t, 30, 10)
	customer := f.addCustomer(t, 10)

	input := baseInput(product)
	input.CustomerID = &customer.ID
	input.PaymentMethod = enums.PaymentMethodWallet

	_, err := f.svc.Execute(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestExecutePartialWalletPayment(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(t, 50, 10)
	customer := f.addCustomer(t, 40)

	input := baseInput(product)
	input.CustomerID = &customer.ID
	input.PaymentMethod = enums.PaymentMethodWalletPartial

	result, err := f.svc.Execute(context.Background(), input)
	require.NoError(t, err)

	// total 100, wallet covers 40, 60 due on delivery
	assert.True(t, result.WalletPaid.Equal(decimal.NewFromInt(40)))
	assert.True(t, result.AmountDue.Equal(decimal.NewFromInt(60)))
	assert.False(t, result.Order.IsPaid)
}

func TestExecuteWalletRequiresAccount(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(t, 30, 10)

	input := baseInput(product)
	input.PaymentMethod = enums.PaymentMethodWallet

	_, err := f.svc.Execute(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestExecuteDecrementsStockAfterCommit(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(t, 10, 10)

	_, err := f.svc.Execute(context.Background(), baseInput(product))
	require.NoError(t, err)

	assert.Equal(t, 2, f.products.decrements[product.ID])
}

func TestExecuteSurvivesGuardedStockDecrement(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(t, 10, 10)
	f.products.guardFails = true

	result, err := f.svc.Execute(context.Background(), baseInput(product))
	require.NoError(t, err)
	require.NotNil(t, result.Order)
}

func TestExecuteGatewayPayment(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(t, 30, 10)

	input := baseInput(product)
	input.PaymentMethod = enums.PaymentMethodGateway

	result, err := f.svc.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, "https://pay.example/p/1", result.PaymentURL)
	require.NotNil(t, result.Order.PaymentRef)
	assert.Equal(t, "ref-1", *result.Order.PaymentRef)
	assert.Equal(t, "ref-1", f.orderRepo.paymentRef[result.Order.ID])
	require.Len(t, f.gateway.initiated, 1)
	assert.True(t, f.gateway.initiated[0].Amount.Equal(decimal.NewFromInt(60)))
}

func TestExecuteGatewayFailureKeepsOrder(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(t, 30, 10)
	f.gateway.fail = true

	input := baseInput(product)
	input.PaymentMethod = enums.PaymentMethodGateway

	_, err := f.svc.Execute(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	// order was already committed before the gateway call
	require.Len(t, f.orderRepo.created, 1)
}

func TestExecuteValidation(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(t, 30, 10)

	cases := []func(*Input){
		func(i *Input) { i.ContactName = "" },
		func(i *Input) { i.ContactPhone = "" },
		func(i *Input) { i.Address = "" },
		func(i *Input) { i.City = "" },
		func(i *Input) { i.PaymentMethod = "cheque" },
		func(i *Input) { i.Items = nil },
		func(i *Input) { i.Items[0].Qty = 0 },
	}
	for _, mutate := range cases {
		input := baseInput(product)
		mutate(&input)
		_, err := f.svc.Execute(context.Background(), input)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	}
}

func TestExecuteOrderNumberFormat(t *testing.T) {
	f := newFixture(t)
	product := f.addProduct(t, 30, 10)

	result, err := f.svc.Execute(context.Background(), baseInput(product))
	require.NoError(t, err)
	assert.Regexp(t, `^ORD-20250301-\d{6}$`, result.Order.OrderNumber)
}
