package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/youssefhamdan/tijara-backend/internal/couriers"
	"github.com/youssefhamdan/tijara-backend/internal/payments"
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

type memOrderRepo struct {
	orders map[uuid.UUID]*models.Order
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: map[uuid.UUID]*models.Order{}}
}

func (m *memOrderRepo) WithTx(tx *gorm.DB) OrderRepository { return m }

func (m *memOrderRepo) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	m.orders[order.ID] = order
	return nil
}

func (m *memOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (m *memOrderRepo) GetByNumber(ctx context.Context, n string) (*models.Order, error) {
	for _, order := range m.orders {
		if order.OrderNumber == n {
			copied := *order
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memOrderRepo) GetByPaymentRef(ctx context.Context, ref string) (*models.Order, error) {
	for _, order := range m.orders {
		if order.PaymentRef != nil && *order.PaymentRef == ref {
			copied := *order
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memOrderRepo) ListByCustomer(ctx context.Context, id uuid.UUID, p pagination.Params) ([]models.Order, error) {
	return nil, nil
}

func (m *memOrderRepo) List(ctx context.Context, f ListFilter, p pagination.Params) ([]models.Order, error) {
	return nil, nil
}

func (m *memOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, st enums.OrderStatus) error {
	m.orders[id].Status = st
	return nil
}

func (m *memOrderRepo) SetTrackingCode(ctx context.Context, id uuid.UUID, code string) error {
	m.orders[id].TrackingCode = &code
	return nil
}

func (m *memOrderRepo) SetPaymentRef(ctx context.Context, id uuid.UUID, ref string) error {
	m.orders[id].PaymentRef = &ref
	return nil
}

func (m *memOrderRepo) MarkPaid(ctx context.Context, id uuid.UUID) error {
	m.orders[id].IsPaid = true
	return nil
}

func (m *memOrderRepo) MarkCashbackAwarded(ctx context.Context, id uuid.UUID) error {
	m.orders[id].CashbackAwarded = true
	return nil
}

type stubWallet struct {
	credits  []wallet.EntryInput
	refunds  []uuid.UUID
	refunded decimal.Decimal
	paid     decimal.Decimal
}

func (s *stubWallet) CreditTx(ctx context.Context, tx *gorm.DB, input wallet.EntryInput) (*models.WalletTransaction, error) {
	s.credits = append(s.credits, input)
	return &models.WalletTransaction{Amount: input.Amount}, nil
}

func (s *stubWallet) RefundOrderTx(ctx context.Context, tx *gorm.DB, orderID, customerID uuid.UUID) (decimal.Decimal, error) {
	s.refunds = append(s.refunds, orderID)
	return s.refunded, nil
}

func (s *stubWallet) PaidFromWallet(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error) {
	return s.paid, nil
}

type stubSettings struct {
	settings models.StoreSettings
}

func (s *stubSettings) Get(ctx context.Context) (*models.StoreSettings, error) {
	copied := s.settings
	return &copied, nil
}

type stubCourier struct {
	provider  enums.CourierProvider
	shipments []couriers.Shipment
	tracked   []string
	tracking  couriers.Tracking
	fail      bool
}

func (s *stubCourier) Provider() enums.CourierProvider { return s.provider }

func (s *stubCourier) CreateShipment(ctx context.Context, shipment couriers.Shipment) (*couriers.Result, error) {
	if s.fail {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "courier down")
	}
	s.shipments = append(s.shipments, shipment)
	return &couriers.Result{TrackingCode: "TRACK-7"}, nil
}

func (s *stubCourier) Track(ctx context.Context, trackingCode string) (*couriers.Tracking, error) {
	if s.fail {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "courier down")
	}
	s.tracked = append(s.tracked, trackingCode)
	copied := s.tracking
	return &copied, nil
}

func (s *stubCourier) ListCities(ctx context.Context) ([]couriers.City, error) {
	return nil, nil
}

type stubRegistry struct {
	courier *stubCourier
}

func (s *stubRegistry) For(provider enums.CourierProvider) (couriers.Courier, error) {
	if s.courier == nil || s.courier.provider != provider {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "no courier")
	}
	return s.courier, nil
}

type stubGateway struct {
	paid bool
}

func (s *stubGateway) Initiate(ctx context.Context, input payments.InitiateInput) (*payments.InitiateResult, error) {
	return nil, nil
}

func (s *stubGateway) Verify(ctx context.Context, ref string) (*payments.VerifyResult, error) {
	return &payments.VerifyResult{Paid: s.paid}, nil
}

type stubEmail struct {
	updates int
}

func (s *stubEmail) SendOrderStatusUpdate(ctx context.Context, order *models.Order) error {
	s.updates++
	return nil
}

type fixture struct {
	svc      Service
	repo     *memOrderRepo
	wallet   *stubWallet
	settings *stubSettings
	courier  *stubCourier
	gateway  *stubGateway
	email    *stubEmail
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	f := &fixture{
		repo:   newMemOrderRepo(),
		wallet: &stubWallet{},
		settings: &stubSettings{settings: models.StoreSettings{
			StoreName:      "Test Store",
			DefaultCourier: enums.CourierAlwaseet,
		}},
		courier: &stubCourier{provider: enums.CourierAlwaseet},
		gateway: &stubGateway{},
		email:   &stubEmail{},
	}

	svc, err := NewService(Deps{
		Repo:     f.repo,
		Tx:       passthroughTx{},
		Wallet:   f.wallet,
		Settings: f.settings,
		Couriers: &stubRegistry{courier: f.courier},
		Gateway:  f.gateway,
		Email:    f.email,
		Runner:   postcommit.NewRunner(logg, postcommit.WithSync()),
		Logger:   logg,
		Metrics:  metrics.NewForTest(),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) seedOrder(t *testing.T, status enums.OrderStatus) *models.Order {
	t.Helper()
	customerID := uuid.New()
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-20250301-000042",
		CustomerID:    &customerID,
		ContactName:   "Ali",
		ContactPhone:  "07700000000",
		Address:       "Street 1",
		City:          "Baghdad",
		Courier:       enums.CourierAlwaseet,
		PaymentMethod: enums.PaymentMethodCOD,
		Status:        status,
		TotalAmount:   decimal.NewFromInt(100),
		Items: []models.OrderItem{
			{Name: "Widget", Qty: 2, UnitPrice: decimal.NewFromInt(50), LineTotal: decimal.NewFromInt(100)},
		},
	}
	require.NoError(t, f.repo.Create(context.Background(), order))
	return order
}

func TestTransitionForwardHappyPath(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusPending)

	updated, err := f.svc.Transition(context.Background(), order.ID, enums.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)
	assert.Equal(t, 1, f.email.updates)
}

func TestTransitionRejectsBackwardMove(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusShipped)

	_, err := f.svc.Transition(context.Background(), order.ID, enums.OrderStatusPending)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Equal(t, enums.OrderStatusShipped, f.repo.orders[order.ID].Status)
}

func TestTransitionCancelFromAnyLiveStatus(t *testing.T) {
	for _, status := range []enums.OrderStatus{
		enums.OrderStatusPending,
		enums.OrderStatusConfirmed,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
	} {
		f := newFixture(t)
		order := f.seedOrder(t, status)

		updated, err := f.svc.Transition(context.Background(), order.ID, enums.OrderStatusCancelled)
		require.NoError(t, err, "cancel from %s", status)
		assert.Equal(t, enums.OrderStatusCancelled, updated.Status)
	}
}

func TestTransitionCancelledIsTerminal(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusCancelled)

	_, err := f.svc.Transition(context.Background(), order.ID, enums.OrderStatusPending)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestTransitionCancelRefundsWallet(t *testing.T) {
	f := newFixture(t)
	f.wallet.refunded = decimal.NewFromInt(60)
	order := f.seedOrder(t, enums.OrderStatusPending)

	_, err := f.svc.Transition(context.Background(), order.ID, enums.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{order.ID}, f.wallet.refunds)
}

func TestConfirmDispatchesCourierAndStoresTracking(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusPending)

	updated, err := f.svc.Transition(context.Background(), order.ID, enums.OrderStatusConfirmed)
	require.NoError(t, err)

	require.Len(t, f.courier.shipments, 1)
	shipment := f.courier.shipments[0]
	assert.Equal(t, order.OrderNumber, shipment.OrderNumber)
	assert.True(t, shipment.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 2, shipment.ItemCount)

	require.NotNil(t, updated.TrackingCode)
	assert.Equal(t, "TRACK-7", *updated.TrackingCode)
	require.NotNil(t, f.repo.orders[order.ID].TrackingCode)
}

func TestConfirmSurvivesCourierFailure(t *testing.T) {
	f := newFixture(t)
	f.courier.fail = true
	order := f.seedOrder(t, enums.OrderStatusPending)

	updated, err := f.svc.Transition(context.Background(), order.ID, enums.OrderStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusConfirmed, updated.Status)
	assert.Nil(t, updated.TrackingCode)
}

func TestConfirmShipmentCollectsRemainderForPartialWallet(t *testing.T) {
	f := newFixture(t)
	f.wallet.paid = decimal.NewFromInt(40)
	order := f.seedOrder(t, enums.OrderStatusPending)
	order.PaymentMethod = enums.PaymentMethodWalletPartial

	_, err := f.svc.Transition(context.Background(), order.ID, enums.OrderStatusConfirmed)
	require.NoError(t, err)

	require.Len(t, f.courier.shipments, 1)
	assert.True(t, f.courier.shipments[0].Amount.Equal(decimal.NewFromInt(60)))
}

func TestDeliveredAwardsCashbackOnce(t *testing.T) {
	f := newFixture(t)
	f.settings.settings.CashbackEnabled = true
	f.settings.settings.CashbackPercentage = decimal.NewFromInt(10)
	order := f.seedOrder(t, enums.OrderStatusShipped)
	require.NoError(t, f.repo.MarkPaid(context.Background(), order.ID))

	updated, err := f.svc.Transition(context.Background(), order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.True(t, updated.CashbackAwarded)

	require.Len(t, f.wallet.credits, 1)
	credit := f.wallet.credits[0]
	assert.Equal(t, enums.WalletTransactionCashback, credit.Type)
	// 10% of 100
	assert.True(t, credit.Amount.Equal(decimal.NewFromInt(10)))
	assert.True(t, f.repo.orders[order.ID].CashbackAwarded)
}

func TestDeliveredSkipsCashbackWhenDisabled(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusShipped)
	require.NoError(t, f.repo.MarkPaid(context.Background(), order.ID))

	_, err := f.svc.Transition(context.Background(), order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Empty(t, f.wallet.credits)
}

func TestDeliveredSkipsCashbackWhenUnpaid(t *testing.T) {
	f := newFixture(t)
	f.settings.settings.CashbackEnabled = true
	f.settings.settings.CashbackPercentage = decimal.NewFromInt(10)
	order := f.seedOrder(t, enums.OrderStatusShipped)

	updated, err := f.svc.Transition(context.Background(), order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.False(t, updated.CashbackAwarded)
	assert.Empty(t, f.wallet.credits)
	assert.False(t, f.repo.orders[order.ID].CashbackAwarded)
}

func TestDeliveredSkipsCashbackBelowMinimums(t *testing.T) {
	f := newFixture(t)
	f.settings.settings.CashbackEnabled = true
	f.settings.settings.CashbackPercentage = decimal.NewFromInt(10)
	f.settings.settings.CashbackMinOrderValue = decimal.NewFromInt(500)
	order := f.seedOrder(t, enums.OrderStatusShipped)
	require.NoError(t, f.repo.MarkPaid(context.Background(), order.ID))

	_, err := f.svc.Transition(context.Background(), order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Empty(t, f.wallet.credits)
}

func TestDeliveredDoesNotAwardCashbackTwice(t *testing.T) {
	f := newFixture(t)
	f.settings.settings.CashbackEnabled = true
	f.settings.settings.CashbackPercentage = decimal.NewFromInt(10)
	order := f.seedOrder(t, enums.OrderStatusShipped)
	require.NoError(t, f.repo.MarkPaid(context.Background(), order.ID))
	order.CashbackAwarded = true

	_, err := f.svc.Transition(context.Background(), order.ID, enums.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Empty(t, f.wallet.credits)
}

func TestTrackRequiresMatchingPhone(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusPending)

	found, err := f.svc.Track(context.Background(), order.OrderNumber, order.ContactPhone)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.Order.ID)
	// never dispatched, nothing to ask the courier about
	assert.Nil(t, found.Courier)

	_, err = f.svc.Track(context.Background(), order.OrderNumber, "07799999999")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestTrackConsultsCourierForDispatchedOrders(t *testing.T) {
	f := newFixture(t)
	f.courier.tracking = couriers.Tracking{Status: couriers.ShipmentStatusInTransit, ProviderStatus: "Out for delivery"}
	order := f.seedOrder(t, enums.OrderStatusShipped)
	require.NoError(t, f.repo.SetTrackingCode(context.Background(), order.ID, "TRACK-7"))

	found, err := f.svc.Track(context.Background(), order.OrderNumber, order.ContactPhone)
	require.NoError(t, err)
	require.NotNil(t, found.Courier)
	assert.Equal(t, couriers.ShipmentStatusInTransit, found.Courier.Status)
	assert.Equal(t, []string{"TRACK-7"}, f.courier.tracked)
}

func TestTrackSurvivesCourierFailure(t *testing.T) {
	f := newFixture(t)
	f.courier.fail = true
	order := f.seedOrder(t, enums.OrderStatusShipped)
	require.NoError(t, f.repo.SetTrackingCode(context.Background(), order.ID, "TRACK-7"))

	found, err := f.svc.Track(context.Background(), order.OrderNumber, order.ContactPhone)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.Order.ID)
	assert.Nil(t, found.Courier)
}

func TestGetForCustomerEnforcesOwnership(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusPending)

	found, err := f.svc.GetForCustomer(context.Background(), order.ID, *order.CustomerID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, found.ID)

	_, err = f.svc.GetForCustomer(context.Background(), order.ID, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestGatewayCallbackMarksPaidAfterVerification(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusPending)
	ref := "ref-99"
	require.NoError(t, f.repo.SetPaymentRef(context.Background(), order.ID, ref))

	f.gateway.paid = true
	updated, err := f.svc.HandleGatewayCallback(context.Background(), ref)
	require.NoError(t, err)
	assert.True(t, updated.IsPaid)
	assert.True(t, f.repo.orders[order.ID].IsPaid)
}

func TestGatewayCallbackRejectsUnsettledPayment(t *testing.T) {
	f := newFixture(t)
	order := f.seedOrder(t, enums.OrderStatusPending)
	require.NoError(t, f.repo.SetPaymentRef(context.Background(), order.ID, "ref-1"))

	_, err := f.svc.HandleGatewayCallback(context.Background(), "ref-1")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
	assert.False(t, f.repo.orders[order.ID].IsPaid)
}
