package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type walletOps interface {
	CreditTx(ctx context.Context, tx *gorm.DB, input wallet.EntryInput) (*models.WalletTransaction, error)
	RefundOrderTx(ctx context.Context, tx *gorm.DB, orderID, customerID uuid.UUID) (decimal.Decimal, error)
	PaidFromWallet(ctx context.Context, orderID uuid.UUID) (decimal.Decimal, error)
}

type settingsLoader interface {
	Get(ctx context.Context) (*models.StoreSettings, error)
}

type courierRegistry interface {
	For(provider enums.CourierProvider) (couriers.Courier, error)
}

type statusMailer interface {
	SendOrderStatusUpdate(ctx context.Context, order *models.Order) error
}

// Service manages the order lifecycle after checkout.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetForCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Order, error)
	Track(ctx context.Context, orderNumber, phone string) (*TrackResult, error)
	ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*Page, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*Page, error)
	Transition(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*models.Order, error)
	HandleGatewayCallback(ctx context.Context, ref string) (*models.Order, error)
}

type service struct {
	repo     OrderRepository
	tx       txRunner
	wallet   walletOps
	settings settingsLoader
	couriers courierRegistry
	gateway  payments.Gateway
	email    statusMailer
	runner   *postcommit.Runner
	logg     *logger.Logger
	met      *metrics.Metrics
	now      func() time.Time
}

// Deps bundles the order service dependencies.
type Deps struct {
	Repo     OrderRepository
	Tx       txRunner
	Wallet   walletOps
	Settings settingsLoader
	Couriers courierRegistry
	Gateway  payments.Gateway
	Email    statusMailer
	Runner   *postcommit.Runner
	Logger   *logger.Logger
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// NewService builds the order service.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Repo == nil:
		return nil, fmt.Errorf("order repository required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Wallet == nil:
		return nil, fmt.Errorf("wallet service required")
	case deps.Settings == nil:
		return nil, fmt.Errorf("settings service required")
	case deps.Couriers == nil:
		return nil, fmt.Errorf("courier registry required")
	case deps.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case deps.Email == nil:
		return nil, fmt.Errorf("email service required")
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
		repo:     deps.Repo,
		tx:       deps.Tx,
		wallet:   deps.Wallet,
		settings: deps.Settings,
		couriers: deps.Couriers,
		gateway:  deps.Gateway,
		email:    deps.Email,
		runner:   deps.Runner,
		logg:     deps.Logger,
		met:      deps.Metrics,
		now:      deps.Now,
	}, nil
}

// Page is one cursor page of orders.
type Page struct {
	Orders     []models.Order
	NextCursor string
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// GetForCustomer loads the order only when it belongs to the customer.
func (s *service) GetForCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.CustomerID == nil || *order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

// TrackResult pairs the stored order with the courier's live view of the
// shipment, when the order has been dispatched and the provider answers.
type TrackResult struct {
	Order   *models.Order
	Courier *couriers.Tracking
}

// Track is the public lookup: the caller must present both the order number
// and the contact phone it was placed with. When the order carries a tracking
// code the courier is consulted for the live shipment status; a provider
// failure degrades to the locally stored status.
func (s *service) Track(ctx context.Context, orderNumber, phone string) (*TrackResult, error) {
	if strings.TrimSpace(orderNumber) == "" || strings.TrimSpace(phone) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number and phone are required")
	}
	order, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order == nil || order.ContactPhone != strings.TrimSpace(phone) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	result := &TrackResult{Order: order}
	if order.TrackingCode != nil {
		result.Courier = s.courierTracking(ctx, order)
	}
	return result, nil
}

func (s *service) courierTracking(ctx context.Context, order *models.Order) *couriers.Tracking {
	courier, err := s.couriers.For(order.Courier)
	if err != nil {
		s.logg.Error(ctx, "no courier available for tracking", err)
		return nil
	}
	tracking, err := courier.Track(ctx, *order.TrackingCode)
	if err != nil {
		s.logg.Error(s.logg.WithOrderNumber(ctx, order.OrderNumber), "courier tracking failed", err)
		return nil
	}
	return tracking
}

func (s *service) ListForCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) (*Page, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	rows, err := s.repo.ListByCustomer(ctx, customerID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return paginate(rows, params), nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (*Page, error) {
	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return paginate(rows, params), nil
}

func paginate(rows []models.Order, params pagination.Params) *Page {
	limit := pagination.NormalizeLimit(params.Limit)
	page := &Page{Orders: rows}
	if len(rows) > limit {
		page.Orders = rows[:limit]
		last := page.Orders[limit-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return page
}

// Transition moves the order to its next status. Statuses only move forward;
// cancelled is reachable from any live status and is terminal. Confirmation
// dispatches the courier, delivery settles cashback, cancellation refunds
// wallet payments.
func (s *service) Transition(ctx context.Context, id uuid.UUID, next enums.OrderStatus) (*models.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == next {
		return order, nil
	}
	if err := enums.CanTransitionOrderStatus(order.Status, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "status transition rejected").
			WithDetails(map[string]any{"from": order.Status, "to": next})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if txErr := repo.UpdateStatus(ctx, order.ID, next); txErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, txErr, "updating order status")
		}

		switch next {
		case enums.OrderStatusCancelled:
			return s.refundOnCancel(ctx, tx, order)
		case enums.OrderStatusDelivered:
			return s.settleCashback(ctx, tx, repo, order)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = next
	ctx = s.logg.WithOrderNumber(ctx, order.OrderNumber)
	s.logg.Info(s.logg.WithField(ctx, "status", string(next)), "order status changed")

	if next == enums.OrderStatusCancelled {
		s.met.OrdersCancelled.Inc()
	}
	if next == enums.OrderStatusConfirmed {
		s.dispatchCourier(ctx, order)
	}

	s.runner.Go(ctx, "order_status_email", func(ctx context.Context) error {
		return s.email.SendOrderStatusUpdate(ctx, order)
	})

	return order, nil
}

func (s *service) refundOnCancel(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	if order.CustomerID == nil {
		return nil
	}
	refunded, err := s.wallet.RefundOrderTx(ctx, tx, order.ID, *order.CustomerID)
	if err != nil {
		return err
	}
	if refunded.IsPositive() {
		s.logg.Info(s.logg.WithField(ctx, "refunded", refunded.String()), "wallet payments refunded on cancellation")
	}
	return nil
}

// settleCashback credits the policy percentage of the order total once a paid
// order is delivered. Unpaid orders earn nothing and the award happens at most
// once per order.
func (s *service) settleCashback(ctx context.Context, tx *gorm.DB, repo OrderRepository, order *models.Order) error {
	if order.CashbackAwarded || !order.IsPaid || order.CustomerID == nil {
		return nil
	}

	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	if !settings.CashbackEnabled || !settings.CashbackPercentage.IsPositive() {
		return nil
	}
	if order.TotalAmount.LessThan(settings.CashbackMinOrderValue) {
		return nil
	}
	if order.ItemCount() < settings.CashbackMinQuantity {
		return nil
	}

	amount := order.TotalAmount.
		Mul(settings.CashbackPercentage).
		Div(decimal.NewFromInt(100)).
		Round(2)
	if !amount.IsPositive() {
		return nil
	}

	orderID := order.ID
	_, err = s.wallet.CreditTx(ctx, tx, wallet.EntryInput{
		CustomerID:  *order.CustomerID,
		OrderID:     &orderID,
		Type:        enums.WalletTransactionCashback,
		Amount:      amount,
		Description: fmt.Sprintf("cashback for order %s", order.OrderNumber),
	})
	if err != nil {
		return err
	}
	if err := repo.MarkCashbackAwarded(ctx, order.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking cashback awarded")
	}

	order.CashbackAwarded = true
	s.met.CashbackAwarded.Inc()
	s.logg.Info(s.logg.WithField(ctx, "cashback", amount.String()), "cashback awarded")
	return nil
}

// dispatchCourier creates the shipment with the order's provider. Dispatch
// failures are logged and counted but never block the confirmation.
func (s *service) dispatchCourier(ctx context.Context, order *models.Order) {
	courier, err := s.couriers.For(order.Courier)
	if err != nil {
		s.met.CourierDispatchFailures.WithLabelValues(string(order.Courier)).Inc()
		s.logg.Error(ctx, "no courier available for order", err)
		return
	}

	amountDue, err := s.collectableAmount(ctx, order)
	if err != nil {
		s.met.CourierDispatchFailures.WithLabelValues(string(order.Courier)).Inc()
		s.logg.Error(ctx, "could not compute collectable amount", err)
		return
	}

	region := ""
	if order.Region != nil {
		region = *order.Region
	}
	notes := ""
	if order.Notes != nil {
		notes = *order.Notes
	}

	result, err := courier.CreateShipment(ctx, couriers.Shipment{
		OrderNumber: order.OrderNumber,
		Name:        order.ContactName,
		Phone:       order.ContactPhone,
		City:        order.City,
		Region:      region,
		Address:     order.Address,
		Amount:      amountDue,
		ItemCount:   order.ItemCount(),
		Notes:       notes,
	})
	if err != nil {
		s.met.CourierDispatchFailures.WithLabelValues(string(order.Courier)).Inc()
		s.logg.Error(ctx, "courier dispatch failed", err)
		return
	}

	if err := s.repo.SetTrackingCode(ctx, order.ID, result.TrackingCode); err != nil {
		s.logg.Error(ctx, "saving tracking code failed", err)
		return
	}
	code := result.TrackingCode
	order.TrackingCode = &code
	s.logg.Info(s.logg.WithField(ctx, "tracking_code", code), "courier shipment created")
}

// collectableAmount is what the driver collects on delivery: zero when the
// order is fully paid, otherwise the total minus whatever the wallet covered.
func (s *service) collectableAmount(ctx context.Context, order *models.Order) (decimal.Decimal, error) {
	if order.IsPaid {
		return decimal.Zero, nil
	}
	if order.PaymentMethod == enums.PaymentMethodWalletPartial {
		paid, err := s.wallet.PaidFromWallet(ctx, order.ID)
		if err != nil {
			return decimal.Zero, err
		}
		return order.TotalAmount.Sub(paid), nil
	}
	return order.TotalAmount, nil
}

// HandleGatewayCallback re-verifies the payment reference with the provider
// and marks the order paid when settled. The callback payload itself is never
// trusted.
func (s *service) HandleGatewayCallback(ctx context.Context, ref string) (*models.Order, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment ref is required")
	}

	order, err := s.repo.GetByPaymentRef(ctx, ref)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order by payment ref")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.IsPaid {
		return order, nil
	}

	verified, err := s.gateway.Verify(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !verified.Paid {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "payment not settled")
	}

	if err := s.repo.MarkPaid(ctx, order.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking order paid")
	}
	order.IsPaid = true

	s.logg.Info(s.logg.WithOrderNumber(ctx, order.OrderNumber), "gateway payment confirmed")
	return order, nil
}
