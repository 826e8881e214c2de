package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/youssefhamdan/tijara-backend/pkg/db/models"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	"github.com/youssefhamdan/tijara-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	customersTable := `
CREATE TABLE IF NOT EXISTS customers (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  phone TEXT NOT NULL UNIQUE,
  email TEXT,
  password_hash TEXT NOT NULL,
  wallet_balance NUMERIC NOT NULL DEFAULT 0,
  is_guest INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	ordersTable := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  customer_id TEXT,
  contact_name TEXT NOT NULL,
  contact_phone TEXT NOT NULL,
  address TEXT NOT NULL,
  city TEXT NOT NULL,
  region TEXT,
  courier TEXT NOT NULL,
  payment_method TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  is_paid INTEGER NOT NULL DEFAULT 0,
  payment_ref TEXT,
  tracking_code TEXT,
  shipping_price NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL,
  cashback_awarded INTEGER NOT NULL DEFAULT 0,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderItemsTable := `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT,
  name TEXT NOT NULL,
  unit_price NUMERIC NOT NULL,
  qty INTEGER NOT NULL,
  line_total NUMERIC NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(customersTable).Error)
	require.NoError(t, db.Exec(ordersTable).Error)
	require.NoError(t, db.Exec(orderItemsTable).Error)
	return db
}

func newTestOrder(t *testing.T, db *gorm.DB, number string, createdAt time.Time) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   number,
		ContactName:   "Huda Kareem",
		ContactPhone:  "07701112233",
		Address:       "14 Palm Street",
		City:          "Baghdad",
		Courier:       enums.CourierAlwaseet,
		PaymentMethod: enums.PaymentMethodCOD,
		Status:        enums.OrderStatusPending,
		TotalAmount:   decimal.NewFromInt(75),
		Items: []models.OrderItem{
			{ID: uuid.New(), ProductID: nil, Name: "Ground Coffee", UnitPrice: decimal.NewFromInt(25), Qty: 3, LineTotal: decimal.NewFromInt(75)},
		},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, NewRepository(db).Create(context.Background(), order))
	return order
}

func TestRepositoryCreateAndGetByID(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	created := newTestOrder(t, db, "ORD-20250810-000001", time.Now().UTC())

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.OrderNumber, got.OrderNumber)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Qty)
	assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(75)))
}

func TestRepositoryGetByIDMissingReturnsNil(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	got, err := repo.GetByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepositoryGetByNumber(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	created := newTestOrder(t, db, "ORD-20250810-000002", time.Now().UTC())

	got, err := repo.GetByNumber(context.Background(), "  ORD-20250810-000002  ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
}

func TestRepositoryGetByPaymentRef(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	created := newTestOrder(t, db, "ORD-20250810-000003", time.Now().UTC())
	require.NoError(t, repo.SetPaymentRef(context.Background(), created.ID, "pay_abc123"))

	got, err := repo.GetByPaymentRef(context.Background(), "pay_abc123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	missing, err := repo.GetByPaymentRef(context.Background(), "pay_unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryStatusAndFlagUpdates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	created := newTestOrder(t, db, "ORD-20250810-000004", time.Now().UTC())

	require.NoError(t, repo.UpdateStatus(context.Background(), created.ID, enums.OrderStatusConfirmed))
	require.NoError(t, repo.SetTrackingCode(context.Background(), created.ID, "TRACK-42"))
	require.NoError(t, repo.MarkPaid(context.Background(), created.ID))
	require.NoError(t, repo.MarkCashbackAwarded(context.Background(), created.ID))

	got, err := repo.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, enums.OrderStatusConfirmed, got.Status)
	require.NotNil(t, got.TrackingCode)
	assert.Equal(t, "TRACK-42", *got.TrackingCode)
	assert.True(t, got.IsPaid)
	assert.True(t, got.CashbackAwarded)
}

func TestRepositoryListByCustomerPagesNewestFirst(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	customerID := uuid.New()
	base := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		order := newTestOrder(t, db, "ORD-20250810-00001"+string(rune('0'+i)), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, db.Model(&models.Order{}).Where("id = ?", order.ID).Update("customer_id", customerID).Error)
	}
	// another customer's order must never leak into the page
	newTestOrder(t, db, "ORD-20250810-000099", base.Add(time.Hour))

	rows, err := repo.ListByCustomer(context.Background(), customerID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ORD-20250810-000012", rows[0].OrderNumber)
	assert.Equal(t, "ORD-20250810-000010", rows[2].OrderNumber)
}

func TestRepositoryListFiltersByStatus(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)

	base := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	pending := newTestOrder(t, db, "ORD-20250810-000021", base)
	confirmed := newTestOrder(t, db, "ORD-20250810-000022", base.Add(time.Minute))
	require.NoError(t, repo.UpdateStatus(context.Background(), confirmed.ID, enums.OrderStatusConfirmed))

	status := enums.OrderStatusConfirmed
	rows, err := repo.List(context.Background(), ListFilter{Status: &status}, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, confirmed.ID, rows[0].ID)
	assert.NotEqual(t, pending.ID, rows[0].ID)
}
