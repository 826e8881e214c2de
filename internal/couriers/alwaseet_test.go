package couriers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssefhamdan/tijara-backend/pkg/config"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
)

func alwaseetServer(t *testing.T, loginCount, orderCount *int, rejectFirstOrder bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/merchant/login":
			*loginCount++
			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "merchant", creds["username"])
			json.NewEncoder(w).Encode(map[string]any{
				"status": true,
				"data":   map[string]any{"token": "tok-1", "expires_in": 3600},
			})
		case "/v1/merchant/orders":
			*orderCount++
			if rejectFirstOrder && *orderCount == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]any{
				"status": true,
				"data":   map[string]any{"qr_id": "QR-42"},
			})
		case "/v1/merchant/orders/QR-42/status":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]any{
				"status": true,
				"data":   map[string]any{"status_id": 3, "status_name": "Out for delivery"},
			})
		case "/v1/merchant/cities":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(map[string]any{
				"status": true,
				"data": []map[string]any{
					{"id": 1, "city_name": "Baghdad"},
					{"id": 2, "city_name": "Basra"},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newAlwaseetTestClient(t *testing.T, baseURL string) *AlwaseetClient {
	t.Helper()
	client, err := NewAlwaseetClient(config.AlwaseetConfig{
		BaseURL:  baseURL,
		Username: "merchant",
		Password: "secret",
		Timeout:  5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func testShipment() Shipment {
	return Shipment{
		OrderNumber: "ORD-20250301-000001",
		Name:        "Ali",
		Phone:       "07700000000",
		City:        "Baghdad",
		Address:     "Street 1",
		Amount:      decimal.NewFromInt(45),
		ItemCount:   2,
	}
}

func TestAlwaseetCreateShipment(t *testing.T) {
	var logins, orders int
	server := alwaseetServer(t, &logins, &orders, false)
	defer server.Close()

	client := newAlwaseetTestClient(t, server.URL)

	result, err := client.CreateShipment(context.Background(), testShipment())
	require.NoError(t, err)
	assert.Equal(t, "QR-42", result.TrackingCode)
	assert.Equal(t, 1, logins)
}

func TestAlwaseetReusesTokenAcrossShipments(t *testing.T) {
	var logins, orders int
	server := alwaseetServer(t, &logins, &orders, false)
	defer server.Close()

	client := newAlwaseetTestClient(t, server.URL)

	_, err := client.CreateShipment(context.Background(), testShipment())
	require.NoError(t, err)
	_, err = client.CreateShipment(context.Background(), testShipment())
	require.NoError(t, err)

	assert.Equal(t, 1, logins)
	assert.Equal(t, 2, orders)
}

func TestAlwaseetRetriesOnceOnStaleToken(t *testing.T) {
	var logins, orders int
	server := alwaseetServer(t, &logins, &orders, true)
	defer server.Close()

	client := newAlwaseetTestClient(t, server.URL)

	result, err := client.CreateShipment(context.Background(), testShipment())
	require.NoError(t, err)
	assert.Equal(t, "QR-42", result.TrackingCode)
	assert.Equal(t, 2, logins)
	assert.Equal(t, 2, orders)
}

func TestAlwaseetTrackMapsProviderStatus(t *testing.T) {
	var logins, orders int
	server := alwaseetServer(t, &logins, &orders, false)
	defer server.Close()

	client := newAlwaseetTestClient(t, server.URL)

	tracking, err := client.Track(context.Background(), "QR-42")
	require.NoError(t, err)
	assert.Equal(t, ShipmentStatusInTransit, tracking.Status)
	assert.Equal(t, "Out for delivery", tracking.ProviderStatus)
}

func TestAlwaseetListCities(t *testing.T) {
	var logins, orders int
	server := alwaseetServer(t, &logins, &orders, false)
	defer server.Close()

	client := newAlwaseetTestClient(t, server.URL)

	cities, err := client.ListCities(context.Background())
	require.NoError(t, err)
	require.Len(t, cities, 2)
	assert.Equal(t, City{ID: "1", Name: "Baghdad"}, cities[0])
	assert.Equal(t, City{ID: "2", Name: "Basra"}, cities[1])
}

func TestRegistryResolvesProviders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	alwaseet := newAlwaseetTestClient(t, server.URL)
	barq, err := NewBarqClient(config.BarqConfig{
		BaseURL:    server.URL,
		MerchantID: "m-1",
		APISecret:  "s-1",
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)

	registry, err := NewRegistry(alwaseet, barq)
	require.NoError(t, err)

	resolved, err := registry.For(enums.CourierBarq)
	require.NoError(t, err)
	assert.Equal(t, enums.CourierBarq, resolved.Provider())

	_, err = registry.For("pigeon")
	require.Error(t, err)
}
