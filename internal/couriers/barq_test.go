package couriers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youssefhamdan/tijara-backend/pkg/config"
)

func barqServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "m-1", r.Header.Get("X-Merchant-Id"))
		assert.Equal(t, "s-1", r.Header.Get("X-Api-Secret"))
		switch r.URL.Path {
		case "/api/v2/shipments":
			json.NewEncoder(w).Encode(map[string]any{
				"success":       true,
				"tracking_code": "BQ-100",
			})
		case "/api/v2/shipments/BQ-100":
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"status":  "out_for_delivery",
			})
		case "/api/v2/cities":
			json.NewEncoder(w).Encode(map[string]any{
				"success": true,
				"cities": []map[string]any{
					{"code": "BGW", "name": "Baghdad"},
				},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newBarqTestClient(t *testing.T, baseURL string) *BarqClient {
	t.Helper()
	client, err := NewBarqClient(config.BarqConfig{
		BaseURL:    baseURL,
		MerchantID: "m-1",
		APISecret:  "s-1",
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)
	return client
}

func TestBarqCreateShipment(t *testing.T) {
	server := barqServer(t)
	defer server.Close()

	result, err := newBarqTestClient(t, server.URL).CreateShipment(context.Background(), testShipment())
	require.NoError(t, err)
	assert.Equal(t, "BQ-100", result.TrackingCode)
}

func TestBarqTrackMapsProviderStatus(t *testing.T) {
	server := barqServer(t)
	defer server.Close()

	tracking, err := newBarqTestClient(t, server.URL).Track(context.Background(), "BQ-100")
	require.NoError(t, err)
	assert.Equal(t, ShipmentStatusInTransit, tracking.Status)
	assert.Equal(t, "out_for_delivery", tracking.ProviderStatus)
}

func TestBarqListCities(t *testing.T) {
	server := barqServer(t)
	defer server.Close()

	cities, err := newBarqTestClient(t, server.URL).ListCities(context.Background())
	require.NoError(t, err)
	require.Len(t, cities, 1)
	assert.Equal(t, City{ID: "BGW", Name: "Baghdad"}, cities[0])
}
