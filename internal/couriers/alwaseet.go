package couriers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/youssefhamdan/tijara-backend/pkg/config"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
	"github.com/youssefhamdan/tijara-backend/pkg/providertoken"
)

// AlwaseetClient talks to the Alwaseet merchant API. The API authenticates
// with short-lived tokens obtained from a username/password login call.
type AlwaseetClient struct {
	cfg    config.AlwaseetConfig
	http   *http.Client
	tokens *providertoken.Cache
}

// NewAlwaseetClient builds the Alwaseet courier client.
func NewAlwaseetClient(cfg config.AlwaseetConfig, opts ...providertoken.Option) (*AlwaseetClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("alwaseet base url required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("alwaseet credentials required")
	}
	return &AlwaseetClient{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		tokens: providertoken.New(opts...),
	}, nil
}

// Provider implements Courier.
func (c *AlwaseetClient) Provider() enums.CourierProvider {
	return enums.CourierAlwaseet
}

type alwaseetLoginResponse struct {
	Status bool `json:"status"`
	Data   struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	} `json:"data"`
	Message string `json:"message"`
}

type alwaseetOrderRequest struct {
	ClientOrderRef string `json:"client_order_ref"`
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	City           string `json:"city"`
	Region         string `json:"region,omitempty"`
	Address        string `json:"address"`
	Price          string `json:"price"`
	ItemsNumber    int    `json:"items_number"`
	Notes          string `json:"notes,omitempty"`
}

type alwaseetOrderResponse struct {
	Status bool `json:"status"`
	Data   struct {
		QRID string `json:"qr_id"`
	} `json:"data"`
	Message string `json:"message"`
}

// CreateShipment implements Courier. A stale token is invalidated and the
// call retried once before giving up.
func (c *AlwaseetClient) CreateShipment(ctx context.Context, shipment Shipment) (*Result, error) {
	result, status, err := c.createOnce(ctx, shipment)
	if status == http.StatusUnauthorized {
		c.tokens.Invalidate()
		result, _, err = c.createOnce(ctx, shipment)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *AlwaseetClient) createOnce(ctx context.Context, shipment Shipment) (*Result, int, error) {
	token, err := c.tokens.Get(ctx, c.login)
	if err != nil {
		return nil, 0, err
	}

	payload := alwaseetOrderRequest{
		ClientOrderRef: shipment.OrderNumber,
		Name:           shipment.Name,
		Phone:          shipment.Phone,
		City:           shipment.City,
		Region:         shipment.Region,
		Address:        shipment.Address,
		Price:          shipment.Amount.StringFixed(2),
		ItemsNumber:    shipment.ItemCount,
		Notes:          shipment.Notes,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("encoding alwaseet order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/merchant/orders", bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling alwaseet")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading alwaseet response")
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, resp.StatusCode, pkgerrors.New(pkgerrors.CodeDependency, "alwaseet rejected the token")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("alwaseet returned status %d", resp.StatusCode)).
			WithDetails(map[string]any{"body": string(raw)})
	}

	var decoded alwaseetOrderResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding alwaseet response")
	}
	if !decoded.Status || decoded.Data.QRID == "" {
		return nil, resp.StatusCode, pkgerrors.New(pkgerrors.CodeDependency, "alwaseet refused the order").
			WithDetails(map[string]any{"message": decoded.Message})
	}

	return &Result{TrackingCode: decoded.Data.QRID}, resp.StatusCode, nil
}

type alwaseetStatusResponse struct {
	Status bool `json:"status"`
	Data   struct {
		StatusID   int    `json:"status_id"`
		StatusName string `json:"status_name"`
	} `json:"data"`
	Message string `json:"message"`
}

// Track implements Courier. The same stale-token retry as CreateShipment
// applies.
func (c *AlwaseetClient) Track(ctx context.Context, trackingCode string) (*Tracking, error) {
	tracking, status, err := c.trackOnce(ctx, trackingCode)
	if status == http.StatusUnauthorized {
		c.tokens.Invalidate()
		tracking, _, err = c.trackOnce(ctx, trackingCode)
	}
	if err != nil {
		return nil, err
	}
	return tracking, nil
}

func (c *AlwaseetClient) trackOnce(ctx context.Context, trackingCode string) (*Tracking, int, error) {
	raw, status, err := c.getWithToken(ctx, "/v1/merchant/orders/"+trackingCode+"/status")
	if err != nil {
		return nil, status, err
	}

	var decoded alwaseetStatusResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, status, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding alwaseet status")
	}
	if !decoded.Status {
		return nil, status, pkgerrors.New(pkgerrors.CodeDependency, "alwaseet could not track the shipment").
			WithDetails(map[string]any{"message": decoded.Message})
	}

	return &Tracking{
		Status:         alwaseetShipmentStatus(decoded.Data.StatusID),
		ProviderStatus: decoded.Data.StatusName,
	}, status, nil
}

// alwaseetShipmentStatus maps the merchant API's numeric status ids onto the
// shared shipment statuses. Ids above the returned band are merchant-side
// states we treat as unknown.
func alwaseetShipmentStatus(id int) ShipmentStatus {
	switch id {
	case 0, 1:
		return ShipmentStatusPending
	case 2, 3:
		return ShipmentStatusInTransit
	case 4:
		return ShipmentStatusDelivered
	case 5, 6:
		return ShipmentStatusReturned
	}
	return ShipmentStatusUnknown
}

type alwaseetCitiesResponse struct {
	Status bool `json:"status"`
	Data   []struct {
		ID       int    `json:"id"`
		CityName string `json:"city_name"`
	} `json:"data"`
	Message string `json:"message"`
}

// ListCities implements Courier.
func (c *AlwaseetClient) ListCities(ctx context.Context) ([]City, error) {
	raw, status, err := c.getWithToken(ctx, "/v1/merchant/cities")
	if status == http.StatusUnauthorized {
		c.tokens.Invalidate()
		raw, _, err = c.getWithToken(ctx, "/v1/merchant/cities")
	}
	if err != nil {
		return nil, err
	}

	var decoded alwaseetCitiesResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding alwaseet cities")
	}
	if !decoded.Status {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "alwaseet refused the city listing").
			WithDetails(map[string]any{"message": decoded.Message})
	}

	cities := make([]City, 0, len(decoded.Data))
	for _, row := range decoded.Data {
		cities = append(cities, City{ID: fmt.Sprintf("%d", row.ID), Name: row.CityName})
	}
	return cities, nil
}

func (c *AlwaseetClient) getWithToken(ctx context.Context, path string) ([]byte, int, error) {
	token, err := c.tokens.Get(ctx, c.login)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling alwaseet")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, resp.StatusCode, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading alwaseet response")
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, resp.StatusCode, pkgerrors.New(pkgerrors.CodeDependency, "alwaseet rejected the token")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("alwaseet returned status %d", resp.StatusCode)).
			WithDetails(map[string]any{"body": string(raw)})
	}
	return raw, resp.StatusCode, nil
}

func (c *AlwaseetClient) login(ctx context.Context) (string, time.Time, error) {
	body, err := json.Marshal(map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	})
	if err != nil {
		return "", time.Time{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/merchant/login", bytes.NewReader(body))
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", time.Time{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "alwaseet login")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", time.Time{}, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("alwaseet login returned status %d", resp.StatusCode))
	}

	var decoded alwaseetLoginResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&decoded); err != nil {
		return "", time.Time{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding alwaseet login")
	}
	if !decoded.Status || decoded.Data.Token == "" {
		return "", time.Time{}, pkgerrors.New(pkgerrors.CodeDependency, "alwaseet login refused").
			WithDetails(map[string]any{"message": decoded.Message})
	}

	expiry := time.Now().Add(time.Duration(decoded.Data.ExpiresIn) * time.Second)
	return decoded.Data.Token, expiry, nil
}
