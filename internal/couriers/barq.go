package couriers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/youssefhamdan/tijara-backend/pkg/config"
	"github.com/youssefhamdan/tijara-backend/pkg/enums"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
)

// BarqClient talks to the Barq delivery API, which uses a static merchant id
// and API secret instead of login tokens.
type BarqClient struct {
	cfg  config.BarqConfig
	http *http.Client
}

// NewBarqClient builds the Barq courier client.
func NewBarqClient(cfg config.BarqConfig) (*BarqClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("barq base url required")
	}
	if cfg.MerchantID == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("barq credentials required")
	}
	return &BarqClient{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Provider implements Courier.
func (c *BarqClient) Provider() enums.CourierProvider {
	return enums.CourierBarq
}

type barqShipmentRequest struct {
	MerchantRef   string `json:"merchant_ref"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	City          string `json:"city"`
	District      string `json:"district,omitempty"`
	Address       string `json:"address"`
	CODAmount     string `json:"cod_amount"`
	Pieces        int    `json:"pieces"`
	Notes         string `json:"notes,omitempty"`
}

type barqShipmentResponse struct {
	Success      bool   `json:"success"`
	TrackingCode string `json:"tracking_code"`
	Error        string `json:"error"`
}

// CreateShipment implements Courier.
func (c *BarqClient) CreateShipment(ctx context.Context, shipment Shipment) (*Result, error) {
	payload := barqShipmentRequest{
		MerchantRef:   shipment.OrderNumber,
		CustomerName:  shipment.Name,
		CustomerPhone: shipment.Phone,
		City:          shipment.City,
		District:      shipment.Region,
		Address:       shipment.Address,
		CODAmount:     shipment.Amount.StringFixed(2),
		Pieces:        shipment.ItemCount,
		Notes:         shipment.Notes,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding barq shipment: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/v2/shipments", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Merchant-Id", c.cfg.MerchantID)
	req.Header.Set("X-Api-Secret", c.cfg.APISecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling barq")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading barq response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("barq returned status %d", resp.StatusCode)).
			WithDetails(map[string]any{"body": string(raw)})
	}

	var decoded barqShipmentResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding barq response")
	}
	if !decoded.Success || decoded.TrackingCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "barq refused the shipment").
			WithDetails(map[string]any{"error": decoded.Error})
	}

	return &Result{TrackingCode: decoded.TrackingCode}, nil
}

type barqTrackingResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Error   string `json:"error"`
}

// Track implements Courier.
func (c *BarqClient) Track(ctx context.Context, trackingCode string) (*Tracking, error) {
	raw, err := c.get(ctx, "/api/v2/shipments/"+trackingCode)
	if err != nil {
		return nil, err
	}

	var decoded barqTrackingResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding barq tracking")
	}
	if !decoded.Success {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "barq could not track the shipment").
			WithDetails(map[string]any{"error": decoded.Error})
	}

	return &Tracking{
		Status:         barqShipmentStatus(decoded.Status),
		ProviderStatus: decoded.Status,
	}, nil
}

func barqShipmentStatus(status string) ShipmentStatus {
	switch status {
	case "created", "pending_pickup":
		return ShipmentStatusPending
	case "picked_up", "in_transit", "out_for_delivery":
		return ShipmentStatusInTransit
	case "delivered":
		return ShipmentStatusDelivered
	case "returned", "return_to_origin":
		return ShipmentStatusReturned
	}
	return ShipmentStatusUnknown
}

type barqCitiesResponse struct {
	Success bool `json:"success"`
	Cities  []struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"cities"`
	Error string `json:"error"`
}

// ListCities implements Courier.
func (c *BarqClient) ListCities(ctx context.Context) ([]City, error) {
	raw, err := c.get(ctx, "/api/v2/cities")
	if err != nil {
		return nil, err
	}

	var decoded barqCitiesResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding barq cities")
	}
	if !decoded.Success {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "barq refused the city listing").
			WithDetails(map[string]any{"error": decoded.Error})
	}

	cities := make([]City, 0, len(decoded.Cities))
	for _, row := range decoded.Cities {
		cities = append(cities, City{ID: row.Code, Name: row.Name})
	}
	return cities, nil
}

func (c *BarqClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Merchant-Id", c.cfg.MerchantID)
	req.Header.Set("X-Api-Secret", c.cfg.APISecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling barq")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading barq response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("barq returned status %d", resp.StatusCode)).
			WithDetails(map[string]any{"body": string(raw)})
	}
	return raw, nil
}
