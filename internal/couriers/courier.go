package couriers

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/youssefhamdan/tijara-backend/pkg/enums"
)

// Shipment carries everything a provider needs to create a delivery.
type Shipment struct {
	OrderNumber string
	Name        string
	Phone       string
	City        string
	Region      string
	Address     string
	// Amount is what the driver collects on delivery, zero for prepaid orders.
	Amount    decimal.Decimal
	ItemCount int
	Notes     string
}

// Result is the provider's acknowledgement of a created shipment.
type Result struct {
	TrackingCode string
}

// ShipmentStatus is the provider-neutral view of a delivery's progress.
type ShipmentStatus string

const (
	ShipmentStatusPending   ShipmentStatus = "pending"
	ShipmentStatusInTransit ShipmentStatus = "in_transit"
	ShipmentStatusDelivered ShipmentStatus = "delivered"
	ShipmentStatusReturned  ShipmentStatus = "returned"
	ShipmentStatusUnknown   ShipmentStatus = "unknown"
)

// Tracking is the provider's live view of one shipment. ProviderStatus keeps
// the raw status string for operators who know the provider's vocabulary.
type Tracking struct {
	Status         ShipmentStatus
	ProviderStatus string
}

// City is one destination a provider delivers to, in the provider's own
// naming. Useful when reconciling the delivery price table.
type City struct {
	ID   string
	Name string
}

// Courier creates and tracks shipments with one delivery provider.
type Courier interface {
	Provider() enums.CourierProvider
	CreateShipment(ctx context.Context, shipment Shipment) (*Result, error)
	Track(ctx context.Context, trackingCode string) (*Tracking, error)
	ListCities(ctx context.Context) ([]City, error)
}

// Registry maps providers to their configured clients.
type Registry struct {
	byProvider map[enums.CourierProvider]Courier
}

// NewRegistry indexes the provided couriers by provider name.
func NewRegistry(couriers ...Courier) (*Registry, error) {
	byProvider := make(map[enums.CourierProvider]Courier, len(couriers))
	for _, courier := range couriers {
		if courier == nil {
			return nil, fmt.Errorf("nil courier in registry")
		}
		provider := courier.Provider()
		if !provider.IsValid() {
			return nil, fmt.Errorf("courier has invalid provider %q", provider)
		}
		if _, dup := byProvider[provider]; dup {
			return nil, fmt.Errorf("duplicate courier for provider %q", provider)
		}
		byProvider[provider] = courier
	}
	return &Registry{byProvider: byProvider}, nil
}

// For returns the courier registered for the provider.
func (r *Registry) For(provider enums.CourierProvider) (Courier, error) {
	courier, ok := r.byProvider[provider]
	if !ok {
		return nil, fmt.Errorf("no courier registered for provider %q", provider)
	}
	return courier, nil
}
