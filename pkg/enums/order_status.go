package enums

import "fmt"

// OrderStatus tracks the lifecycle of a storefront order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var orderStatusRanks = map[OrderStatus]int{
	OrderStatusPending:   1,
	OrderStatusConfirmed: 2,
	OrderStatusShipped:   3,
	OrderStatusDelivered: 4,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Rank returns the forward position of the status. Cancelled has no rank.
func (s OrderStatus) Rank() int {
	return orderStatusRanks[s]
}

// IsTerminal reports whether no further transition is allowed out of the status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled
}

// CanTransitionOrderStatus applies the forward-only rank guard. Cancelled is
// reachable from any state; a cancelled order is never reopened.
func CanTransitionOrderStatus(current, next OrderStatus) error {
	if !next.IsValid() {
		return fmt.Errorf("invalid order status %q", next)
	}
	if current == OrderStatusCancelled {
		return fmt.Errorf("cancelled orders cannot be reopened")
	}
	if next == OrderStatusCancelled {
		return nil
	}
	if next.Rank() < current.Rank() {
		return fmt.Errorf("cannot return order from %s to a previous stage %s", current, next)
	}
	return nil
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
