package enums

import "testing"

func TestOrderStatusRanks(t *testing.T) {
	order := []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Fatalf("expected %s rank above %s", order[i], order[i-1])
		}
	}
	if OrderStatusCancelled.Rank() != 0 {
		t.Fatalf("cancelled should carry no rank, got %d", OrderStatusCancelled.Rank())
	}
}

func TestCanTransitionOrderStatus(t *testing.T) {
	cases := []struct {
		name    string
		current OrderStatus
		next    OrderStatus
		wantErr bool
	}{
		{"forward pending to confirmed", OrderStatusPending, OrderStatusConfirmed, false},
		{"forward confirmed to shipped", OrderStatusConfirmed, OrderStatusShipped, false},
		{"skip ahead pending to delivered", OrderStatusPending, OrderStatusDelivered, false},
		{"same status", OrderStatusShipped, OrderStatusShipped, false},
		{"backwards shipped to pending", OrderStatusShipped, OrderStatusPending, true},
		{"backwards delivered to confirmed", OrderStatusDelivered, OrderStatusConfirmed, true},
		{"cancel from pending", OrderStatusPending, OrderStatusCancelled, false},
		{"cancel from delivered", OrderStatusDelivered, OrderStatusCancelled, false},
		{"reopen cancelled", OrderStatusCancelled, OrderStatusPending, true},
		{"cancel a cancelled order", OrderStatusCancelled, OrderStatusCancelled, true},
		{"unknown target", OrderStatusPending, OrderStatus("archived"), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CanTransitionOrderStatus(tc.current, tc.next)
			if tc.wantErr && err == nil {
				t.Fatalf("expected error for %s -> %s", tc.current, tc.next)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error for %s -> %s: %v", tc.current, tc.next, err)
			}
		})
	}
}

func TestParseOrderStatus(t *testing.T) {
	if _, err := ParseOrderStatus("confirmed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseOrderStatus("returned"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
