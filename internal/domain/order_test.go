package domain

import (
	"errors"
	"testing"
)

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{"pending to paid", OrderStatusPending, OrderStatusPaid, true},
		{"paid to shipped", OrderStatusPaid, OrderStatusShipped, true},
		{"shipped to delivered", OrderStatusShipped, OrderStatusDelivered, true},
		{"pending to cancelled", OrderStatusPending, OrderStatusCancelled, true},
		{"paid to cancelled", OrderStatusPaid, OrderStatusCancelled, true},
		{"shipped to cancelled", OrderStatusShipped, OrderStatusCancelled, true},
		{"pending to shipped skips paid", OrderStatusPending, OrderStatusShipped, false},
		{"pending to delivered skips two", OrderStatusPending, OrderStatusDelivered, false},
		{"paid back to pending", OrderStatusPaid, OrderStatusPending, false},
		{"delivered to cancelled", OrderStatusDelivered, OrderStatusCancelled, false},
		{"cancelled to paid", OrderStatusCancelled, OrderStatusPaid, false},
		{"delivered anywhere", OrderStatusDelivered, OrderStatusShipped, false},
		{"unknown source", OrderStatus("unknown"), OrderStatusPaid, false},
		{"unknown target", OrderStatusPending, OrderStatus("unknown"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	if OrderStatusPending.Terminal() {
		t.Error("Terminal() = true for pending, want false")
	}
	if !OrderStatusDelivered.Terminal() {
		t.Error("Terminal() = false for delivered, want true")
	}
	if !OrderStatusCancelled.Terminal() {
		t.Error("Terminal() = false for cancelled, want true")
	}
}

func TestInsufficientStockError(t *testing.T) {
	err := &InsufficientStockError{
		ProductID:   "p1",
		ProductName: "Widget",
		Requested:   5,
		Available:   2,
	}

	if !errors.Is(err, ErrInsufficientStock) {
		t.Error("errors.Is(InsufficientStockError, ErrInsufficientStock) = false, want true")
	}

	wrapped := errors.New("checkout failed")
	if errors.Is(wrapped, ErrInsufficientStock) {
		t.Error("errors.Is(unrelated, ErrInsufficientStock) = true, want false")
	}

	msg := err.Error()
	if msg == "" {
		t.Fatal("Error() is empty")
	}
}
