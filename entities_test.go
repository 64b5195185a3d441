package main

import (
	"errors"
	"regexp"
	"testing"
)

func TestNewOrderDefaults(t *testing.T) {
	// Arrange / Act
	order, err := NewOrder("", "user-456", "Ada", "product-789", "seller-123", "Acme", 15000, 1, "12 Marina Rd, Lagos", "")

	// Assert
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if matched := regexp.MustCompile(`^RATEL-[A-Z0-9]{8}$`).MatchString(order.ID); !matched {
		t.Errorf("Expected generated id in RATEL-XXXXXXXX format, got %s", order.ID)
	}
	if order.Status != OrderStatusPending {
		t.Errorf("Expected Status %s, got %s", OrderStatusPending, order.Status)
	}
	if order.EscrowStatus != EscrowStatusHeld {
		t.Errorf("Expected EscrowStatus %s, got %s", EscrowStatusHeld, order.EscrowStatus)
	}
	if order.PaymentMethod != PaymentMethodPaystack {
		t.Errorf("Expected PaymentMethod %s, got %s", PaymentMethodPaystack, order.PaymentMethod)
	}
	if order.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
}

func TestNewOrderKeepsProvidedID(t *testing.T) {
	order, err := NewOrder("RATEL-AAAA1111", "user-456", "", "product-789", "seller-123", "", 15000, 2, "", PaymentMethodPaystack)

	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if order.ID != "RATEL-AAAA1111" {
		t.Errorf("Expected provided id to be kept, got %s", order.ID)
	}
}

func TestNewOrderValidation(t *testing.T) {
	tests := []struct {
		name       string
		customerID string
		productID  string
		sellerID   string
		amount     int
		quantity   int
	}{
		{"missing customer", "", "product-789", "seller-123", 15000, 1},
		{"missing product", "user-456", "", "seller-123", 15000, 1},
		{"missing seller", "user-456", "product-789", "", 15000, 1},
		{"zero amount", "user-456", "product-789", "seller-123", 0, 1},
		{"negative amount", "user-456", "product-789", "seller-123", -1, 1},
		{"zero quantity", "user-456", "product-789", "seller-123", 15000, 0},
		{"negative quantity", "user-456", "product-789", "seller-123", 15000, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrder("", tt.customerID, "", tt.productID, tt.sellerID, "", tt.amount, tt.quantity, "", "")
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		current string
		next    string
		allowed bool
	}{
		{"pending to shipped", OrderStatusPending, OrderStatusShipped, true},
		{"pending to cancelled", OrderStatusPending, OrderStatusCancelled, true},
		{"shipped to delivered", OrderStatusShipped, OrderStatusDelivered, true},
		{"pending to delivered skips shipped", OrderStatusPending, OrderStatusDelivered, false},
		{"shipped to cancelled needs dispute path", OrderStatusShipped, OrderStatusCancelled, false},
		{"delivered is terminal for shipping flow", OrderStatusDelivered, OrderStatusShipped, false},
		{"cancelled is terminal", OrderStatusCancelled, OrderStatusShipped, false},
		{"pending to disputed", OrderStatusPending, OrderStatusDisputed, true},
		{"shipped to disputed", OrderStatusShipped, OrderStatusDisputed, true},
		{"delivered to disputed", OrderStatusDelivered, OrderStatusDisputed, true},
		{"disputed freezes transitions", OrderStatusDisputed, OrderStatusDelivered, false},
		{"disputed twice", OrderStatusDisputed, OrderStatusDisputed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{ID: "RATEL-TEST0001", Status: tt.current}
			err := order.CanTransitionTo(tt.next)
			if tt.allowed && err != nil {
				t.Errorf("Expected %s -> %s to be allowed, got %v", tt.current, tt.next, err)
			}
			if !tt.allowed && !errors.Is(err, ErrConflict) {
				t.Errorf("Expected ErrConflict for %s -> %s, got %v", tt.current, tt.next, err)
			}
		})
	}
}

func TestEscrowReleaseRequiresDelivery(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		escrow  string
		allowed bool
	}{
		{"delivered and held", OrderStatusDelivered, EscrowStatusHeld, true},
		{"pending blocks release", OrderStatusPending, EscrowStatusHeld, false},
		{"shipped blocks release", OrderStatusShipped, EscrowStatusHeld, false},
		{"cancelled blocks release", OrderStatusCancelled, EscrowStatusHeld, false},
		{"disputed blocks release", OrderStatusDisputed, EscrowStatusHeld, false},
		{"released is terminal", OrderStatusDelivered, EscrowStatusReleased, false},
		{"refunded is terminal", OrderStatusDelivered, EscrowStatusRefunded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{ID: "RATEL-TEST0001", Status: tt.status, EscrowStatus: tt.escrow}
			err := order.CanReleaseEscrow()
			if tt.allowed && err != nil {
				t.Errorf("Expected release to be allowed, got %v", err)
			}
			if !tt.allowed && !errors.Is(err, ErrConflict) {
				t.Errorf("Expected ErrConflict, got %v", err)
			}
		})
	}
}

func TestEscrowRefundGating(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		escrow  string
		allowed bool
	}{
		{"cancelled and held", OrderStatusCancelled, EscrowStatusHeld, true},
		{"disputed and held", OrderStatusDisputed, EscrowStatusHeld, true},
		{"pending blocks refund", OrderStatusPending, EscrowStatusHeld, false},
		{"delivered blocks refund", OrderStatusDelivered, EscrowStatusHeld, false},
		{"released is terminal", OrderStatusCancelled, EscrowStatusReleased, false},
		{"refunded is terminal", OrderStatusCancelled, EscrowStatusRefunded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{ID: "RATEL-TEST0001", Status: tt.status, EscrowStatus: tt.escrow}
			err := order.CanRefundEscrow()
			if tt.allowed && err != nil {
				t.Errorf("Expected refund to be allowed, got %v", err)
			}
			if !tt.allowed && !errors.Is(err, ErrConflict) {
				t.Errorf("Expected ErrConflict, got %v", err)
			}
		})
	}
}

func TestNewNegotiation(t *testing.T) {
	// Arrange / Act
	negotiation, err := NewNegotiation("product-789", "user-456", "Ada", "seller-123", 15000)

	// Assert
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if negotiation.Status != NegotiationStatusPending {
		t.Errorf("Expected Status %s, got %s", NegotiationStatusPending, negotiation.Status)
	}
	if negotiation.ProposedPrice != 15000 {
		t.Errorf("Expected ProposedPrice 15000, got %d", negotiation.ProposedPrice)
	}
	if negotiation.ID == "" {
		t.Error("Expected generated ID")
	}
}

func TestNewNegotiationAcceptsAnyPositivePrice(t *testing.T) {
	// A proposal above list price is still a valid proposal
	if _, err := NewNegotiation("product-789", "user-456", "", "seller-123", 99999999); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if _, err := NewNegotiation("product-789", "user-456", "", "seller-123", 0); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for zero price, got %v", err)
	}
}

func TestNegotiationCanDecide(t *testing.T) {
	decisions := []string{
		NegotiationStatusAccepted,
		NegotiationStatusRejected,
		NegotiationStatusCountered,
		NegotiationStatusExpired,
	}

	for _, decision := range decisions {
		t.Run("pending to "+decision, func(t *testing.T) {
			n := &Negotiation{ID: "neg-1", Status: NegotiationStatusPending}
			if err := n.CanDecide(decision); err != nil {
				t.Errorf("Expected decision %s to be allowed, got %v", decision, err)
			}
		})
	}

	t.Run("terminal statuses reject further decisions", func(t *testing.T) {
		for _, terminal := range decisions {
			n := &Negotiation{ID: "neg-1", Status: terminal}
			if err := n.CanDecide(NegotiationStatusAccepted); !errors.Is(err, ErrConflict) {
				t.Errorf("Expected ErrConflict from %s, got %v", terminal, err)
			}
		}
	})

	t.Run("unknown decision is a validation error", func(t *testing.T) {
		n := &Negotiation{ID: "neg-1", Status: NegotiationStatusPending}
		if err := n.CanDecide("haggled"); !errors.Is(err, ErrValidation) {
			t.Errorf("Expected ErrValidation, got %v", err)
		}
	})
}
