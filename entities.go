package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrValidation indica input rejeitado antes de qualquer escrita no banco.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indica que o registro referenciado não existe.
	ErrNotFound = errors.New("not found")
	// ErrConflict indica uma transição a partir de um estado que já mudou.
	// O caller deve re-buscar o registro e decidir com o estado novo.
	ErrConflict = errors.New("state conflict")
	// ErrDuplicateID indica colisão de identificador na criação (retry seguro).
	ErrDuplicateID = errors.New("duplicate id")
)

// Status possíveis de um pedido
const (
	OrderStatusPending   = "pending"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
	OrderStatusDisputed  = "disputed"
)

// Status possíveis do escrow de um pedido
const (
	EscrowStatusHeld     = "held"
	EscrowStatusReleased = "released"
	EscrowStatusRefunded = "refunded"
)

// Status possíveis de uma negociação de preço
const (
	NegotiationStatusPending   = "pending"
	NegotiationStatusAccepted  = "accepted"
	NegotiationStatusRejected  = "rejected"
	NegotiationStatusCountered = "countered"
	NegotiationStatusExpired   = "expired"
)

const PaymentMethodPaystack = "paystack"

// Order representa um pedido protegido por escrow.
type Order struct {
	ID              string    `json:"id" db:"id"`
	CustomerID      string    `json:"customer_id" db:"customer_id"`
	CustomerName    string    `json:"customer_name" db:"customer_name"`
	ProductID       string    `json:"product_id" db:"product_id"`
	SellerID        string    `json:"seller_id" db:"seller_id"`
	SellerName      string    `json:"seller_name" db:"seller_name"`
	Amount          int       `json:"amount" db:"amount"`
	Quantity        int       `json:"quantity" db:"quantity"`
	ShippingAddress string    `json:"shipping_address" db:"shipping_address"`
	PaymentMethod   string    `json:"payment_method" db:"payment_method"`
	Status          string    `json:"status" db:"status"`
	EscrowStatus    string    `json:"escrow_status" db:"escrow_status"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Negotiation representa uma proposta de preço de um cliente para um lojista.
type Negotiation struct {
	ID            string    `json:"id" db:"id"`
	ProductID     string    `json:"product_id" db:"product_id"`
	CustomerID    string    `json:"customer_id" db:"customer_id"`
	CustomerName  string    `json:"customer_name" db:"customer_name"`
	SellerID      string    `json:"seller_id" db:"seller_id"`
	ProposedPrice int       `json:"proposed_price" db:"proposed_price"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

const orderIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewOrderID gera um identificador no formato RATEL-<8 alfanuméricos maiúsculos>.
func NewOrderID() string {
	raw := uuid.New()
	b := make([]byte, 8)
	for i := range b {
		b[i] = orderIDAlphabet[int(raw[i])%len(orderIDAlphabet)]
	}
	return "RATEL-" + string(b)
}

// NewOrder cria um novo pedido com escrow retido.
// O identificador é gerado quando não informado; quantity deve ser positiva.
func NewOrder(id, customerID, customerName, productID, sellerID, sellerName string, amount, quantity int, shippingAddress, paymentMethod string) (*Order, error) {
	if customerID == "" || productID == "" || sellerID == "" {
		return nil, fmt.Errorf("%w: customer_id, product_id and seller_id are required", ErrValidation)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
	}
	if id == "" {
		id = NewOrderID()
	}
	if paymentMethod == "" {
		paymentMethod = PaymentMethodPaystack
	}

	now := time.Now()
	return &Order{
		ID:              id,
		CustomerID:      customerID,
		CustomerName:    customerName,
		ProductID:       productID,
		SellerID:        sellerID,
		SellerName:      sellerName,
		Amount:          amount,
		Quantity:        quantity,
		ShippingAddress: shippingAddress,
		PaymentMethod:   paymentMethod,
		Status:          OrderStatusPending,
		EscrowStatus:    EscrowStatusHeld,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// CanTransitionTo valida uma transição de status do pedido.
// Um pedido em disputa congela qualquer transição automática; a disputa em si
// (sinalizada por suporte/admin) pode partir de qualquer outro status.
func (o *Order) CanTransitionTo(next string) error {
	if next == OrderStatusDisputed {
		if o.Status == OrderStatusDisputed {
			return fmt.Errorf("%w: order %s is already disputed", ErrConflict, o.ID)
		}
		return nil
	}

	if o.Status == OrderStatusDisputed {
		return fmt.Errorf("%w: order %s is disputed, transitions are frozen", ErrConflict, o.ID)
	}

	allowed := map[string][]string{
		OrderStatusPending: {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped: {OrderStatusDelivered},
	}
	for _, s := range allowed[o.Status] {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot transition order %s from %s to %s", ErrConflict, o.ID, o.Status, next)
}

// CanReleaseEscrow valida a liberação dos fundos ao lojista.
// Só é permitida com o pedido entregue e sem disputa aberta.
func (o *Order) CanReleaseEscrow() error {
	if o.EscrowStatus != EscrowStatusHeld {
		return fmt.Errorf("%w: escrow of order %s is %s, which is terminal", ErrConflict, o.ID, o.EscrowStatus)
	}
	if o.Status != OrderStatusDelivered {
		return fmt.Errorf("%w: escrow can only be released after delivery, order %s is %s", ErrConflict, o.ID, o.Status)
	}
	return nil
}

// CanRefundEscrow valida a devolução dos fundos ao cliente.
// Permitida quando o pedido foi cancelado ou quando uma disputa foi
// resolvida a favor do cliente (o chamado do admin é o sinal de resolução).
func (o *Order) CanRefundEscrow() error {
	if o.EscrowStatus != EscrowStatusHeld {
		return fmt.Errorf("%w: escrow of order %s is %s, which is terminal", ErrConflict, o.ID, o.EscrowStatus)
	}
	if o.Status != OrderStatusCancelled && o.Status != OrderStatusDisputed {
		return fmt.Errorf("%w: escrow of order %s can only be refunded on cancellation or dispute, order is %s", ErrConflict, o.ID, o.Status)
	}
	return nil
}

// NewNegotiation cria uma nova negociação pendente.
// Qualquer preço positivo é aceito: a proposta não é validada contra o preço
// de tabela do produto.
func NewNegotiation(productID, customerID, customerName, sellerID string, proposedPrice int) (*Negotiation, error) {
	if productID == "" || customerID == "" || sellerID == "" {
		return nil, fmt.Errorf("%w: product_id, customer_id and seller_id are required", ErrValidation)
	}
	if proposedPrice <= 0 {
		return nil, fmt.Errorf("%w: proposed price must be positive", ErrValidation)
	}

	return &Negotiation{
		ID:            uuid.New().String(),
		ProductID:     productID,
		CustomerID:    customerID,
		CustomerName:  customerName,
		SellerID:      sellerID,
		ProposedPrice: proposedPrice,
		Status:        NegotiationStatusPending,
		CreatedAt:     time.Now(),
	}, nil
}

// CanDecide valida a decisão do lojista sobre uma negociação.
// Só negociações pendentes podem ser decididas; os demais status são terminais.
func (n *Negotiation) CanDecide(next string) error {
	switch next {
	case NegotiationStatusAccepted, NegotiationStatusRejected,
		NegotiationStatusCountered, NegotiationStatusExpired:
	default:
		return fmt.Errorf("%w: %q is not a valid negotiation decision", ErrValidation, next)
	}

	if n.Status != NegotiationStatusPending {
		return fmt.Errorf("%w: negotiation %s is already %s", ErrConflict, n.ID, n.Status)
	}
	return nil
}
