package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository define a interface para operações de banco de dados de pedidos
// e negociações. Toda mutação de status é condicional: a escrita só acontece
// se o status atual ainda for o esperado pelo caller.
type Repository interface {
	// CreateOrder cria um novo pedido; colisão de id retorna ErrDuplicateID.
	CreateOrder(ctx context.Context, order *Order) error

	// FindOrder busca um pedido pelo ID.
	FindOrder(ctx context.Context, orderID string) (*Order, error)

	// ListOrders lista pedidos filtrados por cliente e/ou lojista, mais recentes primeiro.
	ListOrders(ctx context.Context, customerID, sellerID string) ([]Order, error)

	// UpdateOrderStatus transiciona o status somente se o status atual for o esperado.
	UpdateOrderStatus(ctx context.Context, orderID, expected, next string) error

	// UpdateEscrowStatus transiciona o escrow somente se o escrow atual for o
	// esperado e o status do pedido permitir a transição.
	UpdateEscrowStatus(ctx context.Context, orderID, expected, next string) error

	// CreateNegotiation cria uma nova negociação.
	CreateNegotiation(ctx context.Context, negotiation *Negotiation) error

	// FindNegotiation busca uma negociação pelo ID.
	FindNegotiation(ctx context.Context, negotiationID string) (*Negotiation, error)

	// ListNegotiations lista negociações filtradas por cliente e/ou lojista, mais recentes primeiro.
	ListNegotiations(ctx context.Context, customerID, sellerID string) ([]Negotiation, error)

	// UpdateNegotiationStatus transiciona o status somente se o status atual for o esperado.
	UpdateNegotiationStatus(ctx context.Context, negotiationID, expected, next string) error
}

// StoreRepository implementa Repository usando PostgreSQL
type StoreRepository struct {
	db *pgxpool.Pool
}

// NewStoreRepository cria uma nova instância de StoreRepository
func NewStoreRepository(db *pgxpool.Pool) Repository {
	return &StoreRepository{
		db: db,
	}
}

const orderColumns = `id, customer_id, customer_name, product_id, seller_id, seller_name,
	amount, quantity, shipping_address, payment_method, status, escrow_status, created_at, updated_at`

// CreateOrder cria um novo pedido no banco de dados
func (r *StoreRepository) CreateOrder(ctx context.Context, order *Order) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, order.ID, order.CustomerID, order.CustomerName, order.ProductID, order.SellerID, order.SellerName,
		order.Amount, order.Quantity, order.ShippingAddress, order.PaymentMethod,
		order.Status, order.EscrowStatus, order.CreatedAt, order.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: order %s", ErrDuplicateID, order.ID)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// FindOrder busca um pedido pelo ID
func (r *StoreRepository) FindOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	err := r.db.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM orders WHERE id = $1
	`, orderID).Scan(
		&order.ID, &order.CustomerID, &order.CustomerName, &order.ProductID,
		&order.SellerID, &order.SellerName, &order.Amount, &order.Quantity,
		&order.ShippingAddress, &order.PaymentMethod, &order.Status,
		&order.EscrowStatus, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

// ListOrders lista pedidos filtrados por cliente e/ou lojista
func (r *StoreRepository) ListOrders(ctx context.Context, customerID, sellerID string) ([]Order, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE ($1 = '' OR customer_id = $1)
		  AND ($2 = '' OR seller_id = $2)
		ORDER BY created_at DESC
	`, customerID, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var order Order
		if err := rows.Scan(
			&order.ID, &order.CustomerID, &order.CustomerName, &order.ProductID,
			&order.SellerID, &order.SellerName, &order.Amount, &order.Quantity,
			&order.ShippingAddress, &order.PaymentMethod, &order.Status,
			&order.EscrowStatus, &order.CreatedAt, &order.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus atualiza o status de um pedido com escrita condicional.
// Um caller concorrente que perder a corrida recebe ErrConflict em vez de
// sobrescrever silenciosamente a transição vencedora.
func (r *StoreRepository) UpdateOrderStatus(ctx context.Context, orderID, expected, next string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`, next, orderID, expected)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.orderWriteMiss(ctx, orderID, expected)
	}
	return nil
}

// UpdateEscrowStatus atualiza o escrow de um pedido com escrita condicional.
// O gate de status do pedido fica dentro do próprio UPDATE para que o
// invariante valha mesmo contra uma disputa aberta concorrentemente.
func (r *StoreRepository) UpdateEscrowStatus(ctx context.Context, orderID, expected, next string) error {
	var statusGate string
	switch next {
	case EscrowStatusReleased:
		statusGate = `AND status = 'delivered'`
	case EscrowStatusRefunded:
		statusGate = `AND status IN ('cancelled', 'disputed')`
	default:
		return fmt.Errorf("%w: %q is not a valid escrow transition", ErrValidation, next)
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET escrow_status = $1, updated_at = NOW()
		WHERE id = $2 AND escrow_status = $3 `+statusGate,
		next, orderID, expected)
	if err != nil {
		return fmt.Errorf("failed to update escrow status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.orderWriteMiss(ctx, orderID, "")
	}
	return nil
}

// orderWriteMiss distingue not-found de conflito após um UPDATE condicional
// que não afetou nenhuma linha.
func (r *StoreRepository) orderWriteMiss(ctx context.Context, orderID, expected string) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check order existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	if expected != "" {
		return fmt.Errorf("%w: order %s no longer %s", ErrConflict, orderID, expected)
	}
	return fmt.Errorf("%w: order %s state changed concurrently", ErrConflict, orderID)
}

// CreateNegotiation cria uma nova negociação no banco de dados
func (r *StoreRepository) CreateNegotiation(ctx context.Context, negotiation *Negotiation) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO negotiations (id, product_id, customer_id, customer_name, seller_id, proposed_price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, negotiation.ID, negotiation.ProductID, negotiation.CustomerID, negotiation.CustomerName,
		negotiation.SellerID, negotiation.ProposedPrice, negotiation.Status, negotiation.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: negotiation %s", ErrDuplicateID, negotiation.ID)
		}
		return fmt.Errorf("failed to create negotiation: %w", err)
	}
	return nil
}

// FindNegotiation busca uma negociação pelo ID
func (r *StoreRepository) FindNegotiation(ctx context.Context, negotiationID string) (*Negotiation, error) {
	var n Negotiation
	err := r.db.QueryRow(ctx, `
		SELECT id, product_id, customer_id, customer_name, seller_id, proposed_price, status, created_at
		FROM negotiations WHERE id = $1
	`, negotiationID).Scan(
		&n.ID, &n.ProductID, &n.CustomerID, &n.CustomerName,
		&n.SellerID, &n.ProposedPrice, &n.Status, &n.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: negotiation %s", ErrNotFound, negotiationID)
		}
		return nil, fmt.Errorf("failed to find negotiation: %w", err)
	}
	return &n, nil
}

// ListNegotiations lista negociações filtradas por cliente e/ou lojista
func (r *StoreRepository) ListNegotiations(ctx context.Context, customerID, sellerID string) ([]Negotiation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, customer_id, customer_name, seller_id, proposed_price, status, created_at
		FROM negotiations
		WHERE ($1 = '' OR customer_id = $1)
		  AND ($2 = '' OR seller_id = $2)
		ORDER BY created_at DESC
	`, customerID, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list negotiations: %w", err)
	}
	defer rows.Close()

	negotiations := make([]Negotiation, 0)
	for rows.Next() {
		var n Negotiation
		if err := rows.Scan(
			&n.ID, &n.ProductID, &n.CustomerID, &n.CustomerName,
			&n.SellerID, &n.ProposedPrice, &n.Status, &n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan negotiation: %w", err)
		}
		negotiations = append(negotiations, n)
	}
	return negotiations, rows.Err()
}

// UpdateNegotiationStatus atualiza o status de uma negociação com escrita condicional
func (r *StoreRepository) UpdateNegotiationStatus(ctx context.Context, negotiationID, expected, next string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE negotiations
		SET status = $1
		WHERE id = $2 AND status = $3
	`, next, negotiationID, expected)
	if err != nil {
		return fmt.Errorf("failed to update negotiation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM negotiations WHERE id = $1)`, negotiationID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check negotiation existence: %w", err)
		}
		if !exists {
			return fmt.Errorf("%w: negotiation %s", ErrNotFound, negotiationID)
		}
		return fmt.Errorf("%w: negotiation %s no longer %s", ErrConflict, negotiationID, expected)
	}
	return nil
}
