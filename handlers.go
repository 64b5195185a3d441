package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OrderUseCaseInterface define a interface para o use case de pedidos
type OrderUseCaseInterface interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error)
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	ListOrders(ctx context.Context, customerID, sellerID string) ([]Order, error)
	TransitionOrder(ctx context.Context, orderID, next string) (*Order, error)
	ReleaseEscrow(ctx context.Context, orderID string) (*Order, error)
	RefundEscrow(ctx context.Context, orderID string) (*Order, error)
}

// NegotiationUseCaseInterface define a interface para o use case de negociações
type NegotiationUseCaseInterface interface {
	CreateNegotiation(ctx context.Context, req CreateNegotiationRequest) (*Negotiation, error)
	ListNegotiations(ctx context.Context, customerID, sellerID string) ([]Negotiation, error)
	DecideNegotiation(ctx context.Context, negotiationID, decision string, counterPrice int) (*Negotiation, *Negotiation, error)
}

// StorefrontUseCaseInterface define a interface para a resolução de vitrines
type StorefrontUseCaseInterface interface {
	ResolveStorefront(ctx context.Context, slug string) (*Storefront, error)
}

// respondError mapeia a taxonomia de erros para status HTTP:
// validação 400, não encontrado 404, conflito 409, dependência externa 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrConflict):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}

// OrderHandler contém os handlers HTTP de pedidos e escrow
type OrderHandler struct {
	useCase OrderUseCaseInterface
	tracer  trace.Tracer
}

// NewOrderHandler cria uma nova instância de OrderHandler
func NewOrderHandler(useCase OrderUseCaseInterface, tracer trace.Tracer) *OrderHandler {
	return &OrderHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// CreateOrder cria um pedido com escrow retido
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_order")
	defer span.End()

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("customer_id", req.CustomerID),
		attribute.String("product_id", req.ProductID),
		attribute.String("seller_id", req.SellerID),
		attribute.Int("amount", req.Amount),
	)

	order, err := h.useCase.CreateOrder(ctx, req)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	span.SetAttributes(attribute.String("order_id", order.ID))
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// GetOrder busca um pedido pelo ID
func (h *OrderHandler) GetOrder(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "get_order")
	defer span.End()

	order, err := h.useCase.GetOrder(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// ListOrders lista pedidos filtrados por cliente e/ou lojista
func (h *OrderHandler) ListOrders(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "list_orders")
	defer span.End()

	orders, err := h.useCase.ListOrders(ctx, c.Query("customerId"), c.Query("sellerId"))
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

// UpdateOrderStatusRequest representa a requisição de transição de status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus transiciona o status de um pedido.
// Marcar um pedido como disputado é ação de suporte e exige papel de admin.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "update_order_status")
	defer span.End()

	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if req.Status == OrderStatusDisputed && c.GetString(ctxRole) != RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "only support can flag a dispute"})
		return
	}

	span.SetAttributes(
		attribute.String("order_id", c.Param("id")),
		attribute.String("next_status", req.Status),
	)

	order, err := h.useCase.TransitionOrder(ctx, c.Param("id"), req.Status)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// ReleaseEscrow libera o escrow de um pedido entregue
func (h *OrderHandler) ReleaseEscrow(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "release_escrow")
	defer span.End()

	order, err := h.useCase.ReleaseEscrow(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// RefundEscrow devolve o escrow de um pedido cancelado ou disputado
func (h *OrderHandler) RefundEscrow(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "refund_escrow")
	defer span.End()

	order, err := h.useCase.RefundEscrow(ctx, c.Param("id"))
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// NegotiationHandler contém os handlers HTTP de negociações
type NegotiationHandler struct {
	useCase NegotiationUseCaseInterface
	tracer  trace.Tracer
}

// NewNegotiationHandler cria uma nova instância de NegotiationHandler
func NewNegotiationHandler(useCase NegotiationUseCaseInterface, tracer trace.Tracer) *NegotiationHandler {
	return &NegotiationHandler{
		useCase: useCase,
		tracer:  tracer,
	}
}

// CreateNegotiation cria uma negociação de preço pendente
func (h *NegotiationHandler) CreateNegotiation(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_negotiation")
	defer span.End()

	var req CreateNegotiationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("product_id", req.ProductID),
		attribute.String("buyer_id", req.BuyerID),
		attribute.Int("target_price", req.TargetPrice),
	)

	negotiation, err := h.useCase.CreateNegotiation(ctx, req)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "negotiation": negotiation})
}

// ListNegotiations lista negociações filtradas por cliente e/ou lojista
func (h *NegotiationHandler) ListNegotiations(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "list_negotiations")
	defer span.End()

	negotiations, err := h.useCase.ListNegotiations(ctx, c.Query("customerId"), c.Query("sellerId"))
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "negotiations": negotiations})
}

// DecideNegotiationRequest representa a decisão do lojista sobre uma negociação
type DecideNegotiationRequest struct {
	Status       string `json:"status" binding:"required"`
	CounterPrice int    `json:"counter_price"`
}

// DecideNegotiation aplica a decisão do lojista (accept/reject/counter/expire)
func (h *NegotiationHandler) DecideNegotiation(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "decide_negotiation")
	defer span.End()

	var req DecideNegotiationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	span.SetAttributes(
		attribute.String("negotiation_id", c.Param("id")),
		attribute.String("decision", req.Status),
	)

	negotiation, counter, err := h.useCase.DecideNegotiation(ctx, c.Param("id"), req.Status, req.CounterPrice)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	resp := gin.H{"success": true, "negotiation": negotiation}
	if counter != nil {
		resp["counter_negotiation"] = counter
	}
	c.JSON(http.StatusOK, resp)
}

// StorefrontHandler contém os handlers de vitrine e preferências
type StorefrontHandler struct {
	useCase StorefrontUseCaseInterface
	prefs   *PreferenceService
	tracer  trace.Tracer
}

// NewStorefrontHandler cria uma nova instância de StorefrontHandler
func NewStorefrontHandler(useCase StorefrontUseCaseInterface, prefs *PreferenceService, tracer trace.Tracer) *StorefrontHandler {
	return &StorefrontHandler{
		useCase: useCase,
		prefs:   prefs,
		tracer:  tracer,
	}
}

// GetStorefront resolve a vitrine de um tenant (lojista + catálogo escopado)
func (h *StorefrontHandler) GetStorefront(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "resolve_storefront")
	defer span.End()

	slug := c.Param("slug")
	span.SetAttributes(attribute.String("tenant", slug))

	storefront, err := h.useCase.ResolveStorefront(ctx, slug)
	if err != nil {
		span.RecordError(err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "storefront": storefront})
}

// GetPreferences carrega as preferências de exibição de um usuário
func (h *StorefrontHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.prefs.Load(c.Request.Context(), c.Param("userID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "preferences": prefs})
}

// PutPreferences salva as preferências de exibição de um usuário
func (h *StorefrontHandler) PutPreferences(c *gin.Context) {
	var prefs Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err := h.prefs.Save(c.Request.Context(), c.Param("userID"), prefs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "preferences": prefs})
}

// HealthCheck verifica a saúde do serviço
func (h *StorefrontHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "storefront-service",
	})
}
