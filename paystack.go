package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrPaymentNotSettled indica que a transação ainda não foi confirmada pelo gateway.
var ErrPaymentNotSettled = errors.New("payment not settled")

// PaymentVerification representa o resultado da verificação de uma transação.
type PaymentVerification struct {
	Reference string
	Amount    int
	Currency  string
}

// PaymentVerifier abstrai o gateway de pagamento (colaborador externo opaco).
type PaymentVerifier interface {
	VerifyTransaction(ctx context.Context, reference string) (*PaymentVerification, error)
}

// PaystackClient implementa PaymentVerifier consultando a API do Paystack
type PaystackClient struct {
	client *resty.Client
}

// NewPaystackClient cria uma nova instância de PaystackClient
func NewPaystackClient(baseURL, secretKey string) *PaystackClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(secretKey).
		SetTimeout(10 * time.Second)

	return &PaystackClient{client: client}
}

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status   string `json:"status"`
		Amount   int    `json:"amount"`
		Currency string `json:"currency"`
	} `json:"data"`
}

// VerifyTransaction verifica uma transação pela referência.
// Só transações com status "success" contam como liquidadas.
func (p *PaystackClient) VerifyTransaction(ctx context.Context, reference string) (*PaymentVerification, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: payment reference is required", ErrValidation)
	}

	var body paystackVerifyResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/transaction/verify/" + reference)
	if err != nil {
		return nil, fmt.Errorf("failed to verify transaction: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to verify transaction: gateway returned %s", resp.Status())
	}

	if !body.Status || body.Data.Status != "success" {
		return nil, fmt.Errorf("%w: transaction %s is %q", ErrPaymentNotSettled, reference, body.Data.Status)
	}

	return &PaymentVerification{
		Reference: reference,
		Amount:    body.Data.Amount,
		Currency:  body.Data.Currency,
	}, nil
}
