package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"whogowin/domain/interfaces"
)

// PaystackGateway implements the PaymentGateway interface against the
// Paystack REST API. Amounts cross the wire in the minor currency unit
// (kobo), so decimal amounts are scaled by 100 on the way out and back.
type PaystackGateway struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

// NewPaystackGateway creates a new Paystack gateway client
func NewPaystackGateway(secretKey, baseURL string) *PaystackGateway {
	return &PaystackGateway{
		secretKey: secretKey,
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

var minorUnitScale = decimal.NewFromInt(100)

type paystackInitializeRequest struct {
	Email     string `json:"email"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

type paystackInitializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

type paystackVerifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
	} `json:"data"`
}

func (g *PaystackGateway) doRequest(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paystack request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("paystack returned status %d: %s", resp.StatusCode, string(data))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode paystack response: %w", err)
	}

	return nil
}

// InitializeTransaction opens a checkout session for the amount
func (g *PaystackGateway) InitializeTransaction(ctx context.Context, email string, amount decimal.Decimal, reference string) (*interfaces.PaymentAuthorization, error) {
	payload, err := json.Marshal(paystackInitializeRequest{
		Email:     email,
		Amount:    amount.Mul(minorUnitScale).IntPart(),
		Reference: reference,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initialize request: %w", err)
	}

	var result paystackInitializeResponse
	if err := g.doRequest(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(payload), &result); err != nil {
		return nil, err
	}
	if !result.Status {
		return nil, fmt.Errorf("paystack initialize failed: %s", result.Message)
	}

	return &interfaces.PaymentAuthorization{
		AuthorizationURL: result.Data.AuthorizationURL,
		AccessCode:       result.Data.AccessCode,
		Reference:        result.Data.Reference,
	}, nil
}

// VerifyTransaction fetches the settlement state of a reference
func (g *PaystackGateway) VerifyTransaction(ctx context.Context, reference string) (*interfaces.PaymentVerification, error) {
	var result paystackVerifyResponse
	if err := g.doRequest(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &result); err != nil {
		return nil, err
	}
	if !result.Status {
		return nil, fmt.Errorf("paystack verify failed: %s", result.Message)
	}

	return &interfaces.PaymentVerification{
		Reference: result.Data.Reference,
		Status:    result.Data.Status,
		Amount:    decimal.NewFromInt(result.Data.Amount).Div(minorUnitScale),
	}, nil
}
