package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/youssefhamdan/tijara-backend/pkg/config"
	pkgerrors "github.com/youssefhamdan/tijara-backend/pkg/errors"
)

// InitiateInput asks the gateway for a hosted payment page.
type InitiateInput struct {
	OrderNumber string
	Amount      decimal.Decimal
	Phone       string
}

// InitiateResult carries the hosted page URL and the gateway's reference.
type InitiateResult struct {
	PaymentURL string
	Ref        string
}

// VerifyResult reports the settled state of a payment reference.
type VerifyResult struct {
	Paid   bool
	Amount decimal.Decimal
}

// Gateway integrates a hosted-payment-page provider.
type Gateway interface {
	Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error)
	Verify(ctx context.Context, ref string) (*VerifyResult, error)
}

// HTTPGateway implements Gateway against the provider's REST API. Requests
// are signed with an HMAC of the body using the shared secret.
type HTTPGateway struct {
	cfg  config.GatewayConfig
	http *http.Client
}

// NewHTTPGateway builds the gateway client.
func NewHTTPGateway(cfg config.GatewayConfig) (*HTTPGateway, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("gateway base url required")
	}
	if cfg.MerchantID == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("gateway credentials required")
	}
	return &HTTPGateway{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type initiateRequest struct {
	MerchantID  string `json:"merchant_id"`
	OrderNumber string `json:"order_number"`
	Amount      string `json:"amount"`
	Phone       string `json:"phone"`
	CallbackURL string `json:"callback_url"`
	Nonce       string `json:"nonce"`
}

type initiateResponse struct {
	Success    bool   `json:"success"`
	PaymentURL string `json:"payment_url"`
	Ref        string `json:"ref"`
	Error      string `json:"error"`
}

type verifyResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Amount  string `json:"amount"`
	Error   string `json:"error"`
}

// Initiate implements Gateway.
func (g *HTTPGateway) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	if input.OrderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	payload := initiateRequest{
		MerchantID:  g.cfg.MerchantID,
		OrderNumber: input.OrderNumber,
		Amount:      input.Amount.StringFixed(2),
		Phone:       input.Phone,
		CallbackURL: g.cfg.CallbackURL,
		Nonce:       uuid.NewString(),
	}

	var decoded initiateResponse
	if err := g.post(ctx, "/v1/payments", payload, &decoded); err != nil {
		return nil, err
	}
	if !decoded.Success || decoded.PaymentURL == "" || decoded.Ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway refused the payment").
			WithDetails(map[string]any{"error": decoded.Error})
	}

	return &InitiateResult{PaymentURL: decoded.PaymentURL, Ref: decoded.Ref}, nil
}

// Verify implements Gateway. Callbacks are never trusted on their own; the
// reference is always re-checked against the provider.
func (g *HTTPGateway) Verify(ctx context.Context, ref string) (*VerifyResult, error) {
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment ref is required")
	}

	var decoded verifyResponse
	if err := g.post(ctx, "/v1/payments/verify", map[string]string{
		"merchant_id": g.cfg.MerchantID,
		"ref":         ref,
	}, &decoded); err != nil {
		return nil, err
	}
	if !decoded.Success {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "gateway could not verify the payment").
			WithDetails(map[string]any{"error": decoded.Error})
	}

	amount := decimal.Zero
	if decoded.Amount != "" {
		parsed, err := decimal.NewFromString(decoded.Amount)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "parsing gateway amount")
		}
		amount = parsed
	}

	return &VerifyResult{Paid: decoded.Status == "paid", Amount: amount}, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Merchant-Id", g.cfg.MerchantID)
	req.Header.Set("X-Signature", g.sign(body))

	resp, err := g.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling payment gateway")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading gateway response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("gateway returned status %d", resp.StatusCode)).
			WithDetails(map[string]any{"body": string(raw)})
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding gateway response")
	}
	return nil
}

func (g *HTTPGateway) sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(g.cfg.Secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
