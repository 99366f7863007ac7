package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"servido-backend/internal/domain"
	"servido-backend/internal/domain/ports/adapter"

	"time"
)

const defaultBaseURL = "https://api.mercadopago.com"

// currency all preferences are priced in.
const currencyARS = "ARS"

// MercadoPagoGateway implements adapter.PaymentGateway using direct
// HTTP calls against the MercadoPago REST API. Credentials are
// injected per instance; the process wires one gateway per credential
// set (product payments, subscription payments) instead of sharing a
// configured singleton.
type MercadoPagoGateway struct {
	accessToken string
	baseURL     string
	sandbox     bool
	client      *http.Client
}

// NewMercadoPagoGateway creates a gateway bound to one access token.
// timeout bounds every outbound call; an expired deadline surfaces as
// domain.ErrProviderTimeout.
func NewMercadoPagoGateway(accessToken string, sandbox bool, timeout time.Duration) (*MercadoPagoGateway, error) {
	if accessToken == "" {
		return nil, domain.ErrInvalidArgument
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MercadoPagoGateway{
		accessToken: accessToken,
		baseURL:     defaultBaseURL,
		sandbox:     sandbox,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

func (g *MercadoPagoGateway) Name() string { return "mercadopago" }

type mpItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type mpBackURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

type mpShipments struct {
	Cost float64 `json:"cost"`
	Mode string  `json:"mode"`
}

type mpPreferenceRequest struct {
	Items             []mpItem     `json:"items"`
	ExternalReference string       `json:"external_reference"`
	NotificationURL   string       `json:"notification_url,omitempty"`
	BackURLs          *mpBackURLs  `json:"back_urls,omitempty"`
	AutoReturn        string       `json:"auto_return,omitempty"`
	Payer             *mpPayer     `json:"payer,omitempty"`
	Shipments         *mpShipments `json:"shipments,omitempty"`
}

type mpPayer struct {
	Email string `json:"email"`
}

type mpPreferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

type mpPaymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	ExternalReference string      `json:"external_reference"`
	TransactionAmount float64     `json:"transaction_amount"`
}

// CreatePreference opens a hosted checkout session and returns the id
// plus the buyer redirect URL.
func (g *MercadoPagoGateway) CreatePreference(ctx context.Context, req adapter.PreferenceRequest) (*adapter.Preference, error) {
	if len(req.Items) == 0 || req.ExternalReference == "" {
		return nil, domain.ErrInvalidArgument
	}

	body := mpPreferenceRequest{
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
		AutoReturn:        "approved",
	}
	for _, it := range req.Items {
		body.Items = append(body.Items, mpItem{
			ID:         it.ID,
			Title:      it.Title,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
			CurrencyID: currencyARS,
		})
	}
	if req.PayerEmail != "" {
		body.Payer = &mpPayer{Email: req.PayerEmail}
	}
	if req.ShippingCost > 0 {
		body.Shipments = &mpShipments{Cost: req.ShippingCost, Mode: "not_specified"}
	}
	if req.BackURLs != (adapter.BackURLs{}) {
		body.BackURLs = &mpBackURLs{
			Success: req.BackURLs.Success,
			Failure: req.BackURLs.Failure,
			Pending: req.BackURLs.Pending,
		}
	}

	var out mpPreferenceResponse
	if err := g.do(ctx, http.MethodPost, "/checkout/preferences", body, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: preference response missing id", domain.ErrProviderFailure)
	}

	redirect := out.InitPoint
	if g.sandbox && out.SandboxInitPoint != "" {
		redirect = out.SandboxInitPoint
	}
	return &adapter.Preference{ID: out.ID, RedirectURL: redirect}, nil
}

// GetPayment resolves a webhook's payment id to the provider's view of
// the payment, including the echoed external reference.
func (g *MercadoPagoGateway) GetPayment(ctx context.Context, paymentID string) (*adapter.PaymentInfo, error) {
	if paymentID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var out mpPaymentResponse
	if err := g.do(ctx, http.MethodGet, "/v1/payments/"+paymentID, nil, &out); err != nil {
		return nil, err
	}
	if out.Status == "" {
		return nil, fmt.Errorf("%w: payment response missing status", domain.ErrProviderFailure)
	}

	return &adapter.PaymentInfo{
		ID:                out.ID.String(),
		Status:            out.Status,
		ExternalReference: out.ExternalReference,
		TransactionAmount: out.TransactionAmount,
	}, nil
}

func (g *MercadoPagoGateway) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.accessToken)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &uerr) && uerr.Timeout()) {
			return fmt.Errorf("%w: %s %s", domain.ErrProviderTimeout, method, path)
		}
		return fmt.Errorf("%w: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrProviderFailure, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d, body: %s", domain.ErrProviderFailure, resp.StatusCode, string(b))
	}

	if out != nil {
		if err := json.Unmarshal(b, out); err != nil {
			return fmt.Errorf("%w: unmarshal response: %v, body: %s", domain.ErrProviderFailure, err, string(b))
		}
	}
	return nil
}
