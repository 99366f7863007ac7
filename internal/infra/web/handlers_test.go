//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"servido-backend/internal/domain"
	"servido-backend/internal/domain/model"
	"servido-backend/internal/usecase"
)

// --- Mock use cases (handlers only need the interfaces) ---

type mockWebhookUC struct {
	paymentFunc      func(ctx context.Context, notifType, paymentID string) error
	subscriptionFunc func(ctx context.Context, notifType, paymentID string) error
}

func (m *mockWebhookUC) HandlePaymentNotification(ctx context.Context, notifType, paymentID string) error {
	if m.paymentFunc != nil {
		return m.paymentFunc(ctx, notifType, paymentID)
	}
	return nil
}

func (m *mockWebhookUC) HandleSubscriptionNotification(ctx context.Context, notifType, paymentID string) error {
	if m.subscriptionFunc != nil {
		return m.subscriptionFunc(ctx, notifType, paymentID)
	}
	return nil
}

type mockCheckoutUC struct {
	usecase.CheckoutUseCase
	createFunc  func(ctx context.Context, buyerID, buyerEmail string, lines []usecase.CartLine, shippingCost float64) (*usecase.CheckoutResult, error)
	historyFunc func(ctx context.Context, buyerID string) ([]*model.Purchase, error)
}

func (m *mockCheckoutUC) CreatePreference(ctx context.Context, buyerID, buyerEmail string, lines []usecase.CartLine, shippingCost float64) (*usecase.CheckoutResult, error) {
	return m.createFunc(ctx, buyerID, buyerEmail, lines, shippingCost)
}

func (m *mockCheckoutUC) History(ctx context.Context, buyerID string) ([]*model.Purchase, error) {
	return m.historyFunc(ctx, buyerID)
}

type mockSubUC struct {
	usecase.SubscriptionUseCase
	statusFunc func(ctx context.Context, userID string) (*model.Subscription, error)
}

func (m *mockSubUC) StatusFor(ctx context.Context, userID string) (*model.Subscription, error) {
	return m.statusFunc(ctx, userID)
}

type mockCatalogUC struct {
	usecase.CatalogUseCase
	getProductFunc func(ctx context.Context, id string) (*model.Product, error)
}

func (m *mockCatalogUC) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return m.getProductFunc(ctx, id)
}

type mockUserUC struct {
	usecase.UserUseCase
}

// --- helpers ---

func newTestServer(webhooks *mockWebhookUC, checkout *mockCheckoutUC, subs *mockSubUC, catalog *mockCatalogUC) (*Server, *AuthManager) {
	l := zerolog.Nop()
	auth := NewAuthManager("test-secret", time.Hour)
	srv := NewServer(checkout, webhooks, subs, catalog, &mockUserUC{}, auth, nil, &l)
	return srv, auth
}

func postJSON(t *testing.T, handler http.Handler, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// --- Webhook endpoint contract ---

func TestWebhookEndpoint(t *testing.T) {
	t.Run("malformed payload is a 400", func(t *testing.T) {
		srv, _ := newTestServer(&mockWebhookUC{}, nil, nil, nil)
		rr := postJSON(t, srv.Router(), "/api/mercadopago/webhooks", "{not json", "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("empty payload is a 400", func(t *testing.T) {
		srv, _ := newTestServer(&mockWebhookUC{}, nil, nil, nil)
		rr := postJSON(t, srv.Router(), "/api/mercadopago/webhooks", "{}", "")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("successful reconciliation acknowledges", func(t *testing.T) {
		var gotType, gotID string
		uc := &mockWebhookUC{paymentFunc: func(ctx context.Context, notifType, paymentID string) error {
			gotType, gotID = notifType, paymentID
			return nil
		}}
		srv, _ := newTestServer(uc, nil, nil, nil)
		rr := postJSON(t, srv.Router(), "/api/mercadopago/webhooks", `{"type":"payment","data":{"id":123456}}`, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		if gotType != "payment" || gotID != "123456" {
			t.Errorf("forwarded %q %q", gotType, gotID)
		}
		if !strings.Contains(rr.Body.String(), `"received":true`) {
			t.Errorf("body = %s", rr.Body.String())
		}
	})

	t.Run("duplicate or unknown delivery still acknowledges", func(t *testing.T) {
		uc := &mockWebhookUC{paymentFunc: func(ctx context.Context, notifType, paymentID string) error {
			return domain.ErrNotFound
		}}
		srv, _ := newTestServer(uc, nil, nil, nil)
		rr := postJSON(t, srv.Router(), "/api/mercadopago/webhooks", `{"type":"payment","data":{"id":"1"}}`, "")
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 so the provider stops retrying", rr.Code)
		}
	})

	t.Run("concurrent delivery still acknowledges", func(t *testing.T) {
		uc := &mockWebhookUC{paymentFunc: func(ctx context.Context, notifType, paymentID string) error {
			return domain.ErrLockUnavailable
		}}
		srv, _ := newTestServer(uc, nil, nil, nil)
		rr := postJSON(t, srv.Router(), "/api/mercadopago/webhooks", `{"type":"payment","data":{"id":"1"}}`, "")
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
	})

	t.Run("infrastructure failure is a 500 so the provider retries", func(t *testing.T) {
		uc := &mockWebhookUC{paymentFunc: func(ctx context.Context, notifType, paymentID string) error {
			return domain.ErrProviderFailure
		}}
		srv, _ := newTestServer(uc, nil, nil, nil)
		rr := postJSON(t, srv.Router(), "/api/mercadopago/webhooks", `{"type":"payment","data":{"id":"1"}}`, "")
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rr.Code)
		}
	})

	t.Run("subscription webhooks use the subscription handler", func(t *testing.T) {
		called := false
		uc := &mockWebhookUC{subscriptionFunc: func(ctx context.Context, notifType, paymentID string) error {
			called = true
			return nil
		}}
		srv, _ := newTestServer(uc, nil, nil, nil)
		rr := postJSON(t, srv.Router(), "/api/mercadopago/subscription/webhooks", `{"type":"payment","data":{"id":"1"}}`, "")
		if rr.Code != http.StatusOK || !called {
			t.Errorf("status = %d called = %v", rr.Code, called)
		}
	})
}

// --- Auth guard ---

func TestAuthGuard(t *testing.T) {
	subs := &mockSubUC{statusFunc: func(ctx context.Context, userID string) (*model.Subscription, error) {
		return nil, domain.ErrNoActiveSub
	}}

	t.Run("missing token is a 401", func(t *testing.T) {
		srv, _ := newTestServer(&mockWebhookUC{}, nil, subs, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/status", nil)
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("garbage token is a 401", func(t *testing.T) {
		srv, _ := newTestServer(&mockWebhookUC{}, nil, subs, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/status", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("valid token reaches the handler", func(t *testing.T) {
		srv, auth := newTestServer(&mockWebhookUC{}, nil, subs, nil)
		token, err := auth.Mint("user-1", "u@example.com", "buyer")
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/status", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"subscribed":false`) {
			t.Errorf("body = %s", rr.Body.String())
		}
	})
}

// --- Checkout endpoint ---

func TestCreatePreferenceEndpoint(t *testing.T) {
	t.Run("returns the provider session and totals", func(t *testing.T) {
		checkout := &mockCheckoutUC{createFunc: func(ctx context.Context, buyerID, buyerEmail string, lines []usecase.CartLine, shippingCost float64) (*usecase.CheckoutResult, error) {
			if buyerID != "user-1" {
				t.Errorf("buyer id = %q, want token subject", buyerID)
			}
			return &usecase.CheckoutResult{
				PreferenceID: "pref-1",
				RedirectURL:  "https://checkout.example/pref-1",
				PurchaseID:   "ord-1",
				Totals:       usecase.Totals{Subtotal: 200, Shipping: 50, Final: 250},
			}, nil
		}}
		srv, auth := newTestServer(&mockWebhookUC{}, checkout, nil, nil)
		token, _ := auth.Mint("user-1", "u@example.com", "buyer")

		rr := postJSON(t, srv.Router(), "/api/mercadopago/create-preference",
			`{"items":[{"productId":"p1","quantity":2}],"shippingCost":50}`, token)
		if rr.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201, body %s", rr.Code, rr.Body.String())
		}
		var res usecase.CheckoutResult
		if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if res.Totals.Final != 250 || res.RedirectURL == "" {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("maps insufficient stock to 400", func(t *testing.T) {
		checkout := &mockCheckoutUC{createFunc: func(ctx context.Context, buyerID, buyerEmail string, lines []usecase.CartLine, shippingCost float64) (*usecase.CheckoutResult, error) {
			return nil, domain.ErrInsufficientStock
		}}
		srv, auth := newTestServer(&mockWebhookUC{}, checkout, nil, nil)
		token, _ := auth.Mint("user-1", "u@example.com", "buyer")

		rr := postJSON(t, srv.Router(), "/api/mercadopago/create-preference",
			`{"items":[{"productId":"p1","quantity":99}]}`, token)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("provider failures are a 500 with an opaque body", func(t *testing.T) {
		wrapped := fmt.Errorf("%w: status 500, body: upstream gateway internals", domain.ErrProviderFailure)
		checkout := &mockCheckoutUC{createFunc: func(ctx context.Context, buyerID, buyerEmail string, lines []usecase.CartLine, shippingCost float64) (*usecase.CheckoutResult, error) {
			return nil, wrapped
		}}
		srv, auth := newTestServer(&mockWebhookUC{}, checkout, nil, nil)
		token, _ := auth.Mint("user-1", "u@example.com", "buyer")

		rr := postJSON(t, srv.Router(), "/api/mercadopago/create-preference",
			`{"items":[{"productId":"p1","quantity":1}]}`, token)
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rr.Code)
		}
		if strings.Contains(rr.Body.String(), "gateway internals") {
			t.Errorf("body leaks provider detail: %s", rr.Body.String())
		}
	})

	t.Run("maps provider timeout to 500", func(t *testing.T) {
		checkout := &mockCheckoutUC{createFunc: func(ctx context.Context, buyerID, buyerEmail string, lines []usecase.CartLine, shippingCost float64) (*usecase.CheckoutResult, error) {
			return nil, domain.ErrProviderTimeout
		}}
		srv, auth := newTestServer(&mockWebhookUC{}, checkout, nil, nil)
		token, _ := auth.Mint("user-1", "u@example.com", "buyer")

		rr := postJSON(t, srv.Router(), "/api/mercadopago/create-preference",
			`{"items":[{"productId":"p1","quantity":1}]}`, token)
		if rr.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rr.Code)
		}
	})
}

// --- Purchase history ---

func TestListPurchasesEndpoint(t *testing.T) {
	t.Run("lists the token subject's purchases", func(t *testing.T) {
		checkout := &mockCheckoutUC{historyFunc: func(ctx context.Context, buyerID string) ([]*model.Purchase, error) {
			if buyerID != "user-1" {
				t.Errorf("buyer id = %q, want token subject", buyerID)
			}
			return []*model.Purchase{{ID: "ord-1", BuyerID: buyerID, PaymentID: "pay-1"}}, nil
		}}
		srv, auth := newTestServer(&mockWebhookUC{}, checkout, nil, nil)
		token, _ := auth.Mint("user-1", "u@example.com", "buyer")

		req := httptest.NewRequest(http.MethodGet, "/api/purchases", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rr.Code)
		}
		if !strings.Contains(rr.Body.String(), `"ord-1"`) {
			t.Errorf("body = %s", rr.Body.String())
		}
	})

	t.Run("needs a token", func(t *testing.T) {
		srv, _ := newTestServer(&mockWebhookUC{}, &mockCheckoutUC{}, nil, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/purchases", nil)
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})
}

// --- Public catalog reads ---

func TestGetProductEndpoint(t *testing.T) {
	t.Run("unknown product is a 404", func(t *testing.T) {
		catalog := &mockCatalogUC{getProductFunc: func(ctx context.Context, id string) (*model.Product, error) {
			return nil, domain.ErrNotFound
		}}
		srv, _ := newTestServer(&mockWebhookUC{}, nil, nil, catalog)
		req := httptest.NewRequest(http.MethodGet, "/api/products/ghost", nil)
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rr.Code)
		}
	})

	t.Run("reads need no token", func(t *testing.T) {
		catalog := &mockCatalogUC{getProductFunc: func(ctx context.Context, id string) (*model.Product, error) {
			return &model.Product{ID: id, Title: "Widget", Category: "tools", Price: 10, Available: true}, nil
		}}
		srv, _ := newTestServer(&mockWebhookUC{}, nil, nil, catalog)
		req := httptest.NewRequest(http.MethodGet, "/api/products/p1", nil)
		rr := httptest.NewRecorder()
		srv.Router().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rr.Code)
		}
	})
}
