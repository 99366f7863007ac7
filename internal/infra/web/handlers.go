package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"servido-backend/internal/domain"
	"servido-backend/internal/domain/model"
	"servido-backend/internal/infra/logging"
	"servido-backend/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels to HTTP statuses. Business-rule
// rejections are 400s and carry the error text; provider and internal
// failures are 500s with an opaque body, the wrapped detail goes to the
// server log only.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, domain.ErrInsufficientStock):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoActiveSub):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrLockUnavailable):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		logging.With(r.Context(), s.log).Error().Err(err).
			Str("method", r.Method).Str("path", r.URL.Path).
			Msg("request failed")
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// -----------------------------
// Checkout
// -----------------------------

type createPreferenceRequest struct {
	Items        []usecase.CartLine `json:"items"`
	ShippingCost float64            `json:"shippingCost"`
}

func (s *Server) handleCreatePreference(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	var req createPreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	res, err := s.checkoutUC.CreatePreference(r.Context(), claims.Subject, claims.Email, req.Items, req.ShippingCost)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Purchase reads are scoped to the token subject; one buyer cannot
// read another's orders.

func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	purchases, err := s.checkoutUC.History(r.Context(), claims.Subject)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": purchases})
}

func (s *Server) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	p, err := s.checkoutUC.GetPurchase(r.Context(), claims.Subject, chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListFailedPurchases(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	lines, err := s.checkoutUC.FailedLines(r.Context(), claims.Subject)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": lines})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	txns, err := s.subUC.Transactions(r.Context(), claims.Subject)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": txns})
}

// -----------------------------
// Webhooks
// -----------------------------

type webhookPayload struct {
	Type string `json:"type"`
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// handleWebhook acknowledges provider notifications. Business-level
// outcomes (duplicate delivery, unknown reference, concurrent
// delivery) still return 200 so the provider stops retrying; only a
// malformed payload is a 400 and only an infrastructure failure is a
// 500, which does trigger a retry.
func (s *Server) handleWebhook(handle func(ctx context.Context, notifType, paymentID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload webhookPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if payload.Type == "" && payload.Data.ID == "" {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		err := handle(r.Context(), payload.Type, payload.Data.ID.String())
		switch {
		case err == nil,
			errors.Is(err, domain.ErrNotFound),
			errors.Is(err, domain.ErrLockUnavailable):
			writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		case errors.Is(err, domain.ErrInvalidArgument):
			http.Error(w, "Invalid notification", http.StatusBadRequest)
		default:
			http.Error(w, "Processing failed", http.StatusInternalServerError)
		}
	}
}

// -----------------------------
// Subscriptions
// -----------------------------

type createSubscriptionRequest struct {
	PlanType model.PlanType `json:"planType"`
}

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	var req createSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	url, err := s.subUC.CreatePreference(r.Context(), claims.Subject, req.PlanType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"redirectUrl": url})
}

func (s *Server) handleSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	sub, err := s.subUC.StatusFor(r.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveSub) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"subscribed": false})
			return
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subscribed":   sub.Status == model.SubscriptionStatusActive,
		"subscription": sub,
	})
}

func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	if err := s.subUC.Cancel(r.Context(), claims.Subject); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

// -----------------------------
// Catalog: products
// -----------------------------

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	minPrice, _ := strconv.ParseFloat(q.Get("minPrice"), 64)
	maxPrice, _ := strconv.ParseFloat(q.Get("maxPrice"), 64)

	filter := model.ProductFilter{
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Search:   q.Get("search"),
		SellerID: q.Get("sellerId"),
	}

	products, err := s.catalogUC.ListProducts(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": products})
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalogUC.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	var in usecase.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	p, err := s.catalogUC.CreateProduct(r.Context(), claims.Subject, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var in usecase.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	p, err := s.catalogUC.UpdateProduct(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := s.catalogUC.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -----------------------------
// Catalog: services
// -----------------------------

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := s.catalogUC.ListServices(r.Context(), r.URL.Query().Get("sellerId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": services})
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	svc, err := s.catalogUC.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFrom(r.Context())

	var in usecase.ServiceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	svc, err := s.catalogUC.CreateService(r.Context(), claims.Subject, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	var in usecase.ServiceInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	svc, err := s.catalogUC.UpdateService(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	if err := s.catalogUC.DeleteService(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -----------------------------
// Users
// -----------------------------

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.userUC.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handlePatchUser(w http.ResponseWriter, r *http.Request) {
	var patch model.UserPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.userUC.MergeUpdate(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}
