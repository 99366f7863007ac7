package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"servido-backend/internal/infra/logging"
	"servido-backend/internal/usecase"
)

// Server wires the storefront API: checkout, webhooks, subscriptions,
// catalog and user routes.
type Server struct {
	checkoutUC usecase.CheckoutUseCase
	webhookUC  usecase.WebhookUseCase
	subUC      usecase.SubscriptionUseCase
	catalogUC  usecase.CatalogUseCase
	userUC     usecase.UserUseCase
	auth       *AuthManager
	origins    []string
	log        *zerolog.Logger
}

func NewServer(
	checkoutUC usecase.CheckoutUseCase,
	webhookUC usecase.WebhookUseCase,
	subUC usecase.SubscriptionUseCase,
	catalogUC usecase.CatalogUseCase,
	userUC usecase.UserUseCase,
	auth *AuthManager,
	allowedOrigins []string,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		checkoutUC: checkoutUC,
		webhookUC:  webhookUC,
		subUC:      subUC,
		catalogUC:  catalogUC,
		userUC:     userUC,
		auth:       auth,
		origins:    allowedOrigins,
		log:        &l,
	}
}

// Router builds the route tree. Webhook endpoints stay outside the
// auth guard: the provider does not hold a user token.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return Chain(next,
			Recover(s.log),
			TraceID(),
			RequestLog(s.log),
			Metrics(),
			CORS(s.origins),
			Timeout(30*time.Second),
		)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// Provider-facing, unauthenticated.
		r.Post("/mercadopago/webhooks", s.handleWebhook(s.webhookUC.HandlePaymentNotification))
		r.Post("/mercadopago/subscription/webhooks", s.handleWebhook(s.webhookUC.HandleSubscriptionNotification))

		// Public catalog reads.
		r.Get("/products", s.handleListProducts)
		r.Get("/products/{id}", s.handleGetProduct)
		r.Get("/services", s.handleListServices)
		r.Get("/services/{id}", s.handleGetService)

		// Everything below requires a verified user token.
		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/mercadopago/create-preference", s.handleCreatePreference)
			r.Post("/mercadopago/subscription", s.handleCreateSubscription)

			r.Get("/purchases", s.handleListPurchases)
			r.Get("/purchases/failed", s.handleListFailedPurchases)
			r.Get("/purchases/{id}", s.handleGetPurchase)
			r.Get("/transactions", s.handleListTransactions)

			r.Get("/subscriptions/status", s.handleSubscriptionStatus)
			r.Delete("/subscriptions", s.handleCancelSubscription)

			r.Post("/products", s.handleCreateProduct)
			r.Put("/products/{id}", s.handleUpdateProduct)
			r.Delete("/products/{id}", s.handleDeleteProduct)

			r.Post("/services", s.handleCreateService)
			r.Put("/services/{id}", s.handleUpdateService)
			r.Delete("/services/{id}", s.handleDeleteService)

			r.Get("/users/{id}", s.handleGetUser)
			r.Patch("/users/{id}", s.handlePatchUser)
		})
	})

	return r
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := r.Context()
		ctx = logging.WithUserID(ctx, claims.Subject)
		ctx = withClaims(ctx, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
