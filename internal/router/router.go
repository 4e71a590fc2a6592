package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"calmi-backend/internal/handlers"
	"calmi-backend/internal/middleware"
)

func New(
	chatHandler *handlers.ChatHandler,
	paystackHandler *handlers.PaystackHandler,
	configHandler *handlers.ConfigHandler,
	chatLimiter *middleware.RateLimiter,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", configHandler.Ping)
		r.Get("/public-config", configHandler.PublicConfig)

		// ──── Chat ────
		r.Group(func(r chi.Router) {
			if chatLimiter != nil {
				r.Use(chatLimiter.Middleware)
			}
			r.Post("/ai-chat", chatHandler.Reply)
		})

		// ──── Payments ────
		r.Route("/paystack", func(r chi.Router) {
			r.Get("/verify", paystackHandler.Verify)
			r.Post("/verify", paystackHandler.Verify)
			r.Post("/webhook", paystackHandler.Webhook)
			r.Get("/donations/{reference}", paystackHandler.Donation)
		})
	})

	return r
}
