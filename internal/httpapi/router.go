package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"venue-crm/internal/metrics"
)

type RouterConfig struct {
	AllowedOrigins []string
	// Gatherer backs /metrics. The route is not mounted when nil.
	Gatherer prometheus.Gatherer
	Metrics  *metrics.Metrics
	Logger   zerolog.Logger
}

// NewRouter mounts every route of h behind request ids, panic recovery,
// access logging and CORS.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(cfg.Logger, cfg.Metrics))

	r.Get("/health", h.Health)
	r.Post("/twilio/webhook", h.TwilioWebhook)
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.GetState)
		r.Get("/availability", h.GetAvailability)
		r.Post("/reset", h.Reset)
		r.Post("/simulate/pricing-guide", h.SimulatePricingGuide)
		r.Post("/book", h.BookTour)
		r.Post("/confirm-event", h.ConfirmEvent)
		r.Post("/invoice", h.CreateInvoice)
		r.Get("/invoice/{id}", h.GetInvoice)
		r.Post("/invoice/{id}/pay", h.PayInvoice)
	})

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(r)
}
