// Package api serves the json endpoints the challan web page talks to. Every workflow endpoint is
// guarded by a per-client rate limit and an origin check, state changing endpoints also require
// a CSRF token and deletion runs over the encrypted channel of security.DeleteAuth.
package api

import (
	"net/http"

	"challan-backend/internal/barcode"
	"challan-backend/internal/challan"
	"challan-backend/internal/components/assert"
	"challan-backend/internal/components/chrono"
	"challan-backend/internal/components/telemetry"
	"challan-backend/internal/history"
	"challan-backend/internal/reportproxy"
	"challan-backend/internal/security"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

const DefaultBodyLimit = 1 << 20

type Config struct {
	AllowedOrigins []string `json:"allowed_origins"`
	// BodyLimit caps request bodies in bytes.
	BodyLimit    int64              `json:"body_limit"`
	HistoryLimit int                `json:"history_limit"`
	DefaultLimit security.RateLimit `json:"default_limit"`
	BarcodeLimit security.RateLimit `json:"barcode_limit"`
	CSRFLimit    security.RateLimit `json:"csrf_limit"`
}

// Services are the workflows and guards the handlers call into.
type Services struct {
	Challans   *challan.Service
	Barcodes   *barcode.Service
	Reports    *reportproxy.Proxy
	History    history.Store
	CSRF       *security.CSRF
	DeleteAuth *security.DeleteAuth
}

type Handler struct {
	services Services
	config   Config
	time     chrono.TimeAPI
	tel      telemetry.API

	limiterStores []*security.LRUStore[*rate.Limiter]
	router        chi.Router
}

func withDefaults(config Config) Config {
	if config.BodyLimit <= 0 {
		config.BodyLimit = DefaultBodyLimit
	}
	if config.HistoryLimit <= 0 {
		config.HistoryLimit = history.DefaultPageSize
	}
	if config.DefaultLimit.Burst <= 0 {
		config.DefaultLimit = security.DefaultRateLimit
	}
	if config.BarcodeLimit.Burst <= 0 {
		config.BarcodeLimit = security.BarcodeRateLimit
	}
	if config.CSRFLimit.Burst <= 0 {
		config.CSRFLimit = security.CSRFRateLimit
	}
	return config
}

func NewHandler(services Services, config Config, timeAPI chrono.TimeAPI, tel telemetry.API) *Handler {
	assert.NotNil(services.Challans, "challans")
	assert.NotNil(services.Barcodes, "barcodes")
	assert.NotNil(services.Reports, "reports")
	assert.NotNil(services.History, "history")
	assert.NotNil(services.CSRF, "csrf")
	assert.NotNil(services.DeleteAuth, "delete auth")
	assert.NotNil(timeAPI, "timeAPI")
	assert.NotNil(tel, "tel")

	h := &Handler{
		services: services,
		config:   withDefaults(config),
		time:     timeAPI,
		tel:      telemetry.NewScopedAPI("api", tel),
	}
	h.router = h.routes()
	return h
}

func (h *Handler) limiter(limit security.RateLimit) *security.Limiter {
	store := security.NewLRUStore[*rate.Limiter](security.DefaultStoreSize, h.time)
	h.limiterStores = append(h.limiterStores, store)
	return security.NewLimiter(store, limit, h.time)
}

func (h *Handler) routes() chi.Router {
	defaultLimit := h.limiter(h.config.DefaultLimit)
	barcodeLimit := h.limiter(h.config.BarcodeLimit)
	csrfLimit := h.limiter(h.config.CSRFLimit)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(h.Logger)
	r.Use(h.Recoverer)
	r.Use(CORS(h.config.AllowedOrigins))
	r.Use(RequestBodyLimit(h.config.BodyLimit))

	r.Get("/api/health", h.health)

	r.With(RateLimit(csrfLimit)).Get("/api/csrf", h.csrf)

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(defaultLimit))
		r.Use(SameOrigin)

		r.Get("/api/history", h.history)
		r.Get("/api/report", h.report)
		r.Get("/api/auth", h.challenge)
		r.Post("/api/auth", h.login)
		r.Post("/api/delete", h.delete)

		r.With(h.RequireCSRF).Post("/api/process", h.process)
	})

	r.With(RateLimit(barcodeLimit), SameOrigin, h.RequireCSRF).Post("/api/barcode", h.barcode)

	return r
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// Sweepers returns the expiring stores owned by the handler so they can be swept periodically.
func (h *Handler) Sweepers() []security.Sweeper {
	out := make([]security.Sweeper, 0, len(h.limiterStores))
	for _, s := range h.limiterStores {
		out = append(out, s)
	}
	return out
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
