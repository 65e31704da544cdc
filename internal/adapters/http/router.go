package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/metrics"
	"gitlab.com/arvora/api/storefront-service/internal/adapters/middleware"
	"gitlab.com/arvora/api/storefront-service/internal/application"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
)

// RouterDeps bundles everything NewRouter wires together.
type RouterDeps struct {
	Logger          domain.Logger
	AuthService     *application.AuthService
	LoginRateLimit  func(http.Handler) http.Handler
	Cart            *CartHandlers
	Favorites       *FavoritesHandlers
	Profile         *ProfileHandlers
	Promocodes      *PromocodeHandlers
	Orders          *OrderHandlers
	NotifierHandler http.Handler
	ReadyHandler    http.HandlerFunc
}

// NewRouter builds the HTTP surface: public auth endpoints, the authenticated
// resource groups, the admin group, the websocket notifier, and the
// operational endpoints.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(requestCounter)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", XRefreshTokenHeader, "X-Request-ID"},
		ExposedHeaders:   []string{XRefreshTokenHeader, "X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	if deps.ReadyHandler != nil {
		r.Get("/ready", deps.ReadyHandler)
	}
	r.Handle("/metrics", promhttp.Handler())

	authn := middleware.BearerAuthMiddleware(deps.AuthService, deps.Logger)
	adminOnly := middleware.AdminOnlyMiddleware(deps.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if deps.LoginRateLimit != nil {
				r.Use(deps.LoginRateLimit)
			}
			r.Post("/login", LoginHandler(deps.AuthService, deps.Logger))
			r.Post("/refresh", RefreshHandler(deps.AuthService, deps.Logger))
			r.Post("/logout", LogoutHandler(deps.AuthService, deps.Logger))
		})

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", deps.Cart.Read)
				r.Post("/changes", deps.Cart.Change)
				r.Post("/changes/batch", deps.Cart.BatchChange)
				r.Get("/status", deps.Cart.Status)
			})

			r.Route("/favorites", func(r chi.Router) {
				r.Get("/", deps.Favorites.Read)
				r.Post("/changes", deps.Favorites.Change)
				r.Post("/changes/batch", deps.Favorites.BatchChange)
				r.Get("/status", deps.Favorites.Status)
			})

			r.Route("/profile", func(r chi.Router) {
				r.Get("/", deps.Profile.Read)
				r.Post("/changes", deps.Profile.Change)
				r.Post("/changes/batch", deps.Profile.BatchChange)
			})

			r.Route("/promocodes", func(r chi.Router) {
				r.Get("/", deps.Promocodes.Read)
				r.Get("/status", deps.Promocodes.Status)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", deps.Orders.Read)
				r.Post("/", deps.Orders.Place)
				r.Post("/changes", deps.Orders.Change)
				r.Get("/status", deps.Orders.Status)
			})

			if deps.NotifierHandler != nil {
				r.Handle("/ws/updates", deps.NotifierHandler)
			}

			r.Route("/admin", func(r chi.Router) {
				r.Use(adminOnly)
				r.Post("/promocodes/changes", deps.Promocodes.Change)
				r.Post("/promocodes/changes/batch", deps.Promocodes.BatchChange)
				r.Get("/users/status", deps.Profile.Status)
			})
		})
	})

	return r
}

// requestCounter feeds the request counter with method and status class.
func requestCounter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The wrapper hides http.Hijacker, which the websocket upgrade needs.
		if strings.HasPrefix(r.URL.Path, "/api/v1/ws/") {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.HTTPRequestsCounter.WithLabelValues(r.Method, strconv.Itoa(rec.status/100*100)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
