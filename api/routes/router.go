package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/corelia-app/corelia-cart/api/controllers"
	cartcontrollers "github.com/corelia-app/corelia-cart/api/controllers/cart"
	"github.com/corelia-app/corelia-cart/api/middleware"
	cartstore "github.com/corelia-app/corelia-cart/internal/cart"
	checkoutsvc "github.com/corelia-app/corelia-cart/internal/checkout"
	"github.com/corelia-app/corelia-cart/pkg/config"
	"github.com/corelia-app/corelia-cart/pkg/logger"
	pkgredis "github.com/corelia-app/corelia-cart/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	healthDeps map[string]controllers.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	store *cartstore.Store,
	checkoutService checkoutsvc.Service,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, healthDeps))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.Fetch(store, logg))
			r.Delete("/", cartcontrollers.Clear(store, logg))
			r.Post("/items", cartcontrollers.AddItem(store, logg))
			r.Patch("/items/quantity", cartcontrollers.UpdateQuantity(store, logg))
			r.Delete("/items", cartcontrollers.RemoveItem(store, logg))
		})

		r.With(middleware.Idempotency(idempotencyStore, cfg.Checkout.IdempotencyTTL, logg)).
			Post("/checkout", controllers.Checkout(checkoutService, logg))
	})

	return r
}
