package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"delivery-dispatch/internal/http/handlers"
	mw "delivery-dispatch/internal/http/middleware"
	"delivery-dispatch/internal/http/middleware/ratelimit"
	"delivery-dispatch/internal/logx"
)

// New constructs a chi-based http.Handler with base middleware and routes.
func New(
	logger logx.Logger,
	base *handlers.Handlers,
	order *handlers.OrderHandler,
	delivery *handlers.DeliveryHandler,
	limiter *ratelimit.Middleware,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(5 * time.Second))
	r.Use(mw.Observability(logger))
	if limiter != nil {
		r.Use(limiter.Handler())
	}

	r.Get("/ping", base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(base.HealthcheckHead))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Route("/order", func(o chi.Router) {
			o.Put("/update-status", order.UpdateStatus)
			o.Get("/my-orders", order.MyOrders)
			o.Get("/shop-orders", order.ShopOrders)
			o.Route("/delivery", func(d chi.Router) {
				d.Put("/update-status", order.DeliveryUpdateStatus)
				d.Post("/verify-otp", order.VerifyOtp)
			})
		})
		api.Route("/delivery", func(d chi.Router) {
			d.Post("/broadcast", delivery.Broadcast)
			d.Get("/my-assignments", delivery.MyAssignments)
			d.Post("/accept", delivery.Accept)
			d.Post("/complete", delivery.Complete)
			d.Get("/live-location", delivery.LiveLocation)
		})
		api.Post("/user/update-location", delivery.UpdateLocation)
	})

	r.NotFound(http.HandlerFunc(base.NotFound))

	return r
}
