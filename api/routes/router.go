package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dealerdesk/dealerdesk-backend/api/controllers"
	"github.com/dealerdesk/dealerdesk-backend/api/middleware"
	"github.com/dealerdesk/dealerdesk-backend/internal/vehicles"
	"github.com/dealerdesk/dealerdesk-backend/pkg/config"
	"github.com/dealerdesk/dealerdesk-backend/pkg/db"
	"github.com/dealerdesk/dealerdesk-backend/pkg/logger"
	"github.com/dealerdesk/dealerdesk-backend/pkg/metrics"
	pkgredis "github.com/dealerdesk/dealerdesk-backend/pkg/redis"
)

// RouterParams collects everything the HTTP surface depends on. The redis
// store and metrics registry may be nil: the idempotency guard and /metrics
// endpoint are then simply not mounted.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *pkgredis.Client
	VehicleService vehicles.Service
	Registry       *prometheus.Registry
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()

	var httpMetrics *metrics.HTTPMetrics
	if p.Registry != nil {
		httpMetrics = metrics.NewHTTPMetrics(p.Registry)
	}

	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.Logger, p.DB, redisPinger(p.Redis)))
	})

	if p.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	var idemStore pkgredis.IdempotencyStore
	if p.Redis != nil {
		idemStore = p.Redis
	}
	idem := middleware.Idempotency(idemStore, p.Config.Idempotency.TTL, p.Logger)

	r.With(idem).Post("/vehicle", controllers.VehicleCreate(p.VehicleService, p.Logger))
	r.Get("/vehicle", controllers.VehicleList(p.VehicleService, p.Logger))
	r.Get("/vehicle/{vehicleId}", controllers.VehicleGet(p.VehicleService, p.Logger))
	r.With(idem).Patch("/vehicle/{vehicleId}", controllers.VehicleUpdate(p.VehicleService, p.Logger))
	r.Get("/vehicle/{vehicleId}/state-log", controllers.VehicleStateLog(p.VehicleService, p.Logger))

	return r
}

func redisPinger(client *pkgredis.Client) db.Pinger {
	if client == nil {
		return nil
	}
	return client
}
