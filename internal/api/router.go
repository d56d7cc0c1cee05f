package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/honeynil/BrrowMarketplace/internal/handler"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/auth"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/observability"
	"github.com/honeynil/BrrowMarketplace/internal/infrastructure/redis"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

// SetupRouter mounts the JSON API under /api. metrics may be nil when the
// registry is served on a separate listener.
func SetupRouter(h *handler.Handler, redisClient redis.RedisClient, issuer *auth.TokenIssuer, metrics http.Handler) http.Handler {
	r := mux.NewRouter()
	r.Use(metricsMiddleware)

	if metrics != nil {
		r.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	h.RegisterPublicRoutes(api)

	protected := api.NewRoute().Subrouter()
	protected.Use(auth.AuthMiddleware(redisClient, issuer, handler.WriteError))
	h.RegisterProtectedRoutes(protected)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		handler.WriteError(w, req, pkgerrors.ErrNotFound)
	})

	return otelhttp.NewHandler(r, "brrow-api")
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)
		if recorder.status == 0 {
			recorder.status = http.StatusOK
		}

		observability.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(recorder.status)).Inc()
		observability.HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}
