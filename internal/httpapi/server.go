package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mpijobctl/internal/mpijob"
)

// Service defines the job operations required by the HTTP API layer.
// *mpijob.Client implements it.
type Service interface {
	Create(ctx context.Context, opts mpijob.CreateOptions) (*mpijob.Job, error)
	Get(ctx context.Context, name, namespace string) (*mpijob.Job, error)
	List(ctx context.Context, namespace, labelSelector string) ([]*mpijob.Job, error)
	Delete(ctx context.Context, name, namespace string, opts mpijob.DeleteOptions) (bool, error)
}

var _ Service = (*mpijob.Client)(nil)

// NewMux builds the REST router over svc.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: orDefault(corsAllowedMethods, []string{"GET", "POST", "DELETE", "OPTIONS"}),
			AllowedHeaders: orDefault(corsAllowedHeaders, []string{"Accept", "Content-Type", "X-Log-Level", "X-Request-Id"}),
			MaxAge:         300,
		}))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc}
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/mpijobs", h.list)
		r.Route("/namespaces/{namespace}/mpijobs", func(r chi.Router) {
			r.Post("/", h.create)
			r.Get("/", h.list)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", h.get)
				r.Delete("/", h.delete)
				r.Get("/status", h.status)
				r.Get("/events", h.events)
				r.Get("/logs", h.logs)
				r.Get("/logs/launcher", h.launcherLogs)
				r.Get("/logs/worker/{index}", h.workerLogs)
			})
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if readyCheck != nil {
			if err := readyCheck(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte("not ready: " + err.Error()))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ready"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}
