package rest

import (
	"net/http"
	"strconv"
	"time"

	"substrate/interfaces/http/rest/handlers"
	"substrate/interfaces/http/rest/middleware"
	"substrate/internal/ratelimit"
	"substrate/pkg/auth"
	"substrate/pkg/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers bundles every HTTP handler the router mounts, constructed by the
// caller's wiring (cmd/api) and handed to NewRouter as one unit so adding a
// handler never touches NewRouter's signature.
type Handlers struct {
	Graph     *handlers.GraphHandler
	Concepts  *handlers.ConceptsHandler
	Review    *handlers.ReviewHandler
	Retrieval *handlers.RetrievalHandler
	Ingest    *handlers.IngestHandler
	Branches  *handlers.BranchesHandler
	Sync      *handlers.SyncHandler
}

// Router creates and configures the HTTP router
type Router struct {
	handlers  Handlers
	validator *auth.JWTValidator
	guard     *ratelimit.Guard
	logger    *zap.Logger
	metrics   *observability.Collector
}

// NewRouter creates a new router instance
func NewRouter(h Handlers, validator *auth.JWTValidator, guard *ratelimit.Guard, logger *zap.Logger, metrics *observability.Collector) *Router {
	return &Router{
		handlers:  h,
		validator: validator,
		guard:     guard,
		logger:    logger,
		metrics:   metrics,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))
	router.Use(versionMiddleware)
	router.Use(rt.metricsMiddleware)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	router.Handle("/metrics", promhttp.HandlerFor(rt.metrics.GetRegistry(), promhttp.HandlerOpts{}))

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		// Apply authentication + per-user LLM rate limiting to every route below
		r.Use(middleware.Authenticate(rt.validator, rt.guard, rt.logger))

		// GraphSpace lifecycle + scope-wide reads
		r.Route("/graphs", func(r chi.Router) {
			r.Get("/", rt.handlers.Graph.ListGraphs)
			r.Post("/", rt.handlers.Graph.CreateGraph)
			r.Route("/{graphID}", func(r chi.Router) {
				r.Patch("/", rt.handlers.Graph.RenameGraph)
				r.Delete("/", rt.handlers.Graph.DeleteGraph)
				r.Post("/select", rt.handlers.Graph.SelectGraph)
				r.Get("/overview", rt.handlers.Graph.Overview)
				r.Get("/neighbors", rt.handlers.Graph.Neighbors)
			})
		})

		// Concepts and their relationships, scoped to the caller's active graph
		r.Route("/concepts", func(r chi.Router) {
			r.Post("/", rt.handlers.Concepts.Create)
			r.Get("/by-name/{name}", rt.handlers.Concepts.GetByName)
			r.Get("/{id}", rt.handlers.Concepts.Get)
			r.Put("/{id}", rt.handlers.Concepts.Update)
			r.Delete("/{id}", rt.handlers.Concepts.Delete)
			r.Post("/{id}/link-cross-graph", rt.handlers.Concepts.LinkCrossGraph)
			r.Post("/relationship", rt.handlers.Concepts.CreateRelationship)
			r.Post("/relationship-by-ids", rt.handlers.Concepts.CreateRelationship)
			r.Post("/relationship/propose", rt.handlers.Concepts.ProposeRelationship)
			r.Delete("/relationship", rt.handlers.Concepts.DeleteRelationship)
		})

		// Proposed-relationship and merge-candidate review queues
		r.Route("/review", func(r chi.Router) {
			r.Get("/relationships", rt.handlers.Review.ListRelationships)
			r.Post("/relationships/accept", rt.handlers.Review.AcceptRelationships)
			r.Post("/relationships/reject", rt.handlers.Review.RejectRelationships)
			r.Post("/relationships/edit", rt.handlers.Review.EditRelationship)
			r.Get("/merges", rt.handlers.Review.ListMerges)
			r.Post("/merges/accept", rt.handlers.Review.AcceptMerges)
			r.Post("/merges/reject", rt.handlers.Review.RejectMerges)
			r.Post("/merges/execute", rt.handlers.Review.ExecuteMerge)
		})

		// Conversational retrieval entry point
		r.Post("/ai/retrieve", rt.handlers.Retrieval.Retrieve)

		// Connector ingestion surfaces, all converging on the ingest pipeline
		r.Post("/web/ingest", rt.handlers.Ingest.Web)
		r.Post("/lectures/ingest", rt.handlers.Ingest.Lectures)
		r.Post("/notion/ingest", rt.handlers.Ingest.Notion)
		r.Post("/finance/ingest", rt.handlers.Ingest.Finance)

		// Contextual branches: sub-conversations anchored to a message span
		r.Route("/contextual-branches", func(r chi.Router) {
			r.Post("/", rt.handlers.Branches.Create)
			r.Get("/messages/{messageID}/branches", rt.handlers.Branches.ListForMessage)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", rt.handlers.Branches.Get)
				r.Delete("/", rt.handlers.Branches.Delete)
				r.Post("/messages", rt.handlers.Branches.AddMessages)
				r.Post("/hints", rt.handlers.Branches.RegenerateHints)
				r.Post("/archive", rt.handlers.Branches.Archive)
			})
		})

		// Offline-client outbox replay and cache-priming
		r.Route("/sync", func(r chi.Router) {
			r.Post("/events", rt.handlers.Sync.ApplyBatch)
			r.Post("/capture-selection", rt.handlers.Sync.CaptureSelection)
		})
		r.Route("/offline", func(r chi.Router) {
			r.Get("/bootstrap", rt.handlers.Sync.Bootstrap)
			r.Get("/manifest", rt.handlers.Sync.Manifest)
			r.Post("/warm", rt.handlers.Sync.Warm)
		})
	})

	return router
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// versionMiddleware adds API version headers to all responses
func versionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-API-Version", "v1")
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware records request counts and latency by route pattern
// (not raw path, to keep the label's cardinality bounded) into the
// Prometheus collector mounted at /metrics.
func (rt *Router) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		rt.metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).Inc()
		rt.metrics.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
