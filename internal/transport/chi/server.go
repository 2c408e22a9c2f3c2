// Package chi exposes the search, citation and answer services over HTTP.
package chi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bylawbot/internal/domain"
	"github.com/kailas-cloud/bylawbot/internal/domain/search/query"
	"github.com/kailas-cloud/bylawbot/internal/metrics"
	"github.com/kailas-cloud/bylawbot/internal/usecase/citation"
	healthuc "github.com/kailas-cloud/bylawbot/internal/usecase/health"
	searchuc "github.com/kailas-cloud/bylawbot/internal/usecase/search"
)

// Searcher runs bylaw searches (ISP).
type Searcher interface {
	Search(ctx context.Context, q query.Query) (searchuc.Response, error)
}

// Annotator splits text into plain runs and citations (ISP).
type Annotator interface {
	Segments(text string) []citation.Segment
}

// HealthChecker reports component health (ISP).
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers.
type Server struct {
	search        Searcher
	annotator     Annotator
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, annotator Annotator, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search:    search,
		annotator: annotator,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrSearchFailed, http.StatusBadGateway, codeSearchUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeSearchUnavailable),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, codeSearchUnavailable),
	}
	return s
}

// RouterConfig holds the middleware settings of the router.
type RouterConfig struct {
	APIKeys []string
}

// Router builds the chi router with recovery, request ids, canonical
// request logs, auth and metrics.
func (s *Server) Router(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(cfg.APIKeys))
	r.Use(metrics.Middleware("/metrics"))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed", nil)
	})

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Post("/citations/annotate", s.Annotate)
		r.Get("/answers", s.GetAnswer)
		r.Get("/answers/topics", s.ListAnswerTopics)
		r.Get("/bylaws", s.ListBylaws)
	})
	return r
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.requestLogger(r)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error", nil)
}
