package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MackenzieBowal/windwatch/internal/adapter/geojson"
	"github.com/MackenzieBowal/windwatch/internal/domain"
	"github.com/MackenzieBowal/windwatch/internal/mapmodel"
	"github.com/MackenzieBowal/windwatch/internal/observability"
)

// defaultSiteCount is used when POST /api/sites has no count.
const defaultSiteCount = 10

// maxBodyBytes bounds request bodies on the API routes.
const maxBodyBytes = 1 << 16

// Server exposes health, readiness and metrics endpoints plus the map API
// used by the renderer. Every model access goes through mu.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu    sync.Mutex
	model *mapmodel.Model
}

// NewServer creates an HTTP server. The /api routes answer 503 until
// SetModel is called.
func NewServer(addr string, ready sharedobs.ReadinessChecker, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:  logger,
		metrics: metrics,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/grid", s.withModel(s.handleGrid))
	mux.HandleFunc("GET /api/coefficients", s.withModel(s.handleGetCoefficients))
	mux.HandleFunc("PATCH /api/coefficients", s.withModel(s.handlePatchCoefficients))
	mux.HandleFunc("PUT /api/layer", s.withModel(s.handlePutLayer))
	mux.HandleFunc("POST /api/sites", s.withModel(s.handleSites))

	return s
}

// SetModel installs the map served by the /api routes.
func (s *Server) SetModel(m *mapmodel.Model) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = m
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type modelHandler func(w http.ResponseWriter, r *http.Request, m *mapmodel.Model)

// withModel holds mu for the whole request so model operations never
// interleave.
func (s *Server) withModel(h modelHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.model == nil {
			writeError(w, http.StatusServiceUnavailable, errors.New("map has not been built yet"))
			return
		}
		h(w, r, s.model)
	}
}

func (s *Server) handleGrid(w http.ResponseWriter, _ *http.Request, m *mapmodel.Model) {
	w.Header().Set("Content-Type", "application/geo+json")
	if err := geojson.Encode(w, m.Snapshot()); err != nil {
		s.logger.Error("encode grid failed", "error", err)
	}
}

func (s *Server) handleGetCoefficients(w http.ResponseWriter, _ *http.Request, m *mapmodel.Model) {
	sharedobs.WriteJSON(w, http.StatusOK, m.Coefficients())
}

func (s *Server) handlePatchCoefficients(w http.ResponseWriter, r *http.Request, m *mapmodel.Model) {
	var u domain.CoefficientUpdate
	if err := decodeBody(w, r, &u); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	next, err := m.SetCoefficients(u)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	s.metrics.Recomputations.Inc()
	sharedobs.WriteJSON(w, http.StatusOK, next)
}

type layerRequest struct {
	Layer string `json:"layer"`
}

func (s *Server) handlePutLayer(w http.ResponseWriter, r *http.Request, m *mapmodel.Model) {
	var req layerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := m.SelectLayer(req.Layer); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, layerRequest{Layer: string(m.Layer())})
}

type sitesRequest struct {
	Count int `json:"count"`
}

type sitesResponse struct {
	Sites []int `json:"sites"`
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request, m *mapmodel.Model) {
	req := sitesRequest{Count: defaultSiteCount}
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if req.Count <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("count must be positive"))
		return
	}
	ids, err := m.FindBestSites(r.Context(), req.Count)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, sitesResponse{Sites: ids})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotImplemented):
		return http.StatusNotImplemented
	case errors.Is(err, domain.ErrInvalidCoefficients), errors.Is(err, domain.ErrUnknownLayer):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
