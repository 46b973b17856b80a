// Package chi is the thin HTTP service layer over the retrieval core. It
// parses caller context from headers, shapes responses, and maps sentinel
// errors to statuses; all semantics live in the usecase packages.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/groundline-ai/groundline/internal/domain"
	"github.com/groundline-ai/groundline/internal/domain/query"
	logpkg "github.com/groundline-ai/groundline/internal/logger"
	askuc "github.com/groundline-ai/groundline/internal/usecase/ask"
	corpusuc "github.com/groundline-ai/groundline/internal/usecase/corpus"
	healthuc "github.com/groundline-ai/groundline/internal/usecase/health"
)

// Caller context headers, set by the external authentication layer.
const (
	headerRegion = "X-Caller-Region"
	headerPHI    = "X-Phi-Clearance"
	headerPII    = "X-Pii-Clearance"
)

// SnapshotInfo yields the current snapshot for the status endpoint.
type SnapshotInfo interface {
	Current() (SnapshotResponse, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server hosts the HTTP API.
type Server struct {
	ask           *askuc.Service
	corpus        *corpusuc.Service
	snapshot      SnapshotInfo
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ask *askuc.Service,
	corpus *corpusuc.Service,
	snapshot SnapshotInfo,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ask:      ask,
		corpus:   corpus,
		snapshot: snapshot,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, CodeIndexUnavailable),
		sentinelHandler(domain.ErrBudgetExceeded, http.StatusUnprocessableEntity, CodeBudgetExceeded),
		sentinelHandler(domain.ErrProviderError, http.StatusBadGateway, CodeProviderError),
	}
	return s
}

// Routes mounts the API on a chi router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/ask", s.handleAsk)
	r.Post("/v1/route", s.handleRoute)
	r.Post("/v1/corpus", s.handleCorpus)
	r.Get("/v1/snapshot", s.handleSnapshot)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	res, err := s.ask.Ask(r.Context(), req.Query, parseCaller(r))
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	profile := res.Confidence
	writeJSON(w, http.StatusOK, AskResponse{
		Answer:     res.Answer,
		Confidence: toConfidenceDTO(&profile),
		Candidates: toCandidateDTOs(res.Candidates),
		Denials:    toDenialDTOs(res.Denials),
		Loaded:     toLoadedDTO(res.Loaded),
	})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req RouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}

	cands, err := s.ask.Route(r.Context(), req.Query, parseCaller(r))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if req.TopK > 0 && len(cands) > req.TopK {
		cands = cands[:req.TopK]
	}

	writeJSON(w, http.StatusOK, RouteResponse{Candidates: toCandidateDTOs(cands)})
}

func (s *Server) handleCorpus(w http.ResponseWriter, r *http.Request) {
	var req CorpusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Records) == 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "records are required")
		return
	}

	snap, err := s.corpus.Publish(r.Context(), req.Records)
	if err != nil {
		s.logger.Warn("corpus publish rejected", zap.Error(err))
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, SnapshotResponse{
		Version:  snap.Version(),
		Sections: snap.NumSections(),
		Terms:    snap.NumTerms(),
		BuiltAt:  snap.BuiltAt(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	info, err := s.snapshot.Current()
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for name, result := range report.Checks {
		checks[name] = string(result)
	}
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{Status: string(report.Status), Checks: checks})
}

// handleError walks the sentinel handlers; unmatched errors become 500
// and are logged with the request-scoped logger.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	logpkg.FromContext(r.Context()).Error("unhandled error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternal, "internal error")
}

// sentinelHandler maps a sentinel error to a status and code.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

// parseCaller builds the caller context from request headers.
func parseCaller(r *http.Request) query.Caller {
	return query.NewCaller(
		r.Header.Get(headerRegion),
		r.Header.Get(headerPHI) == "true",
		r.Header.Get(headerPII) == "true",
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: msg})
}
