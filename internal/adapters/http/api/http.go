// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/diploma/internal/domain/credits"
	"github.com/okian/diploma/internal/domain/model"
	"golang.org/x/time/rate"
)

const (
	defaultMaxCohortLimit = 100
	defaultTopSubjects    = 3
	maxBodyBytes          = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	CatalogDependencies
	ProgressDependencies
	TranscriptDependencies
	StudentDependencies
	CohortDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	catalogHandler    *CatalogHandler
	progressHandler   *ProgressHandler
	transcriptHandler *TranscriptHandler
	studentHandler    *StudentHandler
	cohortHandler     *CohortHandler
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler

	maxCohortLimit int
	topSubjects    int
	limiter        *rate.Limiter
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxCohortLimit caps GET /cohort?limit.
func WithMaxCohortLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxCohortLimit = n
		}
	}
}

// WithDefaultTopSubjects sets the top-subjects length used when a progress
// request does not specify one.
func WithDefaultTopSubjects(n int) Option {
	return func(s *Server) {
		s.topSubjects = n
	}
}

// WithRateLimit enables a shared token bucket for all routes except /healthz.
// rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxCohortLimit: defaultMaxCohortLimit,
		topSubjects:    defaultTopSubjects,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.catalogHandler = NewCatalogHandler(deps)
	s.progressHandler = NewProgressHandler(deps, s.topSubjects)
	s.transcriptHandler = NewTranscriptHandler(deps)
	s.studentHandler = NewStudentHandler(deps)
	s.cohortHandler = NewCohortHandler(deps, s.maxCohortLimit)
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	limit := RateLimitMiddleware(s.limiter)

	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(limit(s.statsHandler.HandleStats), "stats"))
	mux.HandleFunc("/catalog", MetricsMiddleware(limit(s.catalogHandler.HandleGetCatalog), "catalog"))
	mux.HandleFunc("/progress", MetricsMiddleware(limit(s.progressHandler.HandlePostProgress), "progress"))
	mux.HandleFunc("/transcripts", MetricsMiddleware(limit(s.transcriptHandler.HandlePostTranscript), "transcripts"))
	mux.HandleFunc("/students/", MetricsMiddleware(limit(s.studentHandler.HandleGetStudent), "students"))
	mux.HandleFunc("/cohort", MetricsMiddleware(limit(s.cohortHandler.HandleGetCohort), "cohort"))
}

// xpPayload carries XP per subject as JSON numbers or numeric strings.
type xpPayload map[string]json.RawMessage

// parse converts the payload into an XPMap. A nil payload stays nil.
func (p xpPayload) parse(catalog *credits.Catalog) (credits.XPMap, error) {
	if p == nil {
		return nil, nil
	}
	text := make(map[string]string, len(p))
	for k, v := range p {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			text[k] = s
			continue
		}
		text[k] = string(bytes.TrimSpace(v))
	}
	return catalog.ParseXPMap(text)
}

type progressRequest struct {
	Verified xpPayload `json:"verified"`
	Pending  xpPayload `json:"pending"`
	Top      *int      `json:"top"`
}

type transcriptRequest struct {
	SubmissionID string    `json:"submission_id"`
	StudentID    string    `json:"student_id"`
	Verified     xpPayload `json:"verified"`
	Pending      xpPayload `json:"pending"`
}

func (t transcriptRequest) transcript(catalog *credits.Catalog) (model.Transcript, error) {
	verified, err := t.Verified.parse(catalog)
	if err != nil {
		return model.Transcript{}, err
	}
	pending, err := t.Pending.parse(catalog)
	if err != nil {
		return model.Transcript{}, err
	}
	return model.Transcript{
		SubmissionID: t.SubmissionID,
		StudentID:    t.StudentID,
		Verified:     verified,
		Pending:      pending,
	}, nil
}

type ackResponse struct {
	Status       string `json:"status"`
	SubmissionID string `json:"submission_id"`
	Duplicate    bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError classifies err and writes the matching status and code.
func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if s, ok := w.(errorCodeSetter); ok {
		s.setErrorCode(code)
	}
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
