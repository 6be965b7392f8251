package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/carequery/internal/domain"
	"github.com/kailas-cloud/carequery/internal/domain/answer"
	"github.com/kailas-cloud/carequery/internal/domain/search/request"
	"github.com/kailas-cloud/carequery/internal/domain/taxonomy"
	domusage "github.com/kailas-cloud/carequery/internal/domain/usage"
	"github.com/kailas-cloud/carequery/internal/logger"
	healthuc "github.com/kailas-cloud/carequery/internal/usecase/health"
)

// maxBodyBytes caps the query request body.
const maxBodyBytes = 64 << 10

// statusClientClosedRequest is the non-standard status for a request the caller abandoned.
const statusClientClosedRequest = 499

// QueryService answers questions.
type QueryService interface {
	Execute(ctx context.Context, req request.Request) (answer.Result, error)
	ExampleQueries() []string
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Counter reports the number of indexed documents.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// UsageService reports token usage per provider.
type UsageService interface {
	GetReports(ctx context.Context, period domusage.Period) []domusage.Report
}

// StatsInfo describes the vector index for GET /api/stats.
type StatsInfo struct {
	Dimension int
	Index     string
	Driver    string
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers.
type Server struct {
	query         QueryService
	health        HealthService
	counter       Counter
	usage         UsageService
	stats         StatsInfo
	limits        request.Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	query QueryService,
	health HealthService,
	counter Counter,
	usage UsageService,
	stats StatsInfo,
	limits request.Limits,
	logger *zap.Logger,
) *Server {
	s := &Server{
		query:   query,
		health:  health,
		counter: counter,
		usage:   usage,
		stats:   stats,
		limits:  limits,
		logger:  logger,
	}
	// Order matters: a budget rejection arrives wrapped in a stage failure.
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusTooManyRequests, codeQuotaExceeded),
		sentinelHandler(domain.ErrRetrievalFailed, http.StatusServiceUnavailable, codeSearchUnavailable),
		sentinelHandler(domain.ErrGenerationFailed, http.StatusBadGateway, codeGenerationUnavailable),
		sentinelHandler(context.Canceled, statusClientClosedRequest, codeRequestCancelled),
	}
	return s
}

// Query handles POST /api/query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var body queryRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body")
		return
	}

	req, err := request.New(request.Params{
		Question:       body.Question,
		TopK:           body.TopK,
		Domain:         body.DomainFilter,
		SourceType:     body.SourceTypeFilter,
		Classification: body.ClassificationFilter,
	}, s.limits)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.query.Execute(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queryToResponse(res))
}

// ExampleQueries handles GET /api/example-queries.
func (s *Server) ExampleQueries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, exampleQueriesResponse{Queries: s.query.ExampleQueries()})
}

// Health handles GET /health and GET /api/health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{
		Status:      string(report.Status),
		Checks:      checks,
		VectorCount: report.VectorCount,
	})
}

// Stats handles GET /api/stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	n, err := s.counter.Count(r.Context())
	if err != nil {
		logger.FromContext(r.Context()).Error("Vector count failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternal, "failed to retrieve index statistics")
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{
		TotalVectorCount: n,
		Dimension:        s.stats.Dimension,
		Index:            s.stats.Index,
		Driver:           s.stats.Driver,
	})
}

// Domains handles GET /api/domains.
func (s *Server) Domains(w http.ResponseWriter, _ *http.Request) {
	resp := domainsResponse{}
	for _, t := range taxonomy.Tags() {
		resp.Domains = append(resp.Domains, string(t))
	}
	for _, st := range taxonomy.SourceTypes() {
		resp.SourceTypes = append(resp.SourceTypes, string(st))
	}
	for _, c := range taxonomy.Classifications() {
		resp.Classifications = append(resp.Classifications, string(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Sources handles GET /api/sources.
func (s *Server) Sources(w http.ResponseWriter, _ *http.Request) {
	catalog := taxonomy.Sources()
	resp := sourcesResponse{Sources: make([]sourceInfo, 0, len(catalog))}
	for _, src := range catalog {
		resp.Sources = append(resp.Sources, sourceInfo{
			ID:             src.ID,
			Name:           src.Name,
			Domain:         string(src.Domain),
			SourceType:     string(src.SourceType),
			Classification: string(src.Classification),
			Filepath:       src.Path,
			FileFormat:     src.Format,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Usage handles GET /api/usage.
func (s *Server) Usage(w http.ResponseWriter, r *http.Request) {
	period, ok := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Code: codeValidation, Message: "period must be day or month", Field: "period",
		})
		return
	}
	writeJSON(w, http.StatusOK, usageResponse{
		Period:  string(period),
		Reports: usageToResponse(s.usage.GetReports(r.Context(), period)),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// validationHandler reports the violated field. Validation messages never carry provider text.
func validationHandler(w http.ResponseWriter, err error) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Code:    codeValidation,
		Message: ve.Field + " " + ve.Reason,
		Field:   ve.Field,
	})
	return true
}

// sentinelHandler matches a single sentinel and replies with its message only.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeJSON(w, status, errorResponse{Code: code, Message: sentinel.Error(), Stage: stageOf(err)})
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("Request failed", zap.Error(err))
			return
		}
	}
	log.Error("Internal error", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Code:    codeInternal,
		Message: "internal error",
		Stage:   stageOf(err),
	})
}

// stageOf names the pipeline stage that failed, or "" outside the pipeline.
func stageOf(err error) string {
	var se *domain.StageError
	if errors.As(err, &se) {
		return string(se.Stage)
	}
	return ""
}
