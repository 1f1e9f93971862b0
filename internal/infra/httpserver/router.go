package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hashicorp/go-hclog"

	appai "github.com/Zeeeepa/graph-sitter-sub004/internal/application/ai"
	appanalyses "github.com/Zeeeepa/graph-sitter-sub004/internal/application/analyses"
	domai "github.com/Zeeeepa/graph-sitter-sub004/internal/domain/ai"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/analyses"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/codebase"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/insights"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/issues"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/domain/tracker"
	"github.com/Zeeeepa/graph-sitter-sub004/internal/middleware"
)

const maxBodyBytes = 1 << 20

// Options configures the router's middleware stack.
type Options struct {
	APIKeys           map[string]string
	CORSOrigins       []string
	AllowLocalSources bool
	Limiter           *middleware.RateLimiter
	Metrics           *middleware.Metrics
	Health            map[string]middleware.HealthChecker
	Readiness         *middleware.Readiness
	Logger            hclog.Logger
}

type Router struct {
	analysesSvc *appanalyses.Service
	aiSvc       *appai.Service
	opts        Options
	logger      hclog.Logger
}

func NewRouter(analysesSvc *appanalyses.Service, aiSvc *appai.Service, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = middleware.NewMetrics()
	}
	if opts.Readiness == nil {
		opts.Readiness = &middleware.Readiness{}
		opts.Readiness.SetReady(true)
	}
	r := &Router{analysesSvc: analysesSvc, aiSvc: aiSvc, opts: opts, logger: opts.Logger}

	mux := chi.NewRouter()
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))
	mux.Use(middleware.Logging(opts.Logger.Named("http")))
	mux.Use(opts.Metrics.Middleware)
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/ready", opts.Readiness.Handler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", opts.Metrics.Handler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(middleware.RequireTenant)
		if opts.Limiter != nil {
			rt.Use(opts.Limiter.Middleware)
		}
		rt.Post("/analyses", r.wrap(r.handleTrigger))
		rt.Get("/analyses", r.wrap(r.handleList))
		rt.Get("/analyses/latest", r.wrap(r.handleLatest))
		rt.Get("/analyses/{id}", r.wrap(r.handleGet))
		rt.Post("/analyses/{id}/retry", r.wrap(r.handleRetry))
		rt.Get("/analyses/{id}/errors", r.wrap(r.handleErrors))
		rt.Get("/analyses/{id}/dead-code", r.wrap(r.handleDeadCode))
		rt.Get("/analyses/{id}/blast-radius", r.wrap(r.handleBlastRadius))
		rt.Post("/analyses/{id}/publish", r.wrap(r.handlePublish))
		rt.Get("/dashboard/{id}", r.wrap(r.handleDashboard))
		rt.Get("/issues/{id}", r.wrap(r.handleIssues))
		rt.Get("/summary", r.wrap(r.handleSummary))
		rt.Post("/ai/explain", r.wrap(r.handleExplain))
		rt.Get("/ai/insights", r.wrap(r.handleInsights))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequest marks malformed input caught in the transport layer.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return badRequest{msg: fmt.Sprintf(format, args...)}
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status, msg := statusOf(err)
		if status == http.StatusInternalServerError {
			r.logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
			msg = "internal server error"
		}
		writeJSON(w, status, map[string]string{"error": msg})
	}
}

func statusOf(err error) (int, string) {
	var br badRequest
	switch {
	case errors.As(err, &br), errors.Is(err, analyses.ErrInvalidRequest), errors.Is(err, codebase.ErrAmbiguousSymbol):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, analyses.ErrNotFound), errors.Is(err, insights.ErrNotFound), errors.Is(err, codebase.ErrSymbolNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domai.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "ai quota exceeded"
	case errors.Is(err, domai.ErrDisabled), errors.Is(err, tracker.ErrNotConfigured):
		return http.StatusNotImplemented, err.Error()
	case errors.Is(err, analyses.ErrSnapshotUnavailable):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func decode(req *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(req.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return invalid("invalid JSON body: %v", err)
	}
	return nil
}

func analysisID(req *http.Request) (analyses.ID, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return "", badRequest{msg: err.Error()}
	}
	return analyses.ID(id), nil
}

func queryInt(req *http.Request, name string) (int, error) {
	v := req.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, invalid("%s must be a non-negative integer", name)
	}
	return n, nil
}

func paging(req *http.Request) (int, int, error) {
	page, err := queryInt(req, "page")
	if err != nil {
		return 0, 0, err
	}
	size, err := queryInt(req, "page_size")
	if err != nil {
		return 0, 0, err
	}
	if page == 0 {
		page = 1
	}
	return page, middleware.ValidateLimit(size), nil
}

// POST /v1/{tenant}/analyses
func (r *Router) handleTrigger(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		Source    string         `json:"source"`
		Branch    string         `json:"branch"`
		CommitSHA string         `json:"commit_sha"`
		Metadata  map[string]any `json:"metadata"`
		Wait      bool           `json:"wait"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	body.Source = middleware.SanitizeString(body.Source)
	if err := middleware.ValidateSource(body.Source, r.opts.AllowLocalSources); err != nil {
		return badRequest{msg: err.Error()}
	}
	cmd := appanalyses.TriggerCommand{
		TenantID:  tenant,
		Source:    body.Source,
		Branch:    middleware.SanitizeString(body.Branch),
		CommitSHA: middleware.SanitizeString(body.CommitSHA),
		Metadata:  body.Metadata,
	}

	if body.Wait {
		a, err := r.analysesSvc.Trigger(req.Context(), cmd)
		if err != nil && (a == nil || a.Status != analyses.StatusFailed) {
			return err
		}
		return writeJSON(w, http.StatusOK, a)
	}

	a, err := r.analysesSvc.Enqueue(req.Context(), cmd)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusAccepted, map[string]any{
		"id":       a.ID,
		"status":   a.Status,
		"tenant":   tenant,
		"source":   a.Source,
		"branch":   a.Branch,
		"commit":   a.CommitSHA,
		"message":  "analysis started in background",
		"queuedAt": a.TriggeredAt,
	})
}

// GET /v1/{tenant}/analyses?page=&page_size=&status=&source=&branch=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	page, size, err := paging(req)
	if err != nil {
		return err
	}
	q := req.URL.Query()
	f := analyses.Filter{
		Status: strings.ToLower(q.Get("status")),
		Source: middleware.SanitizeString(q.Get("source")),
		Branch: middleware.SanitizeString(q.Get("branch")),
	}
	switch analyses.Status(f.Status) {
	case "", analyses.StatusQueued, analyses.StatusRunning, analyses.StatusSuccess, analyses.StatusFailed:
	default:
		return invalid("unknown status %q", f.Status)
	}
	res, err := r.analysesSvc.List(req.Context(), chi.URLParam(req, "tenant"), f, page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/{tenant}/analyses/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	limit, err := queryInt(req, "limit")
	if err != nil {
		return err
	}
	list, err := r.analysesSvc.Latest(req.Context(), chi.URLParam(req, "tenant"), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/{tenant}/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	a, err := r.analysesSvc.Get(req.Context(), chi.URLParam(req, "tenant"), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// POST /v1/{tenant}/analyses/{id}/retry
func (r *Router) handleRetry(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	a, err := r.analysesSvc.EnqueueRetry(req.Context(), chi.URLParam(req, "tenant"), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusAccepted, a)
}

// GET /v1/{tenant}/analyses/{id}/errors
func (r *Router) handleErrors(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	sum, err := r.analysesSvc.ErrorSummary(req.Context(), chi.URLParam(req, "tenant"), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sum)
}

// GET /v1/{tenant}/analyses/{id}/dead-code
func (r *Router) handleDeadCode(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	dead, err := r.analysesSvc.DeadCode(req.Context(), chi.URLParam(req, "tenant"), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"total": len(dead), "symbols": dead})
}

// GET /v1/{tenant}/analyses/{id}/blast-radius?symbol=&depth=
func (r *Router) handleBlastRadius(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	symbol := req.URL.Query().Get("symbol")
	if err := middleware.ValidateSymbol(symbol); err != nil {
		return badRequest{msg: err.Error()}
	}
	depth, err := queryInt(req, "depth")
	if err != nil {
		return err
	}
	br, err := r.analysesSvc.BlastRadius(req.Context(), chi.URLParam(req, "tenant"), id, symbol, depth)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, br)
}

// POST /v1/{tenant}/analyses/{id}/publish
// Body: {"repo": "owner/name"}
func (r *Router) handlePublish(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	var body struct {
		Repo string `json:"repo"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	if err := middleware.ValidateRepo(body.Repo); err != nil {
		return badRequest{msg: err.Error()}
	}
	url, err := r.analysesSvc.Publish(req.Context(), chi.URLParam(req, "tenant"), id, body.Repo)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// GET /v1/{tenant}/dashboard/{id}
func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	d, err := r.analysesSvc.Dashboard(req.Context(), chi.URLParam(req, "tenant"), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, d)
}

// GET /v1/{tenant}/issues/{id}?severity=&category=&file=&page=&page_size=
func (r *Router) handleIssues(w http.ResponseWriter, req *http.Request) error {
	id, err := analysisID(req)
	if err != nil {
		return err
	}
	page, size, err := paging(req)
	if err != nil {
		return err
	}
	q := req.URL.Query()
	f := issues.Filter{
		Severity: q.Get("severity"),
		Category: middleware.SanitizeString(q.Get("category")),
		File:     middleware.SanitizeString(q.Get("file")),
	}
	if err := middleware.ValidateSeverity(f.Severity); err != nil {
		return badRequest{msg: err.Error()}
	}
	res, err := r.analysesSvc.Issues(req.Context(), chi.URLParam(req, "tenant"), id, f, page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/{tenant}/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	days, err := queryInt(req, "days")
	if err != nil {
		return err
	}
	sum, err := r.analysesSvc.Summary(req.Context(), chi.URLParam(req, "tenant"), middleware.ValidateDays(days))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, sum)
}

// POST /v1/{tenant}/ai/explain
// Body: {"analysis_id": "<id>"}
func (r *Router) handleExplain(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		AnalysisID string `json:"analysis_id"`
	}
	if err := decode(req, &body); err != nil {
		return err
	}
	if err := middleware.ValidateAnalysisID(body.AnalysisID); err != nil {
		return badRequest{msg: err.Error()}
	}
	in, err := r.aiSvc.Explain(req.Context(), chi.URLParam(req, "tenant"), analyses.ID(body.AnalysisID))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusCreated, in)
}

// GET /v1/{tenant}/ai/insights?page=&page_size=
func (r *Router) handleInsights(w http.ResponseWriter, req *http.Request) error {
	page, size, err := paging(req)
	if err != nil {
		return err
	}
	list, err := r.aiSvc.List(req.Context(), chi.URLParam(req, "tenant"), page, size)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}
