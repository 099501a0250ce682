// Package server exposes the monitoring API over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"sitewatch/internal/checks"
	"sitewatch/internal/logging"
	"sitewatch/internal/probe"
	"sitewatch/internal/store"
)

const (
	// defaultLatestLimit caps /api/checks/latest when no limit is given.
	defaultLatestLimit = 20

	// summaryWindow is how many recent check results the summary covers.
	summaryWindow = 200

	// maxCollectionNames bounds the diagnostic endpoint's collection list.
	maxCollectionNames = 10
)

// Server is the HTTP API surface. It wires the store, the probe executor and
// the result recorder behind a chi router.
type Server struct {
	cfg      Config
	router   chi.Router
	logger   logging.Logger
	store    store.Store
	prober   *probe.Prober
	recorder *checks.Recorder
	validate *validator.Validate
}

// NewServer creates a Server with its own Prober and Recorder.
func NewServer(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}
	if cfg.Store == nil {
		return nil, errors.New("server: store is required")
	}

	s := &Server{
		cfg:      cfg,
		router:   chi.NewRouter(),
		logger:   logger,
		store:    cfg.Store,
		prober:   probe.New(logger, cfg.ProbeClient),
		recorder: checks.NewRecorder(cfg.Store, logger),
		validate: validator.New(),
	}

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/api/categories", s.optionsHandler("GET, POST"))
	r.Options("/api/websites", s.optionsHandler("GET, POST"))
	r.Options("/api/websites/{id}", s.optionsHandler("GET"))
	r.Options("/api/check/{id}", s.optionsHandler("POST"))
	r.Options("/api/checks/latest", s.optionsHandler("GET"))
	r.Options("/api/summary", s.optionsHandler("GET"))

	r.Get("/", s.handleRoot)
	r.Get("/test", s.handleDiagnostics)

	r.Get("/api/categories", s.handleListCategories)
	r.Post("/api/categories", s.handleCreateCategory)

	r.Get("/api/websites", s.handleListWebsites)
	r.Post("/api/websites", s.handleCreateWebsite)
	r.Get("/api/websites/{id}", s.handleGetWebsite)

	r.Post("/api/check/{id}", s.handleRunCheck)
	r.Get("/api/checks/latest", s.handleLatestChecks)
	r.Get("/api/summary", s.handleSummary)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler. Every request gets an id that appears in
// the response headers and the request log.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	w.Header().Set("X-Request-ID", requestID)

	fields := []logging.Field{
		{Key: "request_id", Value: requestID},
		{Key: "method", Value: r.Method},
		{Key: "path", Value: r.URL.Path},
	}
	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.Field{Key: "query", Value: q.Encode()})
	}
	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeStoreError maps store sentinel errors onto HTTP statuses. Anything
// that is not a sentinel is a store failure and surfaces as a 500.
func (s *Server) writeStoreError(w http.ResponseWriter, err error, kind string) {
	switch {
	case errors.Is(err, store.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "invalid ID format")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, kind+" not found")
	default:
		s.logger.Error("store error", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// --- HTTP handlers ---

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Website Monitoring API running"})
}

// Categories

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var body CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.validate.Struct(body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	cat := &store.Category{Name: body.Name, Color: body.Color}
	if err := s.store.InsertCategory(r.Context(), cat); err != nil {
		s.writeStoreError(w, err, "category")
		return
	}
	s.logger.Info("created category", logging.Field{Key: "id", Value: cat.ID.Hex()})
	writeJSON(w, http.StatusCreated, cat)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.ListCategories(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "category")
		return
	}
	if cats == nil {
		cats = []store.Category{}
	}
	writeJSON(w, http.StatusOK, cats)
}

// Websites

func (s *Server) handleCreateWebsite(w http.ResponseWriter, r *http.Request) {
	var body CreateWebsiteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := s.validate.Struct(body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	web := &store.Website{
		Name:            body.Name,
		URL:             body.URL,
		CategoryID:      body.CategoryID,
		Keywords:        body.Keywords,
		IntervalSeconds: 300,
		IsActive:        true,
	}
	if web.Keywords == nil {
		web.Keywords = []string{}
	}
	if body.IntervalSeconds != nil {
		web.IntervalSeconds = *body.IntervalSeconds
	}
	if body.IsActive != nil {
		web.IsActive = *body.IsActive
	}

	if err := s.store.InsertWebsite(r.Context(), web); err != nil {
		s.writeStoreError(w, err, "website")
		return
	}
	s.logger.Info("created website",
		logging.Field{Key: "id", Value: web.ID.Hex()},
		logging.Field{Key: "url", Value: web.URL})
	writeJSON(w, http.StatusCreated, web)
}

func (s *Server) handleListWebsites(w http.ResponseWriter, r *http.Request) {
	webs, err := s.store.ListWebsites(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "website")
		return
	}
	if webs == nil {
		webs = []store.Website{}
	}
	writeJSON(w, http.StatusOK, webs)
}

func (s *Server) handleGetWebsite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	web, err := s.store.GetWebsite(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "website")
		return
	}
	writeJSON(w, http.StatusOK, web)
}

// Checks

func (s *Server) handleRunCheck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	web, err := s.store.GetWebsite(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "website")
		return
	}

	// Probe failures never surface here; they are encoded in the outcome.
	outcome := s.prober.Run(web.URL, web.Keywords)

	result, err := s.recorder.Record(r.Context(), id, outcome)
	if err != nil {
		s.writeStoreError(w, err, "check result")
		return
	}
	writeJSON(w, http.StatusOK, CheckResponse{Result: result})
}

func (s *Server) handleLatestChecks(w http.ResponseWriter, r *http.Request) {
	limit := int64(defaultLatestLimit)
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if v, err := strconv.ParseInt(ls, 10, 64); err == nil && v > 0 {
			limit = v
		}
	}
	websiteID := r.URL.Query().Get("website_id")

	results, err := s.store.ListCheckResults(r.Context(), websiteID, limit)
	if err != nil {
		s.writeStoreError(w, err, "check result")
		return
	}
	if results == nil {
		results = []store.CheckResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

// Summary

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalSites, err := s.store.CountWebsites(ctx)
	if err != nil {
		s.writeStoreError(w, err, "website")
		return
	}
	totalCategories, err := s.store.CountCategories(ctx)
	if err != nil {
		s.writeStoreError(w, err, "category")
		return
	}
	recent, err := s.store.ListCheckResults(ctx, "", summaryWindow)
	if err != nil {
		s.writeStoreError(w, err, "check result")
		return
	}

	summary := SummaryResponse{
		TotalSites:      totalSites,
		TotalCategories: totalCategories,
		RecentChecks:    len(recent),
	}
	var rtSum, rtCount int
	for _, res := range recent {
		if res.IsUp {
			summary.Up++
		} else {
			summary.Down++
		}
		if res.ResponseTimeMS != nil && *res.ResponseTimeMS != 0 {
			rtSum += *res.ResponseTimeMS
			rtCount++
		}
	}
	if rtCount > 0 {
		avg := rtSum / rtCount
		summary.AvgResponseTimeMS = &avg
	}

	writeJSON(w, http.StatusOK, summary)
}

// Diagnostics

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"backend":           "running",
		"database":          "not available",
		"connection_status": "not connected",
		"collections":       []string{},
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		resp["database"] = "error: " + truncate(err.Error(), 50)
	} else {
		resp["connection_status"] = "connected"
		names, err := s.store.CollectionNames(ctx)
		if err != nil {
			resp["database"] = "connected but error: " + truncate(err.Error(), 50)
		} else {
			if len(names) > maxCollectionNames {
				names = names[:maxCollectionNames]
			}
			resp["database"] = "connected"
			resp["collections"] = names
		}
	}

	resp["database_url"] = setFlag(s.cfg.DatabaseURLSet)
	resp["database_name"] = setFlag(s.cfg.DatabaseNameSet)

	writeJSON(w, http.StatusOK, resp)
}

func setFlag(set bool) string {
	if set {
		return "set"
	}
	return "not set"
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}
