// Package server exposes the transformation engine over HTTP: one endpoint
// turns a raw vendor payload into a canonical result envelope, plus source
// discovery and the usual health probes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/speedwagon-io/odse/internal/config"
	"github.com/speedwagon-io/odse/internal/lib/logger/sl"
	"github.com/speedwagon-io/odse/internal/model"
	"github.com/speedwagon-io/odse/internal/oem"
	"github.com/speedwagon-io/odse/internal/sink"
	"github.com/speedwagon-io/odse/internal/store"
	"github.com/speedwagon-io/odse/internal/validate"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

type ComponentHealth struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status     Status            `json:"status"`
	Components []ComponentHealth `json:"components"`
	Timestamp  time.Time         `json:"timestamp"`
}

type HealthChecker interface {
	Name() string
	Check(ctx context.Context) (Status, string)
}

type errorResponse struct {
	Error     string   `json:"error"`
	Supported []string `json:"supported,omitempty"`
}

type transformResponse struct {
	*model.ResultEnvelope
	Validation []validate.Result `json:"validation,omitempty"`
}

// Server serves the transform API. fleet, st and sinks may be nil; the
// matching features are simply off.
type Server struct {
	log      *slog.Logger
	cfg      config.ServerConfig
	fleet    *config.FleetConfig
	store    store.Store
	sinks    *sink.Fanout
	server   *http.Server
	checkers []HealthChecker
	mu       sync.RWMutex
}

func New(log *slog.Logger, cfg config.ServerConfig, fleet *config.FleetConfig, st store.Store, sinks *sink.Fanout) *Server {
	return &Server{
		log:      log,
		cfg:      cfg,
		fleet:    fleet,
		store:    st,
		sinks:    sinks,
		checkers: make([]HealthChecker, 0),
	}
}

func (s *Server) AddChecker(checker HealthChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers = append(s.checkers, checker)
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.routes(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Info("starting http server", slog.String("address", s.cfg.Address))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("http server error", sl.Err(err))
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Post("/v1/transform/{source}", s.handleTransform)
	r.Get("/v1/sources", s.handleSources)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/live", s.handleLive)

	return r
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
		return
	}

	opts, capacityKW, err := s.transformOptions(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	level, validateRequested, err := validationLevel(r.URL.Query().Get("validate"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	records, err := oem.Transform(string(body), source, opts)
	if err != nil {
		var unknown *oem.UnknownSourceError
		if errors.As(err, &unknown) {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:     unknown.Error(),
				Supported: unknown.Known,
			})
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}

	envelope := model.NewResultEnvelope(source, opts.AssetID, records)

	resp := transformResponse{ResultEnvelope: envelope}
	if validateRequested {
		resp.Validation = validate.Records(records, validate.Options{
			Level:      level,
			CapacityKW: capacityKW,
		})
	}

	if s.store != nil {
		if err := s.store.Save(r.Context(), envelope); err != nil {
			s.log.Error("failed to archive envelope",
				slog.String("envelope_id", envelope.ID), sl.Err(err))
		}
	}

	if s.sinks != nil {
		s.sinks.Publish(r.Context(), envelope)
	}

	s.log.Debug("transformed payload",
		slog.String("source", source),
		slog.Int("records", len(records)))

	writeJSON(w, http.StatusOK, resp)
}

// transformOptions builds the engine options from the query string, filling
// gaps from the fleet config when the asset is known there.
func (s *Server) transformOptions(r *http.Request) (oem.Options, float64, error) {
	q := r.URL.Query()

	opts := oem.Options{
		AssetID:  q.Get("asset_id"),
		Timezone: q.Get("timezone"),
	}

	var err error
	if opts.IntervalMinutes, err = intQuery(q, "interval_minutes"); err != nil {
		return oem.Options{}, 0, err
	}
	if opts.ExpectedDevices, err = intQuery(q, "expected_devices"); err != nil {
		return oem.Options{}, 0, err
	}

	var capacityKW float64
	if s.fleet != nil && opts.AssetID != "" {
		if asset, ok := s.fleet.Asset(opts.AssetID); ok {
			if opts.Timezone == "" {
				opts.Timezone = asset.Timezone
			}
			if opts.IntervalMinutes == 0 {
				opts.IntervalMinutes = asset.IntervalMinutes
			}
			if opts.ExpectedDevices == 0 {
				opts.ExpectedDevices = asset.ExpectedDevices
			}
			capacityKW = asset.CapacityKW
		}
	}

	return opts, capacityKW, nil
}

func intQuery(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func validationLevel(raw string) (validate.Level, bool, error) {
	switch strings.ToLower(raw) {
	case "":
		return "", false, nil
	case "schema":
		return validate.LevelSchema, true, nil
	case "semantic", "true", "1":
		return validate.LevelSemantic, true, nil
	default:
		return "", false, fmt.Errorf("validate must be %q or %q", validate.LevelSchema, validate.LevelSemantic)
	}
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"sources": oem.Sources()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	checkers := make([]HealthChecker, len(s.checkers))
	copy(checkers, s.checkers)
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:     StatusHealthy,
		Components: make([]ComponentHealth, 0, len(checkers)),
		Timestamp:  time.Now().UTC(),
	}

	for _, checker := range checkers {
		status, message := checker.Check(ctx)
		response.Components = append(response.Components, ComponentHealth{
			Name:    checker.Name(),
			Status:  status,
			Message: message,
		})

		if status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		} else if status == StatusDegraded && response.Status == StatusHealthy {
			response.Status = StatusDegraded
		}
	}

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, statusCode, response)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// StoreHealthChecker reports the record archive's health through its count
// query.
type StoreHealthChecker struct {
	countFunc func(ctx context.Context) (int64, error)
}

func NewStoreHealthChecker(countFunc func(ctx context.Context) (int64, error)) *StoreHealthChecker {
	return &StoreHealthChecker{countFunc: countFunc}
}

func (c *StoreHealthChecker) Name() string {
	return "store"
}

func (c *StoreHealthChecker) Check(ctx context.Context) (Status, string) {
	if _, err := c.countFunc(ctx); err != nil {
		return StatusUnhealthy, err.Error()
	}
	return StatusHealthy, ""
}
