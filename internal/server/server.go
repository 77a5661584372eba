package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/iwvelando/airline-analytics/internal/config"
	"github.com/iwvelando/airline-analytics/internal/report"
	"github.com/iwvelando/airline-analytics/internal/roi"
	"github.com/iwvelando/airline-analytics/pkg/output"
	"github.com/iwvelando/airline-analytics/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RequestIDHeader carries the per-request identifier on every response.
const RequestIDHeader = "X-Request-ID"

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	limits        Limits
	version       string
	metrics       *metrics
}

// NewHandler constructs the HTTP handler that serves the analytics API.
func NewHandler(logger *zap.Logger, cfg *Config, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: cfg.UploadSizeBytes(),
		limits:        cfg.Limits,
		version:       trimmedVersion,
		metrics:       newMetrics(),
	}

	r := mux.NewRouter()
	r.Use(h.instrument)

	// Scenario file upload
	r.HandleFunc("/api/report", h.handleReport).Methods(http.MethodPost)

	// Scenario as JSON, for dashboards that edit parameters live
	r.HandleFunc("/api/evaluate", h.handleEvaluate).Methods(http.MethodPost)

	r.HandleFunc("/api/overbooking/curve", h.handleCurve).Methods(http.MethodPost)
	r.HandleFunc("/api/roi/simulate", h.handleSimulate).Methods(http.MethodPost)
	r.HandleFunc("/api/roi/point", h.handlePointROI).Methods(http.MethodGet)
	r.HandleFunc("/api/version", h.handleVersion).Methods(http.MethodGet)
	r.Handle("/metrics", h.metrics.handler()).Methods(http.MethodGet)

	return r
}

type reportResponse struct {
	Report     *report.Report `json:"report"`
	CSV        string         `json:"csv"`
	Duration   string         `json:"duration"`
	ConfigYAML string         `json:"configYaml,omitempty"`
}

type curveResponse struct {
	Overbooking *report.OverbookingReport `json:"overbooking"`
	Duration    string                    `json:"duration"`
}

type simulateResponse struct {
	Seed     uint64            `json:"seed"`
	ROI      *report.ROIReport `json:"roi"`
	Duration string            `json:"duration"`
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// instrument tags each request with an ID and records its outcome.
func (h *handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		elapsed := time.Since(start)
		h.metrics.Requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		h.metrics.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())

		h.logger.Debug("request served",
			zap.String("op", "server.instrument"),
			zap.String("requestId", requestID),
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("duration", elapsed),
		)
	})
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"

	start := time.Now()
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing scenario file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read scenario: %v", err), op)
		return
	}

	h.runReport(r.Context(), w, buf.Bytes(), start, op)
}

func (h *handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEvaluate"

	start := time.Now()

	h.limitBody(w, r)

	// Numbers stay exact so large seeds survive the trip through YAML.
	var payload map[string]interface{}
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		h.respondDecodeError(w, "failed to decode scenario", err, op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	configPayload := payload
	if rawConfig, ok := payload["config"]; ok {
		cfgMap, ok := rawConfig.(map[string]interface{})
		if !ok {
			h.respondErrorWithOp(w, http.StatusBadRequest, "invalid config payload: expected object", op)
			return
		}
		configPayload = cfgMap
	}

	configBytes, err := yaml.Marshal(exactNumbers(configPayload))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode scenario: %v", err), op)
		return
	}

	h.runReport(r.Context(), w, configBytes, start, op)
}

func (h *handler) runReport(ctx context.Context, w http.ResponseWriter, configBytes []byte, start time.Time, op string) {
	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	if err := h.checkLimits(cfg.Overbooking, cfg.ROI); err != nil {
		h.respondComputeError(w, err, op)
		return
	}

	rep, err := report.Evaluate(ctx, h.logger, *cfg, report.ResolveSeed(cfg.ROI.Seed))
	if err != nil {
		h.respondComputeError(w, err, op)
		return
	}
	h.observe(&rep.Overbooking, &rep.ROI)

	elapsed := time.Since(start)
	h.logger.Info("report computed",
		zap.String("op", op),
		zap.String("id", rep.ID),
		zap.Int("warnings", len(rep.Warnings)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, reportResponse{
		Report:     rep,
		CSV:        output.CsvString(rep),
		Duration:   elapsed.String(),
		ConfigYAML: string(configBytes),
	})
}

func (h *handler) handleCurve(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCurve"

	start := time.Now()
	h.limitBody(w, r)
	params := config.Default().Overbooking
	if err := decodeOptionalJSON(r.Body, &params); err != nil {
		h.respondDecodeError(w, "failed to decode parameters", err, op)
		return
	}
	if err := h.checkLimits(params, config.ROIConfig{}); err != nil {
		h.respondComputeError(w, err, op)
		return
	}

	result, err := report.EvaluateOverbooking(params)
	if err != nil {
		h.respondComputeError(w, err, op)
		return
	}
	h.observe(result, nil)

	h.writeJSON(w, http.StatusOK, curveResponse{
		Overbooking: result,
		Duration:    time.Since(start).String(),
	})
}

func (h *handler) handleSimulate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSimulate"

	start := time.Now()
	h.limitBody(w, r)
	params := config.Default().ROI
	if err := decodeOptionalJSON(r.Body, &params); err != nil {
		h.respondDecodeError(w, "failed to decode parameters", err, op)
		return
	}
	if err := h.checkLimits(config.OverbookingConfig{}, params); err != nil {
		h.respondComputeError(w, err, op)
		return
	}

	seed := report.ResolveSeed(params.Seed)
	result, err := report.EvaluateROI(r.Context(), params, seed)
	if err != nil {
		h.respondComputeError(w, err, op)
		return
	}
	h.observe(nil, result)

	h.writeJSON(w, http.StatusOK, simulateResponse{
		Seed:     seed,
		ROI:      result,
		Duration: time.Since(start).String(),
	})
}

func (h *handler) handlePointROI(w http.ResponseWriter, r *http.Request) {
	const op = "server.handlePointROI"

	query := r.URL.Query()
	values := make(map[string]float64, 3)
	for _, name := range []string{"revenue", "cost", "investment"} {
		raw := strings.TrimSpace(query.Get(name))
		if raw == "" {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("missing query parameter %q", name), op)
			return
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("invalid %s %q: %v", name, raw, err), op)
			return
		}
		values[name] = v
	}

	value, err := roi.PointROI(values["revenue"], values["cost"], values["investment"])
	if err != nil {
		h.respondComputeError(w, err, op)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]float64{"roi": value})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// checkLimits rejects requests whose curve or sample would exceed the
// configured caps. Zero-valued blocks are not checked.
func (h *handler) checkLimits(ob config.OverbookingConfig, r config.ROIConfig) error {
	if span := ob.MaxSales - ob.Capacity; h.limits.MaxSalesSpan > 0 && span >= h.limits.MaxSalesSpan {
		return fmt.Errorf("%w: sales range of %d points exceeds server limit %d",
			validation.ErrInvalidParameter, span+1, h.limits.MaxSalesSpan)
	}
	if h.limits.MaxSampleSize > 0 && r.SampleSize > h.limits.MaxSampleSize {
		return fmt.Errorf("%w: sampleSize %d exceeds server limit %d",
			validation.ErrInvalidParameter, r.SampleSize, h.limits.MaxSampleSize)
	}
	if h.limits.MaxBins > 0 && r.Bins > h.limits.MaxBins {
		return fmt.Errorf("%w: bins %d exceeds server limit %d",
			validation.ErrInvalidParameter, r.Bins, h.limits.MaxBins)
	}
	return nil
}

func (h *handler) observe(ob *report.OverbookingReport, r *report.ROIReport) {
	if ob != nil {
		h.metrics.CurvePoints.Add(float64(len(ob.Curve)))
		if !ob.SafeLimitFeasible {
			h.metrics.InfeasibleLimits.Inc()
		}
	}
	if r != nil {
		h.metrics.SimulationDraws.Add(float64(r.Inputs.SampleSize))
	}
}

// limitBody caps a JSON request body at the upload size.
func (h *handler) limitBody(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
}

func (h *handler) respondDecodeError(w http.ResponseWriter, msg string, err error, op string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("request body exceeds limit of %d bytes", h.maxUploadSize), op)
		return
	}
	h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", msg, err), op)
}

// exactNumbers replaces json.Number values with int64, uint64 or float64 so
// that YAML encodes them as plain scalars without losing integer precision.
func exactNumbers(v interface{}) interface{} {
	switch value := v.(type) {
	case map[string]interface{}:
		for k, item := range value {
			value[k] = exactNumbers(item)
		}
		return value
	case []interface{}:
		for i, item := range value {
			value[i] = exactNumbers(item)
		}
		return value
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return n
		}
		if n, err := strconv.ParseUint(value.String(), 10, 64); err == nil {
			return n
		}
		if f, err := value.Float64(); err == nil {
			return f
		}
		return value.String()
	default:
		return v
	}
}

// decodeOptionalJSON decodes body into dst, leaving dst untouched for an
// empty body.
func decodeOptionalJSON(body io.Reader, dst interface{}) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *handler) respondComputeError(w http.ResponseWriter, err error, op string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, validation.ErrInvalidParameter):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	h.respondErrorWithOp(w, status, err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("analytics request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
