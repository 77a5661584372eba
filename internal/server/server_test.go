package server

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestHandleReportSuccess(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	data, err := os.ReadFile(filepath.Join("..", "..", "test", "test_config.yaml"))
	if err != nil {
		t.Fatalf("failed to read test config: %v", err)
	}

	rr := performUpload(t, handler, string(data), "test_config.yaml")

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected request ID header")
	}

	var resp reportResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Report == nil {
		t.Fatal("expected report in response")
	}
	if resp.Report.Seed != 42 {
		t.Fatalf("expected seed 42, got %d", resp.Report.Seed)
	}
	if len(resp.Report.Overbooking.Curve) != 21 {
		t.Fatalf("expected 21 curve points, got %d", len(resp.Report.Overbooking.Curve))
	}
	if !resp.Report.Overbooking.SafeLimitFeasible {
		t.Fatal("expected a feasible safe limit")
	}
	if len(resp.Report.ROI.Scenarios) != 3 {
		t.Fatalf("expected 3 scenarios, got %d", len(resp.Report.ROI.Scenarios))
	}
	if resp.CSV == "" {
		t.Fatal("expected CSV data in response")
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}
	if resp.ConfigYAML == "" {
		t.Fatal("expected config YAML in response")
	}
}

func TestHandleReportKeepsRequestID(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected propagated request ID, got %q", got)
	}
}

func TestHandleEvaluateSuccess(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	payload := map[string]interface{}{
		"config": map[string]interface{}{
			"overbooking": map[string]interface{}{
				"capacity":          100,
				"showUpProbability": 0.9,
				"maxSales":          110,
				"sold":              105,
				"riskCeiling":       0.05,
			},
			"roi": map[string]interface{}{
				"sampleSize": 1000,
				"seed":       7,
			},
		},
	}

	rr := performJSON(t, handler, payload, "/api/evaluate")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp reportResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Report.Seed != 7 {
		t.Fatalf("expected seed 7, got %d", resp.Report.Seed)
	}
	if resp.Report.Overbooking.Parameters.Capacity != 100 {
		t.Fatalf("expected capacity 100, got %d", resp.Report.Overbooking.Parameters.Capacity)
	}
	if len(resp.Report.Overbooking.Curve) != 11 {
		t.Fatalf("expected 11 curve points, got %d", len(resp.Report.Overbooking.Curve))
	}
	if len(resp.Report.ROI.Summary.ROIValues) != 1000 {
		t.Fatalf("expected 1000 ROI values, got %d", len(resp.Report.ROI.Summary.ROIValues))
	}
	if !strings.Contains(resp.ConfigYAML, "capacity: 100") {
		t.Fatalf("expected echoed config YAML, got %q", resp.ConfigYAML)
	}
}

func TestHandleEvaluateKeepsLargeSeedExact(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	// 2^53+1 is not representable as a float64.
	const seed uint64 = 9007199254740993
	payload := map[string]interface{}{
		"roi": map[string]interface{}{"sampleSize": 100, "seed": seed},
	}

	rr := performJSON(t, handler, payload, "/api/evaluate")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp reportResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Report.Seed != seed {
		t.Fatalf("expected seed %d, got %d", seed, resp.Report.Seed)
	}
	if !strings.Contains(resp.ConfigYAML, "seed: 9007199254740993") {
		t.Fatalf("expected exact seed in config YAML, got %q", resp.ConfigYAML)
	}
}

func TestHandleJSONBodyTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetUploadSizeBytes(64)
	handler := NewHandler(zap.NewNop(), cfg, "test")

	payload := map[string]interface{}{"padding": strings.Repeat("a", 128)}

	for _, path := range []string{"/api/evaluate", "/api/overbooking/curve", "/api/roi/simulate"} {
		t.Run(path, func(t *testing.T) {
			rr := performJSON(t, handler, payload, path)
			if rr.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandleEvaluateInvalidConfigPayload(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	rr := performJSON(t, handler, map[string]interface{}{"config": "nope"}, "/api/evaluate")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandleEvaluateInvalidParameter(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	payload := map[string]interface{}{
		"overbooking": map[string]interface{}{"capacity": 0},
	}

	rr := performJSON(t, handler, payload, "/api/evaluate")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp["error"], "capacity") {
		t.Fatalf("expected capacity in error message, got %q", resp["error"])
	}
}

func TestHandleReportMethodNotAllowed(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestHandleReportUploadTooLarge(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetUploadSizeBytes(64)
	handler := NewHandler(zap.NewNop(), cfg, "test")

	rr := performUpload(t, handler, strings.Repeat("a", 128), "config.yaml")

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp["error"], "upload exceeds limit") {
		t.Fatalf("expected upload limit error message, got %q", resp["error"])
	}
}

func TestHandleReportMissingFile(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/report", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp["error"] != "missing scenario file" {
		t.Fatalf("expected missing file error, got %q", resp["error"])
	}
}

func TestHandleReportInvalidYAML(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	rr := performUpload(t, handler, "overbooking: [", "config.yaml")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp["error"], "error reading config data") {
		t.Fatalf("expected parse error message, got %q", resp["error"])
	}
}

func TestHandleReportSampleSizeLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.MaxSampleSize = 100
	handler := NewHandler(zap.NewNop(), cfg, "test")

	rr := performUpload(t, handler, "roi:\n  sampleSize: 101\n", "config.yaml")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp["error"], "exceeds server limit") {
		t.Fatalf("expected limit error message, got %q", resp["error"])
	}
}

func TestHandleReportBinsLimit(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	rr := performUpload(t, handler, "roi:\n  bins: 5000\n", "config.yaml")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if !strings.Contains(resp["error"], "bins") {
		t.Fatalf("expected bins in error message, got %q", resp["error"])
	}
}

func TestHandleCurve(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	payload := map[string]interface{}{
		"capacity":          120,
		"showUpProbability": 0.88,
		"maxSales":          140,
		"riskCeiling":       0.07,
	}

	rr := performJSON(t, handler, payload, "/api/overbooking/curve")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp curveResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Overbooking.Curve) != 21 {
		t.Fatalf("expected 21 curve points, got %d", len(resp.Overbooking.Curve))
	}
	if resp.Overbooking.Curve[0].Probability != 0 {
		t.Fatalf("expected zero risk at capacity, got %v", resp.Overbooking.Curve[0].Probability)
	}
	for i := 1; i < len(resp.Overbooking.Curve); i++ {
		if resp.Overbooking.Curve[i].Probability < resp.Overbooking.Curve[i-1].Probability {
			t.Fatalf("curve decreases at %d", resp.Overbooking.Curve[i].Sales)
		}
	}
}

func TestHandleCurveEmptyBodyUsesDefaults(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	req := httptest.NewRequest(http.MethodPost, "/api/overbooking/curve", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp curveResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Overbooking.Parameters.Capacity != 120 {
		t.Fatalf("expected default capacity 120, got %d", resp.Overbooking.Parameters.Capacity)
	}
}

func TestHandleCurveRejects(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.MaxSalesSpan = 10
	handler := NewHandler(zap.NewNop(), cfg, "test")

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{"Unknown field", map[string]interface{}{"seats": 120}},
		{"Show-up out of range", map[string]interface{}{"capacity": 120, "maxSales": 125, "showUpProbability": 1.5}},
		{"Max sales below capacity", map[string]interface{}{"capacity": 120, "maxSales": 100}},
		{"Span over limit", map[string]interface{}{"capacity": 120, "maxSales": 140}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performJSON(t, handler, tt.payload, "/api/overbooking/curve")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandleSimulate(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	payload := map[string]interface{}{
		"sampleSize": 2000,
		"seed":       11,
		"bins":       10,
	}

	first := performJSON(t, handler, payload, "/api/roi/simulate")
	second := performJSON(t, handler, payload, "/api/roi/simulate")
	if first.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", first.Code, first.Body.String())
	}

	var a, b simulateResponse
	if err := json.Unmarshal(first.Body.Bytes(), &a); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if err := json.Unmarshal(second.Body.Bytes(), &b); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if a.Seed != 11 {
		t.Fatalf("expected seed 11, got %d", a.Seed)
	}
	if len(a.ROI.Summary.ROIValues) != 2000 {
		t.Fatalf("expected 2000 ROI values, got %d", len(a.ROI.Summary.ROIValues))
	}
	if len(a.ROI.Histogram.Counts) != 10 {
		t.Fatalf("expected 10 bins, got %d", len(a.ROI.Histogram.Counts))
	}
	if a.ROI.Summary.MeanROI != b.ROI.Summary.MeanROI {
		t.Fatalf("expected identical means for the same seed, got %v and %v",
			a.ROI.Summary.MeanROI, b.ROI.Summary.MeanROI)
	}
}

func TestHandleSimulateInvalid(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	tests := []struct {
		name    string
		payload map[string]interface{}
	}{
		{"Zero investment", map[string]interface{}{"investment": 0}},
		{"Bins over server limit", map[string]interface{}{"bins": 1001}},
		{"Bins at MaxInt", map[string]interface{}{"bins": math.MaxInt}},
		{"Zero bins", map[string]interface{}{"bins": 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performJSON(t, handler, tt.payload, "/api/roi/simulate")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestHandlePointROI(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantROI    float64
	}{
		{"Reference inputs", "revenue=80000&cost=10000&investment=50000", http.StatusOK, 140},
		{"Break even", "revenue=60000&cost=10000&investment=50000", http.StatusOK, 100},
		{"Zero investment", "revenue=80000&cost=10000&investment=0", http.StatusBadRequest, 0},
		{"Missing cost", "revenue=80000&investment=50000", http.StatusBadRequest, 0},
		{"Not a number", "revenue=abc&cost=10000&investment=50000", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/roi/point?"+tt.query, nil)
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp map[string]float64
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if math.Abs(resp["roi"]-tt.wantROI) > 1e-9 {
				t.Fatalf("expected ROI %v, got %v", tt.wantROI, resp["roi"])
			}
		})
	}
}

func TestHandleVersion(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "  ")

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["version"] != "dev" {
		t.Fatalf("expected fallback version dev, got %q", resp["version"])
	}
}

func TestMetricsExposed(t *testing.T) {
	handler := NewHandler(zap.NewNop(), nil, "test")

	rr := performJSON(t, handler, map[string]interface{}{"capacity": 120, "maxSales": 125}, "/api/overbooking/curve")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metricsRR := httptest.NewRecorder()
	handler.ServeHTTP(metricsRR, req)

	if metricsRR.Code != http.StatusOK {
		t.Fatalf("expected metrics status 200, got %d", metricsRR.Code)
	}
	body, err := io.ReadAll(metricsRR.Body)
	if err != nil {
		t.Fatalf("failed to read metrics: %v", err)
	}

	expected := []string{
		`airline_analytics_requests_total{route="/api/overbooking/curve",status="200"} 1`,
		"airline_analytics_curve_points_total 6",
	}
	for _, want := range expected {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func performUpload(t *testing.T, handler http.Handler, content, filename string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/report", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func performJSON(t *testing.T, handler http.Handler, payload map[string]interface{}, path string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}
