package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/go-ttsprep/internal/audio"
	"github.com/example/go-ttsprep/internal/device"
	"github.com/example/go-ttsprep/internal/server"
)

// stubChecker implements server.AudioChecker for tests.
type stubChecker struct {
	err          error
	gotSource    string
	gotThreshold float64
	calls        int
}

func (s *stubChecker) Check(_ context.Context, source string, threshold float64) error {
	s.calls++
	s.gotSource = source
	s.gotThreshold = threshold
	return s.err
}

// stubProber implements device.Prober for tests.
type stubProber struct {
	accels []device.Accelerator
	err    error
}

func (p stubProber) Accelerators(context.Context) ([]device.Accelerator, error) {
	return p.accels, p.err
}

func newTestHandler(checker server.AudioChecker, opts ...server.Option) http.Handler {
	return server.NewHandler(checker, stubProber{}, opts...)
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	return rec
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

// ---------------------------------------------------------------------------
// GET /health
// ---------------------------------------------------------------------------

func TestHealth_Returns200WithStatusOK(t *testing.T) {
	h := newTestHandler(&stubChecker{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("want Content-Type application/json, got %q", ct)
	}

	body := decodeMap(t, rec)
	if body["status"] != "ok" {
		t.Errorf("want status=ok, got %v", body["status"])
	}

	if body["version"] == "" || body["version"] == nil {
		t.Error("want non-empty version")
	}
}

func TestUnknownRoute_Returns404(t *testing.T) {
	h := newTestHandler(&stubChecker{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/unknown", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}

func TestWrongMethod_Returns405(t *testing.T) {
	h := newTestHandler(&stubChecker{})

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/normalize"},
		{http.MethodGet, "/audio/check"},
		{http.MethodPost, "/device"},
		{http.MethodPost, "/health"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))

			if rec.Code != http.StatusMethodNotAllowed {
				t.Fatalf("want 405, got %d", rec.Code)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// POST /normalize
// ---------------------------------------------------------------------------

func TestNormalize_Accepted(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"curly quotes", `{"text":"“Hi”"}`, `"Hi"`},
		{"whitespace", `{"text":"  a\t\tb \n c  "}`, "a b c"},
		{"fullwidth", `{"text":"ＡＢＣ"}`, "ABC"},
		{"japanese", `{"text":"こんにちは"}`, "こんにちは"},
		{"empty", `{"text":""}`, ""},
	}

	h := newTestHandler(&stubChecker{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, "/normalize", tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
			}

			var body struct {
				Text string `json:"text"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}

			if body.Text != tt.want {
				t.Errorf("text = %q; want %q", body.Text, tt.want)
			}
		})
	}
}

func TestNormalize_RejectedListsOffenders(t *testing.T) {
	h := newTestHandler(&stubChecker{})

	rec := post(t, h, "/normalize", `{"text":"Ā x Ā Ж"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want 422, got %d", rec.Code)
	}

	var body struct {
		Error     string `json:"error"`
		Offenders []struct {
			Char      string `json:"char"`
			CodePoint int    `json:"code_point"`
		} `json:"offenders"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if body.Error == "" {
		t.Error("want non-empty error field")
	}

	if len(body.Offenders) != 2 {
		t.Fatalf("want 2 offenders, got %d: %+v", len(body.Offenders), body.Offenders)
	}

	if body.Offenders[0].Char != "Ā" || body.Offenders[0].CodePoint != 256 {
		t.Errorf("offender[0] = %+v; want Ā/256", body.Offenders[0])
	}

	if body.Offenders[1].Char != "Ж" || body.Offenders[1].CodePoint != 0x416 {
		t.Errorf("offender[1] = %+v; want Ж/%d", body.Offenders[1], 0x416)
	}
}

func TestNormalize_BadRequests(t *testing.T) {
	h := newTestHandler(&stubChecker{})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"text":`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, h, "/normalize", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d", rec.Code)
			}

			if decodeMap(t, rec)["error"] == "" {
				t.Error("want non-empty error field")
			}
		})
	}
}

// ---------------------------------------------------------------------------
// POST /audio/check
// ---------------------------------------------------------------------------

func TestAudioCheck_PassReturnsOK(t *testing.T) {
	checker := &stubChecker{}
	h := newTestHandler(checker, server.WithMinDuration(12))

	rec := post(t, h, "/audio/check", `{"source":"/data/ref.wav"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if decodeMap(t, rec)["ok"] != true {
		t.Error("want ok=true")
	}

	if checker.gotSource != "/data/ref.wav" {
		t.Errorf("source = %q; want /data/ref.wav", checker.gotSource)
	}

	if checker.gotThreshold != 12 {
		t.Errorf("threshold = %v; want configured default 12", checker.gotThreshold)
	}
}

func TestAudioCheck_RequestThresholdOverridesDefault(t *testing.T) {
	checker := &stubChecker{}
	h := newTestHandler(checker)

	rec := post(t, h, "/audio/check", `{"source":"a.wav","min_duration":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", rec.Code)
	}

	if checker.gotThreshold != 0 {
		t.Errorf("threshold = %v; want 0", checker.gotThreshold)
	}
}

func TestAudioCheck_TooShortReturns422(t *testing.T) {
	checker := &stubChecker{err: &audio.TooShortError{Seconds: 2.5, Threshold: 30}}
	h := newTestHandler(checker)

	rec := post(t, h, "/audio/check", `{"source":"short.wav"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("want 422, got %d", rec.Code)
	}

	body := decodeMap(t, rec)
	if body["duration"] != 2.5 {
		t.Errorf("duration = %v; want 2.5", body["duration"])
	}

	if body["threshold"] != 30.0 {
		t.Errorf("threshold = %v; want 30", body["threshold"])
	}

	if body["error"] == "" {
		t.Error("want non-empty error field")
	}
}

func TestAudioCheck_FailureStatus(t *testing.T) {
	tests := []struct {
		name   string
		source string
		err    error
		want   int
	}{
		{
			name:   "remote http status",
			source: "https://example.com/ref.wav",
			err:    &audio.HTTPStatusError{URL: "https://example.com/ref.wav", StatusCode: 404, Status: "404 Not Found"},
			want:   http.StatusBadGateway,
		},
		{
			name:   "remote decode",
			source: "http://example.com/ref.wav",
			err:    audio.ErrInvalidWAV,
			want:   http.StatusBadGateway,
		},
		{
			name:   "local decode",
			source: "/data/ref.wav",
			err:    audio.ErrInvalidWAV,
			want:   http.StatusBadRequest,
		},
		{
			name:   "local missing",
			source: "/data/missing.wav",
			err:    errors.New("open /data/missing.wav: no such file or directory"),
			want:   http.StatusBadRequest,
		},
		{
			name:   "deadline",
			source: "https://example.com/slow.wav",
			err:    context.DeadlineExceeded,
			want:   http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&stubChecker{err: tt.err})

			rec := post(t, h, "/audio/check", `{"source":"`+tt.source+`"}`)
			if rec.Code != tt.want {
				t.Fatalf("want %d, got %d", tt.want, rec.Code)
			}

			if decodeMap(t, rec)["error"] == "" {
				t.Error("want non-empty error field")
			}
		})
	}
}

func TestAudioCheck_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing source", `{}`},
		{"negative threshold", `{"source":"a.wav","min_duration":-1}`},
		{"invalid json", `{"source":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &stubChecker{}
			h := newTestHandler(checker)

			rec := post(t, h, "/audio/check", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("want 400, got %d", rec.Code)
			}

			if checker.calls != 0 {
				t.Errorf("checker called %d times; want 0", checker.calls)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// GET /device
// ---------------------------------------------------------------------------

func TestDevice_ReportsSelection(t *testing.T) {
	tests := []struct {
		name       string
		prober     stubProber
		wantDevice string
		wantDType  string
		wantAccels int
	}{
		{"none", stubProber{}, device.DeviceCPU, device.DTypeFloat16, 0},
		{"probe error", stubProber{err: errors.New("boom")}, device.DeviceCPU, device.DTypeFloat16, 0},
		{
			"ampere",
			stubProber{accels: []device.Accelerator{{Index: 0, Name: "NVIDIA A100", Major: 8, Minor: 0}}},
			device.DeviceCUDA, device.DTypeBFloat16, 1,
		},
		{
			"turing",
			stubProber{accels: []device.Accelerator{{Index: 0, Name: "Tesla T4", Major: 7, Minor: 5}}},
			device.DeviceCUDA, device.DTypeFloat16, 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := server.NewHandler(&stubChecker{}, tt.prober)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/device", nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("want 200, got %d", rec.Code)
			}

			var body struct {
				Device       string `json:"device"`
				DType        string `json:"dtype"`
				Accelerators []struct {
					Index             int    `json:"index"`
					Name              string `json:"name"`
					ComputeCapability string `json:"compute_capability"`
				} `json:"accelerators"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}

			if body.Device != tt.wantDevice {
				t.Errorf("device = %q; want %q", body.Device, tt.wantDevice)
			}

			if body.DType != tt.wantDType {
				t.Errorf("dtype = %q; want %q", body.DType, tt.wantDType)
			}

			if len(body.Accelerators) != tt.wantAccels {
				t.Fatalf("accelerators = %d; want %d", len(body.Accelerators), tt.wantAccels)
			}

			if tt.wantAccels > 0 {
				a := tt.prober.accels[0]
				got := body.Accelerators[0]
				if got.Name != a.Name {
					t.Errorf("name = %q; want %q", got.Name, a.Name)
				}
			}
		})
	}
}

func TestDevice_ComputeCapabilityFormat(t *testing.T) {
	p := stubProber{accels: []device.Accelerator{{Index: 1, Name: "NVIDIA H100", Major: 9, Minor: 0}}}
	h := server.NewHandler(&stubChecker{}, p)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/device", nil))

	if !bytes.Contains(rec.Body.Bytes(), []byte(`"compute_capability":"9.0"`)) {
		t.Errorf("body %s; want compute_capability 9.0", rec.Body.String())
	}
}
