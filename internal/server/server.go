package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/go-ttsprep/internal/audio"
	"github.com/example/go-ttsprep/internal/config"
	"github.com/example/go-ttsprep/internal/device"
)

// ParseLogLevel converts a case-insensitive level string to slog.Level.
// An empty string returns slog.LevelInfo. Unknown strings return an error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (want debug|info|warn|error)", s)
	}
}

// AudioChecker verifies that reference audio is long enough.
type AudioChecker interface {
	Check(ctx context.Context, source string, threshold float64) error
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxTextBytes   int
	workers        int
	requestTimeout time.Duration
	minDuration    float64
	logger         *slog.Logger
}

func defaultOptions() options {
	return options{
		maxTextBytes:   65536,
		workers:        2,
		requestTimeout: 60 * time.Second,
		minDuration:    audio.DefaultMinDuration,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxTextBytes sets the maximum allowed text length in bytes for POST /normalize.
func WithMaxTextBytes(n int) Option {
	return func(o *options) { o.maxTextBytes = n }
}

// WithWorkers sets the maximum number of concurrent audio checks.
// Zero or less disables the limit.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithRequestTimeout sets the per-request audio check deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithMinDuration sets the threshold used when a request does not name one.
func WithMinDuration(seconds float64) Option {
	return func(o *options) { o.minDuration = seconds }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	audio  AudioChecker
	prober device.Prober
	opts   options
	sem    chan struct{} // bounds concurrent audio checks
	log    *slog.Logger
}

// NewHandler returns an http.Handler serving /health, POST /normalize,
// POST /audio/check and GET /device.
func NewHandler(checker AudioChecker, prober device.Prober, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		audio:  checker,
		prober: prober,
		opts:   opts,
		log:    opts.logger,
	}
	if opts.workers > 0 {
		h.sem = make(chan struct{}, opts.workers)
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.handleHealth)
	r.Post("/normalize", h.handleNormalize)
	r.Post("/audio/check", h.handleAudioCheck)
	r.Get("/device", h.handleDevice)

	return r
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// Health is the body served by GET /health.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Health{Status: "ok", Version: buildVersion()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errors.New("request body is required")
	}

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Server wires the handler into net/http.Server with graceful shutdown
// ---------------------------------------------------------------------------

// Server wires the HTTP handler into a net/http.Server with graceful shutdown.
type Server struct {
	cfg             config.Config
	audio           AudioChecker
	prober          device.Prober
	logger          *slog.Logger
	shutdownTimeout time.Duration
}

// New builds a Server whose audio gate and accelerator prober follow cfg.
func New(cfg config.Config) *Server {
	return &Server{
		cfg:             cfg,
		audio:           audio.NewGate(time.Duration(cfg.Audio.FetchTimeout)*time.Second, cfg.Audio.TempDir),
		prober:          device.NvidiaSMI{Path: cfg.Device.ProbeCommand},
		logger:          slog.Default(),
		shutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout) * time.Second,
	}
}

// WithShutdownTimeout overrides the graceful-shutdown drain period.
func (s *Server) WithShutdownTimeout(d time.Duration) *Server {
	s.shutdownTimeout = d
	return s
}

// WithProber replaces the accelerator prober.
func (s *Server) WithProber(p device.Prober) *Server {
	s.prober = p
	return s
}

// Handler returns the configured HTTP handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return NewHandler(s.audio, s.prober,
		WithWorkers(s.cfg.Server.Workers),
		WithMaxTextBytes(s.cfg.Server.MaxTextBytes),
		WithRequestTimeout(time.Duration(s.cfg.Server.RequestTimeout)*time.Second),
		WithMinDuration(s.cfg.Audio.MinDuration),
		WithLogger(s.logger),
	)
}

// Start serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Server.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	s.logger.Info("listening", slog.String("addr", s.cfg.Server.ListenAddr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http listen: %w", err)
	}
}

// ProbeHealth asks the server at addr for GET /health and returns its
// report. Anything but a 200 with status "ok" is an error.
func ProbeHealth(ctx context.Context, addr string) (Health, error) {
	var health Health

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/health", nil)
	if err != nil {
		return health, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return health, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return health, fmt.Errorf("unexpected health status: %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return health, fmt.Errorf("decode health: %w", err)
	}
	if health.Status != "ok" {
		return health, fmt.Errorf("server reports status %q", health.Status)
	}

	return health, nil
}
