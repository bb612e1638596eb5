package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/go-ttsprep/internal/audio"
	"github.com/example/go-ttsprep/internal/device"
	"github.com/example/go-ttsprep/internal/text"
)

type normalizeRequest struct {
	Text string `json:"text"`
}

type normalizeResponse struct {
	Text string `json:"text"`
}

type offenderJSON struct {
	Char      string `json:"char"`
	CodePoint int    `json:"code_point"`
}

type rejectionResponse struct {
	Error     string         `json:"error"`
	Offenders []offenderJSON `json:"offenders"`
}

func (h *handler) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(req.Text) > h.opts.maxTextBytes {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("text exceeds maximum size of %d bytes", h.opts.maxTextBytes))
		return
	}

	out, err := text.Normalize(req.Text)

	var unsupported *text.UnsupportedCharacterError
	if errors.As(err, &unsupported) {
		h.log.InfoContext(r.Context(), "text rejected",
			slog.String("request_id", RequestIDFrom(r.Context())),
			slog.Int("text_len", len(req.Text)),
			slog.Int("offenders", len(unsupported.Offenders)),
		)

		resp := rejectionResponse{
			Error:     unsupported.Error(),
			Offenders: make([]offenderJSON, len(unsupported.Offenders)),
		}
		for i, o := range unsupported.Offenders {
			resp.Offenders[i] = offenderJSON{Char: string(o.Char), CodePoint: o.CodePoint}
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.log.DebugContext(r.Context(), "text normalized",
		slog.String("request_id", RequestIDFrom(r.Context())),
		slog.Int("text_len", len(req.Text)),
		slog.Int("normalized_len", len(out)),
	)

	writeJSON(w, http.StatusOK, normalizeResponse{Text: out})
}

type audioCheckRequest struct {
	Source      string   `json:"source"`
	MinDuration *float64 `json:"min_duration"`
}

type tooShortResponse struct {
	Error     string  `json:"error"`
	Duration  float64 `json:"duration"`
	Threshold float64 `json:"threshold"`
}

func (h *handler) handleAudioCheck(w http.ResponseWriter, r *http.Request) {
	var req audioCheckRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.Source == "" {
		writeError(w, http.StatusBadRequest, "source field is required")
		return
	}

	threshold := h.opts.minDuration
	if req.MinDuration != nil {
		threshold = *req.MinDuration
	}
	if threshold < 0 {
		writeError(w, http.StatusBadRequest, "min_duration must not be negative")
		return
	}

	// Acquire a worker slot, honouring cancellation while waiting.
	if h.sem != nil {
		select {
		case h.sem <- struct{}{}:
		case <-r.Context().Done():
			writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
			return
		}
		defer func() { <-h.sem }()
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	start := time.Now()
	err := h.audio.Check(ctx, req.Source, threshold)
	durationMS := time.Since(start).Milliseconds()

	attrs := []any{
		slog.String("request_id", RequestIDFrom(r.Context())),
		slog.String("source", req.Source),
		slog.Bool("remote", audio.IsRemote(req.Source)),
		slog.Float64("threshold", threshold),
		slog.Int64("duration_ms", durationMS),
	}

	var tooShort *audio.TooShortError
	switch {
	case err == nil:
		h.log.InfoContext(r.Context(), "audio check passed", attrs...)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	case errors.As(err, &tooShort):
		h.log.InfoContext(r.Context(), "audio too short",
			append(attrs, slog.Float64("seconds", tooShort.Seconds))...)
		writeJSON(w, http.StatusUnprocessableEntity, tooShortResponse{
			Error:     tooShort.Error(),
			Duration:  tooShort.Seconds,
			Threshold: tooShort.Threshold,
		})
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		h.log.WarnContext(r.Context(), "audio check timed out",
			append(attrs, slog.String("error", err.Error()))...)
		writeError(w, http.StatusGatewayTimeout, "audio check timed out")
	case audio.IsRemote(req.Source):
		h.log.WarnContext(r.Context(), "audio fetch failed",
			append(attrs, slog.String("error", err.Error()))...)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.log.WarnContext(r.Context(), "audio check failed",
			append(attrs, slog.String("error", err.Error()))...)
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

type acceleratorJSON struct {
	Index             int    `json:"index"`
	Name              string `json:"name"`
	ComputeCapability string `json:"compute_capability"`
}

type deviceResponse struct {
	Device       string            `json:"device"`
	DType        string            `json:"dtype"`
	Accelerators []acceleratorJSON `json:"accelerators"`
}

func (h *handler) handleDevice(w http.ResponseWriter, r *http.Request) {
	sel := device.Select(r.Context(), h.prober, h.log)

	resp := deviceResponse{
		Device:       sel.Device,
		DType:        sel.DType,
		Accelerators: make([]acceleratorJSON, len(sel.Accelerators)),
	}
	for i, a := range sel.Accelerators {
		resp.Accelerators[i] = acceleratorJSON{
			Index:             a.Index,
			Name:              a.Name,
			ComputeCapability: fmt.Sprintf("%d.%d", a.Major, a.Minor),
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
