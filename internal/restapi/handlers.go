package restapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/engine/sources"
	"github.com/anatolykoptev/go_transcript/internal/transcriptserver"
)

type handler struct {
	svc     Service
	timeout time.Duration
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *handler) transcript(w http.ResponseWriter, r *http.Request) {
	var in engine.TranscriptInput
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	out, err := h.svc.Transcript(ctx, in)
	if err != nil {
		writeServiceError(w, "transcript", err)
		return
	}
	jsonResponse(w, out, http.StatusOK)
}

func (h *handler) summarize(w http.ResponseWriter, r *http.Request) {
	var in engine.SummarizeInput
	if !decodeBody(w, r, &in) {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	out, err := h.svc.Summarize(ctx, in)
	if err != nil {
		writeServiceError(w, "summarize", err)
		return
	}
	jsonResponse(w, out, http.StatusOK)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonError(w, "request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// writeServiceError maps service failures to HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var acqErr *sources.AcquisitionError
	switch {
	case transcriptserver.IsInputError(err):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &acqErr):
		slog.Warn("api: no transcript", slog.String("op", op), slog.String("id", acqErr.VideoID),
			slog.Bool("blocked", acqErr.Blocked()))
		jsonError(w, acqErr.Error(), http.StatusBadGateway)
	case errors.Is(err, context.DeadlineExceeded):
		jsonError(w, "timed out", http.StatusGatewayTimeout)
	case errors.Is(err, context.Canceled):
		jsonError(w, "request cancelled", http.StatusServiceUnavailable)
	case errors.Is(err, engine.ErrLLMDisabled):
		jsonError(w, "summarization is not configured", http.StatusServiceUnavailable)
	default:
		slog.Error("api: request failed", slog.String("op", op), slog.Any("error", err))
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func jsonResponse(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("api: write response", slog.Any("error", err))
	}
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	jsonResponse(w, map[string]string{"error": msg}, status)
}
