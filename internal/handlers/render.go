package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/clipforge/backend/internal/logging"
	"github.com/clipforge/backend/internal/render"
)

const defaultRenderRetryDelay = 50 * time.Millisecond

// RenderHandler answers polling requests for asynchronous render jobs. The
// state itself is owned by the external render pipeline; this handler only
// projects it into the polling envelope.
type RenderHandler struct {
	States RenderStateStore

	// RetryDelay and RetryAttempts debounce the race where a client polls
	// before the pipeline has written the job record. One extra lookup after a
	// short wait, not a general retry policy.
	RetryDelay    time.Duration
	RetryAttempts int
}

// Progress handles POST /render/progress requests.
func (h RenderHandler) Progress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.States == nil {
		logger.Error("render state store unavailable")
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "render progress unavailable"})
		return
	}

	var req renderProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid render progress payload", "error", err)
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.RenderID = strings.TrimSpace(req.RenderID)
	if req.RenderID == "" {
		logger.Warn("render progress missing render id")
		respondJSON(ctx, w, http.StatusBadRequest, map[string]string{"error": "renderId is required"})
		return
	}

	state, found, err := h.States.Get(ctx, req.RenderID)
	for attempt := 0; err == nil && !found && attempt < h.retries(); attempt++ {
		if waitErr := h.wait(ctx); waitErr != nil {
			logger.Debug("client went away while waiting for render state", "renderId", req.RenderID)
			return
		}
		state, found, err = h.States.Get(ctx, req.RenderID)
	}

	if err != nil {
		logger.Error("render state lookup failed", "error", err, "renderId", req.RenderID)
		respondJSON(ctx, w, http.StatusInternalServerError, map[string]string{"error": "unable to check render progress"})
		return
	}

	if !found {
		respondJSON(ctx, w, http.StatusOK, renderErrorResponse{
			Type:    "error",
			Message: fmt.Sprintf("render %s not found or expired", req.RenderID),
		})
		return
	}

	switch state.Status {
	case render.StatusError:
		message := state.Error
		if message == "" {
			message = "rendering failed"
		}
		respondJSON(ctx, w, http.StatusOK, renderErrorResponse{Type: "error", Message: message})
	case render.StatusDone:
		url, stored := render.ResolveOutput(state)
		respondJSON(ctx, w, http.StatusOK, renderDoneResponse{
			Type:   "done",
			URL:    url,
			Size:   state.OutputSize,
			Stored: stored,
		})
	default:
		respondJSON(ctx, w, http.StatusOK, renderProgressResponse{Type: "progress", Progress: state.Progress})
	}
}

func (h RenderHandler) retries() int {
	if h.RetryAttempts > 0 {
		return h.RetryAttempts
	}
	return 1
}

// wait pauses for the configured delay, aborting early if the caller is gone.
func (h RenderHandler) wait(ctx context.Context) error {
	delay := h.RetryDelay
	if delay <= 0 {
		delay = defaultRenderRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type renderProgressRequest struct {
	RenderID string `json:"renderId"`
}

type renderProgressResponse struct {
	Type     string  `json:"type"`
	Progress float64 `json:"progress"`
}

type renderDoneResponse struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Size   int64  `json:"size"`
	Stored bool   `json:"stored"`
}

type renderErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
