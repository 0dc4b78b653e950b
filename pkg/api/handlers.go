package api

import (
	"encoding/json"
	"net/http"

	cnserrors "github.com/gpuorch/gpud/pkg/errors"
	"github.com/gpuorch/gpud/pkg/server"
	"github.com/gpuorch/gpud/pkg/serializer"

	"github.com/gpuorch/gpud/internal/catalog"
	"github.com/gpuorch/gpud/internal/session"
	"github.com/gpuorch/gpud/internal/streamer"
	"github.com/gpuorch/gpud/internal/taskhandler"
)

type taskRequestBody struct {
	TaskName       string         `json:"task_name"`
	TaskDifficulty string         `json:"task_difficulty"`
	TimeoutSeconds int            `json:"timeout_seconds"`
	Metadata       map[string]any `json:"metadata"`
	SessionID      string         `json:"session_id"`
	CreateSession  bool           `json:"create_session"`
}

// handleTaskPredefined handles POST /api/tasks/predefined: it streams the
// task handler's Event sequence back as Server-Sent Events.
func (a *App) handleTaskPredefined(w http.ResponseWriter, r *http.Request) {
	var body taskRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		server.WriteError(w, r, http.StatusBadRequest, cnserrors.ErrCodeInvalidRequest,
			"invalid JSON body", false, map[string]any{"error": err.Error()})
		return
	}
	if body.TaskName == "" {
		server.WriteError(w, r, http.StatusBadRequest, cnserrors.ErrCodeInvalidRequest,
			"task_name is required", false, nil)
		return
	}

	sse, err := serializer.NewSSEWriter(w)
	if err != nil {
		server.WriteError(w, r, http.StatusInternalServerError, cnserrors.ErrCodeInternal,
			"streaming unsupported by response writer", false, nil)
		return
	}

	req := taskhandler.Request{
		TaskName:       body.TaskName,
		Difficulty:     catalog.Difficulty(body.TaskDifficulty),
		TimeoutSeconds: body.TimeoutSeconds,
		Metadata:       body.Metadata,
		SessionID:      body.SessionID,
		CreateSession:  body.CreateSession,
	}

	for ev := range a.Handler.Handle(r.Context(), req) {
		if err := sse.WriteEvent(streamer.Tag(ev), ev); err != nil {
			return
		}
	}
}

// handleSessionsList handles GET /api/sessions.
func (a *App) handleSessionsList(w http.ResponseWriter, r *http.Request) {
	sessions := a.Sessions.List()
	summaries := make([]session.Summary, 0, len(sessions))
	for _, sess := range sessions {
		summaries = append(summaries, sess.Summary())
	}
	serializer.RespondJSON(w, http.StatusOK, map[string]any{"sessions": summaries})
}

// handleSessionGet handles GET /api/sessions/{id}.
func (a *App) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.Sessions.Get(r.PathValue("id"))
	if !ok {
		server.WriteError(w, r, http.StatusNotFound, cnserrors.ErrCodeSessionNotFound,
			"session not found", false, map[string]any{"session_id": r.PathValue("id")})
		return
	}
	serializer.RespondJSON(w, http.StatusOK, sess.Summary())
}

// handleSessionDelete handles DELETE /api/sessions/{id}.
func (a *App) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, ok := a.Sessions.Get(id); !ok {
		server.WriteError(w, r, http.StatusNotFound, cnserrors.ErrCodeSessionNotFound,
			"session not found", false, map[string]any{"session_id": id})
		return
	}
	a.Sessions.Kill(r.Context(), id, "client_requested")
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionKeepalive handles POST /api/sessions/{id}/keepalive.
func (a *App) handleSessionKeepalive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.Sessions.Keepalive(id); err != nil {
		server.WriteErrorFromErr(w, r, err, "keepalive failed", map[string]any{"session_id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Routes returns the path -> handler map the HTTP server registers, using
// Go 1.22+ ServeMux method-and-path patterns for the parameterized session
// routes.
func (a *App) Routes() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"POST /api/tasks/predefined":       a.handleTaskPredefined,
		"GET /api/sessions":                a.handleSessionsList,
		"GET /api/sessions/{id}":           a.handleSessionGet,
		"DELETE /api/sessions/{id}":        a.handleSessionDelete,
		"POST /api/sessions/{id}/keepalive": a.handleSessionKeepalive,
	}
}
