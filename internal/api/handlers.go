package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/genricoloni/synremote/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type handlers struct {
	logger *zap.Logger
	ctrl   Controller
}

type intent struct {
	needsValue bool
	run        func(c Controller, v int64)
}

var intents = map[string]intent{
	"play-pause":      {run: func(c Controller, _ int64) { c.PlayPause() }},
	"pause":           {run: func(c Controller, _ int64) { c.Pause() }},
	"unpause":         {run: func(c Controller, _ int64) { c.Unpause() }},
	"stop":            {run: func(c Controller, _ int64) { c.StopPlayback() }},
	"next":            {run: func(c Controller, _ int64) { c.Next() }},
	"previous":        {run: func(c Controller, _ int64) { c.Previous() }},
	"rewind":          {run: func(c Controller, _ int64) { c.Rewind() }},
	"fast-forward":    {run: func(c Controller, _ int64) { c.FastForward() }},
	"volume-up":       {run: func(c Controller, _ int64) { c.VolumeUp() }},
	"volume-down":     {run: func(c Controller, _ int64) { c.VolumeDown() }},
	"toggle-mute":     {run: func(c Controller, _ int64) { c.ToggleMute() }},
	"mute":            {run: func(c Controller, _ int64) { c.Mute() }},
	"unmute":          {run: func(c Controller, _ int64) { c.Unmute() }},
	"seek":            {needsValue: true, run: func(c Controller, v int64) { c.Seek(v) }},
	"seek-by":         {needsValue: true, run: func(c Controller, v int64) { c.SeekBy(int(v)) }},
	"volume":          {needsValue: true, run: func(c Controller, v int64) { c.SetVolume(int(v)) }},
	"adjust-volume":   {needsValue: true, run: func(c Controller, v int64) { c.AdjustVolume(int(v)) }},
	"audio-stream":    {needsValue: true, run: func(c Controller, v int64) { c.SetAudioStream(int(v)) }},
	"subtitle-stream": {needsValue: true, run: func(c Controller, v int64) { c.SetSubtitleStream(int(v)) }},
}

func (h *handlers) getState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, newStateResponse(h.ctrl.State()))
}

func (h *handlers) listSessions(w http.ResponseWriter, r *http.Request) {
	result, err := h.ctrl.RefreshSessions(r.Context())
	if err != nil {
		h.logger.Warn("Session refresh failed", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "failed to load sessions")
		return
	}
	h.writeJSON(w, http.StatusOK, lo.Map(result.Sessions, func(s domain.TargetSession, _ int) sessionResponse {
		return newSessionResponse(s)
	}))
}

type targetRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *handlers) setTarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil || req.SessionID == "" {
		h.writeError(w, http.StatusBadRequest, "body must be {\"sessionId\": \"...\"}")
		return
	}

	session, ok := h.findSession(req.SessionID)
	if !ok {
		// The list may be stale
		if _, err := h.ctrl.RefreshSessions(r.Context()); err != nil {
			h.writeError(w, http.StatusBadGateway, "failed to load sessions")
			return
		}
		session, ok = h.findSession(req.SessionID)
	}
	if !ok {
		h.writeError(w, http.StatusNotFound, "unknown session")
		return
	}

	h.ctrl.SetTargetSession(session)
	h.writeJSON(w, http.StatusOK, newStateResponse(h.ctrl.State()))
}

func (h *handlers) clearTarget(w http.ResponseWriter, r *http.Request) {
	h.ctrl.ClearTargetSession()
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) runCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "intent")
	in, ok := intents[name]
	if !ok {
		h.writeError(w, http.StatusNotFound, "unknown intent: "+name)
		return
	}

	var value int64
	if in.needsValue {
		v, err := parseValue(r.URL.Query().Get("value"))
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		value = v
	}

	if !h.ctrl.HasTarget() {
		h.writeError(w, http.StatusConflict, domain.ErrNoTarget.Error())
		return
	}

	in.run(h.ctrl, value)
	w.WriteHeader(http.StatusAccepted)
}

func (h *handlers) findSession(id string) (domain.TargetSession, bool) {
	return lo.Find(h.ctrl.State().Sessions, func(s domain.TargetSession) bool {
		return s.SessionID == id
	})
}

func parseValue(raw string) (int64, error) {
	if raw == "" {
		return 0, errors.New("missing value parameter")
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New("value must be an integer")
	}
	return v, nil
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Debug("Failed to write response", zap.Error(err))
	}
}

func (h *handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
