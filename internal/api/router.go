// Package api exposes the remote control over a small local HTTP API.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/genricoloni/synremote/internal/domain"
	"github.com/genricoloni/synremote/internal/engine"
	"github.com/genricoloni/synremote/internal/selector"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Controller is the part of the engine the API drives
type Controller interface {
	State() engine.RemoteState
	RefreshSessions(ctx context.Context) (selector.RefreshResult, error)
	SetTargetSession(session domain.TargetSession)
	ClearTargetSession()
	HasTarget() bool

	PlayPause()
	Pause()
	Unpause()
	StopPlayback()
	Next()
	Previous()
	Rewind()
	FastForward()
	Seek(ticks int64)
	SeekBy(seconds int)
	VolumeUp()
	VolumeDown()
	SetVolume(level int)
	AdjustVolume(steps int)
	ToggleMute()
	Mute()
	Unmute()
	SetAudioStream(index int)
	SetSubtitleStream(index int)
}

// NewRouter builds the API routes
func NewRouter(logger *zap.Logger, ctrl Controller) http.Handler {
	h := &handlers{logger: logger, ctrl: ctrl}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/state", h.getState)
	r.Get("/sessions", h.listSessions)
	r.Put("/target", h.setTarget)
	r.Delete("/target", h.clearTarget)
	r.Post("/commands/{intent}", h.runCommand)

	return r
}

// requestLogger logs every request through zap
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("API request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestId", middleware.GetReqID(r.Context())))
		})
	}
}
