package api

import (
	"github.com/genricoloni/synremote/internal/domain"
	"github.com/genricoloni/synremote/internal/engine"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

type sessionResponse struct {
	ID             string `json:"id"`
	DeviceName     string `json:"deviceName"`
	Client         string `json:"client"`
	UserName       string `json:"userName,omitempty"`
	MediaControl   bool   `json:"supportsMediaControl"`
	NowPlayingName string `json:"nowPlaying,omitempty"`
}

type streamResponse struct {
	Index    int    `json:"index"`
	Title    string `json:"title"`
	Language string `json:"language,omitempty"`
	Codec    string `json:"codec,omitempty"`
}

type playbackResponse struct {
	ItemID          *string          `json:"itemId"`
	Title           *string          `json:"title"`
	PositionTicks   int64            `json:"positionTicks"`
	DurationTicks   *int64           `json:"durationTicks"`
	Progress        *float64         `json:"progress"`
	Paused          bool             `json:"paused"`
	Muted           bool             `json:"muted"`
	Volume          int              `json:"volume"`
	VolumePending   bool             `json:"volumePending"`
	PositionPending bool             `json:"positionPending"`
	AudioStreams    []streamResponse `json:"audioStreams"`
	SubtitleStreams []streamResponse `json:"subtitleStreams"`
	AudioIndex      *int             `json:"audioIndex"`
	SubtitleIndex   *int             `json:"subtitleIndex"`
	PlayMethod      *string          `json:"playMethod"`
}

type stateResponse struct {
	Target          *sessionResponse  `json:"target"`
	Playback        *playbackResponse `json:"playback"`
	Sessions        []sessionResponse `json:"sessions"`
	Loading         bool              `json:"loading"`
	Error           string            `json:"error,omitempty"`
	SessionNotFound bool              `json:"sessionNotFound"`
}

func newSessionResponse(s domain.TargetSession) sessionResponse {
	return sessionResponse{
		ID:             s.SessionID,
		DeviceName:     s.DeviceName,
		Client:         s.Client,
		UserName:       s.UserName,
		MediaControl:   s.SupportsMediaControl,
		NowPlayingName: s.NowPlayingName,
	}
}

func newStreamResponses(streams []domain.MediaStream) []streamResponse {
	return lo.Map(streams, func(s domain.MediaStream, _ int) streamResponse {
		return streamResponse{Index: s.Index, Title: s.DisplayTitle, Language: s.Language, Codec: s.Codec}
	})
}

func newPlaybackResponse(d domain.DisplayState) *playbackResponse {
	resp := &playbackResponse{
		ItemID:          optionPtr(d.NowPlayingID),
		Title:           optionPtr(d.NowPlayingName),
		PositionTicks:   d.PositionTicks,
		DurationTicks:   optionPtr(d.DurationTicks),
		Paused:          d.IsPaused,
		Muted:           d.IsMuted,
		Volume:          d.VolumeLevel,
		VolumePending:   d.VolumePending,
		PositionPending: d.PositionPending,
		AudioStreams:    newStreamResponses(d.AudioStreams),
		SubtitleStreams: newStreamResponses(d.SubtitleStreams),
		AudioIndex:      optionPtr(d.SelectedAudioIndex),
		SubtitleIndex:   optionPtr(d.SelectedSubtitleIndex),
		PlayMethod:      optionPtr(d.PlayMethod),
	}
	if p, ok := d.Progress(); ok {
		resp.Progress = &p
	}
	return resp
}

func newStateResponse(s engine.RemoteState) stateResponse {
	resp := stateResponse{
		Sessions:        lo.Map(s.Sessions, func(t domain.TargetSession, _ int) sessionResponse { return newSessionResponse(t) }),
		Loading:         s.IsLoading,
		Error:           s.ErrorMessage,
		SessionNotFound: s.SessionNotFound,
	}
	if s.Target != nil {
		target := newSessionResponse(*s.Target)
		resp.Target = &target
	}
	if s.Playback != nil {
		resp.Playback = newPlaybackResponse(*s.Playback)
	}
	return resp
}

func optionPtr[T any](o mo.Option[T]) *T {
	if v, ok := o.Get(); ok {
		return &v
	}
	return nil
}
