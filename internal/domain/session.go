package domain

import (
	"strings"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// RawSession is a session entry as returned by the server's session list
type RawSession struct {
	ID                    string         `json:"Id"`
	UserID                string         `json:"UserId"`
	UserName              string         `json:"UserName"`
	Client                string         `json:"Client"`
	DeviceName            string         `json:"DeviceName"`
	DeviceID              string         `json:"DeviceId"`
	SupportsMediaControl  bool           `json:"SupportsMediaControl"`
	SupportsRemoteControl bool           `json:"SupportsRemoteControl"`
	PlayState             *RawPlayState  `json:"PlayState,omitempty"`
	NowPlayingItem        *RawNowPlaying `json:"NowPlayingItem,omitempty"`
}

// RawPlayState is the play state block of a session entry
type RawPlayState struct {
	PositionTicks       *int64  `json:"PositionTicks,omitempty"`
	IsPaused            bool    `json:"IsPaused"`
	IsMuted             bool    `json:"IsMuted"`
	VolumeLevel         *int    `json:"VolumeLevel,omitempty"`
	AudioStreamIndex    *int    `json:"AudioStreamIndex,omitempty"`
	SubtitleStreamIndex *int    `json:"SubtitleStreamIndex,omitempty"`
	PlayMethod          *string `json:"PlayMethod,omitempty"`
}

// RawNowPlaying is the now-playing item block of a session entry
type RawNowPlaying struct {
	ID           string           `json:"Id"`
	Name         string           `json:"Name"`
	RunTimeTicks *int64           `json:"RunTimeTicks,omitempty"`
	MediaStreams []RawMediaStream `json:"MediaStreams,omitempty"`
}

// RawMediaStream is one stream of the now-playing item
type RawMediaStream struct {
	Index        int    `json:"Index"`
	Type         string `json:"Type"`
	Codec        string `json:"Codec"`
	Language     string `json:"Language"`
	DisplayTitle string `json:"DisplayTitle"`
	IsDefault    bool   `json:"IsDefault"`
	IsForced     bool   `json:"IsForced"`
	IsExternal   bool   `json:"IsExternal"`
}

// defaultVolume is assumed when a session does not report its volume
const defaultVolume = MaxVolume

// SnapshotFromSession builds a PlaybackSnapshot from a session entry
func SnapshotFromSession(raw RawSession) PlaybackSnapshot {
	snap := PlaybackSnapshot{VolumeLevel: defaultVolume}

	if ps := raw.PlayState; ps != nil {
		if ps.PositionTicks != nil && *ps.PositionTicks > 0 {
			snap.PositionTicks = *ps.PositionTicks
		}
		snap.IsPaused = ps.IsPaused
		snap.IsMuted = ps.IsMuted
		if ps.VolumeLevel != nil {
			snap.VolumeLevel = ClampVolume(*ps.VolumeLevel)
		}
		snap.SelectedAudioIndex = optional(ps.AudioStreamIndex)
		snap.SelectedSubtitleIndex = optional(ps.SubtitleStreamIndex)
		if ps.PlayMethod != nil && *ps.PlayMethod != "" {
			snap.PlayMethod = mo.Some(*ps.PlayMethod)
		}
	}

	if item := raw.NowPlayingItem; item != nil && item.ID != "" {
		snap.NowPlayingID = mo.Some(item.ID)
		if item.Name != "" {
			snap.NowPlayingName = mo.Some(item.Name)
		}
		snap.DurationTicks = optional(item.RunTimeTicks)
		snap.AudioStreams = streamsOfType(item.MediaStreams, "audio")
		snap.SubtitleStreams = streamsOfType(item.MediaStreams, "subtitle")
	}

	return snap
}

// TargetFromSession builds the TargetSession identity of a session entry
func TargetFromSession(raw RawSession) TargetSession {
	t := TargetSession{
		SessionID:             raw.ID,
		DeviceID:              raw.DeviceID,
		DeviceName:            raw.DeviceName,
		Client:                raw.Client,
		UserID:                raw.UserID,
		UserName:              raw.UserName,
		SupportsMediaControl:  raw.SupportsMediaControl,
		SupportsRemoteControl: raw.SupportsRemoteControl,
	}
	if raw.NowPlayingItem != nil {
		t.NowPlayingID = raw.NowPlayingItem.ID
		t.NowPlayingName = raw.NowPlayingItem.Name
	}
	return t
}

// ClampVolume limits a volume level to [MinVolume, MaxVolume]
func ClampVolume(level int) int {
	return lo.Clamp(level, MinVolume, MaxVolume)
}

func streamsOfType(streams []RawMediaStream, kind string) []MediaStream {
	matching := lo.Filter(streams, func(s RawMediaStream, _ int) bool {
		return strings.EqualFold(s.Type, kind)
	})
	return lo.Map(matching, func(s RawMediaStream, _ int) MediaStream {
		return MediaStream{
			Index:        s.Index,
			Codec:        s.Codec,
			Language:     s.Language,
			DisplayTitle: s.DisplayTitle,
			IsDefault:    s.IsDefault,
			IsForced:     s.IsForced,
			IsExternal:   s.IsExternal,
		}
	})
}

func optional[T any](v *T) mo.Option[T] {
	if v == nil {
		return mo.None[T]()
	}
	return mo.Some(*v)
}
