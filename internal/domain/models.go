package domain

import (
	"time"

	"github.com/samber/mo"
)

// TicksPerSecond is the server's time unit: all positions and durations are
// expressed in 100ns ticks
const TicksPerSecond int64 = 10_000_000

const (
	// MinVolume is the lowest volume level a session accepts
	MinVolume = 0
	// MaxVolume is the highest volume level a session accepts
	MaxVolume = 100
)

// MediaStream describes one selectable audio or subtitle track
type MediaStream struct {
	Index        int
	Codec        string
	Language     string
	DisplayTitle string
	IsDefault    bool
	IsForced     bool
	IsExternal   bool
}

// PlaybackSnapshot is one poll result for a target session.
// Snapshots are built fresh on every poll and never mutated.
type PlaybackSnapshot struct {
	PositionTicks int64
	DurationTicks mo.Option[int64]
	IsPaused      bool
	IsMuted       bool
	// VolumeLevel is in [MinVolume, MaxVolume]
	VolumeLevel    int
	NowPlayingID   mo.Option[string]
	NowPlayingName mo.Option[string]

	AudioStreams          []MediaStream
	SubtitleStreams       []MediaStream
	SelectedAudioIndex    mo.Option[int]
	SelectedSubtitleIndex mo.Option[int]

	PlayMethod mo.Option[string]
}

// HasMedia reports whether the session has an item loaded
func (s PlaybackSnapshot) HasMedia() bool {
	return s.NowPlayingID.IsPresent()
}

// IsPlaying reports whether media is loaded and not paused
func (s PlaybackSnapshot) IsPlaying() bool {
	return s.HasMedia() && !s.IsPaused
}

// Title returns the now-playing name, or "" when nothing is loaded
func (s PlaybackSnapshot) Title() string {
	return s.NowPlayingName.OrEmpty()
}

// Progress returns position/duration clamped to [0,1].
// ok is false when the duration is unknown or not positive.
func (s PlaybackSnapshot) Progress() (progress float64, ok bool) {
	duration, present := s.DurationTicks.Get()
	if !present || duration <= 0 {
		return 0, false
	}
	p := float64(s.PositionTicks) / float64(duration)
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p, true
}

// TargetSession identifies the remote session being controlled.
// Two targets are the same session when their SessionIDs match.
type TargetSession struct {
	SessionID             string
	DeviceID              string
	DeviceName            string
	Client                string
	UserID                string
	UserName              string
	SupportsMediaControl  bool
	SupportsRemoteControl bool

	// Now-playing summary, for list display only
	NowPlayingID   string
	NowPlayingName string
}

// Same reports whether both values refer to the same remote session
func (t TargetSession) Same(other TargetSession) bool {
	return t.SessionID == other.SessionID
}

// IsActive reports whether the session had media loaded when it was listed
func (t TargetSession) IsActive() bool {
	return t.NowPlayingID != ""
}

// Label is a short human readable name for the session
func (t TargetSession) Label() string {
	label := t.DeviceName
	if label == "" {
		label = t.SessionID
	}
	if t.Client != "" {
		label += " (" + t.Client + ")"
	}
	return label
}

// PendingEdit is a local optimistic override for one adjustable quantity
type PendingEdit struct {
	Target           int64
	CreatedAt        time.Time
	LastSent         mo.Option[int64]
	FailsafeDeadline time.Time
}

// DisplayState is the playback state the UI should render: the latest
// snapshot with any pending local edits applied on top
type DisplayState struct {
	PlaybackSnapshot
	VolumePending   bool
	PositionPending bool
}
