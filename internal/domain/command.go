package domain

import (
	"errors"
	"strconv"
	"time"

	"github.com/samber/mo"
)

// ErrNoTarget is returned when an operation needs a target session and none is set
var ErrNoTarget = errors.New("no target session selected")

// CommandKind enumerates the remote commands a target session understands
type CommandKind int

const (
	CommandPlayPause CommandKind = iota
	CommandPause
	CommandUnpause
	CommandStop
	CommandNextTrack
	CommandPreviousTrack
	CommandSeek
	CommandRewind
	CommandFastForward
	CommandVolumeUp
	CommandVolumeDown
	CommandSetVolume
	CommandToggleMute
	CommandMute
	CommandUnmute
	CommandSetAudioStreamIndex
	CommandSetSubtitleStreamIndex
)

var commandNames = map[CommandKind]string{
	CommandPlayPause:              "PlayPause",
	CommandPause:                  "Pause",
	CommandUnpause:                "Unpause",
	CommandStop:                   "Stop",
	CommandNextTrack:              "NextTrack",
	CommandPreviousTrack:          "PreviousTrack",
	CommandSeek:                   "Seek",
	CommandRewind:                 "Rewind",
	CommandFastForward:            "FastForward",
	CommandVolumeUp:               "VolumeUp",
	CommandVolumeDown:             "VolumeDown",
	CommandSetVolume:              "SetVolume",
	CommandToggleMute:             "ToggleMute",
	CommandMute:                   "Mute",
	CommandUnmute:                 "Unmute",
	CommandSetAudioStreamIndex:    "SetAudioStreamIndex",
	CommandSetSubtitleStreamIndex: "SetSubtitleStreamIndex",
}

// String returns the command name used on the wire
func (k CommandKind) String() string {
	if name, ok := commandNames[k]; ok {
		return name
	}
	return "Unknown"
}

// IsPlaystate reports whether the command is sent to the playstate endpoint
// rather than the general command endpoint
func (k CommandKind) IsPlaystate() bool {
	switch k {
	case CommandPlayPause, CommandPause, CommandUnpause, CommandStop,
		CommandNextTrack, CommandPreviousTrack, CommandSeek,
		CommandRewind, CommandFastForward:
		return true
	default:
		return false
	}
}

// Command is a single outbound intent for a target session
type Command struct {
	Kind      CommandKind
	Arg       mo.Option[int64]
	SessionID string
	IssuedAt  time.Time
}

// NewCommand creates a command without an argument
func NewCommand(kind CommandKind, sessionID string, issuedAt time.Time) Command {
	return Command{Kind: kind, SessionID: sessionID, IssuedAt: issuedAt}
}

// WithArg returns a copy of the command carrying a numeric argument
func (c Command) WithArg(v int64) Command {
	c.Arg = mo.Some(v)
	return c
}

// Arguments renders the command argument in the form the server expects.
// It returns nil for commands without an argument.
func (c Command) Arguments() map[string]string {
	v, ok := c.Arg.Get()
	if !ok {
		return nil
	}
	value := strconv.FormatInt(v, 10)

	switch c.Kind {
	case CommandSeek:
		return map[string]string{"SeekPositionTicks": value}
	case CommandSetVolume:
		return map[string]string{"Volume": value}
	case CommandSetAudioStreamIndex, CommandSetSubtitleStreamIndex:
		return map[string]string{"Index": value}
	default:
		return nil
	}
}
