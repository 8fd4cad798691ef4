package engine

import (
	"context"
	"math"

	"github.com/genricoloni/synremote/internal/domain"
	"github.com/genricoloni/synremote/internal/reconciler"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

// PlayPause toggles playback
func (e *Engine) PlayPause() { e.issue(domain.CommandPlayPause) }

// Pause pauses playback
func (e *Engine) Pause() { e.issue(domain.CommandPause) }

// Unpause resumes playback
func (e *Engine) Unpause() { e.issue(domain.CommandUnpause) }

// Next skips to the next item
func (e *Engine) Next() { e.issue(domain.CommandNextTrack) }

// Previous returns to the previous item
func (e *Engine) Previous() { e.issue(domain.CommandPreviousTrack) }

// Rewind asks the target to rewind
func (e *Engine) Rewind() { e.issue(domain.CommandRewind) }

// FastForward asks the target to fast forward
func (e *Engine) FastForward() { e.issue(domain.CommandFastForward) }

// VolumeUp raises the volume by the target's own step
func (e *Engine) VolumeUp() { e.issue(domain.CommandVolumeUp) }

// VolumeDown lowers the volume by the target's own step
func (e *Engine) VolumeDown() { e.issue(domain.CommandVolumeDown) }

// ToggleMute flips the mute state
func (e *Engine) ToggleMute() { e.issue(domain.CommandToggleMute) }

// Mute mutes the target
func (e *Engine) Mute() { e.issue(domain.CommandMute) }

// Unmute unmutes the target
func (e *Engine) Unmute() { e.issue(domain.CommandUnmute) }

// SetAudioStream selects an audio track by stream index
func (e *Engine) SetAudioStream(index int) {
	e.issueWithArg(domain.CommandSetAudioStreamIndex, int64(index))
}

// SetSubtitleStream selects a subtitle track by stream index; -1 disables subtitles
func (e *Engine) SetSubtitleStream(index int) {
	e.issueWithArg(domain.CommandSetSubtitleStreamIndex, int64(index))
}

// StopPlayback stops playback. The presence indicator is hidden straight
// away, whatever the outcome of the remote command.
func (e *Engine) StopPlayback() {
	e.bridge.ForceStop()
	e.issue(domain.CommandStop)
}

// Seek moves playback to an absolute position. The displayed position
// follows immediately; the command goes out through the seek throttle.
func (e *Engine) Seek(ticks int64) {
	if !e.HasTarget() {
		e.logger.Warn("No target session, ignoring seek")
		return
	}
	if _, ok := e.reconciler.Set(reconciler.Position, ticks); !ok {
		e.logger.Debug("Nothing playing, ignoring seek")
	}
}

// SeekBy moves playback relative to the displayed position, clamped to the item
func (e *Engine) SeekBy(seconds int) {
	if !e.HasTarget() {
		e.logger.Warn("No target session, ignoring seek")
		return
	}
	if _, ok := e.reconciler.Adjust(reconciler.Position, secondsToTicks(seconds)); !ok {
		e.logger.Debug("Nothing playing, ignoring seek")
	}
}

// secondsToTicks converts a seek offset, sticking to the int64 limits on overflow
func secondsToTicks(seconds int) int64 {
	s := int64(seconds)
	switch {
	case s > math.MaxInt64/domain.TicksPerSecond:
		return math.MaxInt64
	case s < math.MinInt64/domain.TicksPerSecond:
		return math.MinInt64
	}
	return s * domain.TicksPerSecond
}

// SeekStep seeks forward (dir > 0) or backward (dir < 0) by the configured step
func (e *Engine) SeekStep(dir int) {
	switch {
	case dir > 0:
		e.SeekBy(e.cfg.SeekStep())
	case dir < 0:
		e.SeekBy(-e.cfg.SeekStep())
	}
}

// EndSeek ends a seek interaction, dropping the optimistic position
func (e *Engine) EndSeek() {
	e.reconciler.EndInteraction(reconciler.Position)
}

// SetVolume sets an absolute volume level. Before the first poll there is
// nothing to reconcile against and the command is sent as is.
func (e *Engine) SetVolume(level int) {
	if !e.HasTarget() {
		e.logger.Warn("No target session, ignoring volume change")
		return
	}
	if _, ok := e.reconciler.Set(reconciler.Volume, int64(level)); !ok {
		e.issueWithArg(domain.CommandSetVolume, int64(domain.ClampVolume(level)))
	}
}

// AdjustVolume moves the volume by steps levels from the displayed value
func (e *Engine) AdjustVolume(steps int) {
	if steps == 0 {
		return
	}
	if !e.HasTarget() {
		e.logger.Warn("No target session, ignoring volume change")
		return
	}
	if _, ok := e.reconciler.Adjust(reconciler.Volume, int64(steps)); !ok {
		e.logger.Debug("No playback state yet, ignoring volume change")
	}
}

// RotateVolume feeds a raw rotary wheel magnitude into the volume
func (e *Engine) RotateVolume(magnitude float64) {
	e.AdjustVolume(e.rotary.Feed(magnitude))
}

// EndVolume ends a volume interaction
func (e *Engine) EndVolume() {
	e.rotary.Reset()
	e.reconciler.EndInteraction(reconciler.Volume)
}

// PlayItems asks the target to play the given items, optionally from a position
func (e *Engine) PlayItems(itemIDs []string, startTicks mo.Option[int64]) {
	target, ok := e.selector.Target()
	if !ok {
		e.logger.Warn("No target session, ignoring play request")
		return
	}
	if len(itemIDs) == 0 {
		return
	}

	ids := append([]string(nil), itemIDs...)
	e.enqueue("PlayNow", func(ctx context.Context) error {
		return e.transport.StartPlayback(ctx, target.SessionID, ids, startTicks)
	})
}

// HasTarget reports whether a target session is selected
func (e *Engine) HasTarget() bool {
	_, ok := e.selector.Target()
	return ok
}

func (e *Engine) issue(kind domain.CommandKind) {
	target, ok := e.selector.Target()
	if !ok {
		e.logger.Warn("No target session, ignoring command", zap.Stringer("command", kind))
		return
	}
	e.execute(domain.NewCommand(kind, target.SessionID, e.clock.Now()))
}

func (e *Engine) issueWithArg(kind domain.CommandKind, arg int64) {
	target, ok := e.selector.Target()
	if !ok {
		e.logger.Warn("No target session, ignoring command", zap.Stringer("command", kind))
		return
	}
	e.execute(domain.NewCommand(kind, target.SessionID, e.clock.Now()).WithArg(arg))
}

// sendTargeted is the throttle callback. It runs under the dispatcher's
// lock and only enqueues. failed runs on the queue worker when the transport
// rejects the value, so the same value can be sent again.
func (e *Engine) sendTargeted(kind domain.CommandKind, arg int64, failed func()) {
	target, ok := e.selector.Target()
	if !ok {
		return
	}
	cmd := domain.NewCommand(kind, target.SessionID, e.clock.Now()).WithArg(arg)
	e.enqueue(cmd.Kind.String(), func(ctx context.Context) error {
		err := e.send(ctx, cmd)
		if err != nil {
			failed()
		}
		return err
	})
}

func (e *Engine) execute(cmd domain.Command) {
	e.enqueue(cmd.Kind.String(), func(ctx context.Context) error {
		return e.send(ctx, cmd)
	})
}

func (e *Engine) send(ctx context.Context, cmd domain.Command) error {
	args := cmd.Arguments()
	if cmd.Kind.IsPlaystate() {
		return e.transport.SendPlaystateCommand(ctx, cmd.SessionID, cmd.Kind.String(), args)
	}
	return e.transport.SendCommand(ctx, cmd.SessionID, cmd.Kind.String(), args)
}

// enqueue runs send on the command queue and records its outcome
func (e *Engine) enqueue(name string, send func(ctx context.Context) error) {
	err := e.commands.Enqueue(func(ctx context.Context) {
		err := send(ctx)
		if err != nil {
			e.logger.Warn("Command failed", zap.String("command", name), zap.Error(err))
		} else {
			e.logger.Debug("Command sent", zap.String("command", name))
		}
		e.commandFinished(err)
	})
	if err != nil {
		// May run under the throttle lock, so no publish here
		e.logger.Warn("Command dropped", zap.String("command", name), zap.Error(err))
		e.mu.Lock()
		e.commandErr = MsgCommandFailed
		e.mu.Unlock()
	}
}

func (e *Engine) commandFinished(err error) {
	e.mu.Lock()
	if err != nil {
		e.commandErr = MsgCommandFailed
	} else {
		e.commandErr = ""
	}
	e.mu.Unlock()
	e.publish()
}
