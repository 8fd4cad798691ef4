package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/genricoloni/synremote/internal/clock"
	"github.com/genricoloni/synremote/internal/config"
	"github.com/genricoloni/synremote/internal/domain"
	"github.com/genricoloni/synremote/internal/domain/mocks"
	"github.com/genricoloni/synremote/internal/poller"
	"github.com/genricoloni/synremote/internal/presence"
	"github.com/genricoloni/synremote/internal/selector"
	"github.com/samber/mo"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type fixture struct {
	engine    *Engine
	transport *mocks.MockTransport
	store     *mocks.MockSessionStore
	sink      *mocks.MockPresenceSink
	bridge    *presence.Bridge
	poller    *poller.Poller
	clk       *clock.Manual
	states    chan RemoteState

	mu       sync.Mutex
	sessions []domain.RawSession
	serving  bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		transport: mocks.NewMockTransport(ctrl),
		store:     mocks.NewMockSessionStore(ctrl),
		sink:      mocks.NewMockPresenceSink(ctrl),
		clk:       clock.NewManual(time.Unix(0, 0)),
		states:    make(chan RemoteState, 512),
	}
	cfg := config.Static{User: "user-1"}
	logger := zap.NewNop()

	f.store.EXPECT().DeviceID().Return("controller", nil).AnyTimes()
	f.store.EXPECT().SaveLastSession(gomock.Any()).Return(nil).AnyTimes()
	f.store.EXPECT().ClearLastSession().Return(nil).AnyTimes()

	sel := selector.NewSelector(logger, f.transport, f.store, cfg)
	f.poller = poller.NewPoller(logger, f.transport, f.clk, cfg)
	f.bridge = presence.NewBridge(logger, f.sink)
	f.engine = NewEngine(logger, cfg, f.clk, f.transport, sel, f.poller, f.bridge, nil)

	unsubscribe := f.engine.Subscribe(func(s RemoteState) {
		select {
		case f.states <- s:
		default:
		}
	})
	t.Cleanup(func() {
		unsubscribe()
		// Shutdown always hides the indicator
		f.sink.EXPECT().Stop(gomock.Any()).Return(nil).AnyTimes()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = f.engine.Stop(ctx)
	})
	return f
}

func (f *fixture) waitFor(t *testing.T, what string, pred func(RemoteState) bool) RemoteState {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-f.states:
			if pred(s) {
				return s
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s; current state %+v", what, f.engine.State())
			return RemoteState{}
		}
	}
}

func (f *fixture) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := f.engine.Flush(ctx); err != nil {
		t.Fatalf("command flush failed: %v", err)
	}
	if err := f.bridge.Flush(ctx); err != nil {
		t.Fatalf("presence flush failed: %v", err)
	}
}

// serve makes the transport list sessions until the next call to serve
func (f *fixture) serve(sessions ...domain.RawSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = sessions
	if f.serving {
		return
	}
	f.serving = true
	f.transport.EXPECT().FetchControllableSessions(gomock.Any(), "user-1").
		DoAndReturn(func(context.Context, string) ([]domain.RawSession, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.sessions, nil
		}).AnyTimes()
}

func playing(id string, volume int, position int64) domain.RawSession {
	duration := int64(100_000_000)
	return domain.RawSession{
		ID:                   id,
		DeviceName:           "Living Room TV",
		SupportsMediaControl: true,
		PlayState:            &domain.RawPlayState{VolumeLevel: &volume, PositionTicks: &position},
		NowPlayingItem: &domain.RawNowPlaying{
			ID:           "movie-1",
			Name:         "Movie",
			RunTimeTicks: &duration,
		},
	}
}

// connect selects s1 and waits for the first snapshot
func (f *fixture) connect(t *testing.T, volume int, position int64) {
	t.Helper()
	f.serve(playing("s1", volume, position))
	f.sink.EXPECT().Start(gomock.Any(), "Movie").Return(nil).AnyTimes()

	f.engine.SetTargetSession(domain.TargetSession{SessionID: "s1"})
	f.waitFor(t, "first snapshot", func(s RemoteState) bool { return s.Playback != nil })
}

// Stop hides the indicator whether or not the remote command succeeds.
func TestEngine_StopAlwaysHidesIndicator(t *testing.T) {
	tests := []struct {
		name    string
		sendErr error
		wantMsg string
	}{
		{"Remote Stop Succeeds", nil, ""},
		{"Remote Stop Fails", errors.New("503 service unavailable"), MsgCommandFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if err := f.engine.selector.SetTarget(domain.TargetSession{SessionID: "s1"}); err != nil {
				t.Fatalf("SetTarget failed: %v", err)
			}

			gomock.InOrder(
				f.sink.EXPECT().Start(gomock.Any(), "Movie").Return(nil),
				f.sink.EXPECT().Stop(gomock.Any()).Return(nil),
			)
			f.transport.EXPECT().SendPlaystateCommand(gomock.Any(), "s1", "Stop", gomock.Nil()).Return(tt.sendErr)

			f.bridge.SyncFromPoll(true, "Movie")
			f.engine.StopPlayback()
			f.flush(t)

			if f.bridge.Shown() {
				t.Error("indicator should be hidden")
			}
			if got := f.engine.State().ErrorMessage; got != tt.wantMsg {
				t.Errorf("ErrorMessage = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestEngine_CommandsWithoutTargetAreIgnored(t *testing.T) {
	f := newFixture(t)

	f.engine.PlayPause()
	f.engine.SetVolume(40)
	f.engine.SeekBy(10)
	f.engine.SetAudioStream(1)
	f.engine.PlayItems([]string{"item"}, mo.None[int64]())
	f.flush(t)

	if msg := f.engine.State().ErrorMessage; msg != "" {
		t.Errorf("ignored commands must not report errors, got %q", msg)
	}
}

func TestEngine_CommandRouting(t *testing.T) {
	tests := []struct {
		name   string
		call   func(e *Engine)
		expect func(tr *mocks.MockTransportMockRecorder)
	}{
		{
			name: "Playstate Command",
			call: func(e *Engine) { e.Next() },
			expect: func(tr *mocks.MockTransportMockRecorder) {
				tr.SendPlaystateCommand(gomock.Any(), "s1", "NextTrack", gomock.Nil())
			},
		},
		{
			name: "General Command",
			call: func(e *Engine) { e.ToggleMute() },
			expect: func(tr *mocks.MockTransportMockRecorder) {
				tr.SendCommand(gomock.Any(), "s1", "ToggleMute", gomock.Nil())
			},
		},
		{
			name: "Subtitle Off",
			call: func(e *Engine) { e.SetSubtitleStream(-1) },
			expect: func(tr *mocks.MockTransportMockRecorder) {
				tr.SendCommand(gomock.Any(), "s1", "SetSubtitleStreamIndex", map[string]string{"Index": "-1"})
			},
		},
		{
			name: "Volume Before First Poll",
			call: func(e *Engine) { e.SetVolume(140) },
			expect: func(tr *mocks.MockTransportMockRecorder) {
				tr.SendCommand(gomock.Any(), "s1", "SetVolume", map[string]string{"Volume": "100"})
			},
		},
		{
			name: "Play Items",
			call: func(e *Engine) { e.PlayItems([]string{"a", "b"}, mo.Some(int64(42))) },
			expect: func(tr *mocks.MockTransportMockRecorder) {
				tr.StartPlayback(gomock.Any(), "s1", []string{"a", "b"}, mo.Some(int64(42)))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_ = f.engine.selector.SetTarget(domain.TargetSession{SessionID: "s1"})
			tt.expect(f.transport.EXPECT())

			tt.call(f.engine)
			f.flush(t)
		})
	}
}

func TestEngine_CommandErrorClearedByNextSuccess(t *testing.T) {
	f := newFixture(t)
	_ = f.engine.selector.SetTarget(domain.TargetSession{SessionID: "s1"})

	gomock.InOrder(
		f.transport.EXPECT().SendPlaystateCommand(gomock.Any(), "s1", "PlayPause", gomock.Nil()).Return(errors.New("timeout")),
		f.transport.EXPECT().SendPlaystateCommand(gomock.Any(), "s1", "PlayPause", gomock.Nil()).Return(nil),
	)

	f.engine.PlayPause()
	f.flush(t)
	if got := f.engine.State().ErrorMessage; got != MsgCommandFailed {
		t.Fatalf("ErrorMessage = %q, want %q", got, MsgCommandFailed)
	}

	f.engine.PlayPause()
	f.flush(t)
	if got := f.engine.State().ErrorMessage; got != "" {
		t.Errorf("ErrorMessage = %q after a successful command", got)
	}
}

// Three failed polls report a lost connection; the fourth clears it and the
// poller keeps running throughout.
func TestEngine_PollFailuresAndRecovery(t *testing.T) {
	f := newFixture(t)
	f.sink.EXPECT().Start(gomock.Any(), "Movie").Return(nil).AnyTimes()

	netErr := errors.New("connection refused")
	gomock.InOrder(
		f.transport.EXPECT().FetchControllableSessions(gomock.Any(), gomock.Any()).Return(nil, netErr).Times(3),
		f.transport.EXPECT().FetchControllableSessions(gomock.Any(), gomock.Any()).
			Return([]domain.RawSession{playing("s1", 30, 0)}, nil).AnyTimes(),
	)

	f.engine.SetTargetSession(domain.TargetSession{SessionID: "s1"})
	for i := 0; i < 3; i++ {
		f.waitFor(t, "lost connection", func(s RemoteState) bool {
			return s.ErrorMessage == MsgConnectionLost
		})
		if !f.poller.Running() {
			t.Fatal("polling must continue after a failure")
		}
		// Drain so the next wait observes the next poll
		for len(f.states) > 0 {
			<-f.states
		}
		f.clk.Advance(time.Second)
	}

	s := f.waitFor(t, "recovery", func(s RemoteState) bool { return s.Playback != nil })
	if s.ErrorMessage != "" {
		t.Errorf("successful poll should clear the error, got %q", s.ErrorMessage)
	}
	if s.Playback.VolumeLevel != 30 || s.Playback.Title() != "Movie" {
		t.Errorf("unexpected playback %+v", s.Playback)
	}
	if !f.poller.Running() {
		t.Error("poller should still be running")
	}
}

// Volume 30 and three quick +5 steps: 35 goes out at once, 45 after the
// throttle interval, and the display shows 45 throughout.
func TestEngine_VolumeBurst(t *testing.T) {
	f := newFixture(t)
	f.connect(t, 30, 0)

	gomock.InOrder(
		f.transport.EXPECT().SendCommand(gomock.Any(), "s1", "SetVolume", map[string]string{"Volume": "35"}),
		f.transport.EXPECT().SendCommand(gomock.Any(), "s1", "SetVolume", map[string]string{"Volume": "45"}),
	)

	f.engine.AdjustVolume(5)
	f.engine.RotateVolume(5)
	f.engine.AdjustVolume(5)

	state := f.engine.State()
	if state.Playback == nil || state.Playback.VolumeLevel != 45 || !state.Playback.VolumePending {
		t.Fatalf("display should be optimistic 45, got %+v", state.Playback)
	}

	f.clk.Advance(60 * time.Millisecond)
	f.flush(t)
}

func TestEngine_SeekIsOptimistic(t *testing.T) {
	f := newFixture(t)
	f.connect(t, 50, 0)

	f.transport.EXPECT().SendPlaystateCommand(gomock.Any(), "s1", "Seek",
		map[string]string{"SeekPositionTicks": "50000000"})

	f.engine.Seek(50_000_000)
	state := f.engine.State()
	if state.Playback == nil || state.Playback.PositionTicks != 50_000_000 || !state.Playback.PositionPending {
		t.Fatalf("display position should jump to the seek target, got %+v", state.Playback)
	}
	f.flush(t)
}

// Offsets too large for the tick range still land on the end of the item.
func TestEngine_SeekByHugeOffset(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    string
	}{
		{"Forward", 1_000_000_000_000, "100000000"},
		{"Backward", -1_000_000_000_000, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.connect(t, 50, 50_000_000)

			f.transport.EXPECT().SendPlaystateCommand(gomock.Any(), "s1", "Seek",
				map[string]string{"SeekPositionTicks": tt.want})

			f.engine.SeekBy(tt.seconds)
			f.flush(t)
		})
	}
}

// A seek the server rejected can be repeated after the drag is released.
func TestEngine_FailedSeekCanBeRepeated(t *testing.T) {
	f := newFixture(t)
	f.connect(t, 50, 0)

	args := map[string]string{"SeekPositionTicks": "50000000"}
	gomock.InOrder(
		f.transport.EXPECT().SendPlaystateCommand(gomock.Any(), "s1", "Seek", args).Return(errors.New("timeout")),
		f.transport.EXPECT().SendPlaystateCommand(gomock.Any(), "s1", "Seek", args).Return(nil),
	)

	f.engine.Seek(50_000_000)
	f.flush(t)
	if got := f.engine.State().ErrorMessage; got != MsgCommandFailed {
		t.Fatalf("ErrorMessage = %q, want %q", got, MsgCommandFailed)
	}

	f.engine.EndSeek()
	f.clk.Advance(60 * time.Millisecond)
	f.engine.Seek(50_000_000)
	f.flush(t)
}

func TestEngine_RefreshLosesTarget(t *testing.T) {
	f := newFixture(t)
	f.connect(t, 50, 0)
	if err := f.bridge.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}

	// The target disappears from the list
	f.serve(playing("s2", 10, 0))
	f.sink.EXPECT().Stop(gomock.Any()).Return(nil)

	result, err := f.engine.RefreshSessions(context.Background())
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if !result.Lost {
		t.Error("refresh should report the lost target")
	}
	f.flush(t)

	state := f.engine.State()
	if state.Target != nil || state.Playback != nil {
		t.Errorf("target and playback should be cleared, got %+v", state)
	}
	if f.poller.Running() {
		t.Error("polling should stop when the target is lost")
	}
}

func TestEngine_StartRestoresTarget(t *testing.T) {
	f := newFixture(t)

	f.store.EXPECT().LastSessionID().Return("s1", true, nil)
	f.serve(playing("s1", 20, 0))
	f.sink.EXPECT().Start(gomock.Any(), "Movie").Return(nil).AnyTimes()

	if err := f.engine.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	s := f.waitFor(t, "restored playback", func(s RemoteState) bool { return s.Playback != nil })
	if s.Target == nil || s.Target.SessionID != "s1" {
		t.Errorf("expected restored target s1, got %+v", s.Target)
	}
	if len(s.Sessions) != 1 {
		t.Errorf("expected session list, got %v", s.Sessions)
	}
}

func TestEngine_StartToleratesOfflineServer(t *testing.T) {
	f := newFixture(t)
	f.transport.EXPECT().FetchControllableSessions(gomock.Any(), gomock.Any()).Return(nil, errors.New("dial tcp: refused"))

	if err := f.engine.Start(context.Background()); err != nil {
		t.Fatalf("Start should not fail when the server is down: %v", err)
	}
	if got := f.engine.State().ErrorMessage; got != MsgSessionsFailed {
		t.Errorf("ErrorMessage = %q, want %q", got, MsgSessionsFailed)
	}
}
