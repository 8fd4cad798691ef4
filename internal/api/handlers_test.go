package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/genricoloni/synremote/internal/config"
	"github.com/genricoloni/synremote/internal/domain"
	"github.com/genricoloni/synremote/internal/engine"
	"github.com/genricoloni/synremote/internal/selector"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

// fakeController records the intents it receives
type fakeController struct {
	state      engine.RemoteState
	refreshed  []domain.TargetSession
	refreshErr error
	calls      []string
}

func (f *fakeController) record(call string) { f.calls = append(f.calls, call) }

func (f *fakeController) State() engine.RemoteState { return f.state }

func (f *fakeController) RefreshSessions(context.Context) (selector.RefreshResult, error) {
	f.record("refresh")
	if f.refreshErr != nil {
		return selector.RefreshResult{}, f.refreshErr
	}
	f.state.Sessions = f.refreshed
	return selector.RefreshResult{Sessions: f.refreshed}, nil
}

func (f *fakeController) SetTargetSession(s domain.TargetSession) {
	f.record("target:" + s.SessionID)
	f.state.Target = &s
}

func (f *fakeController) ClearTargetSession() {
	f.record("clear")
	f.state.Target = nil
}

func (f *fakeController) HasTarget() bool { return f.state.Target != nil }

func (f *fakeController) PlayPause()               { f.record("PlayPause") }
func (f *fakeController) Pause()                   { f.record("Pause") }
func (f *fakeController) Unpause()                 { f.record("Unpause") }
func (f *fakeController) StopPlayback()            { f.record("Stop") }
func (f *fakeController) Next()                    { f.record("Next") }
func (f *fakeController) Previous()                { f.record("Previous") }
func (f *fakeController) Rewind()                  { f.record("Rewind") }
func (f *fakeController) FastForward()             { f.record("FastForward") }
func (f *fakeController) Seek(ticks int64)         { f.record("Seek:" + itoa(ticks)) }
func (f *fakeController) SeekBy(seconds int)       { f.record("SeekBy:" + itoa(int64(seconds))) }
func (f *fakeController) VolumeUp()                { f.record("VolumeUp") }
func (f *fakeController) VolumeDown()              { f.record("VolumeDown") }
func (f *fakeController) SetVolume(level int)      { f.record("SetVolume:" + itoa(int64(level))) }
func (f *fakeController) AdjustVolume(steps int)   { f.record("AdjustVolume:" + itoa(int64(steps))) }
func (f *fakeController) ToggleMute()              { f.record("ToggleMute") }
func (f *fakeController) Mute()                    { f.record("Mute") }
func (f *fakeController) Unmute()                  { f.record("Unmute") }
func (f *fakeController) SetAudioStream(index int) { f.record("Audio:" + itoa(int64(index))) }
func (f *fakeController) SetSubtitleStream(i int)  { f.record("Subtitle:" + itoa(int64(i))) }

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func withTarget() *fakeController {
	return &fakeController{state: engine.RemoteState{Target: &domain.TargetSession{SessionID: "s1"}}}
}

func TestRunCommand(t *testing.T) {
	tests := []struct {
		name     string
		ctrl     *fakeController
		target   string
		status   int
		wantCall string
	}{
		{"Play Pause", withTarget(), "/commands/play-pause", http.StatusAccepted, "PlayPause"},
		{"Stop", withTarget(), "/commands/stop", http.StatusAccepted, "Stop"},
		{"Seek By", withTarget(), "/commands/seek-by?value=-10", http.StatusAccepted, "SeekBy:-10"},
		{"Set Volume", withTarget(), "/commands/volume?value=45", http.StatusAccepted, "SetVolume:45"},
		{"Subtitles Off", withTarget(), "/commands/subtitle-stream?value=-1", http.StatusAccepted, "Subtitle:-1"},
		{"Unknown Intent", withTarget(), "/commands/eject", http.StatusNotFound, ""},
		{"Missing Value", withTarget(), "/commands/seek", http.StatusBadRequest, ""},
		{"Bad Value", withTarget(), "/commands/volume?value=loud", http.StatusBadRequest, ""},
		{"No Target", &fakeController{}, "/commands/play-pause", http.StatusConflict, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, NewRouter(zap.NewNop(), tt.ctrl), http.MethodPost, tt.target, "")

			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.wantCall == "" {
				if len(tt.ctrl.calls) != 0 {
					t.Errorf("no intent should run, got %v", tt.ctrl.calls)
				}
				return
			}
			if len(tt.ctrl.calls) != 1 || tt.ctrl.calls[0] != tt.wantCall {
				t.Errorf("calls = %v, want [%s]", tt.ctrl.calls, tt.wantCall)
			}
		})
	}
}

func TestGetState(t *testing.T) {
	duration := int64(100)
	ctrl := withTarget()
	ctrl.state.Playback = &domain.DisplayState{
		PlaybackSnapshot: domain.PlaybackSnapshot{
			PositionTicks:  25,
			DurationTicks:  mo.Some(duration),
			VolumeLevel:    45,
			NowPlayingID:   mo.Some("item-1"),
			NowPlayingName: mo.Some("Movie"),
		},
		VolumePending: true,
	}
	ctrl.state.ErrorMessage = engine.MsgConnectionLost

	rec := do(t, NewRouter(zap.NewNop(), ctrl), http.MethodGet, "/state", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body struct {
		Target   *struct{ ID string } `json:"target"`
		Playback *struct {
			Title         *string  `json:"title"`
			Volume        int      `json:"volume"`
			VolumePending bool     `json:"volumePending"`
			Progress      *float64 `json:"progress"`
			AudioIndex    *int     `json:"audioIndex"`
		} `json:"playback"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if body.Target == nil || body.Target.ID != "s1" {
		t.Errorf("unexpected target %+v", body.Target)
	}
	if body.Playback == nil || body.Playback.Volume != 45 || !body.Playback.VolumePending {
		t.Fatalf("unexpected playback %+v", body.Playback)
	}
	if body.Playback.Title == nil || *body.Playback.Title != "Movie" {
		t.Error("title missing")
	}
	if body.Playback.Progress == nil || *body.Playback.Progress != 0.25 {
		t.Error("progress should be 0.25")
	}
	if body.Playback.AudioIndex != nil {
		t.Error("absent audio index should be null")
	}
	if body.Error != engine.MsgConnectionLost {
		t.Errorf("error = %q", body.Error)
	}
}

func TestTargetSelection(t *testing.T) {
	t.Run("Known After Refresh", func(t *testing.T) {
		ctrl := &fakeController{refreshed: []domain.TargetSession{{SessionID: "s2", DeviceName: "TV"}}}
		rec := do(t, NewRouter(zap.NewNop(), ctrl), http.MethodPut, "/target", `{"sessionId":"s2"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d (%s)", rec.Code, rec.Body.String())
		}
		if strings.Join(ctrl.calls, ",") != "refresh,target:s2" {
			t.Errorf("calls = %v", ctrl.calls)
		}
	})

	t.Run("Unknown Session", func(t *testing.T) {
		ctrl := &fakeController{}
		rec := do(t, NewRouter(zap.NewNop(), ctrl), http.MethodPut, "/target", `{"sessionId":"nope"}`)
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("Malformed Body", func(t *testing.T) {
		rec := do(t, NewRouter(zap.NewNop(), &fakeController{}), http.MethodPut, "/target", `{`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		ctrl := withTarget()
		rec := do(t, NewRouter(zap.NewNop(), ctrl), http.MethodDelete, "/target", "")
		if rec.Code != http.StatusNoContent || ctrl.HasTarget() {
			t.Errorf("status = %d, target %v", rec.Code, ctrl.state.Target)
		}
	})
}

func TestListSessions(t *testing.T) {
	ctrl := &fakeController{refreshed: []domain.TargetSession{
		{SessionID: "a", DeviceName: "TV", SupportsMediaControl: true},
		{SessionID: "b", DeviceName: "Phone"},
	}}
	rec := do(t, NewRouter(zap.NewNop(), ctrl), http.MethodGet, "/sessions", "")

	var sessions []sessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&sessions); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(sessions) != 2 || sessions[0].ID != "a" || !sessions[0].MediaControl {
		t.Errorf("unexpected sessions %+v", sessions)
	}

	ctrl.refreshErr = errors.New("offline")
	if rec := do(t, NewRouter(zap.NewNop(), ctrl), http.MethodGet, "/sessions", ""); rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestServer_StartStop(t *testing.T) {
	srv := NewServer(zap.NewNop(), config.Static{Listen: "127.0.0.1:0"}, &fakeController{})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/state")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
