// Package tui is the terminal remote: a session picker and a remote screen
// driven by the engine's state updates.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/genricoloni/synremote/internal/domain"
	"github.com/genricoloni/synremote/internal/engine"
	"github.com/genricoloni/synremote/internal/selector"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

// Remote is the part of the engine the terminal remote drives
type Remote interface {
	State() engine.RemoteState
	Subscribe(fn func(engine.RemoteState)) func()
	RefreshSessions(ctx context.Context) (selector.RefreshResult, error)
	SetTargetSession(session domain.TargetSession)

	PlayPause()
	StopPlayback()
	Next()
	Previous()
	SeekStep(dir int)
	RotateVolume(magnitude float64)
	ToggleMute()
	SetAudioStream(index int)
	SetSubtitleStream(index int)
}

type screen int

const (
	pickerScreen screen = iota
	remoteScreen
)

// subtitleOff is the stream index that disables subtitles
const subtitleOff = -1

const maxBarWidth = 60

type stateMsg engine.RemoteState

type refreshedMsg struct{ err error }

// Model is the bubbletea model of the terminal remote
type Model struct {
	ctx    context.Context
	logger *zap.Logger
	remote Remote

	screen screen
	cursor int
	state  engine.RemoteState

	// updates holds the latest state not yet picked up by the program
	updates chan engine.RemoteState

	keys      *keyMap
	helpC     help.Model
	progressC progress.Model
	volumeC   progress.Model

	width int
}

// New builds the model. It starts on the remote screen when a target is
// already selected.
func New(ctx context.Context, logger *zap.Logger, remote Remote) *Model {
	m := &Model{
		ctx:       ctx,
		logger:    logger,
		remote:    remote,
		state:     remote.State(),
		updates:   make(chan engine.RemoteState, 1),
		keys:      newKeyMap(),
		helpC:     help.New(),
		progressC: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		volumeC:   progress.New(progress.WithSolidFill("#7D56F4"), progress.WithoutPercentage()),
	}
	if m.state.Target != nil {
		m.setScreen(remoteScreen)
	}
	return m
}

// Run shows the terminal remote until the user quits or ctx is cancelled
func Run(ctx context.Context, logger *zap.Logger, remote Remote) error {
	m := New(ctx, logger, remote)
	unsubscribe := remote.Subscribe(m.push)
	defer unsubscribe()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}

// push hands a state to the program, replacing any state it has not read
// yet. It never blocks.
func (m *Model) push(state engine.RemoteState) {
	select {
	case <-m.updates:
	default:
	}
	select {
	case m.updates <- state:
	default:
	}
}

func (m *Model) waitForState() tea.Cmd {
	return func() tea.Msg {
		select {
		case state := <-m.updates:
			return stateMsg(state)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		_, err := m.remote.RefreshSessions(m.ctx)
		return refreshedMsg{err: err}
	}
}

func (m *Model) setScreen(s screen) {
	m.screen = s
	m.keys.screen = s
}

// Init starts listening for state updates and refreshes the session list
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForState(), m.refresh())
}

// Update handles one message
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width)
		return m, nil
	case stateMsg:
		m.state = engine.RemoteState(msg)
		m.clampCursor()
		if m.state.Target == nil && m.screen == remoteScreen {
			m.setScreen(pickerScreen)
		}
		return m, m.waitForState()
	case refreshedMsg:
		if msg.err != nil {
			m.logger.Debug("Session refresh failed", zap.Error(msg.err))
		}
		return m, nil
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		if key.Matches(msg, m.keys.refresh) {
			return m, m.refresh()
		}
		if m.screen == pickerScreen {
			return m, m.updatePicker(msg)
		}
		return m, m.updateRemote(msg)
	}
	return m, nil
}

func (m *Model) updatePicker(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.down):
		if m.cursor < len(m.state.Sessions)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.choose):
		if len(m.state.Sessions) == 0 {
			return nil
		}
		session := m.state.Sessions[m.cursor]
		m.remote.SetTargetSession(session)
		m.setScreen(remoteScreen)
	}
	return nil
}

func (m *Model) updateRemote(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.back):
		m.setScreen(pickerScreen)
		m.focusTarget()
	case key.Matches(msg, m.keys.playPause):
		m.remote.PlayPause()
	case key.Matches(msg, m.keys.seekBack):
		m.remote.SeekStep(-1)
	case key.Matches(msg, m.keys.seekForward):
		m.remote.SeekStep(1)
	case key.Matches(msg, m.keys.volumeUp):
		m.remote.RotateVolume(1)
	case key.Matches(msg, m.keys.volumeDown):
		m.remote.RotateVolume(-1)
	case key.Matches(msg, m.keys.mute):
		m.remote.ToggleMute()
	case key.Matches(msg, m.keys.next):
		m.remote.Next()
	case key.Matches(msg, m.keys.previous):
		m.remote.Previous()
	case key.Matches(msg, m.keys.stop):
		m.remote.StopPlayback()
	case key.Matches(msg, m.keys.audio):
		if pb := m.state.Playback; pb != nil {
			if index, ok := nextStream(pb.AudioStreams, pb.SelectedAudioIndex, false); ok {
				m.remote.SetAudioStream(index)
			}
		}
	case key.Matches(msg, m.keys.subtitles):
		if pb := m.state.Playback; pb != nil {
			if index, ok := nextStream(pb.SubtitleStreams, pb.SelectedSubtitleIndex, true); ok {
				m.remote.SetSubtitleStream(index)
			}
		}
	}
	return nil
}

// focusTarget moves the picker cursor onto the current target
func (m *Model) focusTarget() {
	if m.state.Target == nil {
		return
	}
	_, index, ok := lo.FindIndexOf(m.state.Sessions, func(s domain.TargetSession) bool {
		return s.Same(*m.state.Target)
	})
	if ok {
		m.cursor = index
	}
}

func (m *Model) clampCursor() {
	m.cursor = lo.Clamp(m.cursor, 0, max(len(m.state.Sessions)-1, 0))
}

func (m *Model) resize(width int) {
	m.width = width
	m.helpC.Width = width
	barWidth := min(max(width-4, 10), maxBarWidth)
	m.progressC.Width = barWidth
	m.volumeC.Width = barWidth
}

// nextStream returns the stream index following the selected one, wrapping
// around. With allowOff the cycle passes through subtitleOff.
func nextStream(streams []domain.MediaStream, selected mo.Option[int], allowOff bool) (int, bool) {
	if len(streams) == 0 {
		return 0, false
	}
	indices := lo.Map(streams, func(s domain.MediaStream, _ int) int { return s.Index })
	if allowOff {
		indices = append([]int{subtitleOff}, indices...)
	}

	current := lo.IndexOf(indices, selected.OrElse(subtitleOff))
	if current < 0 {
		return indices[0], true
	}
	return indices[(current+1)%len(indices)], true
}
