package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the bindings of both screens; help shows those of the active one
type keyMap struct {
	screen screen

	up, down, choose, refresh, back, quit key.Binding

	playPause, seekBack, seekForward, volumeUp, volumeDown,
	mute, next, previous, stop, audio, subtitles key.Binding
}

func newKeyMap() *keyMap {
	return &keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		choose: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "control"),
		),
		refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "sessions"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		playPause: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		seekBack: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "rewind"),
		),
		seekForward: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "forward"),
		),
		volumeUp: key.NewBinding(
			key.WithKeys("up", "+"),
			key.WithHelp("↑", "volume up"),
		),
		volumeDown: key.NewBinding(
			key.WithKeys("down", "-"),
			key.WithHelp("↓", "volume down"),
		),
		mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		next: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next"),
		),
		previous: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "previous"),
		),
		stop: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stop"),
		),
		audio: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "audio track"),
		),
		subtitles: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "subtitles"),
		),
	}
}

func (k *keyMap) ShortHelp() []key.Binding {
	if k.screen == pickerScreen {
		return []key.Binding{k.up, k.down, k.choose, k.refresh, k.quit}
	}
	return []key.Binding{k.playPause, k.seekBack, k.seekForward, k.volumeUp, k.volumeDown, k.back, k.quit}
}

func (k *keyMap) FullHelp() [][]key.Binding {
	if k.screen == pickerScreen {
		return [][]key.Binding{k.ShortHelp()}
	}
	return [][]key.Binding{
		{k.playPause, k.stop, k.next, k.previous},
		{k.seekBack, k.seekForward, k.volumeUp, k.volumeDown, k.mute},
		{k.audio, k.subtitles, k.refresh, k.back, k.quit},
	}
}
