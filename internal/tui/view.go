package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/genricoloni/synremote/internal/domain"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))

	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true)
	timeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	frameStyle = lipgloss.NewStyle().Padding(1, 2)
)

// View renders the active screen
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("synremote"))
	b.WriteString("\n\n")

	if m.screen == pickerScreen {
		b.WriteString(m.pickerView())
	} else {
		b.WriteString(m.remoteView())
	}

	if line := m.errorLine(); line != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.helpC.View(m.keys))
	return frameStyle.Render(b.String())
}

func (m *Model) pickerView() string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Sessions"))
	b.WriteString("\n")

	if len(m.state.Sessions) == 0 {
		if m.state.IsLoading {
			b.WriteString(dimStyle.Render("Loading sessions..."))
		} else {
			b.WriteString(dimStyle.Render("No controllable sessions, press r to refresh"))
		}
		b.WriteString("\n")
		return b.String()
	}

	for i, s := range m.state.Sessions {
		row := s.Label()
		if s.NowPlayingName != "" {
			row += dimStyle.Render("  " + s.NowPlayingName)
		}
		if m.state.Target != nil && s.Same(*m.state.Target) {
			row = "* " + row
		} else {
			row = "  " + row
		}
		if i == m.cursor {
			row = selectedRowStyle.Render(row)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) remoteView() string {
	var b strings.Builder
	if t := m.state.Target; t != nil {
		b.WriteString(labelStyle.Render("Target "))
		b.WriteString(t.Label())
		b.WriteString("\n\n")
	}

	pb := m.state.Playback
	if pb == nil {
		b.WriteString(dimStyle.Render("Waiting for the session..."))
		b.WriteString("\n")
		return b.String()
	}
	if !pb.HasMedia() {
		b.WriteString(dimStyle.Render("Nothing playing"))
		b.WriteString("\n")
	} else {
		b.WriteString(headingStyle.Render(pb.Title()))
		b.WriteString("\n")

		status := "Playing"
		if pb.IsPaused {
			status = "Paused"
		}
		b.WriteString(fmt.Sprintf("%s  %s", status, timeStyle.Render(positionText(pb.PositionTicks, pb.DurationTicks))))
		b.WriteString("\n")
		if percent, ok := pb.Progress(); ok {
			b.WriteString(m.progressC.ViewAs(percent))
			b.WriteString("\n")
		}
	}

	volume := fmt.Sprintf("Volume %3d", pb.VolumeLevel)
	if pb.IsMuted {
		volume += " (muted)"
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render(volume))
	b.WriteString("\n")
	b.WriteString(m.volumeC.ViewAs(float64(pb.VolumeLevel) / domain.MaxVolume))
	b.WriteString("\n")

	if pb.HasMedia() {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Audio: " + streamLabel(pb.AudioStreams, pb.SelectedAudioIndex)))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("Subtitles: " + streamLabel(pb.SubtitleStreams, pb.SelectedSubtitleIndex)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) errorLine() string {
	if m.state.ErrorMessage != "" {
		return m.state.ErrorMessage
	}
	if m.state.SessionNotFound {
		return "Session not found"
	}
	return ""
}

func positionText(position int64, duration mo.Option[int64]) string {
	if d, ok := duration.Get(); ok && d > 0 {
		return formatTicks(position) + " / " + formatTicks(d)
	}
	return formatTicks(position)
}

// formatTicks renders ticks as m:ss, or h:mm:ss past the hour
func formatTicks(ticks int64) string {
	total := max(ticks/domain.TicksPerSecond, 0)
	h, mins, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mins, s)
	}
	return fmt.Sprintf("%d:%02d", mins, s)
}

func streamLabel(streams []domain.MediaStream, selected mo.Option[int]) string {
	index, ok := selected.Get()
	if !ok || index == subtitleOff {
		return "Off"
	}
	stream, found := lo.Find(streams, func(s domain.MediaStream) bool { return s.Index == index })
	if !found {
		return "Off"
	}
	label, _ := lo.Coalesce(stream.DisplayTitle, stream.Language, stream.Codec)
	if label == "" {
		label = fmt.Sprintf("#%d", stream.Index)
	}
	return label
}
