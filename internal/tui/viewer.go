// Package tui is a scrollable terminal viewer for rendered reports.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Viewer shows a block of pre-rendered text in a viewport.
type Viewer struct {
	title    string
	content  string
	keys     KeyMap
	viewport viewport.Model
	ready    bool
}

// NewViewer creates a viewer for content with a title bar.
func NewViewer(title, content string) *Viewer {
	return &Viewer{
		title:   title,
		content: strings.TrimRight(content, "\n"),
		keys:    DefaultKeyMap(),
	}
}

func (v *Viewer) Init() tea.Cmd { return nil }

func (v *Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		height := msg.Height - lipgloss.Height(v.header()) - 1
		if height < 1 {
			height = 1
		}
		if !v.ready {
			v.viewport = viewport.New(msg.Width, height)
			v.viewport.SetContent(v.content)
			v.ready = true
		} else {
			v.viewport.Width = msg.Width
			v.viewport.Height = height
		}
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit), key.Matches(msg, v.keys.ForceQuit):
			return v, tea.Quit
		case !v.ready:
			return v, nil
		case key.Matches(msg, v.keys.Up):
			v.viewport.ScrollUp(1)
			return v, nil
		case key.Matches(msg, v.keys.Down):
			v.viewport.ScrollDown(1)
			return v, nil
		case key.Matches(msg, v.keys.PageUp):
			v.viewport.HalfPageUp()
			return v, nil
		case key.Matches(msg, v.keys.PageDown):
			v.viewport.HalfPageDown()
			return v, nil
		case key.Matches(msg, v.keys.Home):
			v.viewport.GotoTop()
			return v, nil
		case key.Matches(msg, v.keys.End):
			v.viewport.GotoBottom()
			return v, nil
		}
	}

	if !v.ready {
		return v, nil
	}
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v *Viewer) View() string {
	if !v.ready {
		return "loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left, v.header(), v.viewport.View(), v.footer())
}

func (v *Viewer) header() string {
	return titleStyle.Render(v.title)
}

func (v *Viewer) footer() string {
	var parts []string
	for _, b := range v.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	pct := fmt.Sprintf("%3.0f%%", v.viewport.ScrollPercent()*100)
	return footerStyle.Render(strings.Join(parts, " • ") + "  " + pct)
}

// Run opens the viewer full screen and blocks until the user quits.
func Run(title, content string) error {
	p := tea.NewProgram(NewViewer(title, content), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
