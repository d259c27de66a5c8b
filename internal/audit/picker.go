package audit

import (
	"fmt"
	"net/url"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/staywatch/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)

	pickerSiteStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 0, 0, 2)

	pickerHostStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// Target is one search page that can be audited.
type Target struct {
	Site  string
	Query model.Query
}

type pickerModel struct {
	targets []Target
	cursor  int
	chosen  int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.targets)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Rule Audit: select a search")
	s += "\n"

	site := ""
	for i, t := range m.targets {
		if t.Site != site {
			site = t.Site
			s += pickerSiteStyle.Render(site) + "\n"
		}
		label := t.Query.Name
		if host := hostOf(t.Query.URL); host != "" {
			label += pickerHostStyle.Render("  " + host)
		}
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render(fmt.Sprintf("%d searches  ↑/↓/j/k navigate  enter render  q quit", len(m.targets)))
	return s
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

// RunPicker shows an interactive search selector.
// Returns the index of the chosen target, or a negative value if the user quit.
func RunPicker(targets []Target) (int, error) {
	m := pickerModel{
		targets: targets,
		chosen:  -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return -1, err
	}

	final := result.(pickerModel)
	return final.chosen, nil
}
