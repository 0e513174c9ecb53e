// Package ui provides a terminal pager over query results. It is a second
// transport for the pagination state machine: arrow keys play the role the
// Slack reactions play in chat.
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cvebot/internal/pagination"
	"cvebot/internal/render"
)

// keyControls maps pagination signals to bubbletea key names.
var keyControls = pagination.Controls{Retreat: "left", Advance: "right"}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

type pagerModel struct {
	session *pagination.Session
	page    render.Page
	width   int
	expired bool
}

func newPagerModel(session *pagination.Session) pagerModel {
	return pagerModel{
		session: session,
		page:    session.Current(),
		width:   80,
	}
}

func (m pagerModel) Init() tea.Cmd {
	return tickCmd()
}

func (m pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		if !m.session.Active() {
			m.expired = true
			return m, tea.Quit
		}
		return m, tickCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.session.Close()
			return m, tea.Quit
		default:
			sig, ok := m.session.Filter(pagination.Event{Token: msg.String()})
			if !ok {
				return m, nil
			}
			if page, changed := m.session.Apply(sig); changed {
				m.page = page
			}
			return m, nil
		}
	}
	return m, nil
}

func (m pagerModel) View() string {
	if m.expired {
		return footerStyle.Render("Session expired.") + "\n"
	}

	color := lipgloss.Color(m.page.Color)
	title := titleStyle.Foreground(color).Render(m.page.Title)
	severity := severityLabelStyle.Render("Severity: ") +
		severityValueStyle.Foreground(color).Render(m.page.Severity)

	panelWidth := m.width - 4
	if panelWidth > 100 {
		panelWidth = 100
	}
	body := lipgloss.NewStyle().Width(panelWidth - 6).Render(m.page.Body)

	panel := panelStyle.BorderForeground(color).Width(panelWidth).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, body, "", severity),
	)

	footer := footerStyle.Render(fmt.Sprintf(
		"page %d/%d  •  ←/→ navigate  •  q quit",
		m.session.Index()+1, m.session.Len(),
	))

	return lipgloss.JoinVertical(lipgloss.Left, panel, footer) + "\n"
}

// RunPager browses pages interactively until the user quits or the
// session's timeout elapses.
func RunPager(pages []render.Page, timeout time.Duration) error {
	session, err := pagination.NewSession(pages,
		pagination.WithTimeout(timeout),
		pagination.WithControls(keyControls),
	)
	if err != nil {
		return err
	}
	defer session.Close()

	_, err = tea.NewProgram(newPagerModel(session)).Run()
	return err
}
