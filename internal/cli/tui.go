package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/solgraph/solgraph/pkg/model"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// selectEntities runs the interactive contract picker and returns the
// chosen subset in the original order.
func selectEntities(entities []*model.Entity) ([]*model.Entity, error) {
	m := newEntityListModel(entities)
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, err
	}

	result, ok := final.(entityListModel)
	if !ok || result.aborted {
		return nil, nil
	}

	var picked []*model.Entity
	for i, e := range entities {
		if result.checked[i] {
			picked = append(picked, e)
		}
	}
	return picked, nil
}

// entityListModel is the bubbletea model for interactive contract selection.
// All contracts start checked; space toggles, enter confirms.
type entityListModel struct {
	entities []*model.Entity
	checked  []bool
	cursor   int
	height   int
	offset   int
	aborted  bool
}

func newEntityListModel(entities []*model.Entity) entityListModel {
	checked := make([]bool, len(entities))
	for i := range checked {
		checked[i] = true
	}
	return entityListModel{
		entities: entities,
		checked:  checked,
		height:   15,
	}
}

func (m entityListModel) Init() tea.Cmd {
	return nil
}

func (m entityListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				if m.cursor < m.offset {
					m.offset = m.cursor
				}
			}
		case "down", "j":
			if m.cursor < len(m.entities)-1 {
				m.cursor++
				if m.cursor >= m.offset+m.height {
					m.offset = m.cursor - m.height + 1
				}
			}
		case " ":
			m.checked[m.cursor] = !m.checked[m.cursor]
		case "a":
			all := !m.allChecked()
			for i := range m.checked {
				m.checked[i] = all
			}
		case "enter":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 5 {
			m.height = 5
		}
	}
	return m, nil
}

func (m entityListModel) allChecked() bool {
	for _, c := range m.checked {
		if !c {
			return false
		}
	}
	return true
}

func (m entityListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Contracts"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ confirm  q quit"))
	b.WriteString("\n\n")

	end := m.offset + m.height
	if end > len(m.entities) {
		end = len(m.entities)
	}

	for i := m.offset; i < end; i++ {
		e := m.entities[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "▸ "
		}
		check := "[ ]"
		if m.checked[i] {
			check = "[x]"
		}

		kind := e.Stereotype.String()
		if kind == "" {
			kind = "contract"
		}

		line := fmt.Sprintf("%s%s %-30s %-10s %s",
			cursor, check, e.Name, kind, listDimStyle.Render(e.CodePath))

		switch {
		case i == m.cursor:
			b.WriteString(listSelectedStyle.Render(line))
		case m.checked[i]:
			b.WriteString(listNormalStyle.Render(line))
		default:
			b.WriteString(listDimStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.cursor+1, len(m.entities))))

	return b.String()
}
