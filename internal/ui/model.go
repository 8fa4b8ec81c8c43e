// Package ui implements the interactive terminal interface: a template
// library, a value editor with live formula results, and a preview of the
// filled document.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/quotetpl/quotetpl/internal/models"
	"github.com/quotetpl/quotetpl/internal/renderer"
	"github.com/quotetpl/quotetpl/internal/service"
)

// ViewMode represents the current view in the TUI
type ViewMode int

const (
	ViewLibrary ViewMode = iota
	ViewValues
	ViewPreview
)

// Messages for async operations
type templatesLoadedMsg struct {
	templates []*models.Template
	err       error
}

type previewMsg struct {
	text string
	err  error
}

type statusMsg string

func loadTemplatesCmd(session *service.Session) tea.Cmd {
	return func() tea.Msg {
		templates, err := session.ListTemplates()
		return templatesLoadedMsg{templates: templates, err: err}
	}
}

func previewCmd(session *service.Session) tea.Cmd {
	return func() tea.Msg {
		text, err := session.FilledText()
		return previewMsg{text: text, err: err}
	}
}

// Model is the root bubbletea model
type Model struct {
	session *service.Session

	mode     ViewMode
	library  list.Model
	viewport viewport.Model
	input    textinput.Model

	displays []renderer.FieldDisplay
	cursor   int
	editing  bool

	status string
	err    error

	width  int
	height int
}

// NewModel creates the root model and kicks off the initial load
func NewModel(session *service.Session) *Model {
	initializeStyles()

	delegate := list.NewDefaultDelegate()
	library := list.New(nil, delegate, 0, 0)
	library.Title = "Templates"
	library.SetShowStatusBar(false)

	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 256

	m := &Model{
		session: session,
		mode:    ViewLibrary,
		library: library,
		input:   input,
	}
	if session.ActiveTemplate() != nil {
		m.mode = ViewValues
		m.refreshDisplays()
	}
	return m
}

// Init starts the initial template load
func (m *Model) Init() tea.Cmd {
	return loadTemplatesCmd(m.session)
}

func (m *Model) refreshDisplays() {
	displays, err := m.session.FieldDisplays()
	if err != nil {
		m.err = err
		return
	}
	m.displays = displays
	if m.cursor >= len(m.displays) {
		m.cursor = len(m.displays) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.library.SetSize(msg.Width-4, msg.Height-6)
		m.viewport = viewport.New(msg.Width-4, msg.Height-6)
		return m, nil

	case templatesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		items := make([]list.Item, len(msg.templates))
		for i, t := range msg.templates {
			items[i] = *t
		}
		m.library.SetItems(items)
		return m, nil

	case previewMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.viewport.SetContent(msg.text)
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleEditKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		if m.mode == ViewLibrary || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.mode = ViewLibrary
		m.status = ""
		return m, loadTemplatesCmd(m.session)
	case "esc":
		if m.mode != ViewLibrary {
			m.mode = ViewLibrary
			m.status = ""
			return m, loadTemplatesCmd(m.session)
		}
		return m, nil
	}

	switch m.mode {
	case ViewLibrary:
		return m.handleLibraryKey(msg)
	case ViewValues:
		return m.handleValuesKey(msg)
	case ViewPreview:
		return m.handlePreviewKey(msg)
	}
	return m, nil
}

func (m *Model) handleLibraryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if t, ok := m.library.SelectedItem().(models.Template); ok {
			if err := m.session.OpenTemplate(t.ID); err != nil {
				m.err = err
				return m, nil
			}
			m.err = nil
			m.mode = ViewValues
			m.cursor = 0
			m.refreshDisplays()
		}
		return m, nil
	case "x":
		if t, ok := m.library.SelectedItem().(models.Template); ok {
			if err := m.session.DeleteTemplate(t.ID); err != nil {
				m.err = err
				return m, nil
			}
			m.status = "Deleted " + t.Name
			return m, loadTemplatesCmd(m.session)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.library, cmd = m.library.Update(msg)
	return m, cmd
}

func (m *Model) handleValuesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.displays)-1 {
			m.cursor++
		}
	case "enter", "e":
		if m.cursor < len(m.displays) {
			d := m.displays[m.cursor]
			t := m.session.ActiveTemplate()
			raw := ""
			if t != nil {
				raw = t.ValuesByFieldID[d.Field.ID]
			}
			m.input.SetValue(raw)
			m.input.Focus()
			m.editing = true
			return m, textinput.Blink
		}
	case "p":
		m.mode = ViewPreview
		return m, previewCmd(m.session)
	case "c":
		if err := m.session.CopyText(); err != nil {
			m.err = err
			return m, nil
		}
		m.status = "Copied to clipboard!"
	case "s":
		if err := m.session.Flush(); err != nil {
			m.err = err
			return m, nil
		}
		m.status = "Saved"
	}
	return m, nil
}

func (m *Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		d := m.displays[m.cursor]
		if err := m.session.SetValue(d.Field.ID, m.input.Value()); err != nil {
			m.err = err
		}
		m.editing = false
		m.input.Blur()
		m.refreshDisplays()
		return m, nil
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handlePreviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "v":
		m.mode = ViewValues
		m.refreshDisplays()
		return m, nil
	case "c":
		if err := m.session.CopyText(); err != nil {
			m.err = err
			return m, nil
		}
		m.status = "Copied to clipboard!"
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the current mode
func (m *Model) View() string {
	var body string
	switch m.mode {
	case ViewLibrary:
		body = m.library.View()
	case ViewValues:
		body = m.valuesView()
	case ViewPreview:
		body = m.previewView()
	}

	var footer []string
	if m.err != nil {
		footer = append(footer, errorStyle.Render("Error: "+m.err.Error()))
	}
	if m.status != "" {
		footer = append(footer, statusStyle.Render(m.status))
	}
	footer = append(footer, m.helpLine())

	return body + "\n" + strings.Join(footer, "\n")
}

func (m *Model) valuesView() string {
	t := m.session.ActiveTemplate()
	if t == nil {
		return helpStyle.Render("No template is open")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(t.Name))
	b.WriteString("\n\n")

	if len(m.displays) == 0 {
		b.WriteString(valueStyle.Render("No fields defined yet"))
	}
	for i, d := range m.displays {
		label := fmt.Sprintf("%s (%s)", d.Field.Name, d.Field.Type)
		value := d.Display.Text
		rendered := valueStyle.Render(value)
		if d.Display.Err {
			rendered = errValueStyle.Render(renderer.ErrValue + " " + d.Display.Message)
		}
		line := fieldStyle.Render(label)
		if i == m.cursor {
			line = selectedStyle.Render("▸ " + label)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
		if m.editing && i == m.cursor {
			b.WriteString("    " + m.input.View() + "\n")
		} else {
			b.WriteString("    " + rendered + "\n")
		}
	}

	if dups := m.session.DuplicateNames(); len(dups) > 0 {
		b.WriteString("\n" + errorStyle.Render("Duplicate names: "+strings.Join(dups, ", ")))
	}
	return paneStyle.Render(b.String())
}

func (m *Model) previewView() string {
	t := m.session.ActiveTemplate()
	if t == nil {
		return helpStyle.Render("No template is open")
	}
	header := titleStyle.Render(t.Name) +
		valueStyle.Render(fmt.Sprintf("  [%s]", m.session.EffectiveDirection()))
	return header + "\n" + paneStyle.Render(m.viewport.View())
}

func (m *Model) helpLine() string {
	switch m.mode {
	case ViewLibrary:
		return helpStyle.Render("enter: open • x: delete • /: filter • q: quit")
	case ViewValues:
		if m.editing {
			return helpStyle.Render("enter: apply • esc: cancel")
		}
		return helpStyle.Render("↑/↓: select • enter: edit • p: preview • c: copy • s: save • esc: library")
	case ViewPreview:
		return helpStyle.Render("↑/↓: scroll • v: values • c: copy • esc: library")
	}
	return ""
}
