package feedbackform

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/avasquez/eventdesk/internal/model"
	"github.com/avasquez/eventdesk/internal/theme"
)

// FeedbackSubmitMsg is dispatched when the user submits a rating.
type FeedbackSubmitMsg struct {
	Event   model.Event
	Rating  int
	Comment string
}

// FeedbackCancelMsg is dispatched when the user abandons the form.
type FeedbackCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	rating  int
	comment string
}

// Model is the rating and comment form for an attended event.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	event  model.Event
	width  int
	height int
}

// New creates a new feedback form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{rating: 5},
		width:  width,
		height: height,
	}
}

// Start initializes the form for the given event.
func (m *Model) Start(ev model.Event) tea.Cmd {
	m.event = ev
	m.fb.rating = 5
	m.fb.comment = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the feedback form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		msg := FeedbackSubmitMsg{
			Event:   m.event,
			Rating:  m.fb.rating,
			Comment: m.fb.comment,
		}
		return m, func() tea.Msg { return msg }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return FeedbackCancelMsg{} }
	}

	return m, cmd
}

// View renders the feedback form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Rate "+m.event.Name),
		m.form.View(),
	)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Rating").
				Options(
					huh.NewOption("★★★★★ Excellent", 5),
					huh.NewOption("★★★★ Good", 4),
					huh.NewOption("★★★ Average", 3),
					huh.NewOption("★★ Poor", 2),
					huh.NewOption("★ Terrible", 1),
				).
				Value(&m.fb.rating),
			huh.NewText().
				Title("Comments").
				Placeholder("What did you think?").
				Value(&m.fb.comment),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 10 {
		h = 10
	}
	return h
}
