package profile

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/avasquez/eventdesk/internal/model"
	"github.com/avasquez/eventdesk/internal/theme"
)

// SubmitMsg is dispatched when the user saves their profile. NewPassword
// is empty when the password was left unchanged.
type SubmitMsg struct {
	User        model.User
	NewPassword string
}

// CancelMsg is dispatched when the user abandons the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name        string
	email       string
	phone       string
	newPassword string
}

// Model is the account profile editor.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	user   model.User
	width  int
	height int
}

// New creates a new profile view model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form prefilled with the current account profile.
func (m *Model) Start(user model.User) tea.Cmd {
	m.user = user
	m.fb.name = user.Name
	m.fb.email = user.Email
	m.fb.phone = user.Phone
	m.fb.newPassword = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the profile view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the profile view.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	roleLine := theme.HelpStyle.Render("Role: " + m.user.Role)

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Your profile"),
		roleLine,
		m.form.View(),
	)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&m.fb.name).
				Validate(validateRequired("Name")),
			huh.NewInput().
				Title("Email").
				Value(&m.fb.email).
				Validate(validateRequired("Email")),
			huh.NewInput().
				Title("Contact number").
				Value(&m.fb.phone),
			huh.NewInput().
				Title("New password").
				Description("Leave blank to keep the current one").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.newPassword),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	msg := SubmitMsg{
		User: model.User{
			UserID: m.user.UserID,
			Name:   strings.TrimSpace(m.fb.name),
			Email:  strings.TrimSpace(m.fb.email),
			Phone:  strings.TrimSpace(m.fb.phone),
			Role:   m.user.Role,
		},
		NewPassword: m.fb.newPassword,
	}
	return func() tea.Msg { return msg }
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

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
