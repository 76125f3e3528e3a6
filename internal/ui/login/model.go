package login

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/avasquez/eventdesk/internal/model"
	"github.com/avasquez/eventdesk/internal/theme"
)

// LoginSubmitMsg is dispatched when the user submits the login form.
type LoginSubmitMsg struct {
	Email    string
	Password string
}

// RegisterSubmitMsg is dispatched when the user submits the sign-up form.
type RegisterSubmitMsg struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     string
}

// mode selects which form is active.
type mode int

const (
	modeLogin mode = iota
	modeRegister
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email    string
	password string
	name     string
	phone    string
	role     string
}

// Model is the login / sign-up view shown while no session is active.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	mode    mode
	errText string
	width   int
	height  int
}

// New creates a login view starting on the sign-in form.
func New(width, height int) Model {
	m := Model{
		fb:     &formBindings{role: model.RoleUser},
		width:  width,
		height: height,
	}
	return m
}

// Init builds the initial sign-in form.
func (m Model) Init() tea.Cmd {
	return nil
}

// Start (re)builds the active form. The root model calls this when the
// view becomes active and after a failed submission.
func (m *Model) Start() tea.Cmd {
	if m.mode == modeRegister {
		m.form = m.buildRegisterForm()
	} else {
		m.form = m.buildLoginForm()
	}
	return m.form.Init()
}

// SetError displays a submission error above the form.
func (m *Model) SetError(text string) {
	m.errText = text
}

// Update handles messages for the login view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+s" {
		// Toggle between sign-in and sign-up.
		if m.mode == modeLogin {
			m.mode = modeRegister
		} else {
			m.mode = modeLogin
		}
		m.errText = ""
		return m, m.Start()
	}

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
		// Rebuild so the form stays usable after esc.
		return m, m.Start()
	}

	return m, cmd
}

// View renders the login view.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	titleText := "Sign in"
	hint := "ctrl+s sign up instead"
	if m.mode == modeRegister {
		titleText = "Create account"
		hint = "ctrl+s sign in instead"
	}

	parts := []string{titleStyle.Render(titleText)}
	if m.errText != "" {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render(m.errText))
	}
	if m.form != nil {
		parts = append(parts, m.form.View())
	}
	parts = append(parts, theme.HelpStyle.Render(hint))

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildLoginForm() *huh.Form {
	m.fb.password = ""
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validateRequired("Email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) buildRegisterForm() *huh.Form {
	m.fb.password = ""
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&m.fb.name).
				Validate(validateRequired("Name")),
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validateRequired("Email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
			huh.NewInput().
				Title("Contact number").
				Value(&m.fb.phone),
			huh.NewSelect[string]().
				Title("Role").
				Options(
					huh.NewOption("Attendee", model.RoleUser),
					huh.NewOption("Organiser", model.RoleOrganiser),
				).
				Value(&m.fb.role),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	if m.mode == modeRegister {
		msg := RegisterSubmitMsg{
			Name:     m.fb.name,
			Email:    m.fb.email,
			Password: m.fb.password,
			Phone:    m.fb.phone,
			Role:     m.fb.role,
		}
		return func() tea.Msg { return msg }
	}
	msg := LoginSubmitMsg{
		Email:    m.fb.email,
		Password: m.fb.password,
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
