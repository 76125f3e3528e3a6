package bookform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/avasquez/eventdesk/internal/model"
	"github.com/avasquez/eventdesk/internal/theme"
)

// BookingSubmitMsg is dispatched when the user confirms a booking.
type BookingSubmitMsg struct {
	Event       model.Event
	Seats       []string
	TotalAmount float64
}

// BookingCancelMsg is dispatched when the user abandons the form.
type BookingCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	seats   string
	confirm bool
}

// Model is the seat selection and simulated payment form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	event  model.Event
	width  int
	height int
}

// New creates a new booking form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form for booking seats on the given event.
func (m *Model) Start(ev model.Event) tea.Cmd {
	m.event = ev
	m.fb.seats = ""
	m.fb.confirm = false
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the booking form.
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
		return m, func() tea.Msg { return BookingCancelMsg{} }
	}

	return m, cmd
}

// View renders the booking form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	subtitle := theme.HelpStyle.Render(fmt.Sprintf(
		"%s | %.2f per ticket | %d seats left",
		m.event.Name, m.event.TicketPrice, m.event.AvailableSeats,
	))

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Render("Book seats"),
		subtitle,
		"",
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
			huh.NewInput().
				Title("Seats").
				Placeholder("A1, A2, B5").
				Description("Comma-separated seat labels").
				Value(&m.fb.seats).
				Validate(m.validateSeats),
			huh.NewConfirm().
				Title("Confirm payment").
				DescriptionFunc(m.totalDescription, &m.fb.seats).
				Affirmative("Pay now").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// totalDescription shows the running total as seats are typed. Payment is
// simulated; confirming the form is the whole transaction.
func (m *Model) totalDescription() string {
	seats := parseSeats(m.fb.seats)
	if len(seats) == 0 {
		return "Enter seats to see the total"
	}
	return fmt.Sprintf("%d tickets, total %.2f",
		len(seats), float64(len(seats))*m.event.TicketPrice)
}

func (m *Model) validateSeats(s string) error {
	seats := parseSeats(s)
	if len(seats) == 0 {
		return fmt.Errorf("enter at least one seat")
	}
	if len(seats) > m.event.AvailableSeats {
		return fmt.Errorf("only %d seats available", m.event.AvailableSeats)
	}
	seen := make(map[string]bool, len(seats))
	for _, seat := range seats {
		if seen[seat] {
			return fmt.Errorf("seat %s listed twice", seat)
		}
		seen[seat] = true
	}
	return nil
}

func (m Model) handleSubmit() tea.Cmd {
	if !m.fb.confirm {
		return func() tea.Msg { return BookingCancelMsg{} }
	}

	seats := parseSeats(m.fb.seats)
	msg := BookingSubmitMsg{
		Event:       m.event,
		Seats:       seats,
		TotalAmount: float64(len(seats)) * m.event.TicketPrice,
	}
	return func() tea.Msg { return msg }
}

// parseSeats splits a comma-separated seat list, trimming blanks.
func parseSeats(s string) []string {
	var seats []string
	for _, part := range strings.Split(s, ",") {
		seat := strings.ToUpper(strings.TrimSpace(part))
		if seat != "" {
			seats = append(seats, seat)
		}
	}
	return seats
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
