package eventdetail

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avasquez/eventdesk/internal/api"
	"github.com/avasquez/eventdesk/internal/keys"
	"github.com/avasquez/eventdesk/internal/model"
	"github.com/avasquez/eventdesk/internal/theme"
)

// BackMsg signals the parent to navigate back to the event list.
type BackMsg struct{}

// BookRequestMsg signals the parent to open the booking form for the event.
type BookRequestMsg struct {
	Event model.Event
}

// FeedbackRequestMsg signals the parent to open the feedback form.
type FeedbackRequestMsg struct {
	Event model.Event
}

// SummaryLoadedMsg carries the event's aggregated feedback ratings.
type SummaryLoadedMsg struct {
	Summary *model.FeedbackSummary
}

// Model is the event detail view component.
type Model struct {
	event    *model.Event
	category string
	summary  *model.FeedbackSummary
	viewport viewport.Model
	client   *api.Client
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new event detail model.
func New(client *api.Client, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	return Model{
		viewport: vp,
		client:   client,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// SetEvent sets the displayed event and refreshes the viewport content.
func (m *Model) SetEvent(ev model.Event, category string) {
	m.event = &ev
	m.category = category
	m.summary = nil
	m.loading = false
	m.viewport.SetContent(m.renderBody())
	m.viewport.GotoTop()
}

// SetLoading toggles the loading indicator.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// Event returns the currently displayed event, or nil.
func (m Model) Event() *model.Event {
	return m.event
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SummaryLoadedMsg:
		m.summary = msg.Summary
		m.viewport.SetContent(m.renderBody())
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Book):
			if m.event != nil && m.event.AvailableSeats > 0 {
				ev := *m.event
				return m, func() tea.Msg { return BookRequestMsg{Event: ev} }
			}
			return m, nil

		case key.Matches(msg, m.keys.Feedback):
			if m.event != nil {
				ev := *m.event
				return m, func() tea.Msg { return FeedbackRequestMsg{Event: ev} }
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.loading {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("Loading...")
	}
	if m.event == nil {
		return ""
	}
	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(m.viewport.View())
}

// renderBody formats the event details into viewport content.
func (m Model) renderBody() string {
	if m.event == nil {
		return ""
	}
	ev := m.event

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite)
	labelStyle := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Width(12)

	var b strings.Builder
	b.WriteString(titleStyle.Render(ev.Name))
	b.WriteString("\n\n")

	rows := []struct {
		label string
		value string
	}{
		{"Venue", ev.Venue},
		{"Date", ev.Date.Format("Monday, Jan 2 2006 at 15:04")},
		{"Category", m.categoryLabel()},
		{"Price", fmt.Sprintf("%.2f per ticket", ev.TicketPrice)},
		{"Seats", m.seatsLabel()},
	}
	for _, row := range rows {
		if row.value == "" {
			continue
		}
		b.WriteString(labelStyle.Render(row.label))
		b.WriteString(row.value)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.ratingLine())

	if ev.Description != "" {
		b.WriteString("\n\n")
		b.WriteString(ev.Description)
	}

	return b.String()
}

func (m Model) categoryLabel() string {
	if m.category != "" {
		return m.category
	}
	return m.event.CategoryName
}

func (m Model) seatsLabel() string {
	ev := m.event
	if ev.AvailableSeats <= 0 {
		return theme.BookingStatusStyle(model.BookingStatusCancelled).Render("SOLD OUT")
	}
	return fmt.Sprintf("%d of %d available", ev.AvailableSeats, ev.TotalSeats)
}

// ratingLine renders the aggregated feedback, when loaded.
func (m Model) ratingLine() string {
	if m.summary == nil || m.summary.FeedbackCount == 0 {
		return theme.HelpStyle.Render("No ratings yet")
	}
	rounded := int(m.summary.AverageRating + 0.5)
	stars := strings.Repeat("★", rounded) + strings.Repeat("☆", 5-rounded)
	return fmt.Sprintf("%s  %.1f (%d reviews)",
		theme.RatingStyle(rounded).Render(stars),
		m.summary.AverageRating,
		m.summary.FeedbackCount,
	)
}

// LoadSummary returns a tea.Cmd that fetches the event's rating summary.
func (m Model) LoadSummary(eventID int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		summary, err := client.FeedbackSummary(context.Background(), eventID)
		if err != nil {
			return SummaryLoadedMsg{Summary: nil}
		}
		return SummaryLoadedMsg{Summary: summary}
	}
}

// SetSize updates the viewport dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 8
	m.viewport.Height = height - 4
}
