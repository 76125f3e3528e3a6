package bookinglist

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avasquez/eventdesk/internal/api"
	"github.com/avasquez/eventdesk/internal/keys"
	"github.com/avasquez/eventdesk/internal/model"
	"github.com/avasquez/eventdesk/internal/theme"
)

// scope selects which booking history segment is shown.
type scope int

const (
	scopeUpcoming scope = iota
	scopePast
)

// BookingsLoadedMsg is sent when the booking history has been fetched.
type BookingsLoadedMsg struct {
	Scope    int
	Bookings []model.Booking
	Err      error
}

// CancelRequestMsg signals the parent to cancel the selected booking.
type CancelRequestMsg struct {
	Booking model.Booking
}

// BookingItem wraps a model.Booking so it can be used in a bubbles/list.
type BookingItem struct {
	Booking model.Booking
}

// FilterValue returns the string used for fuzzy filtering.
func (i BookingItem) FilterValue() string { return i.Booking.EventName }

// ItemDelegate implements list.ItemDelegate for rendering booking rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single booking row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	bi, ok := item.(BookingItem)
	if !ok {
		return
	}

	b := bi.Booking
	isSelected := index == m.Index()

	statusBadge := theme.BookingStatusStyle(b.Status).Render(b.Status)

	seats := strings.Join(b.Seats, ",")
	if seats == "" {
		seats = strconv.Itoa(b.TicketCount) + " tickets"
	}

	dateStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(b.EventDate.Format("Jan 02 15:04"))

	line := fmt.Sprintf(
		"%s %s  %s  %s  %.2f",
		statusBadge, b.EventName, dateStr, seats, b.TotalAmount,
	)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// Model is the booking history view with upcoming and past segments.
type Model struct {
	list    list.Model
	client  *api.Client
	keys    *keys.KeyMap
	scope   scope
	userID  int
	loadErr error
	width   int
	height  int
}

// New creates a new booking list model.
func New(client *api.Client, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Upcoming bookings"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		client: client,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetUserID sets the identity whose bookings are shown.
func (m *Model) SetUserID(userID int) {
	m.userID = userID
}

// Init returns a command that loads the active segment.
func (m Model) Init() tea.Cmd {
	return m.LoadBookings()
}

// Update handles messages for the booking list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case BookingsLoadedMsg:
		if scope(msg.Scope) != m.scope {
			return m, nil
		}
		m.loadErr = msg.Err
		items := make([]list.Item, len(msg.Bookings))
		for i, b := range msg.Bookings {
			items[i] = BookingItem{Booking: b}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case msg.String() == "tab":
			if m.scope == scopeUpcoming {
				m.scope = scopePast
				m.list.Title = "Past bookings"
			} else {
				m.scope = scopeUpcoming
				m.list.Title = "Upcoming bookings"
			}
			return m, m.LoadBookings()

		case key.Matches(msg, m.keys.Cancel):
			item, ok := m.list.SelectedItem().(BookingItem)
			if !ok || m.scope != scopeUpcoming {
				return m, nil
			}
			if item.Booking.Status == model.BookingStatusCancelled {
				return m, nil
			}
			return m, func() tea.Msg {
				return CancelRequestMsg{Booking: item.Booking}
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the booking list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when no bookings are present.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loadErr != nil {
		return style.Render("Could not load bookings.\nPress r to retry.")
	}
	if m.scope == scopePast {
		return style.Render("No past bookings.")
	}
	return style.Render("No upcoming bookings.\nPress 1 to browse events.")
}

// LoadBookings returns a tea.Cmd that fetches the active history segment.
func (m Model) LoadBookings() tea.Cmd {
	client := m.client
	userID := m.userID
	activeScope := m.scope
	return func() tea.Msg {
		ctx := context.Background()

		var (
			bookings []model.Booking
			err      error
		)
		if activeScope == scopeUpcoming {
			bookings, err = client.UpcomingBookings(ctx, userID)
		} else {
			bookings, err = client.PastBookings(ctx, userID)
		}
		if err != nil {
			return BookingsLoadedMsg{Scope: int(activeScope), Err: err}
		}
		return BookingsLoadedMsg{Scope: int(activeScope), Bookings: bookings}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
