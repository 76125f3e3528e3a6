package eventlist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avasquez/eventdesk/internal/model"
	"github.com/avasquez/eventdesk/internal/theme"
)

// EventItem wraps a model.Event so it can be used in a bubbles/list.
type EventItem struct {
	Event    model.Event
	Category string
}

// FilterValue returns the string used for fuzzy filtering.
func (i EventItem) FilterValue() string { return i.Event.Name }

// Title returns the event name for the list.
func (i EventItem) Title() string { return i.Event.Name }

// Description returns a short summary line for the list.
func (i EventItem) Description() string {
	return fmt.Sprintf("%s | %s | %.2f",
		i.Event.Venue, i.Event.Date.Format("Jan 02"), i.Event.TicketPrice)
}

// ItemDelegate implements list.ItemDelegate for rendering event rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single event row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ei, ok := item.(EventItem)
	if !ok {
		return
	}

	ev := ei.Event
	isSelected := index == m.Index()

	categoryBadge := ""
	if ei.Category != "" {
		categoryBadge = lipgloss.NewStyle().
			Foreground(theme.ColorMagenta).
			Render(" [" + ei.Category + "]")
	}

	seats := seatAvailability(ev)

	dateStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(ev.Date.Format("Mon Jan 02 15:04"))

	price := lipgloss.NewStyle().
		Foreground(theme.ColorYellow).
		Render(fmt.Sprintf("%.2f", ev.TicketPrice))

	line := fmt.Sprintf(
		"%s%s  %s  %s  %s  %s",
		ev.Name, categoryBadge, ev.Venue, dateStr, price, seats,
	)

	if isPast(ev.Date) {
		line = lipgloss.NewStyle().Foreground(theme.ColorGray).Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// seatAvailability renders the remaining seat count, color-coded by
// how close the event is to selling out.
func seatAvailability(ev model.Event) string {
	style := lipgloss.NewStyle().Foreground(theme.ColorGreen)
	switch {
	case ev.AvailableSeats <= 0:
		return lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render("SOLD OUT")
	case ev.TotalSeats > 0 && ev.AvailableSeats*10 <= ev.TotalSeats:
		style = style.Foreground(theme.ColorOrange)
	}
	return style.Render(fmt.Sprintf("%d seats", ev.AvailableSeats))
}

func isPast(t time.Time) bool {
	return !t.IsZero() && t.Before(time.Now())
}
