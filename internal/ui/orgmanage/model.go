package orgmanage

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/avasquez/eventdesk/internal/api"
	"github.com/avasquez/eventdesk/internal/keys"
	"github.com/avasquez/eventdesk/internal/model"
	"github.com/avasquez/eventdesk/internal/theme"
)

// scope selects which management segment is shown.
type scope int

const (
	scopeEvents scope = iota
	scopeCategories
	scopeTopRated
)

// LoadedMsg is sent when a management segment has been fetched.
type LoadedMsg struct {
	Scope      int
	Events     []model.Event
	Categories []model.Category
	TopRated   []model.FeedbackSummary
	Err        error
}

// SaveEventMsg asks the parent to create or update an event.
type SaveEventMsg struct {
	Req      api.CreateEventRequest
	IsUpdate bool
}

// DeleteEventMsg asks the parent to delete the selected event.
type DeleteEventMsg struct {
	Event model.Event
}

// SaveCategoryMsg asks the parent to create a category.
type SaveCategoryMsg struct {
	Name string
}

// DeleteCategoryMsg asks the parent to delete the selected category.
type DeleteCategoryMsg struct {
	Category model.Category
}

// mode tracks whether a form overlay is active.
type mode int

const (
	modeBrowse mode = iota
	modeEventForm
	modeCategoryForm
)

// EventRow wraps an event for the management list.
type EventRow struct {
	Event model.Event
}

// FilterValue returns the string used for fuzzy filtering.
func (r EventRow) FilterValue() string { return r.Event.Name }

// CategoryRow wraps a category for the management list.
type CategoryRow struct {
	Category model.Category
}

// FilterValue returns the string used for fuzzy filtering.
func (r CategoryRow) FilterValue() string { return r.Category.Name }

// SummaryRow wraps a rating summary for the top rated list.
type SummaryRow struct {
	Summary model.FeedbackSummary
}

// FilterValue returns the string used for fuzzy filtering.
func (r SummaryRow) FilterValue() string { return r.Summary.EventName }

// ItemDelegate renders rows for all three management segments.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single management row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	isSelected := index == m.Index()

	var line string
	switch row := item.(type) {
	case EventRow:
		ev := row.Event
		dateStr := lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render(ev.Date.Format("Jan 02 15:04"))
		line = fmt.Sprintf("%s  %s  %s  %d/%d seats  %.2f",
			ev.Name, ev.Venue, dateStr,
			ev.AvailableSeats, ev.TotalSeats, ev.TicketPrice)

	case CategoryRow:
		line = row.Category.Name

	case SummaryRow:
		s := row.Summary
		stars := theme.RatingStyle(int(s.AverageRating + 0.5)).
			Render(fmt.Sprintf("%.1f", s.AverageRating))
		line = fmt.Sprintf("%s %s  (%d ratings)", stars, s.EventName, s.FeedbackCount)

	default:
		return
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

// Model is the organiser management view: published events, categories,
// and the platform-wide top rated board.
type Model struct {
	list        list.Model
	client      *api.Client
	keys        *keys.KeyMap
	scope       scope
	mode        mode
	form        *huh.Form
	eventFB     *eventBindings
	catFB       *categoryBindings
	editEventID int
	categories  []model.Category
	loadErr     error
	width       int
	height      int
}

// New creates a new management view model.
func New(client *api.Client, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Your events"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:    l,
		client:  client,
		keys:    k,
		eventFB: &eventBindings{},
		catFB:   &categoryBindings{},
		width:   width,
		height:  height,
	}
}

// Editing reports whether a form overlay currently has focus.
func (m Model) Editing() bool {
	return m.mode != modeBrowse
}

// Init returns a command that loads the active segment.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Update handles messages for the management view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if scope(msg.Scope) != m.scope {
			return m, nil
		}
		m.loadErr = msg.Err
		if msg.Categories != nil {
			m.categories = msg.Categories
		}
		cmd := m.list.SetItems(m.rows(msg))
		return m, cmd

	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateForm(msg)
		}
		return m.handleBrowseKeys(msg)
	}

	if m.mode != modeBrowse {
		return m.updateForm(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// rows converts a loaded segment into list items.
func (m Model) rows(msg LoadedMsg) []list.Item {
	switch m.scope {
	case scopeCategories:
		items := make([]list.Item, len(msg.Categories))
		for i, c := range msg.Categories {
			items[i] = CategoryRow{Category: c}
		}
		return items
	case scopeTopRated:
		items := make([]list.Item, len(msg.TopRated))
		for i, s := range msg.TopRated {
			items[i] = SummaryRow{Summary: s}
		}
		return items
	default:
		items := make([]list.Item, len(msg.Events))
		for i, ev := range msg.Events {
			items[i] = EventRow{Event: ev}
		}
		return items
	}
}

// handleBrowseKeys processes key input while the list has focus.
func (m Model) handleBrowseKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case msg.String() == "tab":
		m.scope = (m.scope + 1) % 3
		switch m.scope {
		case scopeCategories:
			m.list.Title = "Categories"
		case scopeTopRated:
			m.list.Title = "Top rated events"
		default:
			m.list.Title = "Your events"
		}
		cmd := m.list.SetItems(nil)
		return m, tea.Batch(cmd, m.Load())

	case key.Matches(msg, m.keys.New):
		switch m.scope {
		case scopeEvents:
			return m, m.startEventForm(nil)
		case scopeCategories:
			return m, m.startCategoryForm()
		}
		return m, nil

	case key.Matches(msg, m.keys.Edit), key.Matches(msg, m.keys.Select):
		if m.scope != scopeEvents {
			break
		}
		row, ok := m.list.SelectedItem().(EventRow)
		if !ok {
			return m, nil
		}
		return m, m.startEventForm(&row.Event)

	case key.Matches(msg, m.keys.Cancel):
		switch row := m.list.SelectedItem().(type) {
		case EventRow:
			return m, func() tea.Msg { return DeleteEventMsg{Event: row.Event} }
		case CategoryRow:
			return m, func() tea.Msg { return DeleteCategoryMsg{Category: row.Category} }
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// updateForm drives the active form overlay.
func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		m.mode = modeBrowse
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		submit := m.handleFormSubmit()
		m.mode = modeBrowse
		m.form = nil
		return m, submit
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeBrowse
		m.form = nil
		return m, nil
	}

	return m, cmd
}

// View renders the management view.
func (m Model) View() string {
	if m.mode != modeBrowse && m.form != nil {
		titleStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorWhite).
			MarginBottom(1)

		title := "New event"
		if m.mode == modeEventForm && m.editEventID != 0 {
			title = "Edit event"
		} else if m.mode == modeCategoryForm {
			title = "New category"
		}

		return lipgloss.NewStyle().Padding(1, 2).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				titleStyle.Render(title), m.form.View()))
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when the segment is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loadErr != nil {
		return style.Render("Could not load this segment.\nPress r to retry.")
	}
	switch m.scope {
	case scopeCategories:
		return style.Render("No categories yet.\nPress n to add one.")
	case scopeTopRated:
		return style.Render("No rated events yet.")
	default:
		return style.Render("No events published yet.\nPress n to create one.")
	}
}

// Load returns a tea.Cmd that fetches the active segment.
func (m Model) Load() tea.Cmd {
	client := m.client
	activeScope := m.scope
	return func() tea.Msg {
		ctx := context.Background()
		out := LoadedMsg{Scope: int(activeScope)}

		switch activeScope {
		case scopeCategories:
			out.Categories, out.Err = client.Categories(ctx)
		case scopeTopRated:
			out.TopRated, out.Err = client.TopRatedEvents(ctx)
		default:
			out.Events, out.Err = client.Events(ctx)
			if out.Err == nil {
				// Needed for the category picker in the event form.
				out.Categories, _ = client.Categories(ctx)
			}
		}
		return out
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
