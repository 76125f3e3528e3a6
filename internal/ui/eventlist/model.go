package eventlist

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avasquez/eventdesk/internal/api"
	"github.com/avasquez/eventdesk/internal/keys"
	"github.com/avasquez/eventdesk/internal/model"
	"github.com/avasquez/eventdesk/internal/theme"
)

// EventsLoadedMsg is sent when events and categories have been fetched.
type EventsLoadedMsg struct {
	Events     []model.Event
	Categories []model.Category
	Err        error
}

// SelectedEventMsg is sent when the user opens an event.
type SelectedEventMsg struct {
	Event model.Event
}

// searchResultsMsg carries server-side name search results.
type searchResultsMsg struct {
	query  string
	events []model.Event
	err    error
}

// Model is the browsable event catalogue view.
type Model struct {
	list        list.Model
	client      *api.Client
	keys        *keys.KeyMap
	events      []model.Event
	categories  []model.Category
	categoryIdx int // 0 = all, otherwise categories[categoryIdx-1]
	query       string
	searchMode  bool
	serverQuery bool
	searchInput textinput.Model
	loadErr     error
	width       int
	height      int
}

// New creates a new event list model.
func New(client *api.Client, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height-2)
	l.Title = "Events"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search events..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		client:      client,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Searching reports whether the search input currently has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

// Init returns a command that loads the catalogue.
func (m Model) Init() tea.Cmd {
	return m.LoadEvents()
}

// Update handles messages for the event list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventsLoadedMsg:
		m.loadErr = msg.Err
		if msg.Err == nil {
			m.events = msg.Events
			m.categories = msg.Categories
			m.serverQuery = false
		}
		cmd := m.list.SetItems(m.visibleItems())
		return m, cmd

	case searchResultsMsg:
		if msg.query != m.query {
			// A newer query or a cleared search superseded this fetch.
			return m, nil
		}
		if msg.err != nil {
			// The substring filter over the loaded catalogue still applies.
			return m, nil
		}
		m.events = msg.events
		m.serverQuery = true
		return m, m.list.SetItems(m.visibleItems())

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = strings.TrimSpace(m.searchInput.Value())
		cmd := m.list.SetItems(m.visibleItems())
		if m.query != "" {
			// Ask the server too; it matches names the loaded page may miss.
			return m, tea.Batch(cmd, m.searchEvents(m.query))
		}
		return m, cmd

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		if m.serverQuery {
			// Server results replaced the catalogue; fetch it back.
			return m, m.LoadEvents()
		}
		return m, m.list.SetItems(m.visibleItems())
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(EventItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedEventMsg{Event: item.Event}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case msg.String() == "tab":
		m.categoryIdx = (m.categoryIdx + 1) % (len(m.categories) + 1)
		return m, m.list.SetItems(m.visibleItems())
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// visibleItems applies the category filter and search query.
func (m Model) visibleItems() []list.Item {
	names := make(map[int]string, len(m.categories))
	for _, c := range m.categories {
		names[c.CategoryID] = c.Name
	}

	var activeCategory *model.Category
	if m.categoryIdx > 0 && m.categoryIdx <= len(m.categories) {
		activeCategory = &m.categories[m.categoryIdx-1]
	}

	items := make([]list.Item, 0, len(m.events))
	for _, ev := range m.events {
		if activeCategory != nil && ev.CategoryID != activeCategory.CategoryID {
			continue
		}
		if m.query != "" &&
			!strings.Contains(strings.ToLower(ev.Name), strings.ToLower(m.query)) {
			continue
		}
		items = append(items, EventItem{Event: ev, Category: names[ev.CategoryID]})
	}
	return items
}

// View renders the event list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	header := ""
	if label := m.filterLabel(); label != "" {
		header = theme.HelpStyle.Render(label)
		return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View())
	}

	return m.list.View()
}

// filterLabel describes the active category filter and search query.
func (m Model) filterLabel() string {
	var parts []string
	if m.categoryIdx > 0 && m.categoryIdx <= len(m.categories) {
		parts = append(parts, "category: "+m.categories[m.categoryIdx-1].Name)
	}
	if m.query != "" {
		parts = append(parts, "search: "+m.query)
	}
	return strings.Join(parts, " | ")
}

// renderEmptyState shows guidance text when no events are visible.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.loadErr != nil {
		return style.Render("Could not load events.\nPress r to retry.")
	}
	if m.query != "" || m.categoryIdx > 0 {
		return style.Render("No matching events.\nPress tab to change category or / to search.")
	}
	return style.Render("No events published yet.")
}

// LoadEvents returns a tea.Cmd that fetches the event catalogue and
// category list from the platform.
func (m Model) LoadEvents() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx := context.Background()
		events, err := client.Events(ctx)
		if err != nil {
			return EventsLoadedMsg{Err: err}
		}
		categories, err := client.Categories(ctx)
		if err != nil {
			// The catalogue is still usable without category names.
			categories = nil
		}
		return EventsLoadedMsg{Events: events, Categories: categories}
	}
}

// searchEvents returns a tea.Cmd that runs a server-side name search.
func (m Model) searchEvents(query string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		events, err := client.SearchEventsByName(context.Background(), query)
		return searchResultsMsg{query: query, events: events, err: err}
	}
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
