package orgmanage

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/avasquez/eventdesk/internal/api"
	"github.com/avasquez/eventdesk/internal/model"
)

// dateLayout is the input format for event dates.
const dateLayout = "2006-01-02 15:04"

// eventBindings holds event form values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type eventBindings struct {
	name        string
	description string
	categoryID  int
	venue       string
	date        string
	price       string
	seats       string
	imageURL    string
}

// categoryBindings holds the category form value.
type categoryBindings struct {
	name string
}

// startEventForm opens the event form, prefilled when editing.
func (m *Model) startEventForm(ev *model.Event) tea.Cmd {
	fb := m.eventFB
	if ev != nil {
		m.editEventID = ev.EventID
		fb.name = ev.Name
		fb.description = ev.Description
		fb.categoryID = ev.CategoryID
		fb.venue = ev.Venue
		fb.date = ev.Date.Format(dateLayout)
		fb.price = strconv.FormatFloat(ev.TicketPrice, 'f', 2, 64)
		fb.seats = strconv.Itoa(ev.TotalSeats)
		fb.imageURL = ev.ImageURL
	} else {
		m.editEventID = 0
		*fb = eventBindings{}
		if len(m.categories) > 0 {
			fb.categoryID = m.categories[0].CategoryID
		}
	}

	options := make([]huh.Option[int], 0, len(m.categories))
	for _, c := range m.categories {
		options = append(options, huh.NewOption(c.Name, c.CategoryID))
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&fb.name).
				Validate(validateRequired("Name")),
			huh.NewText().
				Title("Description").
				Value(&fb.description),
			huh.NewSelect[int]().
				Title("Category").
				Options(options...).
				Value(&fb.categoryID),
			huh.NewInput().
				Title("Venue").
				Value(&fb.venue).
				Validate(validateRequired("Venue")),
			huh.NewInput().
				Title("Date").
				Placeholder("2026-10-31 19:00").
				Value(&fb.date).
				Validate(validateDate),
			huh.NewInput().
				Title("Ticket price").
				Value(&fb.price).
				Validate(validatePrice),
			huh.NewInput().
				Title("Total seats").
				Value(&fb.seats).
				Validate(validateSeatCount),
			huh.NewInput().
				Title("Image URL").
				Value(&fb.imageURL),
		),
	).WithWidth(m.formWidth()).WithHeight(m.height - 4)
	m.mode = modeEventForm
	return m.form.Init()
}

// startCategoryForm opens the single-field category form.
func (m *Model) startCategoryForm() tea.Cmd {
	m.catFB.name = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Category name").
				Value(&m.catFB.name).
				Validate(validateRequired("Category name")),
		),
	).WithWidth(m.formWidth()).WithHeight(m.height - 4)
	m.mode = modeCategoryForm
	return m.form.Init()
}

// handleFormSubmit turns the completed form into a parent-level request.
func (m Model) handleFormSubmit() tea.Cmd {
	if m.mode == modeCategoryForm {
		name := strings.TrimSpace(m.catFB.name)
		return func() tea.Msg { return SaveCategoryMsg{Name: name} }
	}

	msg := SaveEventMsg{
		Req:      m.eventFB.request(m.editEventID),
		IsUpdate: m.editEventID != 0,
	}
	return func() tea.Msg { return msg }
}

// request assembles the API payload from validated form values.
func (b *eventBindings) request(eventID int) api.CreateEventRequest {
	date, _ := time.Parse(dateLayout, strings.TrimSpace(b.date))
	price, _ := strconv.ParseFloat(strings.TrimSpace(b.price), 64)
	seats, _ := strconv.Atoi(strings.TrimSpace(b.seats))

	return api.CreateEventRequest{
		EventID:     eventID,
		Name:        strings.TrimSpace(b.name),
		Description: strings.TrimSpace(b.description),
		CategoryID:  b.categoryID,
		Venue:       strings.TrimSpace(b.venue),
		Date:        date.Format(time.RFC3339),
		TicketPrice: price,
		TotalSeats:  seats,
		ImageURL:    strings.TrimSpace(b.imageURL),
	}
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

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateDate(s string) error {
	if _, err := time.Parse(dateLayout, strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("use the form %s", dateLayout)
	}
	return nil
}

func validatePrice(s string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return fmt.Errorf("enter a non-negative price")
	}
	return nil
}

func validateSeatCount(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fmt.Errorf("enter at least one seat")
	}
	return nil
}
