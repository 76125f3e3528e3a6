package app

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avasquez/eventdesk/internal/api"
	"github.com/avasquez/eventdesk/internal/model"
	"github.com/avasquez/eventdesk/internal/notify"
	"github.com/avasquez/eventdesk/internal/session"
	"github.com/avasquez/eventdesk/internal/theme"
	"github.com/avasquez/eventdesk/internal/ui"
	"github.com/avasquez/eventdesk/internal/ui/bookform"
	"github.com/avasquez/eventdesk/internal/ui/bookinglist"
	"github.com/avasquez/eventdesk/internal/ui/eventdetail"
	"github.com/avasquez/eventdesk/internal/ui/eventlist"
	"github.com/avasquez/eventdesk/internal/ui/feedbackform"
	"github.com/avasquez/eventdesk/internal/ui/helpview"
	"github.com/avasquez/eventdesk/internal/ui/login"
	"github.com/avasquez/eventdesk/internal/ui/notiflist"
	"github.com/avasquez/eventdesk/internal/ui/orgmanage"
	"github.com/avasquez/eventdesk/internal/ui/profile"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewEvents
	ViewEventDetail
	ViewBookForm
	ViewFeedbackForm
	ViewBookings
	ViewNotifications
	ViewManage
	ViewProfile
	ViewHelp
)

// Model is the root Bubble Tea model that manages view routing, layout,
// the session, and the realtime notification controller.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	client       *api.Client
	session      *session.Manager
	controller   *notify.Controller
	keys         *KeyMap

	loginView    login.Model
	eventList    eventlist.Model
	eventDetail  eventdetail.Model
	bookForm     bookform.Model
	feedbackForm feedbackform.Model
	bookingList  bookinglist.Model
	notifList    notiflist.Model
	manageView   orgmanage.Model
	profileView  profile.Model
	helpView     helpview.Model

	ready         bool
	toastText     string
	statusMessage string
	stats         *model.PlatformStats
}

// New creates a new root application model.
func New(
	client *api.Client,
	sess *session.Manager,
	controller *notify.Controller,
) Model {
	keys := DefaultKeyMap()

	m := Model{
		currentView:  ViewLogin,
		client:       client,
		session:      sess,
		controller:   controller,
		keys:         keys,
		loginView:    login.New(80, 24),
		eventList:    eventlist.New(client, keys, 80, 24),
		eventDetail:  eventdetail.New(client, keys, 80, 24),
		bookForm:     bookform.New(80, 24),
		feedbackForm: feedbackform.New(80, 24),
		bookingList:  bookinglist.New(client, keys, 80, 24),
		notifList:    notiflist.New(keys, 80, 24),
		manageView:   orgmanage.New(client, keys, 80, 24),
		profileView:  profile.New(80, 24),
		helpView:     helpview.New(keys, 80, 24),
	}

	if sess.LoggedIn() {
		m.currentView = ViewEvents
		if userID, err := strconv.Atoi(sess.UserID()); err == nil {
			m.bookingList.SetUserID(userID)
		}
	}
	return m
}

// Init returns the initial commands: attach the session to the realtime
// controller, load the first view, and start the notification event pump.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForNotifyEvent()}

	if m.session.LoggedIn() {
		cmds = append(cmds,
			m.attachIdentity(m.session.UserID()),
			m.eventList.Init(),
		)
		if m.session.Identity().Role == model.RoleOrganiser {
			cmds = append(cmds, m.loadStats())
		}
	} else {
		cmds = append(cmds, m.loginView.Start())
	}

	return tea.Batch(cmds...)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		if m.toastText != "" {
			m.layout.ToastHeight = 1
		}
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.loginView.SetSize(contentWidth, contentHeight)
		m.eventList.SetSize(contentWidth, contentHeight)
		m.eventDetail.SetSize(contentWidth, contentHeight)
		m.bookForm.SetSize(contentWidth, contentHeight)
		m.feedbackForm.SetSize(contentWidth, contentHeight)
		m.bookingList.SetSize(contentWidth, contentHeight)
		m.notifList.SetSize(contentWidth, contentHeight)
		m.manageView.SetSize(contentWidth, contentHeight)
		m.profileView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case notifyEventMsg:
		cmds := []tea.Cmd{m.waitForNotifyEvent()}
		switch msg.event.Kind {
		case notify.EventToast:
			m.toastText = msg.event.ToastText
			m.layout.ToastHeight = 1
			cmds = append(cmds, expireToast())
		case notify.EventRecordsChanged:
			cmds = append(cmds, m.notifList.SetRecords(m.controller.Notifications()))
		}
		return m, tea.Batch(cmds...)

	case toastExpiredMsg:
		m.toastText = ""
		m.layout.ToastHeight = 0
		return m, nil

	case statusExpiredMsg:
		m.statusMessage = ""
		return m, nil

	case statsLoadedMsg:
		m.stats = msg.stats
		return m, nil

	case login.LoginSubmitMsg:
		return m, m.doLogin(msg.Email, msg.Password)

	case login.RegisterSubmitMsg:
		return m, m.doRegister(msg)

	case loginResultMsg:
		if msg.err != nil {
			m.loginView.SetError(loginErrorText(msg.err))
			return m, m.loginView.Start()
		}
		m.currentView = ViewEvents
		m.bookingList.SetUserID(msg.userID)
		cmds := []tea.Cmd{
			m.attachIdentity(fmt.Sprintf("%d", msg.userID)),
			m.eventList.Init(),
		}
		if m.session.Identity().Role == model.RoleOrganiser {
			cmds = append(cmds, m.loadStats())
		}
		return m, tea.Batch(cmds...)

	case registerResultMsg:
		if msg.err != nil {
			m.loginView.SetError("Registration failed: " + msg.err.Error())
		} else {
			m.loginView.SetError("Account created. Sign in to continue.")
		}
		return m, m.loginView.Start()

	case eventlist.SelectedEventMsg:
		m.previousView = m.currentView
		m.currentView = ViewEventDetail
		m.eventDetail.SetEvent(msg.Event, msg.Event.CategoryName)
		return m, m.eventDetail.LoadSummary(msg.Event.EventID)

	case eventdetail.BackMsg:
		m.currentView = ViewEvents
		return m, nil

	case eventdetail.BookRequestMsg:
		m.previousView = m.currentView
		m.currentView = ViewBookForm
		return m, m.bookForm.Start(msg.Event)

	case eventdetail.FeedbackRequestMsg:
		// Only attendees who booked the event may rate it.
		return m, m.checkFeedbackEligibility(msg.Event)

	case feedbackEligibleMsg:
		if !msg.eligible {
			return m, m.showStatus("Only attendees who booked this event can rate it")
		}
		m.previousView = m.currentView
		m.currentView = ViewFeedbackForm
		return m, m.feedbackForm.Start(msg.event)

	case bookform.BookingSubmitMsg:
		m.currentView = ViewEventDetail
		return m, m.doBooking(msg)

	case bookform.BookingCancelMsg:
		m.currentView = m.previousView
		return m, nil

	case bookingResultMsg:
		if msg.err != nil {
			return m, m.showStatus("Booking failed: " + msg.err.Error())
		}
		return m, tea.Batch(
			m.showStatus("Booking confirmed"),
			m.eventList.LoadEvents(),
		)

	case feedbackform.FeedbackSubmitMsg:
		m.currentView = ViewEventDetail
		return m, m.doFeedback(msg)

	case feedbackform.FeedbackCancelMsg:
		m.currentView = m.previousView
		return m, nil

	case feedbackResultMsg:
		if msg.err != nil {
			return m, m.showStatus("Feedback failed: " + msg.err.Error())
		}
		cmds := []tea.Cmd{m.showStatus("Thanks for your feedback")}
		if ev := m.eventDetail.Event(); ev != nil {
			cmds = append(cmds, m.eventDetail.LoadSummary(ev.EventID))
		}
		return m, tea.Batch(cmds...)

	case bookinglist.CancelRequestMsg:
		return m, m.doCancelBooking(msg.Booking.BookingID)

	case cancelResultMsg:
		if msg.err != nil {
			return m, m.showStatus("Cancel failed: " + msg.err.Error())
		}
		return m, tea.Batch(
			m.showStatus("Booking cancelled"),
			m.bookingList.LoadBookings(),
		)

	case profileLoadedMsg:
		if msg.err != nil {
			m.currentView = ViewEvents
			return m, m.showStatus("Could not load profile: " + msg.err.Error())
		}
		return m, m.profileView.Start(*msg.user)

	case profile.SubmitMsg:
		m.currentView = ViewEvents
		return m, m.doUpdateProfile(msg)

	case profile.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case profileSavedMsg:
		if msg.err != nil {
			return m, m.showStatus("Profile update failed: " + msg.err.Error())
		}
		return m, m.showStatus("Profile updated")

	case orgmanage.SaveEventMsg:
		return m, m.doSaveEvent(msg)

	case orgmanage.DeleteEventMsg:
		return m, m.doDeleteEvent(msg.Event.EventID)

	case orgmanage.SaveCategoryMsg:
		return m, m.doSaveCategory(msg.Name)

	case orgmanage.DeleteCategoryMsg:
		return m, m.doDeleteCategory(msg.Category.CategoryID)

	case manageResultMsg:
		if msg.err != nil {
			return m, m.showStatus(msg.verb + " failed: " + msg.err.Error())
		}
		return m, tea.Batch(m.showStatus(msg.verb+" done"), m.manageView.Load())

	case notiflist.ClearRequestMsg:
		return m, m.clearNotifications()

	case notificationsClearedMsg:
		return m, m.notifList.SetRecords(m.controller.Notifications())

	case identityAttachedMsg:
		return m, m.notifList.SetRecords(m.controller.Notifications())

	case logoutDoneMsg:
		m.currentView = ViewLogin
		m.stats = nil
		m.loginView.SetError("")
		return m, m.loginView.Start()

	case tea.KeyMsg:
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of the focused view.
// Keys are not intercepted while a form view has input focus.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.controller.Close()
		return m, tea.Quit, true
	}

	if m.formFocused() {
		return m, nil, false
	}

	switch msg.String() {
	case "q":
		if m.currentView == ViewEvents || m.currentView == ViewLogin {
			m.controller.Close()
			return m, tea.Quit, true
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true

	case "1":
		if m.tabsActive() {
			m.currentView = ViewEvents
			return m, nil, true
		}

	case "2":
		if m.tabsActive() {
			m.currentView = ViewBookings
			return m, m.bookingList.Init(), true
		}

	case "3":
		if m.tabsActive() {
			m.currentView = ViewNotifications
			// Opening the inbox marks everything as seen.
			return m, tea.Batch(
				m.notifList.SetRecords(m.controller.Notifications()),
				m.resetUnread(),
			), true
		}

	case "4":
		if m.tabsActive() && m.session.Identity().Role == model.RoleOrganiser {
			m.currentView = ViewManage
			return m, m.manageView.Init(), true
		}

	case "p":
		if m.tabsActive() {
			m.previousView = m.currentView
			m.currentView = ViewProfile
			return m, m.loadProfile(), true
		}

	case "r":
		switch m.currentView {
		case ViewEvents:
			if m.stats != nil {
				return m, tea.Batch(m.eventList.LoadEvents(), m.loadStats()), true
			}
			return m, m.eventList.LoadEvents(), true
		case ViewBookings:
			return m, m.bookingList.LoadBookings(), true
		case ViewManage:
			return m, m.manageView.Load(), true
		}

	case "L":
		if m.currentView != ViewLogin && m.tabsActive() {
			return m, m.doLogout(), true
		}

	case "esc":
		switch m.currentView {
		case ViewBookings, ViewNotifications, ViewManage, ViewProfile:
			m.currentView = ViewEvents
			return m, nil, true
		case ViewHelp:
			m.currentView = m.previousView
			return m, nil, true
		}
	}

	return m, nil, false
}

// formFocused reports whether the active view owns raw text input.
func (m Model) formFocused() bool {
	switch m.currentView {
	case ViewLogin, ViewBookForm, ViewFeedbackForm, ViewProfile:
		return true
	case ViewEvents:
		return m.eventList.Searching()
	case ViewManage:
		return m.manageView.Editing()
	}
	return false
}

// tabsActive reports whether the top-level tab keys apply.
func (m Model) tabsActive() bool {
	switch m.currentView {
	case ViewEvents, ViewBookings, ViewNotifications, ViewManage:
		return true
	}
	return false
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewEvents:
		m.eventList, cmd = m.eventList.Update(msg)
	case ViewEventDetail:
		m.eventDetail, cmd = m.eventDetail.Update(msg)
	case ViewBookForm:
		m.bookForm, cmd = m.bookForm.Update(msg)
	case ViewFeedbackForm:
		m.feedbackForm, cmd = m.feedbackForm.Update(msg)
	case ViewBookings:
		m.bookingList, cmd = m.bookingList.Update(msg)
	case ViewNotifications:
		m.notifList, cmd = m.notifList.Update(msg)
	case ViewManage:
		m.manageView, cmd = m.manageView.Update(msg)
	case ViewProfile:
		m.profileView, cmd = m.profileView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("EventDesk", m.headerStatus())
	toast := m.layout.RenderToast(m.toastText)
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, toast, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewEvents:
		if line := m.statsLine(); line != "" {
			return line + "\n" + m.eventList.View()
		}
		return m.eventList.View()
	case ViewEventDetail:
		return m.eventDetail.View()
	case ViewBookForm:
		return m.bookForm.View()
	case ViewFeedbackForm:
		return m.feedbackForm.View()
	case ViewBookings:
		return m.bookingList.View()
	case ViewNotifications:
		return m.notifList.View()
	case ViewManage:
		return m.manageView.View()
	case ViewProfile:
		return m.profileView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// headerStatus renders the right side of the header: the unread badge
// and the push channel state.
func (m Model) headerStatus() string {
	if !m.session.LoggedIn() {
		return "signed out"
	}

	state := m.controller.ChannelState().String()
	if unread := m.controller.UnreadCount(); unread > 0 {
		return fmt.Sprintf("%d unread | %s", unread, state)
	}
	return state
}

// statsLine renders the organiser aggregates above the event list.
// Attendees never see it since their stats are never fetched.
func (m Model) statsLine() string {
	if m.stats == nil {
		return ""
	}
	return theme.HelpStyle.Render(fmt.Sprintf(
		"Events: %d  Bookings: %d  Users: %d  Revenue: $%.2f",
		m.stats.TotalEvents, m.stats.TotalBookings, m.stats.TotalUsers, m.stats.TotalRevenue,
	))
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMessage != "" {
		return m.statusMessage
	}

	switch m.currentView {
	case ViewLogin:
		return "enter submit | ctrl+s switch sign in/up | ctrl+c quit"
	case ViewEventDetail:
		return "b book | f feedback | j/k scroll | esc back"
	case ViewBookForm, ViewFeedbackForm:
		return "enter submit | esc cancel"
	case ViewBookings:
		return "tab upcoming/past | x cancel booking | r refresh | esc back"
	case ViewNotifications:
		return "X clear all | esc back"
	case ViewManage:
		return "tab segment | n new | e edit | x delete | r refresh | esc back"
	case ViewProfile:
		return "enter save | esc cancel"
	case ViewHelp:
		return "? close help | esc back"
	default:
		hints := "q quit | ? help | / search | tab category | 1 events | 2 bookings | 3 notifications | p profile"
		if m.session.Identity().Role == model.RoleOrganiser {
			hints += " | 4 manage"
		}
		return hints
	}
}

func loginErrorText(err error) string {
	if api.IsAuthError(err) {
		return "Invalid email or password."
	}
	return "Sign-in failed: " + err.Error()
}
