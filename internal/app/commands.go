package app

import (
	"context"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/avasquez/eventdesk/internal/api"
	"github.com/avasquez/eventdesk/internal/model"
	"github.com/avasquez/eventdesk/internal/notify"
	"github.com/avasquez/eventdesk/internal/ui/bookform"
	"github.com/avasquez/eventdesk/internal/ui/feedbackform"
	"github.com/avasquez/eventdesk/internal/ui/login"
	"github.com/avasquez/eventdesk/internal/ui/orgmanage"
	"github.com/avasquez/eventdesk/internal/ui/profile"
)

// toastDuration is how long the transient notification line stays visible.
const toastDuration = 3 * time.Second

// statusDuration is how long transient status bar messages stay visible.
const statusDuration = 4 * time.Second

// notifyEventMsg wraps a controller event for the Bubble Tea loop.
type notifyEventMsg struct {
	event notify.Event
}

// toastExpiredMsg hides the transient notification line.
type toastExpiredMsg struct{}

// statusExpiredMsg hides the transient status bar message.
type statusExpiredMsg struct{}

// loginResultMsg carries the outcome of a sign-in attempt.
type loginResultMsg struct {
	userID int
	err    error
}

// registerResultMsg carries the outcome of a sign-up attempt.
type registerResultMsg struct {
	err error
}

// bookingResultMsg carries the outcome of a booking attempt.
type bookingResultMsg struct {
	err error
}

// feedbackResultMsg carries the outcome of a feedback submission.
type feedbackResultMsg struct {
	err error
}

// cancelResultMsg carries the outcome of a booking cancellation.
type cancelResultMsg struct {
	err error
}

// notificationsClearedMsg signals that the inbox was emptied.
type notificationsClearedMsg struct{}

// identityAttachedMsg signals that the controller finished rehydrating
// state for the active identity.
type identityAttachedMsg struct{}

// logoutDoneMsg signals that the session was torn down.
type logoutDoneMsg struct{}

// statsLoadedMsg carries the organiser dashboard aggregates.
type statsLoadedMsg struct {
	stats *model.PlatformStats
}

// profileLoadedMsg carries the account profile for the editor.
type profileLoadedMsg struct {
	user *model.User
	err  error
}

// profileSavedMsg reports the outcome of a profile update.
type profileSavedMsg struct {
	err error
}

// manageResultMsg reports the outcome of an organiser CRUD action.
type manageResultMsg struct {
	verb string
	err  error
}

// feedbackEligibleMsg reports whether the user may rate the event.
type feedbackEligibleMsg struct {
	event    model.Event
	eligible bool
}

// waitForNotifyEvent returns a command that blocks on the controller's
// event stream and re-arms itself after each delivery.
func (m Model) waitForNotifyEvent() tea.Cmd {
	events := m.controller.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return notifyEventMsg{event: ev}
	}
}

// expireToast schedules the toast line to disappear.
func expireToast() tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{}
	})
}

// showStatus sets a transient status bar message and schedules its expiry.
func (m *Model) showStatus(text string) tea.Cmd {
	m.statusMessage = text
	return tea.Tick(statusDuration, func(time.Time) tea.Msg {
		return statusExpiredMsg{}
	})
}

// attachIdentity rehydrates the notification controller for userID.
// Loading the cache and the cold-start snapshot can block, so it runs
// as a command instead of inside Update.
func (m Model) attachIdentity(userID string) tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		controller.SetIdentity(context.Background(), userID)
		return identityAttachedMsg{}
	}
}

// doLogin authenticates and, on success, activates the session. The
// session manager notifies its subscribers, which re-points the
// notification controller at the new identity.
func (m Model) doLogin(email, password string) tea.Cmd {
	client := m.client
	sess := m.session
	return func() tea.Msg {
		resp, err := client.Login(context.Background(), email, password)
		if err != nil {
			return loginResultMsg{err: err}
		}
		sess.Login(resp.Token, resp.Role, strconv.Itoa(resp.UserID))
		return loginResultMsg{userID: resp.UserID}
	}
}

// doRegister creates a new account.
func (m Model) doRegister(msg login.RegisterSubmitMsg) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.RegisterUser(context.Background(), api.RegisterRequest{
			Name:     msg.Name,
			Email:    msg.Email,
			Password: msg.Password,
			Phone:    msg.Phone,
			Role:     msg.Role,
		})
		return registerResultMsg{err: err}
	}
}

// doLogout tears down the session. Subscribers disconnect the push
// channel and drop in-memory notification state.
func (m Model) doLogout() tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		sess.Logout()
		return logoutDoneMsg{}
	}
}

// doBooking books the selected seats with a simulated payment.
func (m Model) doBooking(msg bookform.BookingSubmitMsg) tea.Cmd {
	client := m.client
	userID, _ := strconv.Atoi(m.session.UserID())
	return func() tea.Msg {
		_, err := client.CreateBooking(context.Background(), api.CreateBookingRequest{
			EventID:       msg.Event.EventID,
			UserID:        userID,
			SelectedSeats: msg.Seats,
			TotalAmount:   msg.TotalAmount,
		})
		return bookingResultMsg{err: err}
	}
}

// doFeedback submits a rating and comment for an event.
func (m Model) doFeedback(msg feedbackform.FeedbackSubmitMsg) tea.Cmd {
	client := m.client
	userID, _ := strconv.Atoi(m.session.UserID())
	return func() tea.Msg {
		err := client.SubmitFeedback(context.Background(), api.SubmitFeedbackRequest{
			EventID: msg.Event.EventID,
			UserID:  userID,
			Rating:  msg.Rating,
			Comment: msg.Comment,
		})
		return feedbackResultMsg{err: err}
	}
}

// loadStats fetches the organiser dashboard aggregates. Failures are
// silent, the strip simply stays hidden.
func (m Model) loadStats() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		stats, err := client.PlatformStats(context.Background())
		if err != nil {
			return statsLoadedMsg{}
		}
		return statsLoadedMsg{stats: stats}
	}
}

// loadProfile fetches the active account for the profile editor.
func (m Model) loadProfile() tea.Cmd {
	client := m.client
	userID, _ := strconv.Atoi(m.session.UserID())
	return func() tea.Msg {
		user, err := client.GetUser(context.Background(), userID)
		return profileLoadedMsg{user: user, err: err}
	}
}

// doUpdateProfile saves the edited profile, and resets the password when
// a new one was entered.
func (m Model) doUpdateProfile(msg profile.SubmitMsg) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx := context.Background()
		if err := client.UpdateUser(ctx, msg.User); err != nil {
			return profileSavedMsg{err: err}
		}
		if msg.NewPassword != "" {
			if err := client.ResetPassword(ctx, msg.User.Email, msg.NewPassword); err != nil {
				return profileSavedMsg{err: err}
			}
		}
		return profileSavedMsg{}
	}
}

// doSaveEvent creates or updates an event on behalf of the organiser.
func (m Model) doSaveEvent(msg orgmanage.SaveEventMsg) tea.Cmd {
	client := m.client
	req := msg.Req
	req.OrganiserID, _ = strconv.Atoi(m.session.UserID())
	isUpdate := msg.IsUpdate
	return func() tea.Msg {
		ctx := context.Background()
		if isUpdate {
			return manageResultMsg{verb: "Event update", err: client.UpdateEvent(ctx, req)}
		}
		return manageResultMsg{verb: "Event creation", err: client.CreateEvent(ctx, req)}
	}
}

// doDeleteEvent removes a published event.
func (m Model) doDeleteEvent(eventID int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		return manageResultMsg{verb: "Event deletion", err: client.DeleteEvent(context.Background(), eventID)}
	}
}

// doSaveCategory creates an event category.
func (m Model) doSaveCategory(name string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		return manageResultMsg{verb: "Category creation", err: client.CreateCategory(context.Background(), name)}
	}
}

// doDeleteCategory removes an event category.
func (m Model) doDeleteCategory(categoryID int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		return manageResultMsg{verb: "Category deletion", err: client.DeleteCategory(context.Background(), categoryID)}
	}
}

// checkFeedbackEligibility verifies the user actually booked the event
// before opening the rating form. A failed lookup opens the form anyway
// and leaves the final word to the server.
func (m Model) checkFeedbackEligibility(ev model.Event) tea.Cmd {
	client := m.client
	userID, _ := strconv.Atoi(m.session.UserID())
	return func() tea.Msg {
		booked, err := client.BookedEvents(context.Background(), userID)
		if err != nil {
			return feedbackEligibleMsg{event: ev, eligible: true}
		}
		for _, b := range booked {
			if b.EventID == ev.EventID {
				return feedbackEligibleMsg{event: ev, eligible: true}
			}
		}
		return feedbackEligibleMsg{event: ev, eligible: false}
	}
}

// doCancelBooking cancels an upcoming booking.
func (m Model) doCancelBooking(bookingID int) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.CancelBooking(context.Background(), bookingID)
		return cancelResultMsg{err: err}
	}
}

// resetUnread zeroes the unread counter for the active identity.
func (m Model) resetUnread() tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		controller.ResetUnreadCount(context.Background())
		return nil
	}
}

// clearNotifications empties the inbox for the active identity.
func (m Model) clearNotifications() tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		controller.ClearAll(context.Background())
		return notificationsClearedMsg{}
	}
}
