package api

// ErrorResponse is the JSON error shape returned by the platform API.
type ErrorResponse struct {
	Message string `json:"message"`
}

// LoginRequest is the body for POST /api/Users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the session credential and identity issued on login.
type LoginResponse struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	UserID int    `json:"userId"`
}

// RegisterRequest is the body for POST /api/Users/register.
type RegisterRequest struct {
	Name     string `json:"userName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"contactNumber"`
	Role     string `json:"role"`
}

// ResetPasswordRequest is the body for PUT /api/Users/reset-password.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// CreateBookingRequest is the body for POST /api/Bookings.
type CreateBookingRequest struct {
	EventID       int      `json:"eventId"`
	UserID        int      `json:"userId"`
	SelectedSeats []string `json:"selectedSeats"`
	TotalAmount   float64  `json:"totalAmount"`
}

// SubmitFeedbackRequest is the body for POST /api/Feedbacks/SubmitFeedback.
type SubmitFeedbackRequest struct {
	EventID int    `json:"eventId"`
	UserID  int    `json:"userId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comments"`
}

// CreateEventRequest is the body for POST /api/Events and PUT /api/Events/update.
type CreateEventRequest struct {
	EventID     int     `json:"eventId,omitempty"`
	Name        string  `json:"eventName"`
	Description string  `json:"description"`
	CategoryID  int     `json:"categoryId"`
	Venue       string  `json:"venue"`
	Date        string  `json:"eventDate"`
	TicketPrice float64 `json:"ticketPrice"`
	TotalSeats  int     `json:"totalSeats"`
	OrganiserID int     `json:"organiserId"`
	ImageURL    string  `json:"imageUrl"`
}

// CreateCategoryRequest is the body for POST /api/Categories.
type CreateCategoryRequest struct {
	Name string `json:"categoryName"`
}
