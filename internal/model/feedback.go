package model

import "time"

// Feedback is a user's rating and comment for an event they attended.
type Feedback struct {
	FeedbackID int       `json:"feedbackId"`
	EventID    int       `json:"eventId"`
	EventName  string    `json:"eventName"`
	UserID     int       `json:"userId"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comments"`
	Reply      string    `json:"reply,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FeedbackSummary aggregates ratings for a single event.
type FeedbackSummary struct {
	EventID       int     `json:"eventId"`
	EventName     string  `json:"eventName"`
	AverageRating float64 `json:"averageRating"`
	FeedbackCount int     `json:"feedbackCount"`
}
