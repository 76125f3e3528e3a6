package model

// User roles recognized by the platform.
const (
	RoleUser      = "User"
	RoleOrganiser = "Organiser"
)

// User is a platform account profile.
type User struct {
	UserID int    `json:"userId"`
	Name   string `json:"userName"`
	Email  string `json:"email"`
	Phone  string `json:"contactNumber"`
	Role   string `json:"role"`
}
