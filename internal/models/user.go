package models

// Role controls what a user may do in the UI layer.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// User represents an application user. The password is an opaque string
// owned by the authentication layer; the sync layer stores and moves it
// verbatim.
type User struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	Role     Role     `json:"role"`
	Groups   []string `json:"groups"` // group ids the user belongs to
}
