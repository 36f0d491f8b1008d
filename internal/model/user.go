package model

// User is only read, to resolve a comment author reference to a display name.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
