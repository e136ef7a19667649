package models

// Session carries the bearer token and role for one composer session. It is
// passed explicitly to whatever needs it, never read from a global.
type Session struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Role  string `json:"role"`
}
