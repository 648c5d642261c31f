package auth

import "time"

// Center is the domain representation of a shelter account, the authenticated
// principal of the API. It mirrors the centers table and carries no JSON
// annotations so presentation layers can project it as they need.
type Center struct {
	ID           string
	Name         string
	Login        string
	PasswordHash string
	Address      string
	CreatedAt    time.Time
}

// AuthEvent is one append-only audit record of a successful login.
type AuthEvent struct {
	ID        string
	CenterID  string
	CreatedAt time.Time
}

// RegisterRequest contains center registration data supplied by callers.
type RegisterRequest struct {
	Name     string `json:"name"`
	Login    string `json:"login"`
	Password string `json:"password"`
	Address  string `json:"address"`
}

// LoginRequest contains center login credentials.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}
