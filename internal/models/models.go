package models

import "time"

// Roles recognised by the service. Managers may purge cached renders and edit pages.
const (
	RoleViewer  = "viewer"
	RoleManager = "manager"
)

// User represents an account that can sign in to the wiki.
type User struct {
	ID        string
	Email     string
	Password  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Privileged reports whether the user may purge caches and edit pages.
func (u User) Privileged() bool {
	return u.Role == RoleManager
}

// Page is a stored wiki page whose source may contain album directives.
type Page struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
