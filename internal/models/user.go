package models

import "time"

type AdminUser struct {
	ID           string
	Username     string
	PasswordHash string
	PasswordSalt string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is a bearer session owned by exactly one AdminUser. User is
// populated when the session is loaded together with its owner.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	User      *AdminUser
}

// ExpiredAt reports whether the session is dead at now. A session whose
// expiry equals now is already expired.
func (s Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
