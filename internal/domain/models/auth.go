package models

import "time"

// RefreshToken is a server-tracked opaque credential. Token is the lookup key.
type RefreshToken struct {
	Token     string    `db:"token" json:"token"`
	Email     string    `db:"email" json:"email"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ResponseToken is what a client receives after login or refresh.
type ResponseToken struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Session is the result of a successful login.
type Session struct {
	Access  ResponseToken
	Refresh RefreshToken
}
