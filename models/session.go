package models

import "time"

// Session is the server-side session record. It lives in Redis (or the
// in-memory fallback), never in the relational store, and is destroyed on
// logout. PendingExternalIDHash is only set between a successful external
// identity verification and local account creation.
type Session struct {
	ID                    string    `json:"id"`
	UserID                uint      `json:"user_id"`
	LoggedIn              bool      `json:"logged_in"`
	PendingExternalIDHash string    `json:"pending_external_id_hash,omitempty"`
	ExpiresAt             time.Time `json:"expires_at"`
}
