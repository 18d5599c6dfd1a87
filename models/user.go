package models

import "time"

// User is a microblog account. Accounts are created on first successful
// external-identity login or on username-only registration, and are never
// deleted in-app. ExternalIDHash holds a one-way hash of the provider subject
// id; the raw token is never stored.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	ExternalIDHash string    `gorm:"column:external_id_hash;size:128;uniqueIndex;not null" json:"-"`
	AvatarURL      string    `gorm:"size:512" json:"avatar_url"`
	MemberSince    time.Time `gorm:"not null" json:"member_since"`
}

// IsAnonymous reports whether the user is the anonymous sentinel used for
// requests without a logged-in session.
func (u User) IsAnonymous() bool {
	return u.ID == 0
}

// Anonymous is the sentinel returned for requests with no session user.
var Anonymous = User{}
