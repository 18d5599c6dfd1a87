package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// UsernameSet is the set of usernames liking a post, stored as a JSON array in
// a TEXT column. Order is preserved so the serialized form stays stable.
type UsernameSet []string

// Contains reports membership of username in the set.
func (s UsernameSet) Contains(username string) bool {
	for _, u := range s {
		if u == username {
			return true
		}
	}
	return false
}

// Value serializes the set for storage. A nil set is stored as "[]".
func (s UsernameSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan deserializes the JSON column value.
func (s *UsernameSet) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = UsernameSet{}
		return nil
	case []byte:
		if len(v) == 0 {
			*s = UsernameSet{}
			return nil
		}
		return json.Unmarshal(v, (*[]string)(s))
	case string:
		if v == "" {
			*s = UsernameSet{}
			return nil
		}
		return json.Unmarshal([]byte(v), (*[]string)(s))
	default:
		return fmt.Errorf("unsupported liked_by column type %T", src)
	}
}

// Post is a short text entry. Username is a denormalized foreign key to
// User.Username; renaming users is unsupported, which keeps historical rows
// consistent. Likes must always equal len(LikedBy).
type Post struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Title     string      `gorm:"size:255;not null" json:"title"`
	Content   string      `gorm:"type:text;not null" json:"content"`
	Username  string      `gorm:"size:64;index;not null" json:"username"`
	Timestamp time.Time   `gorm:"not null" json:"timestamp"`
	Likes     int         `gorm:"not null;default:0" json:"likes"`
	LikedBy   UsernameSet `gorm:"column:liked_by;type:text" json:"liked_by"`
	Tag       *string     `gorm:"size:64" json:"tag,omitempty"`
}

// ToggleLiker adds username to LikedBy if absent, removes it if present, and
// keeps the Likes counter equal to the set size. Returns whether the user
// likes the post after the call.
func (p *Post) ToggleLiker(username string) bool {
	for i, u := range p.LikedBy {
		if u == username {
			p.LikedBy = append(p.LikedBy[:i], p.LikedBy[i+1:]...)
			p.Likes = len(p.LikedBy)
			return false
		}
	}
	p.LikedBy = append(p.LikedBy, username)
	p.Likes = len(p.LikedBy)
	return true
}
