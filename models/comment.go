package models

import "time"

// Comment is a reply to a post. Username is the denormalized author key, same
// as on Post. Comments have no update or delete path of their own; they are
// removed only when their post is deleted.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	Username  string    `gorm:"size:64;index;not null" json:"username"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}
