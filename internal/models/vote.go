package models

import "time"

// Vote is one user's endorsement of one suggestion. The composite unique index
// keeps at most one row per (suggestion, user) even under concurrent requests.
type Vote struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SuggestionID uint      `gorm:"not null;uniqueIndex:idx_votes_suggestion_user" json:"suggestion_id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_votes_suggestion_user" json:"user_id"`
	User         User      `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
