package models

import "time"

// Suggestion is a candidate date and location for a proposal.
type Suggestion struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProposalID  uint      `gorm:"not null;index" json:"proposal_id"`
	Date        time.Time `gorm:"not null" json:"date"`
	Location    string    `gorm:"size:200;not null" json:"location"`
	SuggestedBy uint      `gorm:"not null;index" json:"suggested_by"`
	Suggester   User      `gorm:"foreignKey:SuggestedBy" json:"-"`
	CreatedAt   time.Time `json:"created_at"`

	Votes []Vote `gorm:"foreignKey:SuggestionID;constraint:OnDelete:CASCADE" json:"-"`
}
