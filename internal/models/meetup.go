package models

import "time"

// Meetup is the scheduled result of finalizing a proposal. Title, date,
// location and description are snapshots taken at finalization.
type Meetup struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ProposalID  uint      `gorm:"not null;uniqueIndex" json:"proposal_id"`
	Proposal    Proposal  `gorm:"foreignKey:ProposalID" json:"-"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	Location    string    `gorm:"size:200;not null" json:"location"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedBy   uint      `gorm:"not null" json:"created_by"`
	Creator     User      `gorm:"foreignKey:CreatedBy" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
