package models

import (
	"fmt"
	"time"
)

// ProposalStatus is the lifecycle state of a proposal. The only transition is
// voting -> finalized.
type ProposalStatus string

const (
	ProposalStatusVoting    ProposalStatus = "voting"
	ProposalStatusFinalized ProposalStatus = "finalized"
)

// Proposal is a request to schedule a meetup. It collects suggestions and votes
// until its creator finalizes it.
type Proposal struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedBy   uint           `gorm:"not null;index" json:"created_by"`
	Creator     User           `gorm:"foreignKey:CreatedBy" json:"-"`
	Status      ProposalStatus `gorm:"type:varchar(20);not null;default:'voting';index" json:"status"`
	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`

	Suggestions []Suggestion `gorm:"foreignKey:ProposalID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsVoting reports whether the proposal still accepts suggestions and votes.
func (p Proposal) IsVoting() bool { return p.Status == ProposalStatusVoting }

// ProposalTitle renders the display title of a creator's ordinal-th proposal.
func ProposalTitle(creatorName string, ordinal int64) string {
	return fmt.Sprintf("%s's Proposal #%d", creatorName, ordinal)
}
