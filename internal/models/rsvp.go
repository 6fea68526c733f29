package models

import "time"

// RSVPStatus is a user's attendance intent for a meetup.
type RSVPStatus string

const (
	RSVPStatusYes   RSVPStatus = "yes"
	RSVPStatusNo    RSVPStatus = "no"
	RSVPStatusMaybe RSVPStatus = "maybe"
)

// RSVPStatuses lists the accepted statuses in display order.
var RSVPStatuses = []RSVPStatus{RSVPStatusYes, RSVPStatusMaybe, RSVPStatusNo}

// ParseRSVPStatus validates a raw status value.
func ParseRSVPStatus(s string) (RSVPStatus, bool) {
	switch st := RSVPStatus(s); st {
	case RSVPStatusYes, RSVPStatusNo, RSVPStatusMaybe:
		return st, true
	}
	return "", false
}

// RSVP links a user to a meetup. Writes are upserts on (user_id, meetup_id).
type RSVP struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_rsvps_user_meetup" json:"user_id"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
	MeetupID  uint       `gorm:"not null;uniqueIndex:idx_rsvps_user_meetup;index" json:"meetup_id"`
	Meetup    Meetup     `gorm:"foreignKey:MeetupID" json:"-"`
	Status    RSVPStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (RSVP) TableName() string { return "rsvps" }
