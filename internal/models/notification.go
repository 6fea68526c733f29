package models

import (
	"time"

	"gorm.io/datatypes"
)

const NotificationKindMeetupFinalized = "meetup_finalized"

// Notification tells a participant about a change to a meetup they took part
// in planning. Unique per (user, meetup, kind) so redelivered tasks are no-ops.
type Notification struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_notifications_user_meetup_kind" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	MeetupID  uint           `gorm:"not null;uniqueIndex:idx_notifications_user_meetup_kind" json:"meetup_id"`
	Meetup    Meetup         `gorm:"foreignKey:MeetupID" json:"-"`
	Kind      string         `gorm:"type:varchar(40);not null;uniqueIndex:idx_notifications_user_meetup_kind" json:"kind"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}
