package repository

import (
	"context"

	"github.com/meetup-planner/app/internal/models"
	appErr "github.com/meetup-planner/app/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tally counts RSVPs per status.
type Tally map[models.RSVPStatus]int64

func (t Tally) Yes() int64   { return t[models.RSVPStatusYes] }
func (t Tally) Maybe() int64 { return t[models.RSVPStatusMaybe] }
func (t Tally) No() int64    { return t[models.RSVPStatusNo] }

type RSVPRepository interface {
	Upsert(ctx context.Context, userID, meetupID uint, status models.RSVPStatus) (*models.RSVP, error)
	GetByUserAndMeetup(ctx context.Context, userID, meetupID uint, dest *models.RSVP) error
	ListByMeetup(ctx context.Context, meetupID uint) ([]models.RSVP, error)
	Tallies(ctx context.Context, meetupIDs []uint) (map[uint]Tally, error)
}

type rsvpRepository struct {
	db *gorm.DB
}

func NewRSVPRepository(db *gorm.DB) RSVPRepository {
	return &rsvpRepository{db: db}
}

// Upsert writes the user's RSVP, replacing the status of an existing one.
func (r *rsvpRepository) Upsert(ctx context.Context, userID, meetupID uint, status models.RSVPStatus) (*models.RSVP, error) {
	db := r.db.WithContext(ctx)
	row := models.RSVP{UserID: userID, MeetupID: meetupID, Status: status}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "meetup_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "upsert rsvp failed")
	}

	var out models.RSVP
	if err := r.GetByUserAndMeetup(ctx, userID, meetupID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *rsvpRepository) GetByUserAndMeetup(ctx context.Context, userID, meetupID uint, dest *models.RSVP) error {
	err := r.db.WithContext(ctx).Where("user_id = ? AND meetup_id = ?", userID, meetupID).First(dest).Error
	if err != nil {
		return notFoundOr(err, "rsvp", "get rsvp failed")
	}
	return nil
}

// ListByMeetup returns a meetup's RSVPs with users loaded, oldest first.
func (r *rsvpRepository) ListByMeetup(ctx context.Context, meetupID uint) ([]models.RSVP, error) {
	var out []models.RSVP
	err := r.db.WithContext(ctx).Preload("User").Where("meetup_id = ?", meetupID).Order("id").Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list rsvps failed")
	}
	return out, nil
}

func (r *rsvpRepository) Tallies(ctx context.Context, meetupIDs []uint) (map[uint]Tally, error) {
	out := make(map[uint]Tally, len(meetupIDs))
	if len(meetupIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		MeetupID uint
		Status   models.RSVPStatus
		N        int64
	}
	err := r.db.WithContext(ctx).Model(&models.RSVP{}).
		Select("meetup_id, status, COUNT(*) AS n").
		Where("meetup_id IN ?", meetupIDs).
		Group("meetup_id, status").
		Scan(&rows).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "tally rsvps failed")
	}
	for _, row := range rows {
		t, ok := out[row.MeetupID]
		if !ok {
			t = Tally{}
			out[row.MeetupID] = t
		}
		t[row.Status] = row.N
	}
	return out, nil
}
