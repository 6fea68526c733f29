package services

import (
	"context"
	"time"

	"github.com/meetup-planner/app/internal/models"
	"github.com/meetup-planner/app/internal/repository"
	appErr "github.com/meetup-planner/app/pkg/errors"
	"github.com/meetup-planner/app/pkg/logger"
	"github.com/meetup-planner/app/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MeetupService interface {
	RSVP(ctx context.Context, p Principal, meetupID uint, status string) (*models.RSVP, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]MeetupSummary, error)
	GetMeetup(ctx context.Context, id uint, viewer *Principal) (*MeetupDetail, error)
}

type MeetupSummary struct {
	Meetup models.Meetup
	Tally  repository.Tally
}

type MeetupDetail struct {
	Meetup models.Meetup
	RSVPs  []models.RSVP
	Tally  repository.Tally
	// ViewerStatus is empty when the viewer has not responded.
	ViewerStatus models.RSVPStatus
}

type meetupService struct {
	repos   repos
	metrics *metrics.Metrics
}

func NewMeetupService(db *gorm.DB, m *metrics.Metrics) MeetupService {
	return &meetupService{repos: newRepos(db), metrics: m}
}

var _ MeetupService = (*meetupService)(nil)

// RSVP records the caller's attendance intent, replacing any earlier answer.
func (s *meetupService) RSVP(ctx context.Context, p Principal, meetupID uint, status string) (*models.RSVP, error) {
	logger.L().Info("rsvp", zap.Uint("meetup_id", meetupID), zap.Uint("user_id", p.UserID), zap.String("status", status))

	st, ok := models.ParseRSVPStatus(status)
	if !ok {
		return nil, rejected(s.metrics, "rsvp", appErr.Invalid("Invalid RSVP status"))
	}
	var m models.Meetup
	if err := s.repos.meetups.GetByID(ctx, meetupID, &m); err != nil {
		return nil, rejected(s.metrics, "rsvp", err)
	}

	row, err := s.repos.rsvps.Upsert(ctx, p.UserID, m.ID, st)
	if err != nil {
		return nil, err
	}
	s.metrics.RSVPRecorded(string(st))
	return row, nil
}

func (s *meetupService) ListUpcoming(ctx context.Context, now time.Time) ([]MeetupSummary, error) {
	meetups, err := s.repos.meetups.ListUpcoming(ctx, now)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(meetups))
	for _, m := range meetups {
		ids = append(ids, m.ID)
	}
	tallies, err := s.repos.rsvps.Tallies(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]MeetupSummary, 0, len(meetups))
	for _, m := range meetups {
		t := tallies[m.ID]
		if t == nil {
			t = repository.Tally{}
		}
		out = append(out, MeetupSummary{Meetup: m, Tally: t})
	}
	return out, nil
}

func (s *meetupService) GetMeetup(ctx context.Context, id uint, viewer *Principal) (*MeetupDetail, error) {
	var m models.Meetup
	if err := s.repos.meetups.GetWithCreator(ctx, id, &m); err != nil {
		return nil, err
	}
	rsvps, err := s.repos.rsvps.ListByMeetup(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	detail := &MeetupDetail{Meetup: m, RSVPs: rsvps, Tally: repository.Tally{}}
	for _, r := range rsvps {
		detail.Tally[r.Status]++
		if viewer != nil && r.UserID == viewer.UserID {
			detail.ViewerStatus = r.Status
		}
	}
	return detail, nil
}
