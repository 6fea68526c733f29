package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/meetup-planner/app/internal/models"
	appErr "github.com/meetup-planner/app/pkg/errors"
	"github.com/meetup-planner/app/pkg/logger"
	"github.com/meetup-planner/app/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notifier is told about meetups right after they are finalized.
type Notifier interface {
	MeetupFinalized(ctx context.Context, meetupID uint) error
}

type NotifierFunc func(ctx context.Context, meetupID uint) error

func (f NotifierFunc) MeetupFinalized(ctx context.Context, meetupID uint) error { return f(ctx, meetupID) }

// InlineNotifier records notifications in the caller's goroutine. It is used
// when no task queue is configured.
func InlineNotifier(ns NotificationService) Notifier {
	return NotifierFunc(func(ctx context.Context, meetupID uint) error {
		_, err := ns.NotifyMeetupFinalized(ctx, meetupID)
		return err
	})
}

type NotificationService interface {
	NotifyMeetupFinalized(ctx context.Context, meetupID uint) (int64, error)
	ListForUser(ctx context.Context, userID uint, limit int) ([]NotificationView, error)
}

// MeetupPayload is the JSON body stored with a finalized-meetup notification.
type MeetupPayload struct {
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
}

type NotificationView struct {
	ID        uint
	MeetupID  uint
	Kind      string
	Meetup    MeetupPayload
	CreatedAt time.Time
}

type notificationService struct {
	repos   repos
	metrics *metrics.Metrics
}

func NewNotificationService(db *gorm.DB, m *metrics.Metrics) NotificationService {
	return &notificationService{repos: newRepos(db), metrics: m}
}

var _ NotificationService = (*notificationService)(nil)

// NotifyMeetupFinalized records one notification for every participant of the
// meetup's proposal: its creator, suggesters and voters. Running it twice for
// the same meetup adds nothing.
func (s *notificationService) NotifyMeetupFinalized(ctx context.Context, meetupID uint) (int64, error) {
	var m models.Meetup
	if err := s.repos.meetups.GetByID(ctx, meetupID, &m); err != nil {
		return 0, err
	}

	suggesters, err := s.repos.suggestions.SuggesterIDs(ctx, m.ProposalID)
	if err != nil {
		return 0, err
	}
	voters, err := s.repos.votes.VoterIDs(ctx, m.ProposalID)
	if err != nil {
		return 0, err
	}

	payload, err := json.Marshal(MeetupPayload{Title: m.Title, Date: m.Date, Location: m.Location})
	if err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "encode notification payload failed")
	}

	seen := map[uint]bool{}
	var rows []models.Notification
	for _, ids := range [][]uint{{m.CreatedBy}, suggesters, voters} {
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			rows = append(rows, models.Notification{
				UserID:   id,
				MeetupID: m.ID,
				Kind:     models.NotificationKindMeetupFinalized,
				Payload:  datatypes.JSON(payload),
			})
		}
	}

	n, err := s.repos.notifications.CreateIgnoreDuplicates(ctx, rows)
	if err != nil {
		return 0, err
	}
	s.metrics.NotificationsRecorded(n)
	logger.L().Info("meetup notifications recorded", zap.Uint("meetup_id", m.ID), zap.Int("participants", len(rows)), zap.Int64("inserted", n))
	return n, nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID uint, limit int) ([]NotificationView, error) {
	rows, err := s.repos.notifications.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]NotificationView, 0, len(rows))
	for _, n := range rows {
		v := NotificationView{ID: n.ID, MeetupID: n.MeetupID, Kind: n.Kind, CreatedAt: n.CreatedAt}
		if len(n.Payload) > 0 {
			if err := json.Unmarshal(n.Payload, &v.Meetup); err != nil {
				logger.L().Warn("skip malformed notification payload", zap.Uint("notification_id", n.ID), zap.Error(err))
				continue
			}
		}
		out = append(out, v)
	}
	return out, nil
}
