package repository

import (
	"context"
	"time"

	"github.com/meetup-planner/app/internal/models"
	appErr "github.com/meetup-planner/app/pkg/errors"
	"gorm.io/gorm"
)

type MeetupRepository interface {
	BaseRepository[models.Meetup]
	GetWithCreator(ctx context.Context, id uint, dest *models.Meetup) error
	GetByProposal(ctx context.Context, proposalID uint, dest *models.Meetup) error
	ListUpcoming(ctx context.Context, from time.Time) ([]models.Meetup, error)
}

type meetupRepository struct {
	BaseRepository[models.Meetup]
	db *gorm.DB
}

func NewMeetupRepository(db *gorm.DB) MeetupRepository {
	return &meetupRepository{BaseRepository: NewBaseRepository[models.Meetup](db, "meetup"), db: db}
}

func (r *meetupRepository) GetWithCreator(ctx context.Context, id uint, dest *models.Meetup) error {
	if err := r.db.WithContext(ctx).Preload("Creator").First(dest, "id = ?", id).Error; err != nil {
		return notFoundOr(err, "meetup", "get meetup failed")
	}
	return nil
}

func (r *meetupRepository) GetByProposal(ctx context.Context, proposalID uint, dest *models.Meetup) error {
	if err := r.db.WithContext(ctx).Where("proposal_id = ?", proposalID).First(dest).Error; err != nil {
		return notFoundOr(err, "meetup", "get meetup by proposal failed")
	}
	return nil
}

// ListUpcoming returns meetups dated at or after from, soonest first.
func (r *meetupRepository) ListUpcoming(ctx context.Context, from time.Time) ([]models.Meetup, error) {
	var out []models.Meetup
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("date >= ?", from.UTC()).
		Order("date ASC").Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list upcoming meetups failed")
	}
	return out, nil
}
