package repository

import (
	"context"

	"github.com/meetup-planner/app/internal/models"
	appErr "github.com/meetup-planner/app/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository interface {
	CreateIgnoreDuplicates(ctx context.Context, rows []models.Notification) (int64, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

// CreateIgnoreDuplicates inserts rows, skipping any (user, meetup, kind)
// already recorded. It returns the number of rows inserted.
func (r *notificationRepository) CreateIgnoreDuplicates(ctx context.Context, rows []models.Notification) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows)
	if res.Error != nil {
		return 0, appErr.Wrap(res.Error, appErr.CodeInternal, "create notifications failed")
	}
	return res.RowsAffected, nil
}

// ListByUser returns a user's most recent notifications.
func (r *notificationRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	var out []models.Notification
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list notifications failed")
	}
	return out, nil
}
