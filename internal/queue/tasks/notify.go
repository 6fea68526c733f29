package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/meetup-planner/app/internal/services"
	appErr "github.com/meetup-planner/app/pkg/errors"
	"github.com/meetup-planner/app/pkg/logger"
	"go.uber.org/zap"
)

const TypeMeetupFinalized = "meetup:finalized"

// MeetupFinalizedPayload is the task payload for TypeMeetupFinalized.
type MeetupFinalizedPayload struct {
	MeetupID uint `json:"meetup_id"`
}

func NewMeetupFinalizedTask(meetupID uint) (*asynq.Task, error) {
	b, err := json.Marshal(MeetupFinalizedPayload{MeetupID: meetupID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeMeetupFinalized, b), nil
}

// NotifyTaskHandler records participant notifications for finalized meetups.
type NotifyTaskHandler struct {
	notifications services.NotificationService
}

func NewNotifyTaskHandler(ns services.NotificationService) *NotifyTaskHandler {
	return &NotifyTaskHandler{notifications: ns}
}

// Register mounts the handler's task types on mux.
func (h *NotifyTaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeMeetupFinalized, h.HandleMeetupFinalized)
}

func (h *NotifyTaskHandler) HandleMeetupFinalized(ctx context.Context, t *asynq.Task) error {
	var p MeetupFinalizedPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid meetup finalized payload", zap.Error(err))
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.MeetupID == 0 {
		logger.L().Error("meetup finalized task without meetup id")
		return fmt.Errorf("missing meetup id: %w", asynq.SkipRetry)
	}

	logger.L().Info("handling meetup finalized task", zap.Uint("meetup_id", p.MeetupID))
	n, err := h.notifications.NotifyMeetupFinalized(ctx, p.MeetupID)
	if err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			logger.L().Warn("meetup gone before notification", zap.Uint("meetup_id", p.MeetupID))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		logger.L().Error("record notifications failed", zap.Uint("meetup_id", p.MeetupID), zap.Error(err))
		return err
	}
	logger.L().Info("meetup finalized task done", zap.Uint("meetup_id", p.MeetupID), zap.Int64("inserted", n))
	return nil
}
