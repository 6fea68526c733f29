package handlers

import (
	"net/http"
	"time"

	"github.com/meetup-planner/app/internal/api/middleware"
	"github.com/meetup-planner/app/internal/api/views"
	"github.com/meetup-planner/app/internal/services"
)

const homeNotificationLimit = 5

type HomeHandler struct {
	pages
	proposals     services.ProposalService
	meetups       services.MeetupService
	notifications services.NotificationService
	now           func() time.Time
}

func NewHomeHandler(v *views.Renderer, proposals services.ProposalService, meetups services.MeetupService, notifications services.NotificationService) *HomeHandler {
	return &HomeHandler{pages: pages{views: v}, proposals: proposals, meetups: meetups, notifications: notifications, now: time.Now}
}

type homeData struct {
	Proposals     []services.ProposalSummary
	Meetups       []services.MeetupSummary
	Notifications []services.NotificationView
}

func (h *HomeHandler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var data homeData
	var err error

	if data.Proposals, err = h.proposals.ListOpenProposals(ctx); err != nil {
		h.renderError(w, r, err)
		return
	}
	if data.Meetups, err = h.meetups.ListUpcoming(ctx, h.now()); err != nil {
		h.renderError(w, r, err)
		return
	}
	if u := middleware.CurrentUser(ctx); u != nil && h.notifications != nil {
		if data.Notifications, err = h.notifications.ListForUser(ctx, u.ID, homeNotificationLimit); err != nil {
			h.renderError(w, r, err)
			return
		}
	}

	h.render(w, r, http.StatusOK, "index", "Meetup Planner", data)
}
