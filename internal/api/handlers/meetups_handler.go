package handlers

import (
	"net/http"
	"strings"

	"github.com/meetup-planner/app/internal/api/flash"
	"github.com/meetup-planner/app/internal/api/middleware"
	"github.com/meetup-planner/app/internal/api/types"
	"github.com/meetup-planner/app/internal/api/views"
	"github.com/meetup-planner/app/internal/services"
)

type MeetupsHandler struct {
	pages
	meetups services.MeetupService
}

func NewMeetupsHandler(v *views.Renderer, meetups services.MeetupService) *MeetupsHandler {
	return &MeetupsHandler{pages: pages{views: v}, meetups: meetups}
}

func (h *MeetupsHandler) View(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "meetup")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	var viewer *services.Principal
	if p, ok := middleware.PrincipalFrom(r.Context()); ok {
		viewer = &p
	}
	detail, err := h.meetups.GetMeetup(r.Context(), id, viewer)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "meetup_view", detail.Meetup.Title, detail)
}

// RSVP records the form's status and returns to the page named by next, or
// the home page.
func (h *MeetupsHandler) RSVP(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "meetup")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	p, _ := middleware.PrincipalFrom(r.Context())
	req := types.RSVPRequest{
		Status: strings.TrimSpace(r.PostFormValue("status")),
		Next:   safeNext(r.PostFormValue("next")),
	}
	back := req.Next
	if back == "" {
		back = "/"
	}

	if _, err := h.meetups.RSVP(r.Context(), p, id, req.Status); err != nil {
		h.fail(w, r, back, err)
		return
	}

	flash.Success(w, "RSVP updated successfully!")
	redirect(w, r, back)
}
