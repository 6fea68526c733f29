package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/meetup-planner/app/internal/api/flash"
	"github.com/meetup-planner/app/internal/api/middleware"
	"github.com/meetup-planner/app/internal/api/types"
	"github.com/meetup-planner/app/internal/api/validators"
	"github.com/meetup-planner/app/internal/api/views"
	"github.com/meetup-planner/app/internal/services"
	appErr "github.com/meetup-planner/app/pkg/errors"
)

type ProposalsHandler struct {
	pages
	proposals services.ProposalService
	validate  *validator.Validate
}

func NewProposalsHandler(v *views.Renderer, proposals services.ProposalService) *ProposalsHandler {
	return &ProposalsHandler{pages: pages{views: v}, proposals: proposals, validate: validators.New()}
}

func (h *ProposalsHandler) New(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "proposal_new", "Propose a meetup", nil)
}

func (h *ProposalsHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, _ := middleware.PrincipalFrom(r.Context())
	req := types.CreateProposalRequest{
		Description: r.PostFormValue("description"),
		Date:        strings.TrimSpace(r.PostFormValue("date")),
		Location:    strings.TrimSpace(r.PostFormValue("location")),
	}
	reject := func(status int, msg string) {
		h.renderFlash(w, r, status, "proposal_new", "Propose a meetup", req, &flash.Message{Kind: flash.KindError, Text: msg})
	}

	if err := h.validate.Struct(req); err != nil {
		reject(http.StatusBadRequest, validators.Message(err))
		return
	}

	proposal, err := h.proposals.CreateProposal(r.Context(), p, services.CreateProposalInput{
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
	})
	if err != nil {
		if appErr.IsCode(err, appErr.CodeInvalid) {
			reject(http.StatusBadRequest, appErr.MessageOf(err))
			return
		}
		h.renderError(w, r, err)
		return
	}

	flash.Success(w, "Meetup proposal created! Others can now suggest times/locations and vote.")
	redirect(w, r, proposalPath(proposal.ID))
}

func (h *ProposalsHandler) View(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "proposal")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	var viewer *services.Principal
	if p, ok := middleware.PrincipalFrom(r.Context()); ok {
		viewer = &p
	}
	detail, err := h.proposals.GetProposal(r.Context(), id, viewer)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "proposal_view", detail.Title, detail)
}

func (h *ProposalsHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "proposal")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	p, _ := middleware.PrincipalFrom(r.Context())
	req := types.SuggestionRequest{
		Date:     strings.TrimSpace(r.PostFormValue("date")),
		Location: strings.TrimSpace(r.PostFormValue("location")),
	}
	back := proposalPath(id)

	if err := h.validate.Struct(req); err != nil {
		flash.Error(w, validators.Message(err))
		redirect(w, r, back)
		return
	}
	if _, err := h.proposals.AddSuggestion(r.Context(), p, id, services.SuggestionInput{Date: req.Date, Location: req.Location}); err != nil {
		h.fail(w, r, back, err)
		return
	}

	flash.Success(w, "Your suggestion has been added!")
	redirect(w, r, back)
}

func (h *ProposalsHandler) Vote(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "suggestion")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	p, _ := middleware.PrincipalFrom(r.Context())

	res, err := h.proposals.ToggleVote(r.Context(), p, id)
	if err != nil {
		back := "/"
		if res != nil {
			back = proposalPath(res.ProposalID)
		}
		h.fail(w, r, back, err)
		return
	}

	if res.Voted {
		flash.Success(w, "Your vote has been recorded!")
	} else {
		flash.Success(w, "Your vote has been removed.")
	}
	redirect(w, r, proposalPath(res.ProposalID))
}

func (h *ProposalsHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "proposal")
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	p, _ := middleware.PrincipalFrom(r.Context())
	back := proposalPath(id)

	sid, _ := strconv.ParseUint(strings.TrimSpace(r.PostFormValue("suggestion_id")), 10, 64)
	req := types.FinalizeRequest{SuggestionID: uint(sid)}
	if err := h.validate.Struct(req); err != nil {
		flash.Error(w, "Choose a suggestion to finalize.")
		redirect(w, r, back)
		return
	}

	if _, err := h.proposals.Finalize(r.Context(), p, id, req.SuggestionID); err != nil {
		h.fail(w, r, back, err)
		return
	}

	flash.Success(w, "Meetup has been finalized!")
	redirect(w, r, "/")
}
