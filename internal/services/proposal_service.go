package services

import (
	"context"
	"errors"
	"strings"

	"github.com/meetup-planner/app/internal/models"
	appErr "github.com/meetup-planner/app/pkg/errors"
	"github.com/meetup-planner/app/pkg/logger"
	"github.com/meetup-planner/app/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProposalService runs the proposal lifecycle: propose, suggest, vote, finalize.
type ProposalService interface {
	CreateProposal(ctx context.Context, p Principal, input CreateProposalInput) (*models.Proposal, error)
	AddSuggestion(ctx context.Context, p Principal, proposalID uint, input SuggestionInput) (*models.Suggestion, error)
	// ToggleVote flips the caller's vote. When voting is closed the error is
	// invalid_state and the result still names the proposal.
	ToggleVote(ctx context.Context, p Principal, suggestionID uint) (*VoteResult, error)
	Finalize(ctx context.Context, p Principal, proposalID, suggestionID uint) (*models.Meetup, error)

	ListOpenProposals(ctx context.Context) ([]ProposalSummary, error)
	GetProposal(ctx context.Context, id uint, viewer *Principal) (*ProposalDetail, error)
}

// CreateProposalInput carries raw form values. Date and Location are optional
// but must be given together.
type CreateProposalInput struct {
	Description string
	Date        string
	Location    string
}

type SuggestionInput struct {
	Date     string
	Location string
}

type VoteResult struct {
	ProposalID uint
	Voted      bool
}

type ProposalSummary struct {
	Proposal models.Proposal
	Title    string
}

type SuggestionView struct {
	Suggestion models.Suggestion
	Votes      int64
	Voted      bool
}

type ProposalDetail struct {
	Proposal    models.Proposal
	Title       string
	Suggestions []SuggestionView
	Meetup      *models.Meetup
	CanFinalize bool
}

type proposalService struct {
	db       *gorm.DB
	repos    repos
	notifier Notifier
	metrics  *metrics.Metrics
}

// NewProposalService wires the lifecycle over db. notifier and m may be nil.
func NewProposalService(db *gorm.DB, notifier Notifier, m *metrics.Metrics) ProposalService {
	return &proposalService{db: db, repos: newRepos(db), notifier: notifier, metrics: m}
}

var _ ProposalService = (*proposalService)(nil)

func (s *proposalService) CreateProposal(ctx context.Context, p Principal, input CreateProposalInput) (*models.Proposal, error) {
	logger.L().Info("create proposal", zap.Uint("user_id", p.UserID))

	date := strings.TrimSpace(input.Date)
	location := strings.TrimSpace(input.Location)
	if (date == "") != (location == "") {
		return nil, rejected(s.metrics, "create_proposal", appErr.Invalid("Provide both a date and a location for the first suggestion, or neither."))
	}

	proposal := &models.Proposal{
		CreatedBy:   p.UserID,
		Status:      models.ProposalStatusVoting,
		Description: strings.TrimSpace(input.Description),
	}
	var first *models.Suggestion
	if date != "" {
		when, err := ParseDateTime(date)
		if err != nil {
			return nil, rejected(s.metrics, "create_proposal", err)
		}
		first = &models.Suggestion{Date: when, Location: location, SuggestedBy: p.UserID}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := newRepos(tx)
		if err := r.proposals.Create(ctx, proposal); err != nil {
			return err
		}
		if first != nil {
			first.ProposalID = proposal.ID
			return r.suggestions.Create(ctx, first)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ProposalCreated()
	if first != nil {
		s.metrics.SuggestionAdded()
	}
	logger.L().Info("proposal created", zap.Uint("proposal_id", proposal.ID), zap.Uint("user_id", p.UserID), zap.Bool("with_suggestion", first != nil))
	return proposal, nil
}

func (s *proposalService) AddSuggestion(ctx context.Context, p Principal, proposalID uint, input SuggestionInput) (*models.Suggestion, error) {
	logger.L().Info("add suggestion", zap.Uint("proposal_id", proposalID), zap.Uint("user_id", p.UserID))

	var proposal models.Proposal
	if err := s.repos.proposals.GetByID(ctx, proposalID, &proposal); err != nil {
		return nil, rejected(s.metrics, "suggest", err)
	}
	if !proposal.IsVoting() {
		return nil, rejected(s.metrics, "suggest", appErr.InvalidState("This proposal is no longer accepting suggestions."))
	}

	location := strings.TrimSpace(input.Location)
	if strings.TrimSpace(input.Date) == "" || location == "" {
		return nil, rejected(s.metrics, "suggest", appErr.Invalid("A suggestion needs both a date and a location."))
	}
	when, err := ParseDateTime(input.Date)
	if err != nil {
		return nil, rejected(s.metrics, "suggest", err)
	}

	sg := &models.Suggestion{ProposalID: proposal.ID, Date: when, Location: location, SuggestedBy: p.UserID}
	if err := s.repos.suggestions.Create(ctx, sg); err != nil {
		return nil, err
	}

	s.metrics.SuggestionAdded()
	logger.L().Info("suggestion added", zap.Uint("suggestion_id", sg.ID), zap.Uint("proposal_id", proposal.ID))
	return sg, nil
}

func (s *proposalService) ToggleVote(ctx context.Context, p Principal, suggestionID uint) (*VoteResult, error) {
	logger.L().Info("toggle vote", zap.Uint("suggestion_id", suggestionID), zap.Uint("user_id", p.UserID))

	var sg models.Suggestion
	if err := s.repos.suggestions.GetByID(ctx, suggestionID, &sg); err != nil {
		return nil, rejected(s.metrics, "vote", err)
	}
	var proposal models.Proposal
	if err := s.repos.proposals.GetByID(ctx, sg.ProposalID, &proposal); err != nil {
		return nil, err
	}
	if !proposal.IsVoting() {
		return &VoteResult{ProposalID: proposal.ID}, rejected(s.metrics, "vote", appErr.InvalidState("Voting is closed for this proposal."))
	}

	voted, err := s.repos.votes.Toggle(ctx, sg.ID, p.UserID)
	if err != nil {
		return nil, err
	}

	s.metrics.VoteToggled(voted)
	logger.L().Info("vote toggled", zap.Uint("suggestion_id", sg.ID), zap.Uint("user_id", p.UserID), zap.Bool("voted", voted))
	return &VoteResult{ProposalID: proposal.ID, Voted: voted}, nil
}

func (s *proposalService) Finalize(ctx context.Context, p Principal, proposalID, suggestionID uint) (*models.Meetup, error) {
	logger.L().Info("finalize proposal", zap.Uint("proposal_id", proposalID), zap.Uint("suggestion_id", suggestionID), zap.Uint("user_id", p.UserID))

	var meetup *models.Meetup
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := newRepos(tx)

		var proposal models.Proposal
		if err := r.proposals.GetWithCreator(ctx, proposalID, &proposal); err != nil {
			return err
		}
		if proposal.CreatedBy != p.UserID {
			return appErr.Forbidden("Only the proposal creator can finalize the meetup.")
		}

		var sg models.Suggestion
		if err := r.suggestions.GetByID(ctx, suggestionID, &sg); err != nil {
			return err
		}
		if sg.ProposalID != proposal.ID {
			return appErr.NotFound("suggestion")
		}

		alreadyFinalized := appErr.InvalidState("This proposal has already been finalized.")
		if !proposal.IsVoting() {
			return alreadyFinalized
		}
		ok, err := r.proposals.MarkFinalized(ctx, proposal.ID)
		if err != nil {
			return err
		}
		if !ok {
			return alreadyFinalized
		}

		ordinal, err := r.proposals.Ordinal(ctx, &proposal)
		if err != nil {
			return err
		}
		m := &models.Meetup{
			ProposalID:  proposal.ID,
			Title:       models.ProposalTitle(proposal.Creator.Name, ordinal),
			Date:        sg.Date,
			Location:    sg.Location,
			Description: proposal.Description,
			CreatedBy:   proposal.CreatedBy,
		}
		if err := r.meetups.Create(ctx, m); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return alreadyFinalized
			}
			return err
		}
		meetup = m
		return nil
	})
	if err != nil {
		return nil, rejected(s.metrics, "finalize", err)
	}

	s.metrics.ProposalFinalized()
	logger.L().Info("proposal finalized", zap.Uint("proposal_id", proposalID), zap.Uint("meetup_id", meetup.ID))

	if s.notifier != nil {
		if err := s.notifier.MeetupFinalized(ctx, meetup.ID); err != nil {
			logger.L().Warn("notify meetup finalized failed", zap.Uint("meetup_id", meetup.ID), zap.Error(err))
		}
	}
	return meetup, nil
}

func (s *proposalService) ListOpenProposals(ctx context.Context) ([]ProposalSummary, error) {
	proposals, err := s.repos.proposals.ListByStatus(ctx, models.ProposalStatusVoting)
	if err != nil {
		return nil, err
	}
	ordinals, err := s.repos.proposals.Ordinals(ctx, proposals)
	if err != nil {
		return nil, err
	}
	out := make([]ProposalSummary, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, ProposalSummary{Proposal: p, Title: models.ProposalTitle(p.Creator.Name, ordinals[p.ID])})
	}
	return out, nil
}

// GetProposal loads a proposal with vote counts. viewer may be nil for
// anonymous readers.
func (s *proposalService) GetProposal(ctx context.Context, id uint, viewer *Principal) (*ProposalDetail, error) {
	var proposal models.Proposal
	if err := s.repos.proposals.GetWithCreator(ctx, id, &proposal); err != nil {
		return nil, err
	}
	ordinal, err := s.repos.proposals.Ordinal(ctx, &proposal)
	if err != nil {
		return nil, err
	}
	suggestions, err := s.repos.suggestions.ListByProposal(ctx, proposal.ID)
	if err != nil {
		return nil, err
	}
	counts, err := s.repos.suggestions.VoteCounts(ctx, proposal.ID)
	if err != nil {
		return nil, err
	}
	voted := map[uint]bool{}
	if viewer != nil {
		if voted, err = s.repos.votes.VotedSuggestions(ctx, proposal.ID, viewer.UserID); err != nil {
			return nil, err
		}
	}

	detail := &ProposalDetail{
		Proposal:    proposal,
		Title:       models.ProposalTitle(proposal.Creator.Name, ordinal),
		Suggestions: make([]SuggestionView, 0, len(suggestions)),
		CanFinalize: viewer != nil && viewer.UserID == proposal.CreatedBy && proposal.IsVoting(),
	}
	for _, sg := range suggestions {
		detail.Suggestions = append(detail.Suggestions, SuggestionView{
			Suggestion: sg,
			Votes:      counts[sg.ID],
			Voted:      voted[sg.ID],
		})
	}

	if !proposal.IsVoting() {
		var m models.Meetup
		err := s.repos.meetups.GetByProposal(ctx, proposal.ID, &m)
		switch {
		case err == nil:
			detail.Meetup = &m
		case !appErr.IsCode(err, appErr.CodeNotFound):
			return nil, err
		}
	}
	return detail, nil
}
