package repository

import (
	"context"

	"github.com/meetup-planner/app/internal/models"
	appErr "github.com/meetup-planner/app/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VoteRepository interface {
	Toggle(ctx context.Context, suggestionID, userID uint) (bool, error)
	VotedSuggestions(ctx context.Context, proposalID, userID uint) (map[uint]bool, error)
	VoterIDs(ctx context.Context, proposalID uint) ([]uint, error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

// Toggle removes the user's vote on a suggestion if present, otherwise adds
// one. It reports whether a vote exists afterwards.
func (r *voteRepository) Toggle(ctx context.Context, suggestionID, userID uint) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Where("suggestion_id = ? AND user_id = ?", suggestionID, userID).Delete(&models.Vote{})
	if res.Error != nil {
		return false, appErr.Wrap(res.Error, appErr.CodeInternal, "remove vote failed")
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	v := models.Vote{SuggestionID: suggestionID, UserID: userID}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&v).Error; err != nil {
		return false, appErr.Wrap(err, appErr.CodeInternal, "add vote failed")
	}
	return true, nil
}

// VotedSuggestions returns the ids of suggestions on a proposal the user voted for.
func (r *voteRepository) VotedSuggestions(ctx context.Context, proposalID, userID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Joins("JOIN suggestions ON suggestions.id = votes.suggestion_id").
		Where("suggestions.proposal_id = ? AND votes.user_id = ?", proposalID, userID).
		Pluck("votes.suggestion_id", &ids).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list user votes failed")
	}
	out := make(map[uint]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *voteRepository) VoterIDs(ctx context.Context, proposalID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Joins("JOIN suggestions ON suggestions.id = votes.suggestion_id").
		Where("suggestions.proposal_id = ?", proposalID).
		Distinct().Pluck("votes.user_id", &ids).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list voters failed")
	}
	return ids, nil
}
