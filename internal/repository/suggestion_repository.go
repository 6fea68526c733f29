package repository

import (
	"context"

	"github.com/meetup-planner/app/internal/models"
	appErr "github.com/meetup-planner/app/pkg/errors"
	"gorm.io/gorm"
)

type SuggestionRepository interface {
	BaseRepository[models.Suggestion]
	ListByProposal(ctx context.Context, proposalID uint) ([]models.Suggestion, error)
	VoteCounts(ctx context.Context, proposalID uint) (map[uint]int64, error)
	SuggesterIDs(ctx context.Context, proposalID uint) ([]uint, error)
}

type suggestionRepository struct {
	BaseRepository[models.Suggestion]
	db *gorm.DB
}

func NewSuggestionRepository(db *gorm.DB) SuggestionRepository {
	return &suggestionRepository{BaseRepository: NewBaseRepository[models.Suggestion](db, "suggestion"), db: db}
}

// ListByProposal returns a proposal's suggestions in creation order.
func (r *suggestionRepository) ListByProposal(ctx context.Context, proposalID uint) ([]models.Suggestion, error) {
	var out []models.Suggestion
	err := r.db.WithContext(ctx).
		Preload("Suggester").
		Where("proposal_id = ?", proposalID).
		Order("id").
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list suggestions failed")
	}
	return out, nil
}

// VoteCounts maps suggestion id to vote count for one proposal. Suggestions
// without votes are absent.
func (r *suggestionRepository) VoteCounts(ctx context.Context, proposalID uint) (map[uint]int64, error) {
	var rows []struct {
		SuggestionID uint
		Votes        int64
	}
	err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Select("votes.suggestion_id, COUNT(*) AS votes").
		Joins("JOIN suggestions ON suggestions.id = votes.suggestion_id").
		Where("suggestions.proposal_id = ?", proposalID).
		Group("votes.suggestion_id").
		Scan(&rows).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "count votes failed")
	}
	out := make(map[uint]int64, len(rows))
	for _, row := range rows {
		out[row.SuggestionID] = row.Votes
	}
	return out, nil
}

func (r *suggestionRepository) SuggesterIDs(ctx context.Context, proposalID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Suggestion{}).
		Where("proposal_id = ?", proposalID).
		Distinct().Pluck("suggested_by", &ids).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list suggesters failed")
	}
	return ids, nil
}
