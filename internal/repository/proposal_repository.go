package repository

import (
	"context"

	"github.com/meetup-planner/app/internal/models"
	appErr "github.com/meetup-planner/app/pkg/errors"
	"gorm.io/gorm"
)

type ProposalRepository interface {
	BaseRepository[models.Proposal]
	GetWithCreator(ctx context.Context, id uint, dest *models.Proposal) error
	ListByStatus(ctx context.Context, status models.ProposalStatus) ([]models.Proposal, error)
	Ordinal(ctx context.Context, p *models.Proposal) (int64, error)
	Ordinals(ctx context.Context, proposals []models.Proposal) (map[uint]int64, error)
	MarkFinalized(ctx context.Context, id uint) (bool, error)
}

type proposalRepository struct {
	BaseRepository[models.Proposal]
	db *gorm.DB
}

func NewProposalRepository(db *gorm.DB) ProposalRepository {
	return &proposalRepository{BaseRepository: NewBaseRepository[models.Proposal](db, "proposal"), db: db}
}

func (r *proposalRepository) GetWithCreator(ctx context.Context, id uint, dest *models.Proposal) error {
	if err := r.db.WithContext(ctx).Preload("Creator").First(dest, "id = ?", id).Error; err != nil {
		return notFoundOr(err, "proposal", "get proposal failed")
	}
	return nil
}

// ListByStatus returns proposals in status, newest first, with creators loaded.
func (r *proposalRepository) ListByStatus(ctx context.Context, status models.ProposalStatus) ([]models.Proposal, error) {
	var out []models.Proposal
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("status = ?", status).
		Order("created_at DESC").Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list proposals failed")
	}
	return out, nil
}

// Ordinal is the 1-based position of p among its creator's proposals.
func (r *proposalRepository) Ordinal(ctx context.Context, p *models.Proposal) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Proposal{}).
		Where("created_by = ? AND id <= ?", p.CreatedBy, p.ID).
		Count(&n).Error
	if err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "count proposals failed")
	}
	return n, nil
}

// Ordinals computes Ordinal for every proposal in one query per creator set.
func (r *proposalRepository) Ordinals(ctx context.Context, proposals []models.Proposal) (map[uint]int64, error) {
	out := make(map[uint]int64, len(proposals))
	if len(proposals) == 0 {
		return out, nil
	}
	creators := make([]uint, 0, len(proposals))
	seen := map[uint]bool{}
	for _, p := range proposals {
		if !seen[p.CreatedBy] {
			seen[p.CreatedBy] = true
			creators = append(creators, p.CreatedBy)
		}
	}

	var rows []struct {
		ID        uint
		CreatedBy uint
	}
	err := r.db.WithContext(ctx).Model(&models.Proposal{}).
		Select("id", "created_by").
		Where("created_by IN ?", creators).
		Order("id").
		Scan(&rows).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "rank proposals failed")
	}

	counts := map[uint]int64{}
	for _, row := range rows {
		counts[row.CreatedBy]++
		out[row.ID] = counts[row.CreatedBy]
	}
	return out, nil
}

// MarkFinalized moves a voting proposal to finalized. It reports false when
// the proposal was not in voting, leaving the row untouched.
func (r *proposalRepository) MarkFinalized(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Proposal{}).
		Where("id = ? AND status = ?", id, models.ProposalStatusVoting).
		Update("status", models.ProposalStatusFinalized)
	if res.Error != nil {
		return false, appErr.Wrap(res.Error, appErr.CodeInternal, "finalize proposal failed")
	}
	return res.RowsAffected == 1, nil
}
