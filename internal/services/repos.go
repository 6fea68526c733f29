package services

import (
	"github.com/meetup-planner/app/internal/repository"
	appErr "github.com/meetup-planner/app/pkg/errors"
	"github.com/meetup-planner/app/pkg/metrics"
	"gorm.io/gorm"
)

// repos bundles the repositories bound to one connection or transaction.
type repos struct {
	users         repository.UserRepository
	proposals     repository.ProposalRepository
	suggestions   repository.SuggestionRepository
	votes         repository.VoteRepository
	meetups       repository.MeetupRepository
	rsvps         repository.RSVPRepository
	notifications repository.NotificationRepository
}

func newRepos(db *gorm.DB) repos {
	return repos{
		users:         repository.NewUserRepository(db),
		proposals:     repository.NewProposalRepository(db),
		suggestions:   repository.NewSuggestionRepository(db),
		votes:         repository.NewVoteRepository(db),
		meetups:       repository.NewMeetupRepository(db),
		rsvps:         repository.NewRSVPRepository(db),
		notifications: repository.NewNotificationRepository(db),
	}
}

// rejected counts caller-facing failures of op and passes err through.
func rejected(m *metrics.Metrics, op string, err error) error {
	switch code := appErr.CodeOf(err); code {
	case appErr.CodeInvalid, appErr.CodeInvalidState, appErr.CodeNotFound, appErr.CodeForbidden:
		m.Rejected(op, string(code))
	}
	return err
}
