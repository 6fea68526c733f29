package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/meetup-planner/app/internal/models"
	"github.com/meetup-planner/app/internal/repository"
	"github.com/meetup-planner/app/internal/testutil"
	appErr "github.com/meetup-planner/app/pkg/errors"
	"github.com/meetup-planner/app/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	prom "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	mu  sync.Mutex
	ids []uint
}

func (n *recordingNotifier) MeetupFinalized(_ context.Context, id uint) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, id)
	return nil
}

type fixture struct {
	db        *gorm.DB
	auth      AuthService
	proposals ProposalService
	meetups   MeetupService
	notify    NotificationService
	notifier  *recordingNotifier
	metrics   *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	m := metrics.New(prometheus.NewRegistry())
	n := &recordingNotifier{}
	return &fixture{
		db:        db,
		auth:      NewAuthService(repository.NewUserRepository(db), bcrypt.MinCost),
		proposals: NewProposalService(db, n, m),
		meetups:   NewMeetupService(db, m),
		notify:    NewNotificationService(db, m),
		notifier:  n,
		metrics:   m,
	}
}

func (f *fixture) register(t *testing.T, email, name string) Principal {
	t.Helper()
	u, err := f.auth.Register(context.Background(), email, "secret-password", name)
	require.NoError(t, err)
	return PrincipalFor(u)
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func localTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.ParseInLocation(DateTimeLayout, s, time.Local)
	require.NoError(t, err)
	return v
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.register(t, "a@example.com", "A")
	b := f.register(t, "b@example.com", "B")

	p1, err := f.proposals.CreateProposal(ctx, a, CreateProposalInput{})
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusVoting, p1.Status)

	detail, err := f.proposals.GetProposal(ctx, p1.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "A's Proposal #1", detail.Title)
	assert.Empty(t, detail.Suggestions)

	s1, err := f.proposals.AddSuggestion(ctx, b, p1.ID, SuggestionInput{Date: "2025-06-01T18:00", Location: "Park"})
	require.NoError(t, err)

	res, err := f.proposals.ToggleVote(ctx, a, s1.ID)
	require.NoError(t, err)
	assert.True(t, res.Voted)
	detail, err = f.proposals.GetProposal(ctx, p1.ID, &a)
	require.NoError(t, err)
	require.Len(t, detail.Suggestions, 1)
	assert.EqualValues(t, 1, detail.Suggestions[0].Votes)
	assert.True(t, detail.Suggestions[0].Voted)

	res, err = f.proposals.ToggleVote(ctx, a, s1.ID)
	require.NoError(t, err)
	assert.False(t, res.Voted)
	detail, err = f.proposals.GetProposal(ctx, p1.ID, &a)
	require.NoError(t, err)
	assert.Zero(t, detail.Suggestions[0].Votes)

	m1, err := f.proposals.Finalize(ctx, a, p1.ID, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, "A's Proposal #1", m1.Title)
	assert.True(t, m1.Date.Equal(localTime(t, "2025-06-01T18:00")))
	assert.Equal(t, "Park", m1.Location)
	assert.Equal(t, a.UserID, m1.CreatedBy)
	assert.Equal(t, []uint{m1.ID}, f.notifier.ids)

	detail, err = f.proposals.GetProposal(ctx, p1.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.ProposalStatusFinalized, detail.Proposal.Status)
	require.NotNil(t, detail.Meetup)
	assert.Equal(t, m1.ID, detail.Meetup.ID)

	_, err = f.meetups.RSVP(ctx, b, m1.ID, "yes")
	require.NoError(t, err)
	r, err := f.meetups.RSVP(ctx, b, m1.ID, "maybe")
	require.NoError(t, err)
	assert.Equal(t, models.RSVPStatusMaybe, r.Status)
	assert.EqualValues(t, 1, f.count(t, &models.RSVP{}))

	md, err := f.meetups.GetMeetup(ctx, m1.ID, &b)
	require.NoError(t, err)
	assert.Equal(t, models.RSVPStatusMaybe, md.ViewerStatus)
	assert.EqualValues(t, 1, md.Tally[models.RSVPStatusMaybe])

	assert.Equal(t, 1.0, prom.ToFloat64(f.metrics.ProposalsFinalized))
}

func TestCreateProposalWithInitialSuggestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@example.com", "A")

	p, err := f.proposals.CreateProposal(ctx, a, CreateProposalInput{Description: " board games ", Date: "2025-07-04T12:30", Location: "Cafe"})
	require.NoError(t, err)
	assert.Equal(t, "board games", p.Description)

	detail, err := f.proposals.GetProposal(ctx, p.ID, nil)
	require.NoError(t, err)
	require.Len(t, detail.Suggestions, 1)
	assert.Equal(t, a.UserID, detail.Suggestions[0].Suggestion.SuggestedBy)
	assert.True(t, detail.Suggestions[0].Suggestion.Date.Equal(localTime(t, "2025-07-04T12:30")))
}

func TestCreateProposalRejectsPartialOrMalformedInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@example.com", "A")

	for _, in := range []CreateProposalInput{
		{Date: "2025-06-01T18:00"},
		{Location: "Park"},
		{Date: "June first", Location: "Park"},
	} {
		_, err := f.proposals.CreateProposal(ctx, a, in)
		assert.True(t, appErr.IsCode(err, appErr.CodeInvalid), "%+v: %v", in, err)
	}
	assert.Zero(t, f.count(t, &models.Proposal{}))
	assert.Zero(t, f.count(t, &models.Suggestion{}))
	assert.Equal(t, 3.0, prom.ToFloat64(f.metrics.Rejections.WithLabelValues("create_proposal", "invalid")))
}

func TestTitlesCountPerCreatorAndSurviveFinalize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@example.com", "A")
	b := f.register(t, "b@example.com", "B")

	_, err := f.proposals.CreateProposal(ctx, a, CreateProposalInput{})
	require.NoError(t, err)
	_, err = f.proposals.CreateProposal(ctx, b, CreateProposalInput{})
	require.NoError(t, err)
	a2, err := f.proposals.CreateProposal(ctx, a, CreateProposalInput{Date: "2025-06-01T18:00", Location: "Park"})
	require.NoError(t, err)

	open, err := f.proposals.ListOpenProposals(ctx)
	require.NoError(t, err)
	titles := make([]string, 0, len(open))
	for _, p := range open {
		titles = append(titles, p.Title)
	}
	assert.ElementsMatch(t, []string{"A's Proposal #1", "B's Proposal #1", "A's Proposal #2"}, titles)

	detail, err := f.proposals.GetProposal(ctx, a2.ID, &a)
	require.NoError(t, err)
	assert.True(t, detail.CanFinalize)
	_, err = f.proposals.Finalize(ctx, a, a2.ID, detail.Suggestions[0].Suggestion.ID)
	require.NoError(t, err)

	detail, err = f.proposals.GetProposal(ctx, a2.ID, &a)
	require.NoError(t, err)
	assert.Equal(t, "A's Proposal #2", detail.Title)
	assert.False(t, detail.CanFinalize)

	open, err = f.proposals.ListOpenProposals(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestAddSuggestionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@example.com", "A")
	p, err := f.proposals.CreateProposal(ctx, a, CreateProposalInput{})
	require.NoError(t, err)

	_, err = f.proposals.AddSuggestion(ctx, a, 9999, SuggestionInput{Date: "2025-06-01T18:00", Location: "Park"})
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	_, err = f.proposals.AddSuggestion(ctx, a, p.ID, SuggestionInput{Date: "2025-06-01T18:00", Location: "  "})
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	_, err = f.proposals.AddSuggestion(ctx, a, p.ID, SuggestionInput{Date: "2025-13-40T99:00", Location: "Park"})
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	assert.Zero(t, f.count(t, &models.Suggestion{}))
}

func TestFinalizeChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@example.com", "A")
	b := f.register(t, "b@example.com", "B")

	p1, err := f.proposals.CreateProposal(ctx, a, CreateProposalInput{Date: "2025-06-01T18:00", Location: "Park"})
	require.NoError(t, err)
	p2, err := f.proposals.CreateProposal(ctx, b, CreateProposalInput{Date: "2025-06-02T18:00", Location: "Beach"})
	require.NoError(t, err)
	d1, err := f.proposals.GetProposal(ctx, p1.ID, nil)
	require.NoError(t, err)
	d2, err := f.proposals.GetProposal(ctx, p2.ID, nil)
	require.NoError(t, err)
	s1 := d1.Suggestions[0].Suggestion.ID
	s2 := d2.Suggestions[0].Suggestion.ID

	_, err = f.proposals.Finalize(ctx, a, 9999, s1)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	_, err = f.proposals.Finalize(ctx, b, p1.ID, s1)
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))
	assert.Equal(t, "Only the proposal creator can finalize the meetup.", appErr.MessageOf(err))

	_, err = f.proposals.Finalize(ctx, a, p1.ID, s2)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	_, err = f.proposals.Finalize(ctx, a, p1.ID, 9999)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))

	assert.Zero(t, f.count(t, &models.Meetup{}))

	_, err = f.proposals.Finalize(ctx, a, p1.ID, s1)
	require.NoError(t, err)

	_, err = f.proposals.Finalize(ctx, a, p1.ID, s1)
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalidState))
	assert.EqualValues(t, 1, f.count(t, &models.Meetup{}))
	assert.Len(t, f.notifier.ids, 1)
}

func TestFinalizedProposalRejectsSuggestionsAndVotes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@example.com", "A")
	b := f.register(t, "b@example.com", "B")

	p, err := f.proposals.CreateProposal(ctx, a, CreateProposalInput{Date: "2025-06-01T18:00", Location: "Park"})
	require.NoError(t, err)
	d, err := f.proposals.GetProposal(ctx, p.ID, nil)
	require.NoError(t, err)
	sid := d.Suggestions[0].Suggestion.ID
	_, err = f.proposals.ToggleVote(ctx, b, sid)
	require.NoError(t, err)
	_, err = f.proposals.Finalize(ctx, a, p.ID, sid)
	require.NoError(t, err)

	suggestions, votes := f.count(t, &models.Suggestion{}), f.count(t, &models.Vote{})

	_, err = f.proposals.AddSuggestion(ctx, b, p.ID, SuggestionInput{Date: "2025-06-03T18:00", Location: "Pier"})
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalidState))

	res, err := f.proposals.ToggleVote(ctx, b, sid)
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalidState))
	require.NotNil(t, res)
	assert.Equal(t, p.ID, res.ProposalID)

	assert.Equal(t, suggestions, f.count(t, &models.Suggestion{}))
	assert.Equal(t, votes, f.count(t, &models.Vote{}))

	_, err = f.proposals.ToggleVote(ctx, b, 9999)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestRSVPValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@example.com", "A")

	_, err := f.meetups.RSVP(ctx, a, 9999, "perhaps")
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	_, err = f.meetups.RSVP(ctx, a, 9999, "yes")
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestListUpcomingIncludesTallies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@example.com", "A")
	b := f.register(t, "b@example.com", "B")

	future := time.Now().Add(72 * time.Hour).Format(DateTimeLayout)
	p, err := f.proposals.CreateProposal(ctx, a, CreateProposalInput{Date: future, Location: "Park"})
	require.NoError(t, err)
	d, err := f.proposals.GetProposal(ctx, p.ID, nil)
	require.NoError(t, err)
	m, err := f.proposals.Finalize(ctx, a, p.ID, d.Suggestions[0].Suggestion.ID)
	require.NoError(t, err)

	_, err = f.meetups.RSVP(ctx, a, m.ID, "yes")
	require.NoError(t, err)
	_, err = f.meetups.RSVP(ctx, b, m.ID, "no")
	require.NoError(t, err)

	upcoming, err := f.meetups.ListUpcoming(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.EqualValues(t, 1, upcoming[0].Tally[models.RSVPStatusYes])
	assert.EqualValues(t, 1, upcoming[0].Tally[models.RSVPStatusNo])

	upcoming, err = f.meetups.ListUpcoming(ctx, time.Now().Add(96*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, upcoming)
}

func TestNotifyMeetupFinalizedReachesParticipantsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.register(t, "a@example.com", "A")
	b := f.register(t, "b@example.com", "B")
	c := f.register(t, "c@example.com", "C")
	outsider := f.register(t, "d@example.com", "D")

	inline := NewProposalService(f.db, InlineNotifier(f.notify), f.metrics)

	p, err := inline.CreateProposal(ctx, a, CreateProposalInput{})
	require.NoError(t, err)
	s, err := inline.AddSuggestion(ctx, b, p.ID, SuggestionInput{Date: "2025-06-01T18:00", Location: "Park"})
	require.NoError(t, err)
	_, err = inline.ToggleVote(ctx, c, s.ID)
	require.NoError(t, err)
	_, err = inline.ToggleVote(ctx, a, s.ID)
	require.NoError(t, err)

	m, err := inline.Finalize(ctx, a, p.ID, s.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, f.count(t, &models.Notification{}))

	n, err := f.notify.NotifyMeetupFinalized(ctx, m.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	list, err := f.notify.ListForUser(ctx, c.UserID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "A's Proposal #1", list[0].Meetup.Title)
	assert.Equal(t, "Park", list[0].Meetup.Location)

	list, err = f.notify.ListForUser(ctx, outsider.UserID, 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.notify.NotifyMeetupFinalized(ctx, 9999)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestAuthService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.auth.Register(ctx, " Alice@Example.com ", "pw-123456", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "pw-123456", u.PasswordHash)

	_, err = f.auth.Register(ctx, "alice@example.com", "other", "Alice 2")
	assert.True(t, appErr.IsCode(err, appErr.CodeAlreadyExists))
	assert.Equal(t, "Email already registered", appErr.MessageOf(err))

	got, err := f.auth.Authenticate(ctx, "ALICE@example.com", "pw-123456")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.auth.Authenticate(ctx, "alice@example.com", "wrong")
	assert.True(t, appErr.IsCode(err, appErr.CodeUnauthorized))
	_, err = f.auth.Authenticate(ctx, "nobody@example.com", "pw-123456")
	assert.True(t, appErr.IsCode(err, appErr.CodeUnauthorized))

	_, err = f.auth.GetUser(ctx, 9999)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestRegisterRejectsPasswordOverBcryptLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 40 runes, 80 bytes.
	_, err := f.auth.Register(ctx, "multi@example.com", strings.Repeat("é", 40), "Multi")
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	assert.Equal(t, "The password must be at most 72 bytes.", appErr.MessageOf(err))
	assert.EqualValues(t, 0, f.count(t, &models.User{}))

	_, err = f.auth.Register(ctx, "multi@example.com", strings.Repeat("é", 36), "Multi")
	require.NoError(t, err)
}

func TestParseDateTime(t *testing.T) {
	got, err := ParseDateTime("2025-06-01T18:00")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(localTime(t, "2025-06-01T18:00")))

	_, err = ParseDateTime("2025-06-01 18:00")
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}
