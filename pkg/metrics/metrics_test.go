package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ProposalCreated()
	m.VoteToggled(true)
	m.VoteToggled(true)
	m.VoteToggled(false)
	m.RSVPRecorded("yes")
	m.Rejected("finalize", "forbidden")
	m.NotificationsRecorded(3)
	m.ObserveHTTP("GET", "/", 200, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProposalsCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.VotesToggled.WithLabelValues("added")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.VotesToggled.WithLabelValues("removed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RSVPs.WithLabelValues("yes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("finalize", "forbidden")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.NotificationsSent))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPRequests))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ProposalCreated()
		m.VoteToggled(true)
		m.Rejected("vote", "invalid_state")
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	})
}
