// Package metrics holds the Prometheus collectors for the planner. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "meetup_planner"

type Metrics struct {
	ProposalsCreated   prometheus.Counter
	SuggestionsAdded   prometheus.Counter
	VotesToggled       *prometheus.CounterVec
	ProposalsFinalized prometheus.Counter
	RSVPs              *prometheus.CounterVec
	Rejections         *prometheus.CounterVec
	NotificationsSent  prometheus.Counter
	HTTPRequests       *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ProposalsCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "proposals_created_total",
			Help: "Proposals created.",
		}),
		SuggestionsAdded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "suggestions_added_total",
			Help: "Suggestions added to proposals.",
		}),
		VotesToggled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "votes_toggled_total",
			Help: "Vote toggles by resulting direction.",
		}, []string{"direction"}),
		ProposalsFinalized: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "proposals_finalized_total",
			Help: "Proposals finalized into meetups.",
		}),
		RSVPs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "rsvps_total",
			Help: "RSVP writes by status.",
		}, []string{"status"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "lifecycle_rejections_total",
			Help: "Lifecycle operations rejected, by operation and error code.",
		}, []string{"operation", "code"}),
		NotificationsSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "notifications_recorded_total",
			Help: "Participant notifications recorded.",
		}),
		HTTPRequests: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ProposalCreated() {
	if m != nil {
		m.ProposalsCreated.Inc()
	}
}

func (m *Metrics) SuggestionAdded() {
	if m != nil {
		m.SuggestionsAdded.Inc()
	}
}

func (m *Metrics) VoteToggled(on bool) {
	if m == nil {
		return
	}
	direction := "removed"
	if on {
		direction = "added"
	}
	m.VotesToggled.WithLabelValues(direction).Inc()
}

func (m *Metrics) ProposalFinalized() {
	if m != nil {
		m.ProposalsFinalized.Inc()
	}
}

func (m *Metrics) RSVPRecorded(status string) {
	if m != nil {
		m.RSVPs.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) Rejected(operation, code string) {
	if m != nil {
		m.Rejections.WithLabelValues(operation, code).Inc()
	}
}

func (m *Metrics) NotificationsRecorded(n int64) {
	if m != nil && n > 0 {
		m.NotificationsSent.Add(float64(n))
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m != nil {
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
	}
}
