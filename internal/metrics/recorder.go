// Package metrics exposes interview lifecycle counters to Prometheus.
package metrics

import (
	"onboarding_bot/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements core.Observer and counts inbound events
type Recorder struct {
	interviewsStarted   prometheus.Counter
	answersRecorded     prometheus.Counter
	interviewsCompleted prometheus.Counter
	handoffsTotal       *prometheus.CounterVec
	joinsTotal          *prometheus.CounterVec
	commandsTotal       *prometheus.CounterVec
	eventErrorsTotal    *prometheus.CounterVec

	factory promauto.Factory
}

var _ core.Observer = (*Recorder)(nil)

// NewRecorder registers every collector with reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		factory: factory,
		interviewsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_interviews_started_total",
			Help: "Total number of questionnaires started",
		}),
		answersRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_answers_recorded_total",
			Help: "Total number of answers accepted",
		}),
		interviewsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_interviews_completed_total",
			Help: "Total number of questionnaires answered to the end",
		}),
		handoffsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboarding_handoffs_total",
				Help: "Total number of hand-off attempts by result",
			},
			[]string{"result"},
		),
		joinsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboarding_joins_total",
				Help: "Total number of join events by outcome",
			},
			[]string{"outcome"},
		),
		commandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboarding_commands_total",
				Help: "Total number of slash commands by command and result",
			},
			[]string{"command", "result"},
		),
		eventErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboarding_event_errors_total",
				Help: "Total number of inbound events that ended in an error, by event kind",
			},
			[]string{"kind"},
		),
	}
}

// TrackGauges exports the current number of open sessions and pending triggers
func (r *Recorder) TrackGauges(activeSessions, pendingTriggers func() int) {
	r.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "onboarding_active_sessions",
		Help: "Interviews currently in progress",
	}, func() float64 { return float64(activeSessions()) })
	r.factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "onboarding_pending_triggers",
		Help: "Scheduled interview starts that have not fired",
	}, func() float64 { return float64(pendingTriggers()) })
}

func (r *Recorder) InterviewStarted()   { r.interviewsStarted.Inc() }
func (r *Recorder) AnswerRecorded()     { r.answersRecorded.Inc() }
func (r *Recorder) InterviewCompleted() { r.interviewsCompleted.Inc() }
func (r *Recorder) HandoffSucceeded()   { r.handoffsTotal.WithLabelValues("success").Inc() }
func (r *Recorder) HandoffFailed()      { r.handoffsTotal.WithLabelValues("error").Inc() }

// JoinHandled counts a join event; outcome is scheduled, duplicate or error
func (r *Recorder) JoinHandled(outcome string) {
	r.joinsTotal.WithLabelValues(outcome).Inc()
}

// CommandHandled counts a slash command
func (r *Recorder) CommandHandled(command string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	r.commandsTotal.WithLabelValues(command, result).Inc()
}

// EventFailed counts an event whose handler returned an error or panicked
func (r *Recorder) EventFailed(kind string) {
	r.eventErrorsTotal.WithLabelValues(kind).Inc()
}
