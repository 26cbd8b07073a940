package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tgasana"

// Metrics holds the bridge counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	updates            *prometheus.CounterVec
	tasksCreated       prometheus.Counter
	taskFailures       prometheus.Counter
	attachmentFailures prometheus.Counter
	replyFailures      prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		updates: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_total",
			Help:      "Telegram updates received, by outcome.",
		}, []string{"outcome"}),
		tasksCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_created_total",
			Help:      "Asana tasks created.",
		}),
		taskFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_failures_total",
			Help:      "Asana task creation failures.",
		}),
		attachmentFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachment_failures_total",
			Help:      "Images that could not be attached to a created task.",
		}),
		replyFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reply_failures_total",
			Help:      "Telegram replies that could not be sent.",
		}),
	}
}

func (m *Metrics) RecordUpdate(outcome string) {
	if m == nil {
		return
	}
	m.updates.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordTaskCreated() {
	if m == nil {
		return
	}
	m.tasksCreated.Inc()
}

func (m *Metrics) RecordTaskFailure() {
	if m == nil {
		return
	}
	m.taskFailures.Inc()
}

func (m *Metrics) RecordAttachmentFailure() {
	if m == nil {
		return
	}
	m.attachmentFailures.Inc()
}

func (m *Metrics) RecordReplyFailure() {
	if m == nil {
		return
	}
	m.replyFailures.Inc()
}
