package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kestiv_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kestiv_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	MemberMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kestiv_member_mutations_total",
			Help: "Member state changes by ledger entry type and outcome",
		},
		[]string{"type", "outcome"},
	)

	TransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kestiv_transactions_total",
			Help: "Financial transactions recorded",
		},
		[]string{"type", "payment_method"},
	)

	TransactionAmount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kestiv_transaction_amount_total",
			Help: "Sum of recorded transaction amounts",
		},
		[]string{"type", "payment_method"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kestiv_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kestiv_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	ReminderRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kestiv_reminder_runs_total",
			Help: "Expiry reminder sweeps by outcome",
		},
		[]string{"outcome"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordMemberMutation(entryType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	MemberMutationsTotal.WithLabelValues(entryType, outcome).Inc()
}

func RecordTransaction(txType, paymentMethod string, amount float64) {
	TransactionsTotal.WithLabelValues(txType, paymentMethod).Inc()
	TransactionAmount.WithLabelValues(txType, paymentMethod).Add(amount)
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordReminderRun(outcome string) {
	ReminderRunsTotal.WithLabelValues(outcome).Inc()
}
