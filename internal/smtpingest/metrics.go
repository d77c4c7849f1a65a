package smtpingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smtp_ingest_sessions_total",
		Help: "SMTP sessions opened",
	})
	recipientsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smtp_ingest_recipients_accepted_total",
		Help: "Recipients accepted at RCPT TO",
	})
	recipientsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smtp_ingest_recipients_rejected_total",
		Help: "Recipients rejected at RCPT TO by reason",
	}, []string{"reason"})
	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smtp_ingest_messages_total",
		Help: "DATA transfers by outcome",
	}, []string{"outcome"})
	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smtp_ingest_deliveries_total",
		Help: "Per-recipient fan-out outcomes",
	}, []string{"status"})
)
