package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain counters. Label values are small closed sets (outcome names,
// pipeline stages) so cardinality stays bounded.
var (
	// DialogTurns counts Dialog Controller turns by resulting state
	// (eliciting-slot, fulfilled, failed, unknown-intent).
	DialogTurns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_dialog_turns_total",
			Help: "Dialog controller turns by outcome.",
		},
		[]string{"outcome"},
	)

	// QueueMessages counts consumer invocations by outcome
	// (empty, invalid, not_found, notified, duplicate, error).
	QueueMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_queue_messages_total",
			Help: "Queue consumer invocations by outcome.",
		},
		[]string{"outcome"},
	)

	// IngestedRecords counts records handled by ingestion (fetched, stored, indexed, skipped).
	IngestedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_ingested_records_total",
			Help: "Records processed by the ingestion job by stage.",
		},
		[]string{"stage"},
	)

	// Notifications counts email sends by result (sent, error).
	Notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "concierge_notifications_total",
			Help: "Recommendation emails by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(DialogTurns, QueueMessages, IngestedRecords, Notifications)
}
