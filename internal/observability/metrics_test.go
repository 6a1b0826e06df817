package observability

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDomainCounters_Registered(t *testing.T) {
	// Touch one series per vec so the family is exported.
	DialogTurns.WithLabelValues("fulfilled")
	QueueMessages.WithLabelValues("empty")
	IngestedRecords.WithLabelValues("indexed")
	Notifications.WithLabelValues("sent")

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	seen := map[string]bool{}
	for _, mf := range mfs {
		if strings.HasPrefix(mf.GetName(), "concierge_") {
			seen[mf.GetName()] = true
		}
	}
	for _, name := range []string{
		"concierge_dialog_turns_total",
		"concierge_queue_messages_total",
		"concierge_ingested_records_total",
		"concierge_notifications_total",
	} {
		if !seen[name] {
			t.Fatalf("metric %s not registered", name)
		}
	}
}

func TestDomainCounters_Increment(t *testing.T) {
	before := testutil.ToFloat64(QueueMessages.WithLabelValues("notified"))
	QueueMessages.WithLabelValues("notified").Inc()
	if got := testutil.ToFloat64(QueueMessages.WithLabelValues("notified")); got != before+1 {
		t.Fatalf("notified counter = %v; want %v", got, before+1)
	}
}
