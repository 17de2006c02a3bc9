package dispatcher

import "github.com/relaymesh/go-relaymesh/metrics"

const subsystem = "dispatcher"

var (
	payloadsEnqueued = metrics.NewCounter(
		"payloads_enqueued_total",
		subsystem,
		"Number of payloads accepted for delivery",
		[]string{"destination"},
	)
	payloadsFinished = metrics.NewCounter(
		"payloads_finished_total",
		subsystem,
		"Number of payloads reaching a terminal state",
		[]string{"destination", "status", "reason"},
	)
	transactionsSubmitted = metrics.NewCounter(
		"transactions_submitted_total",
		subsystem,
		"Number of transaction submissions, including resubmissions",
		[]string{"destination"},
	)
	feeEscalations = metrics.NewCounter(
		"fee_escalations_total",
		subsystem,
		"Number of stuck transactions rebuilt with a higher fee",
		[]string{"destination"},
	)
)
