package tracker

import "github.com/relaymesh/go-relaymesh/metrics"

const subsystem = "tracker"

var (
	leavesIngested = metrics.NewCounter(
		"leaves_ingested_total",
		subsystem,
		"Number of message commitments ingested into the tree",
		[]string{"domain"},
	)
	rootMismatches = metrics.NewCounter(
		"root_mismatches_total",
		subsystem,
		"Number of accumulator/prover root divergences detected",
		[]string{"domain"},
	)
	lastIndexedBlock = metrics.NewGauge(
		"last_indexed_block",
		subsystem,
		"Highest origin block whose dispatches were ingested",
		[]string{"domain"},
	)
)
