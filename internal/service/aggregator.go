package service

import (
	"github.com/sirupsen/logrus"

	"brandvoice/internal/core/domain"
)

// WorkPlan partitions an input batch against the persisted ledger:
// ToProcess has never been attempted, AlreadyDone has a persisted outcome
// from a prior run (successful or not) and is never resubmitted.
type WorkPlan struct {
	ToProcess   []domain.VideoRecord
	AlreadyDone []domain.VideoRecord
}

// NothingToDo reports whether every input already has an outcome.
func (p WorkPlan) NothingToDo() bool {
	return len(p.ToProcess) == 0
}

// Aggregator deduplicates input batches against prior runs and merges new
// results back. Its ledger is built fresh per run from persisted output,
// never retained as process state.
type Aggregator struct {
	log *logrus.Logger
}

// NewAggregator creates an aggregator.
func NewAggregator(log *logrus.Logger) *Aggregator {
	return &Aggregator{log: log}
}

// PlanWork routes each raw input record either to AlreadyDone (its id is
// in the ledger, meaning it was attempted before regardless of whether a
// transcript was obtained) or to ToProcess. Input order is preserved
// within each bucket.
func (a *Aggregator) PlanWork(raw, prior []domain.VideoRecord) WorkPlan {
	ledger := make(map[string]bool, len(prior))
	for _, r := range prior {
		ledger[r.ID] = true
	}

	var plan WorkPlan
	for _, r := range raw {
		if ledger[r.ID] {
			plan.AlreadyDone = append(plan.AlreadyDone, r)
		} else {
			plan.ToProcess = append(plan.ToProcess, r)
		}
	}

	a.log.WithFields(logrus.Fields{
		"input":        len(raw),
		"to_process":   len(plan.ToProcess),
		"already_done": len(plan.AlreadyDone),
	}).Info("work planned against output ledger")
	return plan
}

// ApplyOutcomes turns the processed batch plus its acquisition outcomes
// into finished records, ordered by acquisition completion. Every outcome
// yields a record: failed and timed-out videos persist with SourceNone so
// they are never reattempted.
func (a *Aggregator) ApplyOutcomes(toProcess []domain.VideoRecord, outcomes []domain.VideoOutcome) []domain.VideoRecord {
	byID := make(map[string]domain.VideoRecord, len(toProcess))
	for _, r := range toProcess {
		byID[r.ID] = r
	}

	records := make([]domain.VideoRecord, 0, len(outcomes))
	for _, outcome := range outcomes {
		record, ok := byID[outcome.VideoID]
		if !ok {
			continue
		}
		record.SetTranscript(outcome.Transcript, outcome.Source)
		records = append(records, record)
	}
	return records
}

// Merge appends newly acquired records to the prior store content. Prior
// rows keep their positions; new rows follow in completion order; records
// whose id already exists are dropped rather than duplicated.
func (a *Aggregator) Merge(prior, acquired []domain.VideoRecord) []domain.VideoRecord {
	merged := make([]domain.VideoRecord, 0, len(prior)+len(acquired))
	seen := make(map[string]bool, len(prior))
	for _, r := range prior {
		merged = append(merged, r)
		seen[r.ID] = true
	}
	for _, r := range acquired {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		merged = append(merged, r)
	}
	return merged
}
