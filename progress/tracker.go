// progress/tracker.go
package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/identityops/idassign/events"
	logger "github.com/identityops/idassign/logging"
	"github.com/identityops/idassign/model"
)

const (
	// rateWindowSize bounds the rolling throughput window.
	rateWindowSize = 10
	// rateRecalcInterval is the minimum spacing between throughput samples.
	rateRecalcInterval = 1 * time.Second
	// DefaultSnapshotInterval is the persistence cadence.
	DefaultSnapshotInterval = 5 * time.Second
	// defaultRecentCap bounds the live "most recent" view.
	defaultRecentCap = 10
	// milestoneMinTotal is the smallest run for which percentage
	// milestones are meaningful.
	milestoneMinTotal = 100
)

var milestonePercents = []int{10, 25, 50, 75, 90}

// TargetOutcome is one entry of the per-target outcome map.
type TargetOutcome struct {
	Target string
	Status model.ItemStatus
	At     time.Time
}

// Milestone records when a percentage checkpoint was crossed.
type Milestone struct {
	Percent int
	Elapsed time.Duration
}

// Tracker turns a stream of per-item completions into rates, ETA,
// milestones, and a periodically persisted resumable snapshot. Restoring a
// snapshot resumes displayed counters only; it never re-drives remote
// operations attempted by a prior process.
type Tracker struct {
	mu sync.Mutex

	operationID   string
	operationType string
	total         int

	processed int
	success   int
	failure   int
	skip      int

	currentItem string
	startTime   time.Time

	rateSamples   []float64
	currentRate   float64
	lastRateCalc  time.Time
	lastRateCount int

	outcomes     map[string]model.ItemStatus
	outcomeOrder []string
	recent       []TargetOutcome
	recentCap    int

	milestones map[int]time.Duration

	store            *FileStore
	snapshotInterval time.Duration
	lastPersist      time.Time
	restored         bool
}

// NewTracker starts tracking an operation. If the store already holds a
// snapshot for the same operation id, displayed counters and rate are
// restored from it before any new item completes. store may be nil to
// disable persistence.
func NewTracker(operationID, operationType string, total int, store *FileStore, snapshotInterval time.Duration) *Tracker {
	if snapshotInterval <= 0 {
		snapshotInterval = DefaultSnapshotInterval
	}
	t := &Tracker{
		operationID:      operationID,
		operationType:    operationType,
		total:            total,
		startTime:        time.Now(),
		outcomes:         make(map[string]model.ItemStatus),
		recentCap:        defaultRecentCap,
		milestones:       make(map[int]time.Duration),
		store:            store,
		snapshotInterval: snapshotInterval,
	}

	if store != nil {
		if snapshot, ok, err := store.Load(operationID); err != nil {
			logger.Warn("Failed to restore progress snapshot", zap.Error(err), zap.String("operationID", operationID))
		} else if ok {
			t.processed = snapshot.ProcessedItems
			t.success = snapshot.SuccessCount
			t.failure = snapshot.FailureCount
			t.skip = snapshot.SkipCount
			t.currentRate = snapshot.ItemsPerSecond
			t.lastRateCount = snapshot.ProcessedItems
			if snapshot.TotalItems > t.total {
				t.total = snapshot.TotalItems
			}
			t.restored = true
			logger.Info("Restored progress snapshot",
				zap.String("operationID", operationID),
				zap.Int("processed", snapshot.ProcessedItems),
				zap.Int("total", t.total))
		}
	}

	return t
}

// Restored reports whether displayed state was resumed from a prior
// snapshot.
func (t *Tracker) Restored() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.restored
}

// ItemCompleted records one terminal item outcome.
func (t *Tracker) ItemCompleted(target string, status model.ItemStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.processed++
	switch status {
	case model.ItemStatusSuccess:
		t.success++
	case model.ItemStatusSkipped:
		t.skip++
	default:
		t.failure++
	}
	t.currentItem = target

	if _, seen := t.outcomes[target]; !seen {
		t.outcomeOrder = append(t.outcomeOrder, target)
	}
	t.outcomes[target] = status

	t.recent = append(t.recent, TargetOutcome{Target: target, Status: status, At: time.Now()})
	if len(t.recent) > t.recentCap {
		t.recent = t.recent[len(t.recent)-t.recentCap:]
	}

	t.recalcRate()
	t.recordMilestones()
	t.maybePersist()
}

// Attach subscribes the tracker to executor events so completions flow in
// without explicit plumbing at the call site.
func (t *Tracker) Attach(bus *events.EventBus) {
	bus.Subscribe(events.TypeItemCompleted, func(ctx context.Context, event events.Event) error {
		if item, ok := event.Payload.(model.ItemResult); ok {
			target := fmt.Sprintf("%s:%s -> %s @ %s", item.PrincipalType, item.PrincipalName, item.PermissionSetName, item.AccountName)
			t.ItemCompleted(target, item.Status)
		}
		return nil
	})
	bus.Subscribe(events.TypeRunCompleted, func(ctx context.Context, event events.Event) error {
		t.Complete()
		return nil
	})
}

// recalcRate recomputes the rolling-window throughput, at most once per
// rateRecalcInterval. Callers hold the lock.
func (t *Tracker) recalcRate() {
	now := time.Now()
	if t.lastRateCalc.IsZero() {
		t.lastRateCalc = now
		t.lastRateCount = t.processed
		return
	}

	elapsed := now.Sub(t.lastRateCalc)
	if elapsed < rateRecalcInterval {
		return
	}

	sample := float64(t.processed-t.lastRateCount) / elapsed.Seconds()
	t.rateSamples = append(t.rateSamples, sample)
	if len(t.rateSamples) > rateWindowSize {
		t.rateSamples = t.rateSamples[len(t.rateSamples)-rateWindowSize:]
	}

	var sum float64
	for _, s := range t.rateSamples {
		sum += s
	}
	t.currentRate = sum / float64(len(t.rateSamples))
	t.lastRateCalc = now
	t.lastRateCount = t.processed
}

// recordMilestones records each 10/25/50/75/90% checkpoint exactly once,
// with its wall-clock elapsed time. Only meaningful for larger runs.
// Callers hold the lock.
func (t *Tracker) recordMilestones() {
	if t.total < milestoneMinTotal {
		return
	}
	pctDone := t.processed * 100 / t.total
	for _, pct := range milestonePercents {
		if pctDone >= pct {
			if _, recorded := t.milestones[pct]; !recorded {
				elapsed := time.Since(t.startTime)
				t.milestones[pct] = elapsed
				logger.Info("Milestone reached",
					zap.String("operationID", t.operationID),
					zap.Int("percent", pct),
					zap.Duration("elapsed", elapsed))
			}
		}
	}
}

// maybePersist writes a snapshot if the persistence interval has elapsed.
// Best-effort: failures are logged and swallowed. Callers hold the lock.
func (t *Tracker) maybePersist() {
	if t.store == nil {
		return
	}
	now := time.Now()
	if !t.lastPersist.IsZero() && now.Sub(t.lastPersist) < t.snapshotInterval {
		return
	}
	if err := t.store.Save(t.snapshotLocked()); err != nil {
		logger.Warn("Failed to persist progress snapshot", zap.Error(err), zap.String("operationID", t.operationID))
		return
	}
	t.lastPersist = now
}

// Rate is the rolling-window throughput in items per second, distinct from
// the lifetime average.
func (t *Tracker) Rate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentRate
}

// LifetimeRate is the average throughput since the tracker started.
func (t *Tracker) LifetimeRate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	elapsed := time.Since(t.startTime).Seconds()
	if elapsed <= 0 {
		return 0
	}
	return float64(t.processed) / elapsed
}

// ETA renders the estimated time to completion. "calculating..." until at
// least one item completed and a rate is known; "complete" once nothing
// remains.
func (t *Tracker) ETA() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	remaining := t.total - t.processed
	if remaining <= 0 {
		return "complete"
	}
	if t.processed == 0 || t.currentRate <= 0 {
		return "calculating..."
	}

	eta := time.Duration(float64(remaining)/t.currentRate) * time.Second
	return eta.Round(time.Second).String()
}

// Recent returns the capped most-recent view for live rendering.
func (t *Tracker) Recent() []TargetOutcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TargetOutcome, len(t.recent))
	copy(out, t.recent)
	return out
}

// Outcomes returns the latest status of every target in first-seen order,
// covering the whole run rather than the capped recent view.
func (t *Tracker) Outcomes() []TargetOutcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TargetOutcome, 0, len(t.outcomeOrder))
	for _, target := range t.outcomeOrder {
		out = append(out, TargetOutcome{Target: target, Status: t.outcomes[target]})
	}
	return out
}

// Milestones returns the recorded checkpoints in ascending percent order.
func (t *Tracker) Milestones() []Milestone {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Milestone
	for _, pct := range milestonePercents {
		if elapsed, ok := t.milestones[pct]; ok {
			out = append(out, Milestone{Percent: pct, Elapsed: elapsed})
		}
	}
	return out
}

// Snapshot builds the current persisted view.
func (t *Tracker) Snapshot() model.ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) snapshotLocked() model.ProgressSnapshot {
	snapshot := model.ProgressSnapshot{
		OperationID:    t.operationID,
		OperationType:  t.operationType,
		TotalItems:     t.total,
		ProcessedItems: t.processed,
		SuccessCount:   t.success,
		FailureCount:   t.failure,
		SkipCount:      t.skip,
		CurrentItem:    t.currentItem,
		ItemsPerSecond: t.currentRate,
		LastUpdate:     time.Now(),
	}
	remaining := t.total - t.processed
	if remaining > 0 && t.currentRate > 0 {
		snapshot.EstimatedCompletion = time.Now().Add(time.Duration(float64(remaining)/t.currentRate) * time.Second)
	}
	return snapshot
}

// Complete deletes the persisted snapshot on clean completion. Abnormal
// termination leaves it in place for the status command to find.
func (t *Tracker) Complete() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.store == nil {
		return
	}
	if err := t.store.Delete(t.operationID); err != nil {
		logger.Warn("Failed to delete progress snapshot", zap.Error(err), zap.String("operationID", t.operationID))
	}
}

// Counts reports the processed/success/failure/skip counters.
func (t *Tracker) Counts() (processed, success, failure, skip int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.processed, t.success, t.failure, t.skip
}
