package service

import (
	"context"
	"fmt"
	"time"

	"fleetassign/internal/model"
	"fleetassign/pkg/assign"
	"fleetassign/pkg/config"
	"fleetassign/pkg/constants"
	"fleetassign/pkg/logger"
	"fleetassign/pkg/store/mysql"

	"github.com/google/uuid"
)

// AssignmentService orchestrates auto-assignment batch runs: it drains due
// queue items, applies the scoring engine per work order, persists winning
// assignments and audit log entries, and routes failures through the
// retry/fallback path.
type AssignmentService struct {
	workOrders  WorkOrderStore
	technicians TechnicianStore
	rules       RuleStore
	queue       QueueStore
	logs        AssignmentLogStore
	dispatcher  FallbackDispatcher
	enqueuer    BatchEnqueuer

	cfg     config.AssignmentConfig
	nowFunc func() time.Time
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(
	workOrders WorkOrderStore,
	technicians TechnicianStore,
	rules RuleStore,
	queue QueueStore,
	logs AssignmentLogStore,
	dispatcher FallbackDispatcher,
	cfg config.AssignmentConfig,
) *AssignmentService {
	return &AssignmentService{
		workOrders:  workOrders,
		technicians: technicians,
		rules:       rules,
		queue:       queue,
		logs:        logs,
		dispatcher:  dispatcher,
		cfg:         cfg,
		nowFunc:     time.Now,
	}
}

// SetBatchEnqueuer wires the queue-based invocation strategy (optional;
// set after construction to avoid a circular dependency with the queue manager)
func (s *AssignmentService) SetBatchEnqueuer(enqueuer BatchEnqueuer) {
	s.enqueuer = enqueuer
}

// SetNowFunc overrides the reference clock (tests only)
func (s *AssignmentService) SetNowFunc(fn func() time.Time) {
	s.nowFunc = fn
}

// EnqueueWorkOrder creates a pending queue item for a work order. Idempotent:
// an existing pending item for the same work order is returned as-is.
func (s *AssignmentService) EnqueueWorkOrder(ctx context.Context, req *model.EnqueueRequest) (*model.EnqueueResponse, error) {
	wo, err := s.workOrders.Get(ctx, req.WorkOrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load work order: %w", err)
	}
	if wo == nil {
		return nil, fmt.Errorf("work order not found: %s", req.WorkOrderID)
	}
	if wo.AssignedTechnicianID != nil {
		return nil, fmt.Errorf("work order already assigned: %s", req.WorkOrderID)
	}

	pending, err := s.queue.HasPendingForWorkOrder(ctx, req.WorkOrderID)
	if err != nil {
		return nil, err
	}
	if pending {
		return &model.EnqueueResponse{
			WorkOrderID: req.WorkOrderID,
			Status:      constants.QueueStatusPending.String(),
		}, nil
	}

	priority := req.Priority
	if priority == 0 {
		priority = wo.Priority
	}
	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = s.cfg.MaxRetries
	}

	now := s.nowFunc()
	item := &mysql.AssignmentQueueItem{
		QueueItemID: uuid.New().String(),
		WorkOrderID: req.WorkOrderID,
		Priority:    priority,
		Status:      constants.QueueStatusPending.String(),
		MaxRetries:  maxRetries,
		NextRetryAt: now,
		EnqueuedAt:  now,
		UpdatedAt:   now,
	}
	if err := s.queue.Enqueue(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to enqueue work order: %w", err)
	}

	// Queue-based strategy: nudge a batch run so the item doesn't wait for
	// the next scheduled pass. Best effort.
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueRun(ctx); err != nil {
			logger.WarnCtx(ctx, "failed to enqueue assignment run: %v", err)
		}
	}

	logger.InfoCtx(ctx, "work order %s enqueued for auto-assignment, queue_item_id: %s", req.WorkOrderID, item.QueueItemID)

	return &model.EnqueueResponse{
		QueueItemID: item.QueueItemID,
		WorkOrderID: req.WorkOrderID,
		Status:      item.Status,
	}, nil
}

// RunBatch processes up to maxItems due queue entries sequentially and
// returns the per-item outcomes. Items are processed in order (priority
// descending, enqueue time ascending) so that workload counts updated by an
// assignment made earlier in the batch are visible to later items.
//
// A missing rule set or an unloadable queue is fatal for the whole batch;
// any error on a single item is contained to that item.
func (s *AssignmentService) RunBatch(ctx context.Context, maxItems int) (*model.BatchResult, error) {
	start := s.nowFunc()
	if maxItems <= 0 {
		maxItems = s.cfg.BatchSize
	}

	result := &model.BatchResult{Results: make([]model.AssignmentResult, 0)}

	rules, err := s.rules.ListActiveByPriority(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment rules: %w", err)
	}
	if len(rules) == 0 {
		// Configuration error, not a per-item failure: touch nothing.
		result.Message = "no active assignment rule configured"
		result.DurationMs = time.Since(start).Milliseconds()
		logger.WarnCtx(ctx, "assignment batch skipped: no active assignment rule configured")
		return result, nil
	}
	// Highest priority wins; ties already broken by lowest rule id in the
	// repository ordering. Index 0 selection is deliberate and explicit.
	activeRule := rules[0]

	items, err := s.queue.ListDue(ctx, start, maxItems)
	if err != nil {
		return nil, fmt.Errorf("failed to load assignment queue: %w", err)
	}
	if len(items) == 0 {
		result.DurationMs = time.Since(start).Milliseconds()
		return result, nil
	}

	pool, err := s.loadTechnicianPool(ctx)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		result.Message = "no active technicians available"
		result.DurationMs = time.Since(start).Milliseconds()
		logger.WarnCtx(ctx, "assignment batch skipped: no active technicians available")
		return result, nil
	}

	workload, err := s.workOrders.CountActiveByTechnician(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load technician workload: %w", err)
	}
	// In-memory overlay: assignments made earlier in this batch must count
	// against later items, otherwise one technician can be double-booked
	// within a single run.
	overlay := make(map[string]int, len(workload))
	for id, count := range workload {
		overlay[id] = count
	}

	logger.InfoCtx(ctx, "assignment batch started: %d due items, rule %d (%s), %d technicians",
		len(items), activeRule.ID, activeRule.Name, len(pool))

	for _, item := range items {
		itemResult := s.processItem(ctx, item, activeRule, pool, overlay)
		result.Results = append(result.Results, itemResult)
		result.Processed++
		switch itemResult.Outcome {
		case constants.OutcomeSuccess.String():
			result.Succeeded++
		case outcomeSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
	}

	result.DurationMs = time.Since(start).Milliseconds()
	logger.InfoCtx(ctx, "assignment batch finished: processed=%d succeeded=%d failed=%d skipped=%d duration=%dms",
		result.Processed, result.Succeeded, result.Failed, result.Skipped, result.DurationMs)

	return result, nil
}

// outcomeSkipped marks items skipped by the idempotency guard. Not persisted
// to the audit log (a skipped item leaves no trace by design of the guard).
const outcomeSkipped = "skipped"

// processItem runs selection for one queue item. Panics and errors are
// contained here so a poison item cannot abort the batch.
func (s *AssignmentService) processItem(
	ctx context.Context,
	item *mysql.AssignmentQueueItem,
	rule *mysql.AssignmentRule,
	pool []assign.Technician,
	overlay map[string]int,
) (res model.AssignmentResult) {
	itemStart := s.nowFunc()
	res = model.AssignmentResult{WorkOrderID: item.WorkOrderID}

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCtx(ctx, "panic while processing work order %s: %v", item.WorkOrderID, r)
			res.Outcome = constants.OutcomeFailed.String()
			res.Error = fmt.Sprintf("panic: %v", r)
		}
		res.ExecutionTimeMs = time.Since(itemStart).Milliseconds()
	}()

	wo, err := s.workOrders.Get(ctx, item.WorkOrderID)
	if err != nil {
		// Read failure: leave the item pending for a later run.
		res.Outcome = constants.OutcomeFailed.String()
		res.Error = err.Error()
		return res
	}
	if wo == nil {
		// Queue item points at a deleted work order; retire it.
		logger.WarnCtx(ctx, "queue item %s references missing work order %s", item.QueueItemID, item.WorkOrderID)
		if err := s.queue.MarkFailed(ctx, item.QueueItemID, item.RetryCount); err != nil {
			logger.ErrorCtx(ctx, "failed to retire queue item %s: %v", item.QueueItemID, err)
		}
		res.Outcome = constants.OutcomeFailed.String()
		res.Error = "work order not found"
		return res
	}

	// Idempotency guard: a work order assigned since enqueue (manually or by
	// a concurrent run) is skipped silently. Queue item untouched, no log
	// entry written.
	if wo.AssignedTechnicianID != nil {
		logger.DebugCtx(ctx, "work order %s already assigned to %s, skipping", wo.WorkOrderID, *wo.AssignedTechnicianID)
		res.Outcome = outcomeSkipped
		return res
	}

	if !ruleCovers(rule, wo) {
		return s.handleNoWinner(ctx, item, rule, wo, nil, "active rule does not cover this work order", itemStart, res)
	}

	now := s.nowFunc()
	ranked := assign.RankCandidates(mysql.ToAssignWorkOrder(wo), pool, overlay, mysql.ToAssignRule(rule), now)
	res.CandidatesEvaluated = len(ranked)

	if len(ranked) == 0 {
		return s.handleNoWinner(ctx, item, rule, wo, ranked, "no eligible candidate after filtering", itemStart, res)
	}
	winner := ranked[0]

	assigned, err := s.workOrders.AssignIfUnassigned(ctx, wo.WorkOrderID, winner.TechnicianID)
	if err != nil {
		// Write failure: do not mark the item assigned or failed, leave it
		// pending for a later run.
		res.Outcome = constants.OutcomeFailed.String()
		res.Error = err.Error()
		return res
	}
	if !assigned {
		// Lost the race to a concurrent assignment; same treatment as the
		// idempotency guard.
		logger.DebugCtx(ctx, "work order %s was assigned concurrently, skipping", wo.WorkOrderID)
		res.Outcome = outcomeSkipped
		return res
	}

	if err := s.queue.MarkAssigned(ctx, item.QueueItemID); err != nil {
		// The assignment itself succeeded; the stale pending item will be
		// skipped by the idempotency guard on the next run.
		logger.WarnCtx(ctx, "work order %s assigned but queue item %s not finalized: %v", wo.WorkOrderID, item.QueueItemID, err)
	}

	// Read-your-own-writes within the batch.
	overlay[winner.TechnicianID]++

	entry := s.newLogEntry(wo, rule, constants.OutcomeSuccess, ranked, itemStart)
	entry.TechnicianID = &winner.TechnicianID
	if err := s.logs.Append(ctx, entry); err != nil {
		logger.ErrorCtx(ctx, "failed to append assignment log for work order %s: %v", wo.WorkOrderID, err)
	}

	logger.InfoCtx(ctx, "work order %s assigned to %s (score=%.1f, candidates=%d)",
		wo.WorkOrderID, winner.TechnicianID, winner.Composite, len(ranked))

	res.Success = true
	res.Outcome = constants.OutcomeSuccess.String()
	res.AssignedTechnicianID = winner.TechnicianID
	res.Score = winner.Composite
	return res
}

// handleNoWinner routes an item with no qualifying candidate through the
// retry/fallback path: re-arm with backoff until retries are exhausted, then
// mark failed. Every decision is audited either way.
func (s *AssignmentService) handleNoWinner(
	ctx context.Context,
	item *mysql.AssignmentQueueItem,
	rule *mysql.AssignmentRule,
	wo *mysql.WorkOrder,
	ranked []assign.Candidate,
	reason string,
	itemStart time.Time,
	res model.AssignmentResult,
) model.AssignmentResult {
	retryCount := item.RetryCount + 1

	if retryCount >= item.MaxRetries {
		if err := s.queue.MarkFailed(ctx, item.QueueItemID, retryCount); err != nil {
			res.Outcome = constants.OutcomeFailed.String()
			res.Error = err.Error()
			return res
		}

		entry := s.newLogEntry(wo, rule, constants.OutcomeFailed, ranked, itemStart)
		entry.DecisionFactors = mergeFactors(entry.DecisionFactors, mysql.JSONMap{"reason": reason, "retry_count": retryCount})
		if err := s.logs.Append(ctx, entry); err != nil {
			logger.ErrorCtx(ctx, "failed to append assignment log for work order %s: %v", wo.WorkOrderID, err)
		}

		logger.WarnCtx(ctx, "work order %s failed auto-assignment after %d attempts: %s", wo.WorkOrderID, retryCount, reason)

		res.Outcome = constants.OutcomeFailed.String()
		res.Error = reason
		return res
	}

	nextRetry := s.nowFunc().Add(s.cfg.RetryBackoff())
	if err := s.queue.Reschedule(ctx, item.QueueItemID, retryCount, nextRetry); err != nil {
		res.Outcome = constants.OutcomeFailed.String()
		res.Error = err.Error()
		return res
	}

	entry := s.newLogEntry(wo, rule, constants.OutcomeFallback, ranked, itemStart)
	entry.DecisionFactors = mergeFactors(entry.DecisionFactors, mysql.JSONMap{
		"reason":          reason,
		"retry_count":     retryCount,
		"next_retry_at":   nextRetry.Format(time.RFC3339),
		"fallback_action": rule.FallbackAction,
	})
	if err := s.logs.Append(ctx, entry); err != nil {
		logger.ErrorCtx(ctx, "failed to append assignment log for work order %s: %v", wo.WorkOrderID, err)
	}

	// Fire-and-forget; re-queueing itself is the remedial action for the
	// plain "queue" fallback.
	if s.dispatcher != nil && rule.FallbackAction != constants.FallbackQueue.String() {
		s.dispatcher.Dispatch(ctx, rule.FallbackAction, wo.WorkOrderID, reason)
	}

	logger.InfoCtx(ctx, "work order %s re-armed for retry %d/%d at %s (%s)",
		wo.WorkOrderID, retryCount, item.MaxRetries, nextRetry.Format(time.RFC3339), reason)

	res.Outcome = constants.OutcomeFallback.String()
	res.Error = reason
	return res
}

// newLogEntry builds the audit record shared by all outcomes. The winner's
// technician id and scores are filled in by the caller for successes.
func (s *AssignmentService) newLogEntry(
	wo *mysql.WorkOrder,
	rule *mysql.AssignmentRule,
	outcome constants.AssignmentOutcome,
	ranked []assign.Candidate,
	itemStart time.Time,
) *mysql.AssignmentLog {
	entry := &mysql.AssignmentLog{
		LogID:               uuid.New().String(),
		WorkOrderID:         wo.WorkOrderID,
		RuleID:              rule.ID,
		CandidatesEvaluated: len(ranked),
		TopCandidates:       mysql.SnapshotCandidates(ranked, s.cfg.TopCandidates),
		Outcome:             outcome.String(),
		DurationMs:          time.Since(itemStart).Milliseconds(),
		CreatedAt:           s.nowFunc(),
	}

	if len(ranked) > 0 {
		top := ranked[0]
		entry.CompositeScore = top.Composite
		entry.AvailabilityScore = top.Availability
		entry.SpecializationScore = top.Specialization
		entry.ProximityScore = top.Proximity
		entry.WorkloadScore = top.Workload
		entry.PerformanceScore = top.Performance
		entry.DecisionFactors = mysql.JSONMap{"rationale": top.Rationale}
	}

	return entry
}

// loadTechnicianPool fetches the active technician snapshots plus shift
// windows once per batch, not per item, to bound query cost.
func (s *AssignmentService) loadTechnicianPool(ctx context.Context) ([]assign.Technician, error) {
	technicians, err := s.technicians.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load technicians: %w", err)
	}
	if len(technicians) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(technicians))
	for _, tech := range technicians {
		ids = append(ids, tech.TechnicianID)
	}

	shifts, err := s.technicians.ListShifts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load technician shifts: %w", err)
	}

	shiftsByTech := make(map[string][]*mysql.Shift, len(technicians))
	for _, shift := range shifts {
		shiftsByTech[shift.TechnicianID] = append(shiftsByTech[shift.TechnicianID], shift)
	}

	pool := make([]assign.Technician, 0, len(technicians))
	for _, tech := range technicians {
		pool = append(pool, mysql.ToAssignTechnician(tech, shiftsByTech[tech.TechnicianID]))
	}
	return pool, nil
}

func mergeFactors(base, extra mysql.JSONMap) mysql.JSONMap {
	if base == nil {
		return extra
	}
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// ruleCovers applies the rule's work-order allow-lists (service category and
// priority level). An empty allow-list means no restriction.
func ruleCovers(rule *mysql.AssignmentRule, wo *mysql.WorkOrder) bool {
	if len(rule.AllowedCategories) > 0 {
		if wo.CategoryID == nil {
			return false
		}
		found := false
		for _, cat := range rule.AllowedCategories {
			if cat == *wo.CategoryID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(rule.AllowedPriorities) > 0 {
		found := false
		prio := fmt.Sprintf("%d", wo.Priority)
		for _, p := range rule.AllowedPriorities {
			if p == prio {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
