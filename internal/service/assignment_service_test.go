package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleetassign/internal/model"
	"fleetassign/pkg/config"
	"fleetassign/pkg/constants"
	"fleetassign/pkg/store/mysql"

	"github.com/stretchr/testify/require"
)

type fakeWorkOrderStore struct {
	orders     map[string]*mysql.WorkOrder
	workload   map[string]int
	assignErr  error
	assignLost bool
}

func newFakeWorkOrderStore() *fakeWorkOrderStore {
	return &fakeWorkOrderStore{
		orders:   make(map[string]*mysql.WorkOrder),
		workload: make(map[string]int),
	}
}

func (f *fakeWorkOrderStore) Get(_ context.Context, workOrderID string) (*mysql.WorkOrder, error) {
	return f.orders[workOrderID], nil
}

func (f *fakeWorkOrderStore) AssignIfUnassigned(_ context.Context, workOrderID, technicianID string) (bool, error) {
	if f.assignErr != nil {
		return false, f.assignErr
	}
	if f.assignLost {
		return false, nil
	}
	wo, ok := f.orders[workOrderID]
	if !ok || wo.AssignedTechnicianID != nil {
		return false, nil
	}
	wo.AssignedTechnicianID = &technicianID
	wo.Status = constants.WorkOrderStatusAssigned.String()
	return true, nil
}

func (f *fakeWorkOrderStore) CountActiveByTechnician(_ context.Context) (map[string]int, error) {
	out := make(map[string]int, len(f.workload))
	for k, v := range f.workload {
		out[k] = v
	}
	return out, nil
}

type fakeTechnicianStore struct {
	technicians []*mysql.Technician
	shifts      []*mysql.Shift
}

func (f *fakeTechnicianStore) ListActive(_ context.Context) ([]*mysql.Technician, error) {
	return f.technicians, nil
}

func (f *fakeTechnicianStore) ListShifts(_ context.Context, _ []string) ([]*mysql.Shift, error) {
	return f.shifts, nil
}

type fakeRuleStore struct {
	rules []*mysql.AssignmentRule
}

func (f *fakeRuleStore) ListActiveByPriority(_ context.Context) ([]*mysql.AssignmentRule, error) {
	return f.rules, nil
}

type fakeQueueStore struct {
	items        []*mysql.AssignmentQueueItem
	enqueued     []*mysql.AssignmentQueueItem
	markedDone   []string
	markedFailed []string
	rescheduled  map[string]time.Time
}

func newFakeQueueStore(items ...*mysql.AssignmentQueueItem) *fakeQueueStore {
	return &fakeQueueStore{items: items, rescheduled: make(map[string]time.Time)}
}

func (f *fakeQueueStore) Enqueue(_ context.Context, item *mysql.AssignmentQueueItem) error {
	f.enqueued = append(f.enqueued, item)
	return nil
}

func (f *fakeQueueStore) ListDue(_ context.Context, _ time.Time, limit int) ([]*mysql.AssignmentQueueItem, error) {
	if limit < len(f.items) {
		return f.items[:limit], nil
	}
	return f.items, nil
}

func (f *fakeQueueStore) MarkAssigned(_ context.Context, queueItemID string) error {
	f.markedDone = append(f.markedDone, queueItemID)
	return nil
}

func (f *fakeQueueStore) MarkFailed(_ context.Context, queueItemID string, _ int) error {
	f.markedFailed = append(f.markedFailed, queueItemID)
	return nil
}

func (f *fakeQueueStore) Reschedule(_ context.Context, queueItemID string, _ int, nextRetryAt time.Time) error {
	f.rescheduled[queueItemID] = nextRetryAt
	return nil
}

func (f *fakeQueueStore) HasPendingForWorkOrder(_ context.Context, workOrderID string) (bool, error) {
	for _, item := range f.items {
		if item.WorkOrderID == workOrderID && item.Status == constants.QueueStatusPending.String() {
			return true, nil
		}
	}
	return false, nil
}

type fakeLogStore struct {
	entries []*mysql.AssignmentLog
}

func (f *fakeLogStore) Append(_ context.Context, entry *mysql.AssignmentLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeDispatcher struct {
	actions []string
}

func (f *fakeDispatcher) Dispatch(_ context.Context, action, _, _ string) {
	f.actions = append(f.actions, action)
}

func testAssignmentConfig() config.AssignmentConfig {
	return config.AssignmentConfig{
		BatchSize:           50,
		MaxRetries:          3,
		RetryBackoffMinutes: 15,
		TopCandidates:       5,
	}
}

func defaultRule() *mysql.AssignmentRule {
	return &mysql.AssignmentRule{
		ID:                         1,
		Name:                       "default",
		Priority:                   10,
		Active:                     true,
		WeightAvailability:         30,
		WeightSpecialization:       25,
		WeightProximity:            20,
		WeightWorkload:             15,
		WeightPerformance:          10,
		RespectMaxConcurrentOrders: true,
		FallbackAction:             constants.FallbackQueue.String(),
	}
}

func activeTechnician(id string) *mysql.Technician {
	return &mysql.Technician{
		TechnicianID: id,
		Name:         "Tech " + id,
		Status:       constants.TechnicianStatusActive,
	}
}

func pendingItem(id, workOrderID string, retryCount, maxRetries int) *mysql.AssignmentQueueItem {
	return &mysql.AssignmentQueueItem{
		QueueItemID: id,
		WorkOrderID: workOrderID,
		Status:      constants.QueueStatusPending.String(),
		RetryCount:  retryCount,
		MaxRetries:  maxRetries,
		EnqueuedAt:  time.Now(),
	}
}

func openWorkOrder(id string) *mysql.WorkOrder {
	return &mysql.WorkOrder{
		WorkOrderID: id,
		Status:      constants.WorkOrderStatusOpen.String(),
		Priority:    3,
	}
}

func newTestService(
	workOrders *fakeWorkOrderStore,
	technicians *fakeTechnicianStore,
	rules *fakeRuleStore,
	queue *fakeQueueStore,
	logs *fakeLogStore,
	dispatcher *fakeDispatcher,
) *AssignmentService {
	return NewAssignmentService(workOrders, technicians, rules, queue, logs, dispatcher, testAssignmentConfig())
}

func TestRunBatchNoActiveRule(t *testing.T) {
	workOrders := newFakeWorkOrderStore()
	workOrders.orders["WO-1"] = openWorkOrder("WO-1")
	queue := newFakeQueueStore(pendingItem("Q-1", "WO-1", 0, 3))
	logs := &fakeLogStore{}

	svc := newTestService(workOrders, &fakeTechnicianStore{}, &fakeRuleStore{}, queue, logs, &fakeDispatcher{})

	result, err := svc.RunBatch(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 0, result.Processed)
	require.Contains(t, result.Message, "no active assignment rule")
	require.Empty(t, queue.markedDone)
	require.Empty(t, queue.markedFailed)
	require.Empty(t, queue.rescheduled)
	require.Empty(t, logs.entries)
}

func TestRunBatchAssignsBestCandidate(t *testing.T) {
	workOrders := newFakeWorkOrderStore()
	workOrders.orders["WO-1"] = openWorkOrder("WO-1")
	workOrders.workload["tech-busy"] = 5

	technicians := &fakeTechnicianStore{technicians: []*mysql.Technician{
		activeTechnician("tech-busy"),
		activeTechnician("tech-free"),
	}}
	rules := &fakeRuleStore{rules: []*mysql.AssignmentRule{defaultRule()}}
	queue := newFakeQueueStore(pendingItem("Q-1", "WO-1", 0, 3))
	logs := &fakeLogStore{}

	svc := newTestService(workOrders, technicians, rules, queue, logs, &fakeDispatcher{})

	result, err := svc.RunBatch(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	require.Equal(t, 1, result.Succeeded)

	require.NotNil(t, workOrders.orders["WO-1"].AssignedTechnicianID)
	require.Equal(t, "tech-free", *workOrders.orders["WO-1"].AssignedTechnicianID)
	require.Equal(t, []string{"Q-1"}, queue.markedDone)

	require.Len(t, logs.entries, 1)
	entry := logs.entries[0]
	require.Equal(t, constants.OutcomeSuccess.String(), entry.Outcome)
	require.NotNil(t, entry.TechnicianID)
	require.Equal(t, "tech-free", *entry.TechnicianID)
	require.Equal(t, 2, entry.CandidatesEvaluated)
	require.NotEmpty(t, entry.TopCandidates)
}

func TestRunBatchSkipsAlreadyAssigned(t *testing.T) {
	workOrders := newFakeWorkOrderStore()
	wo := openWorkOrder("WO-1")
	tech := "tech-1"
	wo.AssignedTechnicianID = &tech
	workOrders.orders["WO-1"] = wo

	technicians := &fakeTechnicianStore{technicians: []*mysql.Technician{activeTechnician("tech-2")}}
	rules := &fakeRuleStore{rules: []*mysql.AssignmentRule{defaultRule()}}
	queue := newFakeQueueStore(pendingItem("Q-1", "WO-1", 0, 3))
	logs := &fakeLogStore{}

	svc := newTestService(workOrders, technicians, rules, queue, logs, &fakeDispatcher{})

	result, err := svc.RunBatch(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.Processed)
	require.Equal(t, 1, result.Skipped)

	// Queue item untouched and no audit entry for the idempotency skip.
	require.Empty(t, queue.markedDone)
	require.Empty(t, queue.markedFailed)
	require.Empty(t, queue.rescheduled)
	require.Empty(t, logs.entries)
}

func TestRunBatchWorkloadOverlayWithinBatch(t *testing.T) {
	workOrders := newFakeWorkOrderStore()
	workOrders.orders["WO-1"] = openWorkOrder("WO-1")
	workOrders.orders["WO-2"] = openWorkOrder("WO-2")

	// Single technician with capacity for exactly one more order.
	capacity := 1
	tech := activeTechnician("tech-1")
	tech.MaxConcurrentOrders = &capacity
	technicians := &fakeTechnicianStore{technicians: []*mysql.Technician{tech}}

	rules := &fakeRuleStore{rules: []*mysql.AssignmentRule{defaultRule()}}
	queue := newFakeQueueStore(
		pendingItem("Q-1", "WO-1", 0, 3),
		pendingItem("Q-2", "WO-2", 0, 3),
	)
	logs := &fakeLogStore{}
	dispatcher := &fakeDispatcher{}

	svc := newTestService(workOrders, technicians, rules, queue, logs, dispatcher)

	result, err := svc.RunBatch(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 2, result.Processed)
	require.Equal(t, 1, result.Succeeded)
	require.Equal(t, 1, result.Failed)

	// First item consumed the capacity; the second must not double-book.
	require.NotNil(t, workOrders.orders["WO-1"].AssignedTechnicianID)
	require.Nil(t, workOrders.orders["WO-2"].AssignedTechnicianID)
	require.Contains(t, queue.rescheduled, "Q-2")

	require.Len(t, logs.entries, 2)
	require.Equal(t, constants.OutcomeSuccess.String(), logs.entries[0].Outcome)
	require.Equal(t, constants.OutcomeFallback.String(), logs.entries[1].Outcome)
}

func TestRunBatchReschedulesWithBackoff(t *testing.T) {
	workOrders := newFakeWorkOrderStore()
	wo := openWorkOrder("WO-1")
	wo.RequiredSpecialization = "hydraulics"
	workOrders.orders["WO-1"] = wo

	rule := defaultRule()
	rule.RequireSpecializationMatch = true
	rule.FallbackAction = constants.FallbackNotifyManager.String()

	technicians := &fakeTechnicianStore{technicians: []*mysql.Technician{activeTechnician("tech-1")}}
	rules := &fakeRuleStore{rules: []*mysql.AssignmentRule{rule}}
	queue := newFakeQueueStore(pendingItem("Q-1", "WO-1", 0, 3))
	logs := &fakeLogStore{}
	dispatcher := &fakeDispatcher{}

	svc := newTestService(workOrders, technicians, rules, queue, logs, dispatcher)
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc.SetNowFunc(func() time.Time { return base })

	result, err := svc.RunBatch(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.Failed)

	nextRetry, ok := queue.rescheduled["Q-1"]
	require.True(t, ok)
	require.Equal(t, base.Add(15*time.Minute), nextRetry)

	require.Len(t, logs.entries, 1)
	require.Equal(t, constants.OutcomeFallback.String(), logs.entries[0].Outcome)
	require.Equal(t, constants.FallbackNotifyManager.String(), logs.entries[0].DecisionFactors["fallback_action"])
	require.Equal(t, []string{constants.FallbackNotifyManager.String()}, dispatcher.actions)
}

func TestRunBatchExhaustedRetriesMarksFailed(t *testing.T) {
	workOrders := newFakeWorkOrderStore()
	wo := openWorkOrder("WO-1")
	wo.RequiredSpecialization = "hydraulics"
	workOrders.orders["WO-1"] = wo

	rule := defaultRule()
	rule.RequireSpecializationMatch = true

	technicians := &fakeTechnicianStore{technicians: []*mysql.Technician{activeTechnician("tech-1")}}
	rules := &fakeRuleStore{rules: []*mysql.AssignmentRule{rule}}
	queue := newFakeQueueStore(pendingItem("Q-1", "WO-1", 2, 3))
	logs := &fakeLogStore{}

	svc := newTestService(workOrders, technicians, rules, queue, logs, &fakeDispatcher{})

	result, err := svc.RunBatch(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.Failed)

	require.Equal(t, []string{"Q-1"}, queue.markedFailed)
	require.Empty(t, queue.rescheduled)
	require.Len(t, logs.entries, 1)
	require.Equal(t, constants.OutcomeFailed.String(), logs.entries[0].Outcome)
	require.Nil(t, logs.entries[0].TechnicianID)
}

func TestRunBatchAssignWriteFailureLeavesItemPending(t *testing.T) {
	workOrders := newFakeWorkOrderStore()
	workOrders.orders["WO-1"] = openWorkOrder("WO-1")
	workOrders.assignErr = errors.New("connection reset")

	technicians := &fakeTechnicianStore{technicians: []*mysql.Technician{activeTechnician("tech-1")}}
	rules := &fakeRuleStore{rules: []*mysql.AssignmentRule{defaultRule()}}
	queue := newFakeQueueStore(pendingItem("Q-1", "WO-1", 0, 3))
	logs := &fakeLogStore{}

	svc := newTestService(workOrders, technicians, rules, queue, logs, &fakeDispatcher{})

	result, err := svc.RunBatch(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.Failed)
	require.Contains(t, result.Results[0].Error, "connection reset")

	// Item stays pending so a later run can pick it up.
	require.Empty(t, queue.markedDone)
	require.Empty(t, queue.markedFailed)
	require.Empty(t, queue.rescheduled)
	require.Empty(t, logs.entries)
}

func TestRunBatchLostRaceCountsAsSkipped(t *testing.T) {
	workOrders := newFakeWorkOrderStore()
	workOrders.orders["WO-1"] = openWorkOrder("WO-1")
	workOrders.assignLost = true

	technicians := &fakeTechnicianStore{technicians: []*mysql.Technician{activeTechnician("tech-1")}}
	rules := &fakeRuleStore{rules: []*mysql.AssignmentRule{defaultRule()}}
	queue := newFakeQueueStore(pendingItem("Q-1", "WO-1", 0, 3))
	logs := &fakeLogStore{}

	svc := newTestService(workOrders, technicians, rules, queue, logs, &fakeDispatcher{})

	result, err := svc.RunBatch(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.Skipped)
	require.Empty(t, queue.markedDone)
	require.Empty(t, logs.entries)
}

func TestRunBatchRuleAllowListRoutesToFallback(t *testing.T) {
	workOrders := newFakeWorkOrderStore()
	cat := "electrical"
	wo := openWorkOrder("WO-1")
	wo.CategoryID = &cat
	workOrders.orders["WO-1"] = wo

	rule := defaultRule()
	rule.AllowedCategories = mysql.JSONStringArray{"engine", "brakes"}

	technicians := &fakeTechnicianStore{technicians: []*mysql.Technician{activeTechnician("tech-1")}}
	rules := &fakeRuleStore{rules: []*mysql.AssignmentRule{rule}}
	queue := newFakeQueueStore(pendingItem("Q-1", "WO-1", 0, 3))
	logs := &fakeLogStore{}

	svc := newTestService(workOrders, technicians, rules, queue, logs, &fakeDispatcher{})

	result, err := svc.RunBatch(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, 1, result.Failed)
	require.Contains(t, queue.rescheduled, "Q-1")
	require.Len(t, logs.entries, 1)
	require.Equal(t, constants.OutcomeFallback.String(), logs.entries[0].Outcome)
}

func TestEnqueueWorkOrderIdempotent(t *testing.T) {
	workOrders := newFakeWorkOrderStore()
	workOrders.orders["WO-1"] = openWorkOrder("WO-1")

	queue := newFakeQueueStore(pendingItem("Q-1", "WO-1", 0, 3))

	svc := newTestService(workOrders, &fakeTechnicianStore{}, &fakeRuleStore{}, queue, &fakeLogStore{}, &fakeDispatcher{})

	resp, err := svc.EnqueueWorkOrder(context.Background(), &model.EnqueueRequest{WorkOrderID: "WO-1"})
	require.NoError(t, err)
	require.Equal(t, constants.QueueStatusPending.String(), resp.Status)
	require.Empty(t, queue.enqueued)
}

func TestEnqueueWorkOrderCreatesItem(t *testing.T) {
	workOrders := newFakeWorkOrderStore()
	workOrders.orders["WO-1"] = openWorkOrder("WO-1")

	queue := newFakeQueueStore()

	svc := newTestService(workOrders, &fakeTechnicianStore{}, &fakeRuleStore{}, queue, &fakeLogStore{}, &fakeDispatcher{})

	resp, err := svc.EnqueueWorkOrder(context.Background(), &model.EnqueueRequest{WorkOrderID: "WO-1", Priority: 7})
	require.NoError(t, err)
	require.NotEmpty(t, resp.QueueItemID)
	require.Len(t, queue.enqueued, 1)
	require.Equal(t, 7, queue.enqueued[0].Priority)
	require.Equal(t, 3, queue.enqueued[0].MaxRetries)
}

func TestEnqueueWorkOrderRejectsAssigned(t *testing.T) {
	workOrders := newFakeWorkOrderStore()
	wo := openWorkOrder("WO-1")
	tech := "tech-1"
	wo.AssignedTechnicianID = &tech
	workOrders.orders["WO-1"] = wo

	svc := newTestService(workOrders, &fakeTechnicianStore{}, &fakeRuleStore{}, newFakeQueueStore(), &fakeLogStore{}, &fakeDispatcher{})

	_, err := svc.EnqueueWorkOrder(context.Background(), &model.EnqueueRequest{WorkOrderID: "WO-1"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "already assigned")
}
