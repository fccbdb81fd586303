package constants

// WorkOrderStatus work order status constants
type WorkOrderStatus string

const (
	WorkOrderStatusOpen       WorkOrderStatus = "Open"
	WorkOrderStatusAssigned   WorkOrderStatus = "Assigned"
	WorkOrderStatusInProgress WorkOrderStatus = "In Progress"
	WorkOrderStatusReady      WorkOrderStatus = "Ready"
	WorkOrderStatusCompleted  WorkOrderStatus = "Completed"
	WorkOrderStatusCancelled  WorkOrderStatus = "Cancelled"
)

func (s WorkOrderStatus) String() string {
	return string(s)
}

// ActiveWorkOrderStatuses are the non-terminal statuses counted as a
// technician's current workload.
var ActiveWorkOrderStatuses = []string{
	WorkOrderStatusAssigned.String(),
	WorkOrderStatusInProgress.String(),
	WorkOrderStatusReady.String(),
}
