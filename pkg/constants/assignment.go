package constants

// QueueItemStatus assignment queue item status constants
type QueueItemStatus string

const (
	QueueStatusPending  QueueItemStatus = "pending"
	QueueStatusAssigned QueueItemStatus = "assigned"
	QueueStatusFailed   QueueItemStatus = "failed"
)

func (s QueueItemStatus) String() string {
	return string(s)
}

// AssignmentOutcome audit log outcome constants
type AssignmentOutcome string

const (
	OutcomeSuccess  AssignmentOutcome = "success"
	OutcomeFallback AssignmentOutcome = "fallback"
	OutcomeFailed   AssignmentOutcome = "failed"
)

func (o AssignmentOutcome) String() string {
	return string(o)
}

// FallbackAction remedial action constants when no candidate qualifies
type FallbackAction string

const (
	FallbackEscalate      FallbackAction = "escalate"
	FallbackQueue         FallbackAction = "queue"
	FallbackNotifyManager FallbackAction = "notify_manager"
)

func (f FallbackAction) String() string {
	return string(f)
}

// Technician operational status constants
const (
	TechnicianStatusActive   = "active"
	TechnicianStatusInactive = "inactive"
)
