package model

// RunBatchRequest is the trigger payload for one batch run
type RunBatchRequest struct {
	MaxItems int `json:"max_items,omitempty"`
}

// AssignmentResult is the per-work-order outcome of a batch run
type AssignmentResult struct {
	WorkOrderID          string  `json:"work_order_id"`
	Success              bool    `json:"success"`
	Outcome              string  `json:"outcome"` // success, fallback, failed, skipped
	AssignedTechnicianID string  `json:"assigned_technician_id,omitempty"`
	Score                float64 `json:"score,omitempty"`
	Error                string  `json:"error,omitempty"`
	CandidatesEvaluated  int     `json:"candidates_evaluated"`
	ExecutionTimeMs      int64   `json:"execution_time_ms"`
}

// BatchResult aggregates one batch run
type BatchResult struct {
	Processed  int                `json:"processed"`
	Succeeded  int                `json:"succeeded"`
	Failed     int                `json:"failed"`
	Skipped    int                `json:"skipped"`
	Results    []AssignmentResult `json:"results"`
	DurationMs int64              `json:"duration_ms"`
	Message    string             `json:"message,omitempty"`
}

// EnqueueRequest asks for a work order to be queued for auto-assignment
type EnqueueRequest struct {
	WorkOrderID string `json:"work_order_id" binding:"required"`
	Priority    int    `json:"priority,omitempty"`
	MaxRetries  int    `json:"max_retries,omitempty"`
}

// EnqueueResponse acknowledges an enqueue
type EnqueueResponse struct {
	QueueItemID string `json:"queue_item_id"`
	WorkOrderID string `json:"work_order_id"`
	Status      string `json:"status"`
}
