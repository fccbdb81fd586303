package mysql

import "fleetassign/pkg/store/mysql/model"

// Re-export types from model package so repository callers don't need a
// second import.

type (
	// Database models
	WorkOrder           = model.WorkOrder
	Technician          = model.Technician
	Shift               = model.Shift
	AssignmentRule      = model.AssignmentRule
	AssignmentQueueItem = model.AssignmentQueueItem
	AssignmentLog       = model.AssignmentLog
	CandidateSnapshot   = model.CandidateSnapshot
	CandidateSnapshots  = model.CandidateSnapshots

	// Custom JSON types
	JSONMap         = model.JSONMap
	JSONStringArray = model.JSONStringArray
)
