package mysql

import (
	"context"
	"fmt"

	"fleetassign/pkg/constants"
)

// TechnicianRepository handles technician reads in MySQL.
// Technician lifecycle is owned elsewhere; this repository only reads
// snapshots for scoring.
type TechnicianRepository struct {
	ds *Datastore
}

// NewTechnicianRepository creates a new technician repository
func NewTechnicianRepository(ds *Datastore) *TechnicianRepository {
	return &TechnicianRepository{ds: ds}
}

// ListActive retrieves all technicians in active status
func (r *TechnicianRepository) ListActive(ctx context.Context) ([]*Technician, error) {
	var technicians []*Technician
	err := r.ds.DB(ctx).
		Where("status = ?", constants.TechnicianStatusActive).
		Order("technician_id ASC").
		Find(&technicians).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active technicians: %w", err)
	}
	return technicians, nil
}

// ListShifts retrieves shift windows for the given technicians
func (r *TechnicianRepository) ListShifts(ctx context.Context, technicianIDs []string) ([]*Shift, error) {
	if len(technicianIDs) == 0 {
		return nil, nil
	}

	var shifts []*Shift
	err := r.ds.DB(ctx).
		Where("technician_id IN ?", technicianIDs).
		Order("start_at ASC").
		Find(&shifts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list technician shifts: %w", err)
	}
	return shifts, nil
}

// Create creates a technician record (used by fixtures and admin tooling)
func (r *TechnicianRepository) Create(ctx context.Context, tech *Technician) error {
	return r.ds.DB(ctx).Create(tech).Error
}
