package mysql

import (
	"context"
	"fmt"
)

// RuleRepository handles assignment rule reads in MySQL
type RuleRepository struct {
	ds *Datastore
}

// NewRuleRepository creates a new rule repository
func NewRuleRepository(ds *Datastore) *RuleRepository {
	return &RuleRepository{ds: ds}
}

// ListActiveByPriority retrieves active rules ordered by priority descending.
// Ties break on lowest id so the selection of index 0 by the orchestrator is
// stable across runs. The LIMIT 1 is deliberately NOT pushed down here; the
// orchestrator picks index 0 explicitly to keep the tie-break policy testable.
func (r *RuleRepository) ListActiveByPriority(ctx context.Context) ([]*AssignmentRule, error) {
	var rules []*AssignmentRule
	err := r.ds.DB(ctx).
		Where("active = ?", true).
		Order("priority DESC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active rules: %w", err)
	}
	return rules, nil
}

// List retrieves all rules (active and inactive) for the admin surface
func (r *RuleRepository) List(ctx context.Context, limit int) ([]*AssignmentRule, error) {
	if limit <= 0 {
		limit = 100
	}

	var rules []*AssignmentRule
	err := r.ds.DB(ctx).
		Order("priority DESC, id ASC").
		Limit(limit).
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}

// Create creates a rule record (used by fixtures and admin tooling)
func (r *RuleRepository) Create(ctx context.Context, rule *AssignmentRule) error {
	return r.ds.DB(ctx).Create(rule).Error
}
