package service

import (
	"context"
	"fmt"

	"fleetassign/pkg/constants"
	"fleetassign/pkg/logger"
	"fleetassign/pkg/store/mysql"
)

// RuleService manages assignment rules.
type RuleService struct {
	rules RuleAdminStore
}

// NewRuleService creates a new rule service
func NewRuleService(rules RuleAdminStore) *RuleService {
	return &RuleService{rules: rules}
}

// List returns the configured assignment rules.
func (s *RuleService) List(ctx context.Context, limit int) ([]*mysql.AssignmentRule, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.rules.List(ctx, limit)
}

// Create validates and persists a new assignment rule.
func (s *RuleService) Create(ctx context.Context, rule *mysql.AssignmentRule) error {
	if rule.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if err := validateWeights(rule); err != nil {
		return err
	}
	if rule.MaxDistanceKM != nil && *rule.MaxDistanceKM <= 0 {
		return fmt.Errorf("max_distance_km must be positive")
	}

	switch rule.FallbackAction {
	case "":
		rule.FallbackAction = constants.FallbackQueue.String()
	case constants.FallbackEscalate.String(),
		constants.FallbackQueue.String(),
		constants.FallbackNotifyManager.String():
	default:
		return fmt.Errorf("unknown fallback action: %s", rule.FallbackAction)
	}

	if err := s.rules.Create(ctx, rule); err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}

	logger.InfoCtx(ctx, "assignment rule created: %s (priority %d, active %t)", rule.Name, rule.Priority, rule.Active)
	return nil
}

// validateWeights rejects negative weights. An all-zero weight set is
// allowed at rest (scoring treats it as composite 0) but is worth flagging.
func validateWeights(rule *mysql.AssignmentRule) error {
	weights := map[string]float64{
		"availability":   rule.WeightAvailability,
		"specialization": rule.WeightSpecialization,
		"proximity":      rule.WeightProximity,
		"workload":       rule.WeightWorkload,
		"performance":    rule.WeightPerformance,
	}
	sum := 0.0
	for name, w := range weights {
		if w < 0 {
			return fmt.Errorf("weight %s must not be negative", name)
		}
		sum += w
	}
	if sum == 0 {
		logger.Warnf("rule %q has all-zero weights, every candidate will score 0", rule.Name)
	}
	return nil
}
