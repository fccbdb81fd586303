package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateAndApplyDefaults(t *testing.T) {
	cfg := &Config{}
	validateAndApplyDefaults(cfg)

	require.Equal(t, DefaultBatchSize, cfg.Assignment.BatchSize)
	require.Equal(t, DefaultMaxRetries, cfg.Assignment.MaxRetries)
	require.Equal(t, DefaultRetryBackoffMinutes, cfg.Assignment.RetryBackoffMinutes)
	require.Equal(t, DefaultBatchInterval, cfg.Assignment.BatchInterval)
	require.Equal(t, DefaultTopCandidates, cfg.Assignment.TopCandidates)
	require.Equal(t, DefaultRetentionDays, cfg.Assignment.RetentionDays)
}

func TestValidateAndApplyDefaultsKeepsValidValues(t *testing.T) {
	cfg := &Config{}
	cfg.Assignment.BatchSize = 25
	cfg.Assignment.RetryBackoffMinutes = 5
	validateAndApplyDefaults(cfg)

	require.Equal(t, 25, cfg.Assignment.BatchSize)
	require.Equal(t, 5, cfg.Assignment.RetryBackoffMinutes)
	require.Equal(t, DefaultMaxRetries, cfg.Assignment.MaxRetries)
}

func TestValidateAndApplyDefaultsReplacesNegatives(t *testing.T) {
	cfg := &Config{}
	cfg.Assignment.BatchSize = -10
	cfg.Assignment.RetryBackoffMinutes = -1
	validateAndApplyDefaults(cfg)

	require.Equal(t, DefaultBatchSize, cfg.Assignment.BatchSize)
	require.Equal(t, DefaultRetryBackoffMinutes, cfg.Assignment.RetryBackoffMinutes)
}

func TestRetryBackoff(t *testing.T) {
	c := AssignmentConfig{RetryBackoffMinutes: 15}
	require.Equal(t, 15*time.Minute, c.RetryBackoff())
}
