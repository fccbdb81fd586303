package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"fleetassign/pkg/config"
	"fleetassign/pkg/constants"
	"fleetassign/pkg/logger"
)

// ManagerNotifier delivers fallback alerts to the fleet manager webhook when
// a work order cannot be auto-assigned.
type ManagerNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewManagerNotifier creates a new manager notifier
func NewManagerNotifier() *ManagerNotifier {
	// Priority: config file > environment variable
	var webhookURL string
	if config.GlobalConfig != nil && config.GlobalConfig.Notification.ManagerWebhookURL != "" {
		webhookURL = config.GlobalConfig.Notification.ManagerWebhookURL
		logger.Info("Using manager webhook URL from config file")
	} else {
		webhookURL = os.Getenv("MANAGER_WEBHOOK_URL")
		if webhookURL != "" {
			logger.Info("Using manager webhook URL from environment variable")
		}
	}

	if webhookURL == "" {
		logger.Warn("Manager webhook URL not configured (check config file or MANAGER_WEBHOOK_URL env), fallback notifications will be disabled")
	}

	return &ManagerNotifier{
		webhookURL: webhookURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// fallbackAlert is the webhook payload for an unassignable work order.
type fallbackAlert struct {
	Event       string    `json:"event"`
	WorkOrderID string    `json:"work_order_id"`
	Action      string    `json:"action"`
	Reason      string    `json:"reason"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Dispatch sends the fallback alert for a work order. Fire-and-forget: the
// batch run never blocks on, or fails because of, a notification. Delivery
// runs on its own goroutine with a detached timeout so an in-flight alert
// survives the caller's context.
func (n *ManagerNotifier) Dispatch(ctx context.Context, action, workOrderID, reason string) {
	if n.webhookURL == "" {
		logger.DebugCtx(ctx, "manager webhook not configured, dropping %s alert for work order %s", action, workOrderID)
		return
	}

	alert := &fallbackAlert{
		Event:       eventForAction(action),
		WorkOrderID: workOrderID,
		Action:      action,
		Reason:      reason,
		OccurredAt:  time.Now(),
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := n.send(sendCtx, alert); err != nil {
			logger.Errorf("failed to deliver %s alert for work order %s: %v", action, workOrderID, err)
		}
	}()
}

func (n *ManagerNotifier) send(ctx context.Context, alert *fallbackAlert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook returned status code: %d", resp.StatusCode)
	}

	logger.InfoCtx(ctx, "fallback alert delivered for work order: %s", alert.WorkOrderID)
	return nil
}

func eventForAction(action string) string {
	switch action {
	case constants.FallbackEscalate.String():
		return "work_order.assignment_escalated"
	case constants.FallbackNotifyManager.String():
		return "work_order.assignment_unresolved"
	default:
		return "work_order.assignment_fallback"
	}
}
