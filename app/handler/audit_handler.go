package handler

import (
	"net/http"
	"strconv"

	"fleetassign/internal/service"
	"fleetassign/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuditHandler exposes the assignment audit trail and queue state
type AuditHandler struct {
	auditService *service.AuditService
}

// NewAuditHandler creates audit handler
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// RecentLogs lists the most recent assignment decisions
// @Summary List recent assignment logs
// @Tags audit
// @Produce json
// @Param limit query int false "Max entries to return"
// @Success 200 {object} map[string]interface{}
// @Router /assignment/logs [get]
func (h *AuditHandler) RecentLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.auditService.RecentLogs(c.Request.Context(), limit)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to list assignment logs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

// WorkOrderLogs lists the decision history of one work order
// @Summary List assignment logs for a work order
// @Tags audit
// @Produce json
// @Param work_order_id path string true "Work order ID"
// @Success 200 {object} map[string]interface{}
// @Router /assignment/logs/{work_order_id} [get]
func (h *AuditHandler) WorkOrderLogs(c *gin.Context) {
	workOrderID := c.Param("work_order_id")
	if workOrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "work_order_id required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.auditService.LogsByWorkOrder(c.Request.Context(), workOrderID, limit)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to list logs for work order %s: %v", workOrderID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"work_order_id": workOrderID, "logs": logs, "count": len(logs)})
}

// QueueItems lists assignment queue items
// @Summary List assignment queue items
// @Tags audit
// @Produce json
// @Param status query string false "Filter by status (pending, assigned, failed)"
// @Param limit query int false "Max items to return"
// @Param offset query int false "Offset for pagination"
// @Success 200 {object} map[string]interface{}
// @Router /assignment/queue [get]
func (h *AuditHandler) QueueItems(c *gin.Context) {
	status := c.Query("status")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.auditService.QueueItems(c.Request.Context(), status, limit, offset)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to list queue items: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}
