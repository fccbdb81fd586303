package handler

import (
	"net/http"

	"fleetassign/internal/model"
	"fleetassign/internal/service"
	"fleetassign/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AssignmentHandler handles assignment operations
type AssignmentHandler struct {
	assignmentService *service.AssignmentService
}

// NewAssignmentHandler creates assignment handler
func NewAssignmentHandler(assignmentService *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService}
}

// Run triggers an assignment batch run
// @Summary Run assignment batch
// @Description Process due assignment queue items and assign technicians
// @Tags assignment
// @Accept json
// @Produce json
// @Param request body model.RunBatchRequest false "Run options"
// @Success 200 {object} model.BatchResult
// @Router /assignment/run [post]
func (h *AssignmentHandler) Run(c *gin.Context) {
	var req model.RunBatchRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := h.assignmentService.RunBatch(c.Request.Context(), req.MaxItems)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "assignment batch run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Enqueue adds a work order to the assignment queue
// @Summary Enqueue work order
// @Description Queue a work order for auto-assignment
// @Tags assignment
// @Accept json
// @Produce json
// @Param request body model.EnqueueRequest true "Work order to enqueue"
// @Success 200 {object} model.EnqueueResponse
// @Router /assignment/enqueue [post]
func (h *AssignmentHandler) Enqueue(c *gin.Context) {
	var req model.EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.assignmentService.EnqueueWorkOrder(c.Request.Context(), &req)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to enqueue work order %s: %v", req.WorkOrderID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}
