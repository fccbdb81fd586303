package handler

import (
	"net/http"
	"strconv"

	"fleetassign/internal/service"
	"fleetassign/pkg/logger"
	"fleetassign/pkg/store/mysql"

	"github.com/gin-gonic/gin"
)

// RuleHandler handles assignment rule management
type RuleHandler struct {
	ruleService *service.RuleService
}

// NewRuleHandler creates rule handler
func NewRuleHandler(ruleService *service.RuleService) *RuleHandler {
	return &RuleHandler{ruleService: ruleService}
}

// List lists assignment rules
// @Summary List assignment rules
// @Tags rules
// @Produce json
// @Param limit query int false "Max rules to return"
// @Success 200 {array} mysql.AssignmentRule
// @Router /rules [get]
func (h *RuleHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	rules, err := h.ruleService.List(c.Request.Context(), limit)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to list rules: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules, "count": len(rules)})
}

// Create creates an assignment rule
// @Summary Create assignment rule
// @Tags rules
// @Accept json
// @Produce json
// @Param rule body mysql.AssignmentRule true "Rule definition"
// @Success 201 {object} mysql.AssignmentRule
// @Router /rules [post]
func (h *RuleHandler) Create(c *gin.Context) {
	var rule mysql.AssignmentRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.ruleService.Create(c.Request.Context(), &rule); err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to create rule: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, rule)
}
