package router

import (
	"fleetassign/app/handler"
	"fleetassign/app/middleware"

	"github.com/gin-gonic/gin"
)

// Router Router
type Router struct {
	assignmentHandler *handler.AssignmentHandler
	ruleHandler       *handler.RuleHandler
	auditHandler      *handler.AuditHandler
}

// NewRouter creates a new Router
func NewRouter(assignmentHandler *handler.AssignmentHandler, ruleHandler *handler.RuleHandler, auditHandler *handler.AuditHandler) *Router {
	return &Router{
		assignmentHandler: assignmentHandler,
		ruleHandler:       ruleHandler,
		auditHandler:      auditHandler,
	}
}

// Setup sets up routes
func (r *Router) Setup(engine *gin.Engine) {
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger())

	api := engine.Group("/api/v1")
	api.Use(middleware.AuthMiddleware())
	{
		// Assignment engine
		assignment := api.Group("/assignment")
		{
			assignment.POST("/run", r.assignmentHandler.Run)           // Trigger a batch run
			assignment.POST("/enqueue", r.assignmentHandler.Enqueue)   // Queue a work order
			assignment.GET("/queue", r.auditHandler.QueueItems)        // Queue state
			assignment.GET("/logs", r.auditHandler.RecentLogs)         // Recent decisions
			assignment.GET("/logs/:work_order_id", r.auditHandler.WorkOrderLogs) // Per work order
		}

		// Rule management
		rules := api.Group("/rules")
		{
			rules.GET("", r.ruleHandler.List)
			rules.POST("", r.ruleHandler.Create)
		}
	}

	// Health check
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
}
