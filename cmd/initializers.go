package main

import (
	"fmt"
	"net/http"

	"fleetassign/app/handler"
	"fleetassign/app/router"
	"fleetassign/internal/service"
	"fleetassign/pkg/config"
	"fleetassign/pkg/logger"
	"fleetassign/pkg/notification"
	asynqqueue "fleetassign/pkg/queue/asynq"
	mysqlstore "fleetassign/pkg/store/mysql"
	redisstore "fleetassign/pkg/store/redis"

	"github.com/gin-gonic/gin"
)

// initConfig initializes configuration
func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

// initLogger initializes logging
func (app *Application) initLogger() error {
	if err := logger.Init(); err != nil {
		return err
	}
	app.registerCleanup(func() {
		logger.Sync()
		logger.InfoCtx(app.ctx, "Logging system has been closed")
	})
	return nil
}

// initMySQL initializes MySQL
func (app *Application) initMySQL() error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		app.config.MySQL.User,
		app.config.MySQL.Password,
		app.config.MySQL.Host,
		app.config.MySQL.Port,
		app.config.MySQL.Database,
	)

	repo, err := mysqlstore.NewRepository(dsn)
	if err != nil {
		return err
	}

	app.mysqlRepo = repo
	app.registerCleanup(func() {
		repo.Close()
		logger.InfoCtx(app.ctx, "MySQL connection has been closed")
	})

	return nil
}

// initRedis initializes Redis
func (app *Application) initRedis() error {
	client, err := redisstore.NewRedisClient(app.config)
	if err != nil {
		return err
	}

	app.redisClient = client
	app.registerCleanup(func() {
		client.Close()
		logger.InfoCtx(app.ctx, "Redis connection has been closed")
	})

	return nil
}

// initServices initializes the service layer
func (app *Application) initServices() error {
	dispatcher := notification.NewManagerNotifier()

	app.assignmentService = service.NewAssignmentService(
		app.mysqlRepo.WorkOrder,
		app.mysqlRepo.Technician,
		app.mysqlRepo.Rule,
		app.mysqlRepo.Queue,
		app.mysqlRepo.AssignmentLog,
		dispatcher,
		app.config.Assignment,
	)
	app.ruleService = service.NewRuleService(app.mysqlRepo.Rule)
	app.auditService = service.NewAuditService(app.mysqlRepo.AssignmentLog, app.mysqlRepo.Queue)

	return nil
}

// initQueueManager initializes the asynq queue manager
func (app *Application) initQueueManager() error {
	if !app.config.Queue.Enabled {
		logger.InfoCtx(app.ctx, "Queue-based invocation disabled, batch runs fire on schedule and on demand only")
		return nil
	}

	manager, err := asynqqueue.NewManager(app.config)
	if err != nil {
		return err
	}

	manager.RegisterBatchRunner(app.assignmentService)
	app.assignmentService.SetBatchEnqueuer(manager)

	app.queueManager = manager
	app.registerCleanup(func() {
		manager.Close()
		logger.InfoCtx(app.ctx, "Queue client has been closed")
	})

	return nil
}

// initHandlers initializes the handler layer
func (app *Application) initHandlers() error {
	app.assignmentHandler = handler.NewAssignmentHandler(app.assignmentService)
	app.ruleHandler = handler.NewRuleHandler(app.ruleService)
	app.auditHandler = handler.NewAuditHandler(app.auditService)
	return nil
}

// initHTTPServer initializes the HTTP server
func (app *Application) initHTTPServer() error {
	// Initialize router
	r := router.NewRouter(app.assignmentHandler, app.ruleHandler, app.auditHandler)

	// Set Gin mode
	gin.SetMode(app.config.Server.Mode)

	// Create Gin engine
	app.ginEngine = gin.New()
	app.ginEngine.Use(gin.Recovery())

	// Setup routes
	r.Setup(app.ginEngine)

	// Create HTTP server
	app.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.ginEngine,
	}

	return nil
}
