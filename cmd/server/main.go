package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/project-lifecycle-api/internal/config"
	"github.com/yukikurage/project-lifecycle-api/internal/constants"
	"github.com/yukikurage/project-lifecycle-api/internal/database"
	"github.com/yukikurage/project-lifecycle-api/internal/handlers"
	"github.com/yukikurage/project-lifecycle-api/internal/logger"
	"github.com/yukikurage/project-lifecycle-api/internal/mail"
	"github.com/yukikurage/project-lifecycle-api/internal/middleware"
	"github.com/yukikurage/project-lifecycle-api/internal/repository"
	"github.com/yukikurage/project-lifecycle-api/internal/scheduler"
	"github.com/yukikurage/project-lifecycle-api/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zl.Sync()

	gin.SetMode(cfg.Server.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, zl)
	if err != nil {
		zl.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(db, zl); err != nil {
		zl.Fatal("Failed to run migrations", zap.Error(err))
	}

	clock := services.SystemClock{}
	locks := services.NewProjectLocks()

	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	notificationOpts := []services.NotificationOption{
		services.WithDedupWindow(cfg.Notification.DedupWindow),
	}
	if cfg.Mail.Workers > 0 {
		pool, err := ants.NewPool(cfg.Mail.Workers)
		if err != nil {
			zl.Fatal("Failed to create delivery pool", zap.Error(err))
		}
		notificationOpts = append(notificationOpts, services.WithDeliveryPool(pool))
	}

	mailer := mail.New(cfg.Mail, zl)
	notificationService := services.NewNotificationService(notificationRepo, userRepo, mailer, clock, zl, notificationOpts...)
	defer func() {
		if err := notificationService.Drain(cfg.Mail.DrainTimeout); err != nil {
			zl.Warn("Delivery pool did not drain before shutdown", zap.Error(err))
		}
	}()
	engine := services.NewConsistencyEngine(projectRepo, taskRepo, clock, zl)

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAI.APIKey != "" {
		aiService = services.NewAIService(cfg.OpenAI.APIKey, clock)
	}

	authService := services.NewAuthService(userRepo)
	userService := services.NewUserService(userRepo, notificationService)
	projectService := services.NewProjectService(projectRepo, taskRepo, userRepo, engine, notificationService, locks, clock, zl)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, engine, notificationService, locks, clock, aiService, zl)

	// Start background sweeps
	if cfg.Scheduler.Enabled {
		sweeper := scheduler.NewSweeper(taskRepo, notificationService, clock, cfg.Scheduler.DueSoonHorizon, zl)
		manager, err := scheduler.NewManager(sweeper, cfg.Scheduler, zl)
		if err != nil {
			zl.Fatal("Failed to create scheduler", zap.Error(err))
		}
		if err := manager.Start(); err != nil {
			zl.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer manager.Stop()
	}

	// Setup session middleware with Redis
	redisAddr := cfg.Redis.Host + ":" + cfg.Redis.Port
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.Session.Secret),
	)
	if err != nil {
		zl.Fatal("Failed to create Redis store", zap.Error(err))
	}
	isProduction := cfg.Server.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(zl))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	setupRoutes(r, routeHandlers{
		users:        userRepo,
		auth:         handlers.NewAuthHandler(authService),
		user:         handlers.NewUserHandler(userService),
		project:      handlers.NewProjectHandler(projectService),
		task:         handlers.NewTaskHandler(taskService),
		notification: handlers.NewNotificationHandler(notificationService),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		zl.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("Server forced to shutdown", zap.Error(err))
	}
}

type routeHandlers struct {
	users        repository.UserRepository
	auth         *handlers.AuthHandler
	user         *handlers.UserHandler
	project      *handlers.ProjectHandler
	task         *handlers.TaskHandler
	notification *handlers.NotificationHandler
}

func setupRoutes(r *gin.Engine, h routeHandlers) {
	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Project Lifecycle API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.RequireAuth(h.users)
	idParam := middleware.RequireIDParams("id")
	milestoneParams := middleware.RequireIDParams("id", "milestone_id")
	memberParams := middleware.RequireIDParams("id", "user_id")

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", h.auth.Signup)
			auth.POST("/login", h.auth.Login)
			auth.POST("/logout", h.auth.Logout)
			auth.GET("/me", requireAuth, h.auth.GetCurrentUser)
		}

		users := api.Group("/users")
		users.Use(requireAuth)
		{
			users.PUT("/:id/department", idParam, h.user.AssignDepartment)
		}

		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.POST("", h.project.CreateProject)
			projects.GET("", h.project.ListProjects)
			projects.GET("/:id", idParam, h.project.GetProject)
			projects.DELETE("/:id", idParam, h.project.DeleteProject)
			projects.POST("/:id/complete", idParam, h.project.CompleteProject)
			projects.POST("/:id/register", idParam, h.project.Register)
			projects.POST("/:id/members/:user_id/approve", memberParams, h.project.ApproveMember)
			projects.POST("/:id/members/:user_id/reject", memberParams, h.project.RejectMember)
			projects.POST("/:id/milestones", idParam, h.project.CreateMilestone)
			projects.PATCH("/:id/milestones/:milestone_id", milestoneParams, h.project.UpdateMilestone)
			projects.DELETE("/:id/milestones/:milestone_id", milestoneParams, h.project.DeleteMilestone)
			projects.POST("/:id/milestones/:milestone_id/complete", milestoneParams, h.project.CompleteMilestone)
			projects.POST("/:id/milestones/:milestone_id/recheck", milestoneParams, h.project.RecheckMilestone)
			projects.POST("/:id/documents", idParam, h.project.AddDocument)
			projects.POST("/:id/tasks/generate", idParam, h.task.GenerateTasks)
		}

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", h.task.ListTasks)
			tasks.POST("", h.task.CreateTask)
			tasks.GET("/:id", idParam, h.task.GetTask)
			tasks.PATCH("/:id", idParam, h.task.UpdateTask)
			tasks.DELETE("/:id", idParam, h.task.DeleteTask)
			tasks.POST("/:id/comments", idParam, h.task.AddComment)
		}

		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", h.notification.ListNotifications)
			notifications.GET("/unread-count", h.notification.UnreadCount)
			notifications.POST("/read-all", h.notification.MarkAllRead)
			notifications.DELETE("", h.notification.DeleteAllNotifications)
			notifications.POST("/:id/read", idParam, h.notification.MarkRead)
			notifications.DELETE("/:id", idParam, h.notification.DeleteNotification)
		}
	}
}
