package server

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "taskboard/docs"
	"taskboard/internal/access"
	"taskboard/internal/config"
	"taskboard/internal/db"
	"taskboard/internal/handler"
	"taskboard/internal/middleware"
	"taskboard/internal/mutation"
	"taskboard/internal/realtime"
	"taskboard/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	engine *gin.Engine
}

// Init connects the stores, builds the dependency graph and mounts all
// routes.
func Init(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	database, err := db.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database, logger); err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))

	userRepo := repository.NewUserRepository(database)
	boardRepo := repository.NewBoardRepository(database)
	memberRepo := repository.NewMemberRepository(database)
	invitationRepo := repository.NewInvitationRepository(database)
	listRepo := repository.NewListRepository(database)
	cardRepo := repository.NewCardRepository(database)
	activityRepo := repository.NewActivityRepository(database)
	notificationRepo := repository.NewNotificationRepository(database)
	templateRepo := repository.NewTemplateRepository(database)
	searchRepo := repository.NewSearchRepository(database)

	guard := access.NewGuard(boardRepo, memberRepo)
	mutLog := mutation.NewLog(rdb, cfg.MutationRetention, logger)
	hub := realtime.NewHub(logger)
	gateway := realtime.NewGateway(hub, guard, mutLog, userRepo, logger)

	sync := &handler.BoardSync{
		Locker:   mutation.NewBoardLocker(),
		Log:      mutLog,
		Relay:    hub,
		Activity: activityRepo,
		Logger:   logger,
	}

	userHandler := handler.NewUserHandler(userRepo)
	boardHandler := handler.NewBoardHandler(boardRepo, listRepo, memberRepo, guard, sync)
	memberHandler := handler.NewMemberHandler(boardRepo, userRepo, memberRepo, invitationRepo, notificationRepo, guard, sync)
	listHandler := handler.NewListHandler(listRepo, guard, sync)
	cardHandler := handler.NewCardHandler(cardRepo, listRepo, guard, sync)
	activityHandler := handler.NewActivityHandler(activityRepo, guard)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	templateHandler := handler.NewTemplateHandler(templateRepo, boardRepo, listRepo, memberRepo, sync)
	searchHandler := handler.NewSearchHandler(searchRepo)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.LoggerMiddleware(logger))
	engine.Use(middleware.CORSMiddleware())

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.POST("/register", userHandler.Register)
	engine.POST("/login", userHandler.Login)

	authorized := engine.Group("/")
	authorized.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	{
		authorized.GET("/me", userHandler.Me)
		authorized.GET("/ws", gateway.ServeWS(middleware.UserIDKey))

		authorized.POST("/boards", boardHandler.Create)
		authorized.GET("/boards", boardHandler.GetAll)
		authorized.GET("/boards/:id", boardHandler.GetByID)
		authorized.PUT("/boards/:id", boardHandler.Update)
		authorized.DELETE("/boards/:id", boardHandler.Delete)
		authorized.GET("/boards/:id/mutations", boardHandler.Mutations)

		authorized.GET("/boards/:id/members", memberHandler.ListMembers)
		authorized.PUT("/boards/:id/members/:userID", memberHandler.UpdateRole)
		authorized.DELETE("/boards/:id/members/:userID", memberHandler.RemoveMember)
		authorized.POST("/boards/:id/invitations", memberHandler.Invite)
		authorized.GET("/boards/:id/invitations", memberHandler.ListInvitations)
		authorized.DELETE("/boards/:id/invitations/:invitationID", memberHandler.CancelInvitation)
		authorized.POST("/invitations/:token/accept", memberHandler.AcceptInvitation)
		authorized.POST("/invitations/:token/decline", memberHandler.DeclineInvitation)

		authorized.POST("/boards/:id/lists", listHandler.Create)
		authorized.GET("/boards/:id/lists", listHandler.GetByBoard)
		authorized.PUT("/lists/:id", listHandler.Update)
		authorized.PUT("/lists/:id/move", listHandler.Move)
		authorized.DELETE("/lists/:id", listHandler.Delete)

		authorized.POST("/lists/:id/cards", cardHandler.Create)
		authorized.GET("/lists/:id/cards", cardHandler.GetByList)
		authorized.GET("/cards/:id", cardHandler.GetByID)
		authorized.PUT("/cards/:id", cardHandler.Update)
		authorized.PUT("/cards/:id/move", cardHandler.Move)
		authorized.DELETE("/cards/:id", cardHandler.Delete)

		authorized.GET("/boards/:id/activity", activityHandler.ListByBoard)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		authorized.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		authorized.PUT("/notifications/read-all", notificationHandler.MarkAllRead)

		authorized.GET("/templates", templateHandler.List)
		authorized.POST("/templates", templateHandler.Create)
		authorized.DELETE("/templates/:id", templateHandler.Delete)
		authorized.POST("/templates/:id/instantiate", templateHandler.Instantiate)

		authorized.GET("/search", searchHandler.Search)
	}

	return &Server{cfg: cfg, logger: logger, engine: engine}, nil
}

// Run serves until SIGINT/SIGTERM, then drains in-flight requests.
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:    ":" + s.cfg.ServerPort,
		Handler: s.engine,
	}

	go func() {
		s.logger.Info("Server listening", zap.String("port", s.cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	s.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
