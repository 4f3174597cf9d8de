package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"im-delivery/config"
	"im-delivery/internal/handler"
	"im-delivery/internal/model"
	"im-delivery/internal/repository"
	"im-delivery/internal/service"
	dbPkg "im-delivery/pkg/db"
	"im-delivery/pkg/jwt"
	"im-delivery/pkg/logger"
	"im-delivery/pkg/mq"
	rcache "im-delivery/pkg/redis"
	"im-delivery/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	cfg := config.LoadConfig()

	// 2. 初始化日志系统
	log := logger.InitLogger(cfg.Log)
	defer log.Sync()

	log.Info("=== 消息投递系统 API 启动 ===")
	log.Info("服务器配置信息",
		zap.String("port", cfg.Server.Port),
		zap.String("database_host", cfg.Database.Host),
		zap.Int("database_port", cfg.Database.Port),
		zap.String("database_name", cfg.Database.Database),
		zap.String("mq_exchange", cfg.RabbitMQ.Exchange),
		zap.Duration("jwt_expire_time", cfg.JWT.ExpireTime),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 初始化持久层连接（失败即退出，不在持久层不可达时对外服务）
	gormDB, err := dbPkg.InitDB(cfg.Database)
	if err != nil {
		log.Fatal("数据库连接失败", zap.Error(err))
	}
	defer func() {
		if err := dbPkg.CloseDB(); err != nil {
			log.Error("关闭数据库连接失败", zap.Error(err))
		}
	}()
	log.Info("数据库连接成功")

	// 3.1 自动迁移表结构
	if err := dbPkg.AutoMigrate(
		&model.User{},
		&model.Address{},
		&model.UserAddress{},
		&model.Token{},
		&model.PublicKey{},
		&model.Message{},
	); err != nil {
		log.Fatal("自动迁移失败", zap.Error(err))
	}
	log.Info("自动迁移完成")

	// 3.2 初始化RAM层连接
	cache, err := rcache.NewCache(cfg.Redis)
	if err != nil {
		log.Fatal("Redis连接失败", zap.Error(err))
	}
	defer cache.Close()
	log.Info("Redis连接成功")

	// 3.3 初始化消息队列连接
	queue, err := mq.NewClient(cfg.RabbitMQ)
	if err != nil {
		log.Fatal("RabbitMQ连接失败", zap.Error(err))
	}
	defer queue.Close()
	log.Info("RabbitMQ连接成功")

	// 3.4 组装业务服务（组合根：单实例、显式注入）
	jwtSvc := jwt.NewJWTService(cfg.JWT)
	userRepo := repository.NewUserRepository(gormDB)
	addrRepo := repository.NewAddressRepository(gormDB)
	credRepo := repository.NewCredentialRepository(gormDB)
	storeSvc := service.NewStoreService(cache, userRepo, addrRepo, credRepo)
	userSvc := service.NewUserService(storeSvc, userRepo, jwtSvc, queue)
	messageSvc := service.NewMessageService(storeSvc, queue)
	userHandler := handler.NewUserHandler(userSvc)
	authHandler := handler.NewAuthHandler(userSvc)
	messageHandler := handler.NewMessageHandler(messageSvc)

	// 4. 设置Gin模式
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 5. 创建Gin路由
	router := gin.New()

	// 使用中间件
	router.Use(logger.LoggerMiddleware())      // 自定义日志中间件
	router.Use(logger.ErrorLoggerMiddleware()) // 错误日志中间件

	// 6. 健康检查
	router.GET("/health", func(c *gin.Context) {
		status := "ok"
		if err := dbPkg.HealthCheck(); err != nil {
			status = "db-down"
		} else if err := cache.HealthCheck(c.Request.Context()); err != nil {
			status = "redis-down"
		} else if err := queue.HealthCheck(); err != nil {
			status = "mq-down"
		}
		response.Success(c, gin.H{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// 6.1 绑定业务路由
	v1 := router.Group("/api/v1")
	{
		users := v1.Group("/users")
		{
			// 公开接口（无需认证）
			users.POST("/register", userHandler.Register)

			// 需要认证的接口
			authUsers := users.Group("")
			authUsers.Use(jwtSvc.AuthMiddleware(), handler.SessionMiddleware(storeSvc))
			{
				authUsers.GET("", userHandler.Lookup)
				authUsers.DELETE("", userHandler.Delete)
			}
		}

		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)

			authProtected := auth.Group("")
			authProtected.Use(jwtSvc.AuthMiddleware(), handler.SessionMiddleware(storeSvc))
			{
				authProtected.POST("/logout", authHandler.Logout)
			}
		}

		// 消息接收（需要认证）
		messages := v1.Group("/messages")
		messages.Use(jwtSvc.AuthMiddleware(), handler.SessionMiddleware(storeSvc))
		{
			messages.POST("/send", messageHandler.Send)
		}
	}

	// 7. 创建HTTP服务器
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 8. 启动HTTP服务器
	go func() {
		log.Info("HTTP服务器启动", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP服务器启动失败", zap.Error(err))
		}
	}()

	// 9. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务器...")

	// 设置关闭超时
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 关闭HTTP服务器
	if err := server.Shutdown(ctx); err != nil {
		log.Error("HTTP服务器关闭失败", zap.Error(err))
	}

	log.Info("服务器已安全关闭")
}
