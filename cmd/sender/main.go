package main

import (
	"context"
	"os/signal"
	"sync"
	"syscall"

	"im-delivery/config"
	"im-delivery/internal/consumer"
	"im-delivery/internal/repository"
	"im-delivery/internal/service"
	dbPkg "im-delivery/pkg/db"
	"im-delivery/pkg/logger"
	"im-delivery/pkg/mq"
	rcache "im-delivery/pkg/redis"
	"im-delivery/pkg/sender"

	"go.uber.org/zap"
)

// 投递进程：消费消息队列与登录队列
// 与API进程共用同一套存储与队列配置，各自持有单个长连接
func main() {
	// 1. 加载配置
	cfg := config.LoadConfig()

	// 2. 初始化日志系统
	log := logger.InitLogger(cfg.Log)
	defer log.Sync()

	log.Info("=== 消息投递系统 Sender 启动 ===")

	// 3. 初始化持久层连接（失败即退出）
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

	// 3.1 初始化RAM层连接
	cache, err := rcache.NewCache(cfg.Redis)
	if err != nil {
		log.Fatal("Redis连接失败", zap.Error(err))
	}
	defer cache.Close()
	log.Info("Redis连接成功")

	// 3.2 初始化消息队列连接
	queue, err := mq.NewClient(cfg.RabbitMQ)
	if err != nil {
		log.Fatal("RabbitMQ连接失败", zap.Error(err))
	}
	defer queue.Close()
	log.Info("RabbitMQ连接成功")

	// 3.3 组装消费者（组合根：单实例、显式注入）
	userRepo := repository.NewUserRepository(gormDB)
	addrRepo := repository.NewAddressRepository(gormDB)
	credRepo := repository.NewCredentialRepository(gormDB)
	messageRepo := repository.NewMessageRepository(gormDB)
	storeSvc := service.NewStoreService(cache, userRepo, addrRepo, credRepo)
	push := sender.NewSender(cfg.Sender)
	dispatcher := consumer.NewDispatcher(push, messageRepo)
	drainer := consumer.NewDrainer(storeSvc, messageRepo, push)

	// 4. 启动两个消费循环，收到退出信号后等在途条目ack完成再关连接
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := queue.ConsumeMessages(ctx, dispatcher.Handle); err != nil && ctx.Err() == nil {
			log.Error("消息队列消费退出", zap.Error(err))
		}
	}()

	go func() {
		defer wg.Done()
		if err := queue.ConsumeLogins(ctx, drainer.Handle); err != nil && ctx.Err() == nil {
			log.Error("登录队列消费退出", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("正在关闭Sender...")
	wg.Wait()

	log.Info("Sender已安全关闭")
}
