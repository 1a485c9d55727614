package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"studyverse/internal/auth"
	"studyverse/internal/config"
	"studyverse/internal/handler"
	"studyverse/internal/infrastructure/cache"
	"studyverse/internal/infrastructure/database"
	"studyverse/internal/infrastructure/mq"
	"studyverse/internal/infrastructure/storage"
	"studyverse/internal/job"
	"studyverse/internal/ledger"
	"studyverse/internal/repository"
	"studyverse/pkg/idgen"
)

func main() {
	// 加载配置
	cfg := config.LoadConfig("config/config.yaml")

	// 初始化 ID 生成器
	if err := idgen.Init(1); err != nil {
		log.Fatalf("初始化 ID 生成器失败: %v", err)
	}

	// 初始化 MySQL（含表结构迁移）
	db := database.InitMySQL(&cfg.MySQL)

	// 初始化 Redis，不可用时为 nil
	redisClient := cache.InitRedis(&cfg.Redis)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// 初始化 Kafka，未启用时为 nil
	producer := mq.InitKafka(&cfg.Kafka)
	defer producer.Close()

	maxUpload := cfg.Server.MaxUploadMB << 20
	docs, err := storage.NewLocalStorage(filepath.Join(cfg.Server.UploadDir, "notes"), "/files/notes", maxUpload)
	if err != nil {
		log.Fatalf("初始化笔记目录失败: %v", err)
	}
	images, err := storage.NewLocalStorage(filepath.Join(cfg.Server.UploadDir, "previews"), "/uploads", maxUpload)
	if err != nil {
		log.Fatalf("初始化预览图目录失败: %v", err)
	}

	l := ledger.New(repository.NewLedgerStore(db, cfg.Kafka.Topic.PurchaseEvents), idgen.GenerateTransactionNo)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpireHours)*time.Hour)

	// 创建上下文（用于优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 启动后台任务
	if producer != nil {
		outboxSender := job.NewOutboxSender(db, producer, cfg.Business.MaxRetryCount)
		go outboxSender.Start(ctx)
	}

	if cfg.Business.RatingReconcileSeconds > 0 {
		interval := time.Duration(cfg.Business.RatingReconcileSeconds) * time.Second
		reconcileJob := job.NewRatingReconcileJob(db, l, interval)
		go reconcileJob.Start(ctx)
	}

	// 设置路由
	h := handler.NewHandler(db, l, redisClient, docs, images, tokens, cfg)
	router := handler.SetupRouter(h, tokens, images.Dir(), cfg.Server.MaxUploadMB)

	// 启动 HTTP 服务
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// 在 goroutine 中启动服务器
	go func() {
		log.Printf("服务启动，监听端口: %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭服务...")

	// 取消上下文，停止后台任务
	cancel()

	// 关闭 HTTP 服务（等待最多5秒）
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("服务关闭异常: %v", err)
	}

	log.Println("服务已关闭")
}
