package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"studyverse/internal/config"

	"github.com/go-redis/redis/v8"
)

// InitRedis 初始化 Redis
//
// Redis 只用来挡住同一请求的重复提交，不是正确性的依赖：
// 未启用或连不上时返回 nil，服务照常启动。
func InitRedis(cfg *config.RedisConfig) *redis.Client {
	if !cfg.Enabled {
		log.Println("Redis 未启用")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("连接 Redis 失败，继续以无 Redis 模式运行: %v", err)
		_ = client.Close()
		return nil
	}

	log.Println("Redis 连接成功")
	return client
}
