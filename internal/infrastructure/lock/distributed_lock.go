package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ============================================================================
// 分布式锁实现
// ============================================================================
//
// 【用在哪里？】
//
// 场景：学生连点两次"购买"，或者网络抖动导致客户端重发。
//
// 数据库层已经能保证正确：买家账户行 FOR UPDATE + 权益表唯一索引，
// 第二个请求最终会拿到"已拥有"。但它仍然要开事务、锁账户行、做一遍扣款再回滚。
//
// 在进入事务前按 (买家, 商品) 加一把 Redis 锁：
//   请求1: 获取锁 -> 事务成功 -> 释放锁
//   请求2: 等待锁 -> 获取锁 -> 已拥有检查命中 -> 直接返回，不碰账户行
//
// 锁只是前置的削峰手段，Redis 不可用时直接跳过。
//
// 【Redis 分布式锁原理】
//
// 加锁：SET key value NX EX timeout
//   - NX: 只有 key 不存在时才设置（保证互斥）
//   - EX: 设置过期时间（防止死锁）
//   - value: 锁持有者标识（释放时验证，防止误删别人的锁）
//
// 释放锁：使用 Lua 脚本保证原子性
//
// ============================================================================

var ErrLockFailed = errors.New("获取分布式锁失败")

// UnlockScript 检查 value 是否匹配，匹配则删除
const UnlockScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`

// DistributedLock 分布式锁
type DistributedLock struct {
	client     *redis.Client
	key        string        // 锁的 key
	value      string        // 锁的 value（用于验证锁的持有者）
	expiration time.Duration // 锁的过期时间
}

// NewDistributedLock 创建分布式锁
func NewDistributedLock(client *redis.Client, key, value string, expiration time.Duration) *DistributedLock {
	return &DistributedLock{
		client:     client,
		key:        key,
		value:      value,
		expiration: expiration,
	}
}

// Key 锁的 key
func (l *DistributedLock) Key() string {
	return l.key
}

// TryLock 尝试获取锁（非阻塞）
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.value, l.expiration).Result()
}

// Lock 阻塞式获取锁（带重试）
func (l *DistributedLock) Lock(ctx context.Context, retryInterval time.Duration, maxRetries int) error {
	for i := 0; i < maxRetries; i++ {
		success, err := l.TryLock(ctx)
		if err != nil {
			return err
		}
		if success {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	return ErrLockFailed
}

// Unlock 释放锁
//
// 【关键点】检查 value 再删除：
// A 持锁超时、锁自动过期、B 拿到锁，此时 A 的 Unlock 不能删掉 B 的锁。
func (l *DistributedLock) Unlock(ctx context.Context) error {
	return l.client.Eval(ctx, UnlockScript, []string{l.key}, l.value).Err()
}

// NewPurchaseLock 创建购买锁（按 买家+商品 维度）
//
// 不同商品之间不互斥：同一买家并发买两件商品，由数据库行锁排队。
func NewPurchaseLock(client *redis.Client, buyerID int64, itemType string, itemID int64, token string, ttl time.Duration) *DistributedLock {
	key := fmt.Sprintf("purchase:lock:%s:%d:user:%d", itemType, itemID, buyerID)
	return NewDistributedLock(client, key, token, ttl)
}
