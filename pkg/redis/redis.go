package redis

import (
	"context"
	"fmt"
	"time"

	"im-delivery/config"
	"im-delivery/internal/model"

	"github.com/redis/go-redis/v9"
)

// Cache RAM层缓存
// 只镜像持久层已有的数据，任何键丢失都可以从持久层重建
// 未命中统一返回 model.ErrNotFound，与连接类错误严格区分

type Cache struct {
	client *redis.Client
}

// 缓存键前缀与TTL
const (
	UserIDKeyPrefix    = "im:user:id:"   // 用户缓存key前缀（按ID）
	UsernameKeyPrefix  = "im:user:name:" // 用户缓存key前缀（按用户名）
	AddressKeyPrefix   = "im:addr:"      // 地址集合key前缀
	TokenKeyPrefix     = "im:token:"     // 会话令牌key前缀
	PublicKeyKeyPrefix = "im:pubkey:"    // 公钥key前缀

	CacheTTL = 24 * time.Hour // 缓存过期时间
)

// NewCache 初始化Redis连接
func NewCache(cfg config.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		// 连接池配置
		PoolSize:     10,              // 连接池大小
		MinIdleConns: 5,               // 最小空闲连接
		MaxRetries:   3,               // 最大重试次数
		DialTimeout:  5 * time.Second, // 连接超时
		ReadTimeout:  3 * time.Second, // 读超时
		WriteTimeout: 3 * time.Second, // 写超时
	})

	// 测试连接
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("redis连接失败: %w", err)
	}

	return &Cache{client: client}, nil
}

// HealthCheck 检查Redis健康状态
func (c *Cache) HealthCheck(ctx context.Context) error {
	if _, err := c.client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("redis连接异常: %w", err)
	}
	return nil
}

// Close 关闭Redis连接
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// get 获取字符串值，键不存在时返回 model.ErrNotFound
func (c *Cache) get(ctx context.Context, key string) (string, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", model.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}
