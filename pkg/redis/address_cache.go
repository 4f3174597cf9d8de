package redis

import (
	"context"
	"fmt"

	"im-delivery/internal/model"
)

// 地址缓存使用Redis集合，一个用户一个key，成员为地址字符串

// AddAddress 向用户地址集合追加一个地址
func (c *Cache) AddAddress(ctx context.Context, userID uint, address string) error {
	key := fmt.Sprintf("%s%d", AddressKeyPrefix, userID)

	pipe := c.client.Pipeline()
	pipe.SAdd(ctx, key, address)
	pipe.Expire(ctx, key, CacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入地址缓存失败: %w", err)
	}
	return nil
}

// SetAddresses 整体写入用户地址集合（读穿透回填用）
func (c *Cache) SetAddresses(ctx context.Context, userID uint, addresses []string) error {
	if len(addresses) == 0 {
		return nil
	}
	key := fmt.Sprintf("%s%d", AddressKeyPrefix, userID)

	members := make([]interface{}, 0, len(addresses))
	for _, addr := range addresses {
		members = append(members, addr)
	}

	pipe := c.client.Pipeline()
	pipe.SAdd(ctx, key, members...)
	pipe.Expire(ctx, key, CacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入地址缓存失败: %w", err)
	}
	return nil
}

// GetAddresses 获取用户地址集合
// 集合为空或key不存在时返回 model.ErrNotFound（由上层回查持久层）
func (c *Cache) GetAddresses(ctx context.Context, userID uint) ([]string, error) {
	key := fmt.Sprintf("%s%d", AddressKeyPrefix, userID)

	addresses, err := c.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("获取地址缓存失败: %w", err)
	}
	if len(addresses) == 0 {
		return nil, model.ErrNotFound
	}
	return addresses, nil
}

// DeleteAddresses 删除用户地址集合
func (c *Cache) DeleteAddresses(ctx context.Context, userID uint) error {
	key := fmt.Sprintf("%s%d", AddressKeyPrefix, userID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("删除地址缓存失败: %w", err)
	}
	return nil
}
