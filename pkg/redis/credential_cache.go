package redis

import (
	"context"
	"fmt"
)

// 令牌与公钥缓存：一个用户一个key，值为原始字符串
// 空字符串永远不会被写入，未命中返回 model.ErrNotFound 而不是 ""

// SetToken 缓存用户会话令牌（整体替换）
func (c *Cache) SetToken(ctx context.Context, userID uint, token string) error {
	key := fmt.Sprintf("%s%d", TokenKeyPrefix, userID)
	if err := c.client.Set(ctx, key, token, CacheTTL).Err(); err != nil {
		return fmt.Errorf("写入令牌缓存失败: %w", err)
	}
	return nil
}

// GetToken 获取用户会话令牌
func (c *Cache) GetToken(ctx context.Context, userID uint) (string, error) {
	return c.get(ctx, fmt.Sprintf("%s%d", TokenKeyPrefix, userID))
}

// DeleteToken 删除用户会话令牌
func (c *Cache) DeleteToken(ctx context.Context, userID uint) error {
	key := fmt.Sprintf("%s%d", TokenKeyPrefix, userID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("删除令牌缓存失败: %w", err)
	}
	return nil
}

// SetPublicKey 缓存用户公钥（登录时覆盖）
func (c *Cache) SetPublicKey(ctx context.Context, userID uint, publicKey string) error {
	key := fmt.Sprintf("%s%d", PublicKeyKeyPrefix, userID)
	if err := c.client.Set(ctx, key, publicKey, CacheTTL).Err(); err != nil {
		return fmt.Errorf("写入公钥缓存失败: %w", err)
	}
	return nil
}

// GetPublicKey 获取用户公钥
func (c *Cache) GetPublicKey(ctx context.Context, userID uint) (string, error) {
	return c.get(ctx, fmt.Sprintf("%s%d", PublicKeyKeyPrefix, userID))
}

// DeletePublicKey 删除用户公钥
func (c *Cache) DeletePublicKey(ctx context.Context, userID uint) error {
	key := fmt.Sprintf("%s%d", PublicKeyKeyPrefix, userID)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("删除公钥缓存失败: %w", err)
	}
	return nil
}
