package redis

import (
	"context"
	"encoding/json"
	"fmt"
)

// CachedUser 用户缓存结构
// 只镜像 (ID, Username)，完整记录以持久层为准
type CachedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// SetUser 缓存用户（按ID和用户名双键写入）
func (c *Cache) SetUser(ctx context.Context, id uint, username string) error {
	data, err := json.Marshal(&CachedUser{ID: id, Username: username})
	if err != nil {
		return fmt.Errorf("序列化用户缓存失败: %w", err)
	}

	idKey := fmt.Sprintf("%s%d", UserIDKeyPrefix, id)
	nameKey := UsernameKeyPrefix + username

	pipe := c.client.Pipeline()
	pipe.Set(ctx, idKey, data, CacheTTL)
	pipe.Set(ctx, nameKey, data, CacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入用户缓存失败: %w", err)
	}
	return nil
}

// GetUser 按ID获取用户缓存
func (c *Cache) GetUser(ctx context.Context, id uint) (*CachedUser, error) {
	return c.getUser(ctx, fmt.Sprintf("%s%d", UserIDKeyPrefix, id))
}

// GetUserByUsername 按用户名获取用户缓存
func (c *Cache) GetUserByUsername(ctx context.Context, username string) (*CachedUser, error) {
	return c.getUser(ctx, UsernameKeyPrefix+username)
}

func (c *Cache) getUser(ctx context.Context, key string) (*CachedUser, error) {
	data, err := c.get(ctx, key)
	if err != nil {
		return nil, err
	}

	var user CachedUser
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("反序列化用户缓存失败: %w", err)
	}
	return &user, nil
}

// DeleteUser 删除用户缓存（两个键都删，删除不存在的键不算错误）
func (c *Cache) DeleteUser(ctx context.Context, id uint, username string) error {
	idKey := fmt.Sprintf("%s%d", UserIDKeyPrefix, id)
	nameKey := UsernameKeyPrefix + username
	if err := c.client.Del(ctx, idKey, nameKey).Err(); err != nil {
		return fmt.Errorf("删除用户缓存失败: %w", err)
	}
	return nil
}
