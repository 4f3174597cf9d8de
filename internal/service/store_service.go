package service

import (
	"context"
	"errors"

	"im-delivery/internal/model"
	"im-delivery/pkg/logger"
	rcache "im-delivery/pkg/redis"

	"go.uber.org/zap"
)

// CacheTier RAM层契约（Redis实现见 pkg/redis）
// 未命中返回 model.ErrNotFound，其他错误视为瞬时故障
type CacheTier interface {
	SetUser(ctx context.Context, id uint, username string) error
	GetUser(ctx context.Context, id uint) (*rcache.CachedUser, error)
	GetUserByUsername(ctx context.Context, username string) (*rcache.CachedUser, error)
	DeleteUser(ctx context.Context, id uint, username string) error

	AddAddress(ctx context.Context, userID uint, address string) error
	SetAddresses(ctx context.Context, userID uint, addresses []string) error
	GetAddresses(ctx context.Context, userID uint) ([]string, error)
	DeleteAddresses(ctx context.Context, userID uint) error

	SetToken(ctx context.Context, userID uint, token string) error
	GetToken(ctx context.Context, userID uint) (string, error)
	DeleteToken(ctx context.Context, userID uint) error

	SetPublicKey(ctx context.Context, userID uint, publicKey string) error
	GetPublicKey(ctx context.Context, userID uint) (string, error)
	DeletePublicKey(ctx context.Context, userID uint) error
}

// UserStore 持久层用户契约（GORM实现见 internal/repository）
type UserStore interface {
	Create(user *model.User) error
	GetByID(id uint) (*model.User, error)
	GetByUsername(username string) (*model.User, error)
	Delete(userID uint) error
}

// AddressStore 持久层地址契约
type AddressStore interface {
	Store(userID uint, address string) error
	GetByUser(userID uint) ([]string, error)
	DeleteByUser(userID uint) error
}

// CredentialStore 持久层令牌与公钥契约
type CredentialStore interface {
	SaveToken(userID uint, token string) error
	GetToken(userID uint) (string, error)
	DeleteToken(userID uint) error
	SavePublicKey(userID uint, publicKey string) error
	GetPublicKey(userID uint) (string, error)
	DeletePublicKey(userID uint) error
}

// StoreService 两层存储服务
// 读：先查RAM层，命中直接返回；未命中查持久层，命中先回填RAM层再返回
// 写：先写持久层再写RAM层，任一层失败则整体视为未提交
// RAM层永远不是任何数据的唯一持有者，崩溃后可以从持久层完整重建
type StoreService struct {
	cache CacheTier
	users UserStore
	addrs AddressStore
	creds CredentialStore
}

// NewStoreService 创建StoreService实例
func NewStoreService(cache CacheTier, users UserStore, addrs AddressStore, creds CredentialStore) *StoreService {
	return &StoreService{
		cache: cache,
		users: users,
		addrs: addrs,
		creds: creds,
	}
}

// readThrough 统一的读穿透算法，对用户、地址、令牌、公钥一视同仁
// 缓存瞬时故障只记录日志并回源持久层；持久层错误原样上传，
// 永远不会把查询失败折算成"不存在"，也不会缓存否定结果
func readThrough[T any](fromCache func() (T, error), fromDurable func() (T, error), fill func(T) error) (T, error) {
	value, err := fromCache()
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		logger.Warn("缓存层读取失败，回源持久层", zap.Error(err))
	}

	value, err = fromDurable()
	if err != nil {
		var zero T
		return zero, err
	}

	// 回填RAM层，让下一次读取命中缓存；回填失败不影响本次结果
	if ferr := fill(value); ferr != nil {
		logger.Warn("缓存回填失败", zap.Error(ferr))
	}
	return value, nil
}

// GetUser 按ID获取用户
// 缓存命中时只有 (ID, Username) 有值，需要完整记录的调用方应直查持久层
func (s *StoreService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	return readThrough(
		func() (*model.User, error) {
			cached, err := s.cache.GetUser(ctx, id)
			if err != nil {
				return nil, err
			}
			return &model.User{ID: cached.ID, Username: cached.Username}, nil
		},
		func() (*model.User, error) {
			return s.users.GetByID(id)
		},
		func(u *model.User) error {
			return s.cache.SetUser(ctx, u.ID, u.Username)
		},
	)
}

// GetUserByUsername 按用户名获取用户
func (s *StoreService) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return readThrough(
		func() (*model.User, error) {
			cached, err := s.cache.GetUserByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			return &model.User{ID: cached.ID, Username: cached.Username}, nil
		},
		func() (*model.User, error) {
			return s.users.GetByUsername(username)
		},
		func(u *model.User) error {
			return s.cache.SetUser(ctx, u.ID, u.Username)
		},
	)
}

// GetAddresses 获取用户的全部已知地址
// 用户没有地址时返回空切片，不是nil也不是错误
func (s *StoreService) GetAddresses(ctx context.Context, userID uint) ([]string, error) {
	addresses, err := readThrough(
		func() ([]string, error) {
			return s.cache.GetAddresses(ctx, userID)
		},
		func() ([]string, error) {
			return s.addrs.GetByUser(userID)
		},
		func(addrs []string) error {
			return s.cache.SetAddresses(ctx, userID, addrs)
		},
	)
	if err != nil {
		return nil, err
	}
	if addresses == nil {
		addresses = make([]string, 0)
	}
	return addresses, nil
}

// GetToken 获取用户会话令牌
// 不存在时返回 model.ErrNotFound，绝不返回空串
func (s *StoreService) GetToken(ctx context.Context, userID uint) (string, error) {
	return readThrough(
		func() (string, error) {
			return s.cache.GetToken(ctx, userID)
		},
		func() (string, error) {
			return s.creds.GetToken(userID)
		},
		func(token string) error {
			return s.cache.SetToken(ctx, userID, token)
		},
	)
}

// GetPublicKey 获取用户公钥
func (s *StoreService) GetPublicKey(ctx context.Context, userID uint) (string, error) {
	return readThrough(
		func() (string, error) {
			return s.cache.GetPublicKey(ctx, userID)
		},
		func() (string, error) {
			return s.creds.GetPublicKey(userID)
		},
		func(publicKey string) error {
			return s.cache.SetPublicKey(ctx, userID, publicKey)
		},
	)
}

// CreateUser 创建用户：先写持久层（取得ID），再把 (ID, Username) 镜像进RAM层
func (s *StoreService) CreateUser(ctx context.Context, user *model.User) error {
	if err := s.users.Create(user); err != nil {
		return err
	}
	return s.cache.SetUser(ctx, user.ID, user.Username)
}

// StoreUserAddress 登记用户地址（两层写入）
func (s *StoreService) StoreUserAddress(ctx context.Context, userID uint, address string) error {
	if err := s.addrs.Store(userID, address); err != nil {
		return err
	}
	return s.cache.AddAddress(ctx, userID, address)
}

// StoreUserToken 保存用户会话令牌（登录时整体替换）
func (s *StoreService) StoreUserToken(ctx context.Context, userID uint, token string) error {
	if err := s.creds.SaveToken(userID, token); err != nil {
		return err
	}
	return s.cache.SetToken(ctx, userID, token)
}

// StoreUserPublicKey 保存用户公钥（登录时创建或覆盖）
func (s *StoreService) StoreUserPublicKey(ctx context.Context, userID uint, publicKey string) error {
	if err := s.creds.SavePublicKey(userID, publicKey); err != nil {
		return err
	}
	return s.cache.SetPublicKey(ctx, userID, publicKey)
}

// CheckUserToken 校验给定令牌是否为该用户当前有效的会话令牌
// 没有令牌记录时返回false，不报错：空凭证永远不能当成放行
func (s *StoreService) CheckUserToken(ctx context.Context, userID uint, token string) (bool, error) {
	stored, err := s.GetToken(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return token != "" && token == stored, nil
}

// DeleteUserToken 删除用户会话令牌（登出），两层都删，幂等
func (s *StoreService) DeleteUserToken(ctx context.Context, userID uint) error {
	if err := s.creds.DeleteToken(userID); err != nil {
		return err
	}
	return s.cache.DeleteToken(ctx, userID)
}

// DeleteUserPublicKey 删除用户公钥，两层都删，幂等
func (s *StoreService) DeleteUserPublicKey(ctx context.Context, userID uint) error {
	if err := s.creds.DeletePublicKey(userID); err != nil {
		return err
	}
	return s.cache.DeletePublicKey(ctx, userID)
}

// DeleteUser 删除用户及其全部从属数据
// 持久层在单事务内级联删除，随后清理RAM层的全部镜像
func (s *StoreService) DeleteUser(ctx context.Context, userID uint) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.users.Delete(userID); err != nil {
		return err
	}

	// 清理缓存镜像
	if err := s.cache.DeleteToken(ctx, userID); err != nil {
		return err
	}
	if err := s.cache.DeletePublicKey(ctx, userID); err != nil {
		return err
	}
	if err := s.cache.DeleteAddresses(ctx, userID); err != nil {
		return err
	}
	return s.cache.DeleteUser(ctx, userID, user.Username)
}
