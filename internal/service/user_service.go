package service

import (
	"context"
	"errors"
	"strings"

	"im-delivery/internal/model"
	"im-delivery/pkg/jwt"
	"im-delivery/pkg/mq"
	"im-delivery/pkg/password"
)

// QueuePublisher 投递队列的发布端契约（RabbitMQ实现见 pkg/mq）
// 发布即返回，不等待投递完成
type QueuePublisher interface {
	PublishMessage(ctx context.Context, task *mq.MessageTask) error
	PublishLogin(ctx context.Context, task *mq.LoginTask) error
}

// UserService 用户服务：注册、登录、登出、查询、删除
type UserService struct {
	store      *StoreService
	users      UserStore // 凭证校验需要完整用户记录，直查持久层
	jwtService *jwt.JWTService
	queue      QueuePublisher
}

// NewUserService 创建UserService实例
func NewUserService(store *StoreService, users UserStore, jwtService *jwt.JWTService, queue QueuePublisher) *UserService {
	return &UserService{
		store:      store,
		users:      users,
		jwtService: jwtService,
		queue:      queue,
	}
}

// Register 注册新用户
func (s *UserService) Register(ctx context.Context, username, phoneNumber, plainPassword string) (uint, error) {
	username = strings.TrimSpace(username)
	phoneNumber = strings.TrimSpace(phoneNumber)
	if username == "" || phoneNumber == "" || plainPassword == "" {
		return 0, errors.New("username, phone_number and password are required")
	}

	// 用户名唯一
	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return 0, errors.New("user already exists")
	} else if !errors.Is(err, model.ErrNotFound) {
		return 0, err
	}

	// 密码哈希
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return 0, err
	}

	user := &model.User{
		Username:     username,
		PhoneNumber:  phoneNumber,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return 0, err
	}
	return user.ID, nil
}

// Login 登录
// 校验凭证后：签发新令牌（整体替换旧令牌）、保存公钥、登记本次地址，
// 最后把在线事件发布到登录队列，触发离线消息补投
func (s *UserService) Login(ctx context.Context, username, plainPassword, address, publicKey string) (*model.User, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || plainPassword == "" {
		return nil, "", errors.New("username and password are required")
	}

	u, err := s.users.GetByUsername(username)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, "", errors.New("invalid credentials")
		}
		return nil, "", err
	}
	if !password.Verify(plainPassword, u.PasswordHash) {
		return nil, "", errors.New("invalid credentials")
	}

	token, err := s.jwtService.GenerateToken(u.ID, u.Username, jwt.DefaultRole)
	if err != nil {
		return nil, "", err
	}

	// 会话状态写入两层存储
	if err := s.store.StoreUserToken(ctx, u.ID, token); err != nil {
		return nil, "", err
	}
	if publicKey != "" {
		if err := s.store.StoreUserPublicKey(ctx, u.ID, publicKey); err != nil {
			return nil, "", err
		}
	}
	if address != "" {
		if err := s.store.StoreUserAddress(ctx, u.ID, address); err != nil {
			return nil, "", err
		}

		// 在线事件：补投该用户的离线消息
		if err := s.queue.PublishLogin(ctx, &mq.LoginTask{UserID: u.ID, Address: address}); err != nil {
			return nil, "", err
		}
	}

	return u, token, nil
}

// Logout 登出：两层都删除会话令牌
func (s *UserService) Logout(ctx context.Context, userID uint) error {
	return s.store.DeleteUserToken(ctx, userID)
}

// Lookup 按用户名查询用户ID和公钥
func (s *UserService) Lookup(ctx context.Context, username string) (uint, string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return 0, "", err
	}

	publicKey, err := s.store.GetPublicKey(ctx, user.ID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return 0, "", err
	}
	return user.ID, publicKey, nil
}

// Delete 删除用户及其全部从属数据
func (s *UserService) Delete(ctx context.Context, userID uint) error {
	return s.store.DeleteUser(ctx, userID)
}
