package service

import (
	"context"
	"errors"
	"time"

	"im-delivery/internal/model"
	"im-delivery/pkg/logger"
	"im-delivery/pkg/mq"

	"go.uber.org/zap"
)

// MessageService 消息接收服务（入列边界）
// 把接收者当前的地址列表查好附在队列条目里，然后发布即返回；
// 真正的投递由消费端进程完成，接收路径不被慢网络拖住
type MessageService struct {
	store *StoreService
	queue QueuePublisher
}

// NewMessageService 创建MessageService实例
func NewMessageService(store *StoreService, queue QueuePublisher) *MessageService {
	return &MessageService{store: store, queue: queue}
}

// EnqueueMessage 接收一条出站消息并发布到消息队列
func (s *MessageService) EnqueueMessage(ctx context.Context, senderID, receiverID uint, senderUsername, content string, sendDate time.Time) error {
	// 发送者和接收者都必须存在
	if _, err := s.store.GetUser(ctx, senderID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return errors.New("sender not found")
		}
		return err
	}
	if _, err := s.store.GetUser(ctx, receiverID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return errors.New("receiver not found")
		}
		return err
	}

	// 地址列表在入列时解析，消费端不再回查存储
	addresses, err := s.store.GetAddresses(ctx, receiverID)
	if err != nil {
		return err
	}

	task := &mq.MessageTask{
		AddressList: addresses,
		Message: mq.MessageBody{
			SenderID:       senderID,
			ReceiverID:     receiverID,
			SenderUsername: senderUsername,
			Content:        content,
			SendDate:       sendDate,
		},
	}
	if err := s.queue.PublishMessage(ctx, task); err != nil {
		return err
	}

	logger.Debug("消息已发布到队列",
		zap.Uint("sender_id", senderID),
		zap.Uint("receiver_id", receiverID),
		zap.Int("address_count", len(addresses)),
	)
	return nil
}
