package consumer

import (
	"context"
	"fmt"

	"im-delivery/internal/model"
	"im-delivery/pkg/logger"
	"im-delivery/pkg/mq"

	"go.uber.org/zap"
)

// PushSender 网络推送契约（HTTP实现见 pkg/sender）
type PushSender interface {
	SendByList(ctx context.Context, addresses []string, payload interface{}) bool
}

// MessageLog 持久化消息日志契约（GORM实现见 internal/repository）
type MessageLog interface {
	Create(message *model.Message) error
	GetPendingByReceiver(receiverID uint) ([]*model.Message, error)
	Delete(messageID uint) error
}

// Dispatcher 消息队列消费者
// 状态机：收到 → 尝试直接投递 → {已投递 | 已落库}
// 对地址列表做扇出推送；全部失败才落库，已投递的消息绝不落库，
// 保证下一次在线事件不会重复投递
type Dispatcher struct {
	sender   PushSender
	messages MessageLog
}

// NewDispatcher 创建Dispatcher实例
func NewDispatcher(sender PushSender, messages MessageLog) *Dispatcher {
	return &Dispatcher{sender: sender, messages: messages}
}

// Handle 处理一条消息队列条目
// 返回nil表示可以ack；落库失败返回错误，由broker重投
func (d *Dispatcher) Handle(ctx context.Context, task *mq.MessageTask) error {
	msg := task.Message
	logger.Debug("处理消息条目",
		zap.Uint("sender_id", msg.SenderID),
		zap.Uint("receiver_id", msg.ReceiverID),
		zap.Int("address_count", len(task.AddressList)),
	)

	// 扇出推送：地址列表由入列方附带，这里不回查存储
	if d.sender.SendByList(ctx, task.AddressList, &msg) {
		return nil
	}

	// 零地址成功：落库等待下一次在线事件
	// 落库成功前绝不ack，消息不会被静默丢弃
	row := &model.Message{
		SenderID:       msg.SenderID,
		ReceiverID:     msg.ReceiverID,
		SenderUsername: msg.SenderUsername,
		Content:        msg.Content,
		SendDate:       msg.SendDate,
	}
	if err := d.messages.Create(row); err != nil {
		return fmt.Errorf("保存离线消息失败: %w", err)
	}

	logger.Info("消息直接投递失败，已落库",
		zap.Uint("receiver_id", msg.ReceiverID),
		zap.Uint("message_id", row.ID),
	)
	return nil
}
