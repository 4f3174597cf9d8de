package consumer

import (
	"context"
	"fmt"

	"im-delivery/pkg/logger"
	"im-delivery/pkg/mq"

	"go.uber.org/zap"
)

// AddressLookup 两层存储的地址查询契约
type AddressLookup interface {
	GetAddresses(ctx context.Context, userID uint) ([]string, error)
}

// Drainer 登录队列消费者
// 收到在线事件后补投该用户的全部离线消息：
// 按发送时间顺序逐条扇出推送，成功一条立即删除一条；
// 失败的留在日志里等待下一次在线事件
type Drainer struct {
	store    AddressLookup
	messages MessageLog
	sender   PushSender
}

// NewDrainer 创建Drainer实例
func NewDrainer(store AddressLookup, messages MessageLog, sender PushSender) *Drainer {
	return &Drainer{store: store, messages: messages, sender: sender}
}

// Handle 处理一条在线事件
func (d *Drainer) Handle(ctx context.Context, task *mq.LoginTask) error {
	logger.Debug("处理在线事件",
		zap.Uint("user_id", task.UserID),
		zap.String("address", task.Address),
	)

	// 待投递消息已按发送时间升序排好
	pending, err := d.messages.GetPendingByReceiver(task.UserID)
	if err != nil {
		return fmt.Errorf("获取离线消息失败: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	addresses, err := d.store.GetAddresses(ctx, task.UserID)
	if err != nil {
		return fmt.Errorf("获取地址列表失败: %w", err)
	}

	// 新地址只在本次补投中追加使用，持久化由接收API负责
	if task.Address != "" && !contains(addresses, task.Address) {
		addresses = append(addresses, task.Address)
	}

	delivered := 0
	for _, row := range pending {
		payload := &mq.MessageBody{
			SenderID:       row.SenderID,
			ReceiverID:     row.ReceiverID,
			SenderUsername: row.SenderUsername,
			Content:        row.Content,
			SendDate:       row.SendDate,
		}
		if !d.sender.SendByList(ctx, addresses, payload) {
			// 留在日志里等待下一次在线事件
			continue
		}

		// 成功一条删一条，避免下一次在线事件重复投递
		if err := d.messages.Delete(row.ID); err != nil {
			return fmt.Errorf("删除已投递消息失败: %w", err)
		}
		delivered++
	}

	logger.Info("离线消息补投完成",
		zap.Uint("user_id", task.UserID),
		zap.Int("pending", len(pending)),
		zap.Int("delivered", delivered),
	)
	return nil
}

func contains(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
