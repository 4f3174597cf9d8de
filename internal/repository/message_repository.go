package repository

import (
	"im-delivery/internal/model"

	"gorm.io/gorm"
)

// MessageRepository 离线消息数据仓储（持久化消息日志）
type MessageRepository struct {
	db *gorm.DB
}

// NewMessageRepository 创建MessageRepository实例
func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create 保存一条待投递消息
func (r *MessageRepository) Create(message *model.Message) error {
	return r.db.Create(message).Error
}

// GetPendingByReceiver 获取某个接收者的全部待投递消息
// 按发送时间升序，保证补投时维持单发送者的会话顺序
func (r *MessageRepository) GetPendingByReceiver(receiverID uint) ([]*model.Message, error) {
	var messages []*model.Message
	err := r.db.Where("receiver_id = ?", receiverID).
		Order("send_date ASC").
		Find(&messages).Error
	return messages, err
}

// Delete 删除一条消息（投递成功后逐条删除）
func (r *MessageRepository) Delete(messageID uint) error {
	return r.db.Delete(&model.Message{}, messageID).Error
}

// DeleteByReceiver 删除某个接收者的全部待投递消息（删除用户时级联）
func (r *MessageRepository) DeleteByReceiver(receiverID uint) error {
	return r.db.Where("receiver_id = ?", receiverID).Delete(&model.Message{}).Error
}
