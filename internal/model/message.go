package model

import (
	"time"
)

// Message 离线消息模型（持久化消息日志）
// 只有直接投递全部失败的消息才会落库
// 投递成功后立即物理删除，不做软删除
// SenderUsername 为投递载荷冗余字段，避免投递时回查用户表

type Message struct {
	ID             uint      `gorm:"primaryKey"`
	SenderID       uint      `gorm:"not null;index;comment:发送者ID"`
	ReceiverID     uint      `gorm:"not null;index;comment:接收者ID"`
	SenderUsername string    `gorm:"type:varchar(64);not null;comment:发送者用户名"`
	Content        string    `gorm:"type:text;not null;comment:消息内容"`
	SendDate       time.Time `gorm:"not null;index;comment:发送时间"`
	CreatedAt      time.Time `gorm:"comment:入库时间"`
}

func (Message) TableName() string { return "message" }
