package mq

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageBody 消息投递载荷
// SenderUsername 冗余自用户表，投递端无需回查
type MessageBody struct {
	SenderID       uint      `json:"sender_id"`
	ReceiverID     uint      `json:"receiver_id"`
	SenderUsername string    `json:"sender_username"`
	Content        string    `json:"message"`
	SendDate       time.Time `json:"send_date"`
}

// MessageTask 消息队列条目
// 地址列表由入列方（接收API）查好后附带，消费端不再回查存储
type MessageTask struct {
	AddressList []string    `json:"address_list"`
	Message     MessageBody `json:"msg_json"`
}

// LoginTask 登录队列条目（在线事件）
type LoginTask struct {
	UserID  uint   `json:"user_id"`
	Address string `json:"user_address"`
}

// EncodeMessageTask 序列化消息队列条目
func EncodeMessageTask(task *MessageTask) ([]byte, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("序列化消息任务失败: %w", err)
	}
	return data, nil
}

// DecodeMessageTask 反序列化消息队列条目
func DecodeMessageTask(data []byte) (*MessageTask, error) {
	var task MessageTask
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("反序列化消息任务失败: %w", err)
	}
	return &task, nil
}

// EncodeLoginTask 序列化登录队列条目
func EncodeLoginTask(task *LoginTask) ([]byte, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("序列化登录任务失败: %w", err)
	}
	return data, nil
}

// DecodeLoginTask 反序列化登录队列条目
func DecodeLoginTask(data []byte) (*LoginTask, error) {
	var task LoginTask
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("反序列化登录任务失败: %w", err)
	}
	return &task, nil
}
