package model

import (
	"time"
)

// Token 会话令牌模型
// 每个用户同一时刻只有一个有效令牌（UserID 为主键）
// 登录时整体替换，登出时删除

type Token struct {
	UserID    uint      `gorm:"primaryKey;comment:用户ID"`
	Token     string    `gorm:"type:varchar(512);not null;comment:会话令牌"`
	CreatedAt time.Time `gorm:"comment:签发时间"`
}

func (Token) TableName() string { return "token" }

// PublicKey 用户公钥模型
// 客户端在上游用它加密消息载荷，登录时创建或覆盖

type PublicKey struct {
	UserID     uint      `gorm:"primaryKey;comment:用户ID"`
	PublicKey  string    `gorm:"type:text;not null;comment:公钥"`
	CreateDate time.Time `gorm:"autoCreateTime;comment:创建时间"`
}

func (PublicKey) TableName() string { return "public_key" }
