package model

import (
	"time"
)

// Address 网络地址模型
// 地址是不透明的回调端点字符串（例如回调URL），全局唯一
// 注意：schema 不强制一个地址只属于一个用户，关联关系见 UserAddress

type Address struct {
	UserAddress string    `gorm:"primaryKey;type:varchar(255);comment:网络地址"`
	LastUsed    time.Time `gorm:"autoUpdateTime;comment:最近使用时间"`
}

func (Address) TableName() string { return "address" }

// UserAddress 用户与地址的多对多关联
// 一个用户可以有多个地址（多设备）

type UserAddress struct {
	UserID      uint   `gorm:"primaryKey;comment:用户ID"`
	UserAddress string `gorm:"primaryKey;type:varchar(255);comment:网络地址"`
}

func (UserAddress) TableName() string { return "user_address" }
