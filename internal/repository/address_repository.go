package repository

import (
	"time"

	"im-delivery/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AddressRepository 地址数据仓储（持久层）
type AddressRepository struct {
	db *gorm.DB
}

// NewAddressRepository 创建AddressRepository实例
func NewAddressRepository(db *gorm.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

// Store 登记一个用户地址
// 地址表与关联表都做幂等插入：重复登记只刷新last_used
func (r *AddressRepository) Store(userID uint, address string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 地址全局唯一，冲突时只更新最近使用时间
		addr := &model.Address{UserAddress: address, LastUsed: time.Now()}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_address"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_used"}),
		}).Create(addr).Error; err != nil {
			return err
		}

		// 关联关系按(user_id, user_address)幂等
		link := &model.UserAddress{UserID: userID, UserAddress: address}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(link).Error
	})
}

// GetByUser 获取用户的全部已知地址
// 用户没有地址时返回空切片，不是错误
func (r *AddressRepository) GetByUser(userID uint) ([]string, error) {
	addresses := make([]string, 0)
	err := r.db.Model(&model.UserAddress{}).
		Where("user_id = ?", userID).
		Pluck("user_address", &addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

// DeleteByUser 删除用户的全部地址关联（删除不存在的行不算错误）
func (r *AddressRepository) DeleteByUser(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.UserAddress{}).Error
}
