package repository

import (
	"errors"

	"im-delivery/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CredentialRepository 令牌与公钥数据仓储（持久层）
type CredentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository 创建CredentialRepository实例
func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// SaveToken 保存用户会话令牌
// user_id 为主键，重复保存整体替换，保证一个用户只有一行令牌
func (r *CredentialRepository) SaveToken(userID uint, token string) error {
	row := &model.Token{UserID: userID, Token: token}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token", "created_at"}),
	}).Create(row).Error
}

// GetToken 获取用户会话令牌
func (r *CredentialRepository) GetToken(userID uint) (string, error) {
	var row model.Token
	if err := r.db.First(&row, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", model.ErrNotFound
		}
		return "", err
	}
	return row.Token, nil
}

// DeleteToken 删除用户会话令牌（登出）
func (r *CredentialRepository) DeleteToken(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.Token{}).Error
}

// SavePublicKey 保存用户公钥（登录时创建或覆盖）
func (r *CredentialRepository) SavePublicKey(userID uint, publicKey string) error {
	row := &model.PublicKey{UserID: userID, PublicKey: publicKey}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"public_key", "create_date"}),
	}).Create(row).Error
}

// GetPublicKey 获取用户公钥
func (r *CredentialRepository) GetPublicKey(userID uint) (string, error) {
	var row model.PublicKey
	if err := r.db.First(&row, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", model.ErrNotFound
		}
		return "", err
	}
	return row.PublicKey, nil
}

// DeletePublicKey 删除用户公钥
func (r *CredentialRepository) DeletePublicKey(userID uint) error {
	return r.db.Where("user_id = ?", userID).Delete(&model.PublicKey{}).Error
}
