package repository

import (
	"context"
	"errors"

	"github.com/wfunc/trivia-game/internal/models"
	"gorm.io/gorm"
)

// ScoreRepository 积分仓储接口
type ScoreRepository interface {
	// FindByChannel 查询某频道的全部积分记录
	FindByChannel(ctx context.Context, channelID string) ([]*models.ScoreInfo, error)
	// FindByChannelAndUser 查询某频道某用户的积分记录，不存在时返回 (nil, nil)
	FindByChannelAndUser(ctx context.Context, channelID, userID string) (*models.ScoreInfo, error)
	// Save 保存积分记录（新建或更新）
	Save(ctx context.Context, score *models.ScoreInfo) error
	// DeleteByChannel 删除某频道的全部积分记录，频道无记录时不报错
	DeleteByChannel(ctx context.Context, channelID string) error
}

// scoreRepo 积分仓储实现
type scoreRepo struct {
	*BaseRepo
}

// NewScoreRepository 创建积分仓储
func NewScoreRepository(db *gorm.DB) ScoreRepository {
	return &scoreRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// FindByChannel 查询某频道的全部积分记录
func (r *scoreRepo) FindByChannel(ctx context.Context, channelID string) ([]*models.ScoreInfo, error) {
	var scores []*models.ScoreInfo
	err := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Find(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// FindByChannelAndUser 查询某频道某用户的积分记录
func (r *scoreRepo) FindByChannelAndUser(ctx context.Context, channelID, userID string) (*models.ScoreInfo, error) {
	var score models.ScoreInfo
	err := r.db.WithContext(ctx).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		First(&score).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &score, nil
}

// Save 保存积分记录
func (r *scoreRepo) Save(ctx context.Context, score *models.ScoreInfo) error {
	return r.db.WithContext(ctx).Save(score).Error
}

// DeleteByChannel 删除某频道的全部积分记录
func (r *scoreRepo) DeleteByChannel(ctx context.Context, channelID string) error {
	return r.db.WithContext(ctx).
		Where("channel_id = ?", channelID).
		Delete(&models.ScoreInfo{}).Error
}
