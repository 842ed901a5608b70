package models

import (
	"time"
)

// ScoreInfo 频道用户积分表（channel_id + user_id 唯一）
// Username 为加入游戏时的快照，后续不随显示名变化刷新
type ScoreInfo struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChannelID string    `gorm:"uniqueIndex:idx_scores_channel_user;size:64;not null" json:"channel_id"`
	UserID    string    `gorm:"uniqueIndex:idx_scores_channel_user;size:64;not null" json:"user_id"`
	Username  string    `gorm:"size:100;not null" json:"username"`
	Score     int64     `gorm:"not null;default:0" json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (ScoreInfo) TableName() string {
	return "scores"
}
