package models

import (
	"time"
)

// WorkflowStage 游戏回合阶段
type WorkflowStage string

const (
	// StageStarted 游戏已开始，等待主持人提问
	StageStarted WorkflowStage = "started"
	// StageQuestionAsked 问题已提出，正在收集答案
	StageQuestionAsked WorkflowStage = "question_asked"
)

// Workflow 频道游戏工作流表（每个频道最多一条记录，不存在即表示未开始）
type Workflow struct {
	ID                uint          `gorm:"primaryKey" json:"id"`
	ChannelID         string        `gorm:"uniqueIndex;size:64;not null" json:"channel_id"`
	ControllingUserID string        `gorm:"size:64;not null" json:"controlling_user_id"`
	Topic             string        `gorm:"size:255" json:"topic"`
	Question          string        `gorm:"type:text" json:"question"`
	Stage             WorkflowStage `gorm:"size:20;not null" json:"stage"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`

	// 关联（保存时整体替换，见 repository.WorkflowRepository.Save）
	Answers []Answer `gorm:"foreignKey:WorkflowID;constraint:OnDelete:CASCADE" json:"answers"`
}

// TableName 指定表名
func (Workflow) TableName() string {
	return "workflows"
}

// IsControllingUser 判断指定用户是否为当前主持人
func (w *Workflow) IsControllingUser(userID string) bool {
	return w.ControllingUserID == userID
}

// HasAnswerFrom 判断指定用户是否已提交过答案
func (w *Workflow) HasAnswerFrom(userID string) bool {
	for _, answer := range w.Answers {
		if answer.UserID == userID {
			return true
		}
	}
	return false
}

// Answer 问题答案表（Workflow 的子记录，按提交时间排序展示）
type Answer struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	WorkflowID  uint      `gorm:"index;not null" json:"workflow_id"`
	UserID      string    `gorm:"size:64;not null" json:"user_id"`
	Username    string    `gorm:"size:100;not null" json:"username"`
	Text        string    `gorm:"type:text" json:"text"`
	CreatedDate time.Time `gorm:"not null" json:"created_date"`
}

// TableName 指定表名
func (Answer) TableName() string {
	return "answers"
}
