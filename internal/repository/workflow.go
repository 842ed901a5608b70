package repository

import (
	"context"
	"errors"

	"github.com/wfunc/trivia-game/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WorkflowRepository 游戏工作流仓储接口
// 每个频道最多一条工作流记录，记录不存在即表示该频道没有进行中的游戏
type WorkflowRepository interface {
	// FindByChannel 根据频道查找工作流，不存在时返回 (nil, nil)
	FindByChannel(ctx context.Context, channelID string) (*models.Workflow, error)
	// Save 保存工作流（新建或整体替换，答案列表随之整体替换）
	Save(ctx context.Context, workflow *models.Workflow) error
	// DeleteByID 删除工作流及其全部答案
	DeleteByID(ctx context.Context, id uint) error
}

// workflowRepo 游戏工作流仓储实现
type workflowRepo struct {
	*BaseRepo
}

// NewWorkflowRepository 创建游戏工作流仓储
func NewWorkflowRepository(db *gorm.DB) WorkflowRepository {
	return &workflowRepo{
		BaseRepo: &BaseRepo{db: db},
	}
}

// FindByChannel 根据频道查找工作流
func (r *workflowRepo) FindByChannel(ctx context.Context, channelID string) (*models.Workflow, error) {
	var workflow models.Workflow
	err := r.db.WithContext(ctx).
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_date ASC, id ASC")
		}).
		Where("channel_id = ?", channelID).
		First(&workflow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &workflow, nil
}

// Save 保存工作流
func (r *workflowRepo) Save(ctx context.Context, workflow *models.Workflow) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if workflow.ID == 0 {
			return tx.Create(workflow).Error
		}

		// 更新主记录，答案列表单独整体替换
		if err := tx.Omit(clause.Associations).Save(workflow).Error; err != nil {
			return err
		}

		if err := tx.Where("workflow_id = ?", workflow.ID).Delete(&models.Answer{}).Error; err != nil {
			return err
		}

		if len(workflow.Answers) == 0 {
			return nil
		}

		for i := range workflow.Answers {
			workflow.Answers[i].WorkflowID = workflow.ID
		}
		return tx.Create(&workflow.Answers).Error
	})
}

// DeleteByID 删除工作流及其全部答案
func (r *workflowRepo) DeleteByID(ctx context.Context, id uint) error {
	return r.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("workflow_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Workflow{}, id).Error
	})
}
