package database

import (
	"fmt"

	"github.com/wfunc/trivia-game/internal/logger"
	"github.com/wfunc/trivia-game/internal/models"
	"go.uber.org/zap"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 清理过期锁文件
	CleanupStaleLocks()

	// 获取迁移锁，避免多个进程同时迁移
	dbPath := getDBPath()
	if dbPath != "" {
		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	logger.Info("开始数据库迁移...")

	// 设置 SQLite 专用配置，避免锁定问题
	if DB.Dialector.Name() == "sqlite" {
		// 禁用外键约束，避免重建表时的问题
		DB.Exec("PRAGMA foreign_keys = OFF")
		defer DB.Exec("PRAGMA foreign_keys = ON")
	}

	migrationModels := []interface{}{
		// 游戏工作流
		&models.Workflow{},
		&models.Answer{},

		// 积分
		&models.ScoreInfo{},
	}

	for _, model := range migrationModels {
		if err := DB.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}

	// 创建索引
	if err := createIndexes(); err != nil {
		return err
	}

	logger.Info("数据库迁移完成")
	return nil
}

// createIndexes 创建数据库索引
func createIndexes() error {
	// 答案表索引（按提交时间展示）
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_answers_workflow_created ON answers(workflow_id, created_date)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_answers_workflow_created"), zap.Error(err))
	}

	// 积分表索引
	if err := DB.Exec("CREATE INDEX IF NOT EXISTS idx_scores_channel ON scores(channel_id)").Error; err != nil {
		logger.Warn("创建索引失败", zap.String("index", "idx_scores_channel"), zap.Error(err))
	}

	logger.Info("数据库索引创建完成")
	return nil
}
