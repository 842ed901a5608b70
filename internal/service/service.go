package service

import (
	"time"

	"github.com/wfunc/trivia-game/internal/config"
	"github.com/wfunc/trivia-game/internal/errors"
	"github.com/wfunc/trivia-game/internal/repository"
	"github.com/wfunc/trivia-game/internal/slack"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services 服务集合
type Services struct {
	Score        ScoreService
	Workflow     WorkflowService
	TriviaGame   TriviaGameService
	SlashCommand SlashCommandService
}

// NewServices 创建服务集合
func NewServices(db *gorm.DB, cfg *config.SlackConfig, log *zap.Logger) (*Services, error) {
	// 初始化仓储
	workflowRepo := repository.NewWorkflowRepository(db)
	scoreRepo := repository.NewScoreRepository(db)

	// 答案时间戳的显示时区
	location, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigValidate, "无效的显示时区: %s", cfg.DisplayTimezone)
	}

	sender := slack.NewHTTPResponseSender(cfg.SendTimeout, log)

	// 初始化服务
	scoreService := NewScoreService(scoreRepo, log)
	workflowService := NewWorkflowService(workflowRepo, log)
	triviaGameService := NewTriviaGameService(scoreService, workflowService, sender, location, log)
	slashCommandService := NewSlashCommandService(triviaGameService)

	return &Services{
		Score:        scoreService,
		Workflow:     workflowService,
		TriviaGame:   triviaGameService,
		SlashCommand: slashCommandService,
	}, nil
}
