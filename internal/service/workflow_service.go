package service

import (
	"context"
	"time"

	"github.com/wfunc/trivia-game/internal/errors"
	"github.com/wfunc/trivia-game/internal/models"
	"github.com/wfunc/trivia-game/internal/repository"
	"go.uber.org/zap"
)

// workflowService 游戏工作流引擎实现
// 状态机规则：每个频道最多一个工作流；仅主持人可提问、判定答案和让出回合；
// 提问后进入已提问阶段，回合轮换时清空问题和答案并回到已开始阶段
type workflowService struct {
	workflowRepo repository.WorkflowRepository
	logger       *zap.Logger
}

// NewWorkflowService 创建游戏工作流引擎
func NewWorkflowService(workflowRepo repository.WorkflowRepository, logger *zap.Logger) WorkflowService {
	return &workflowService{
		workflowRepo: workflowRepo,
		logger:       logger,
	}
}

// OnGameStarted 开始游戏
func (s *workflowService) OnGameStarted(ctx context.Context, channelID, userID, topic string) error {
	if channelID == "" || userID == "" {
		return nil
	}

	workflow, err := s.workflowRepo.FindByChannel(ctx, channelID)
	if err != nil {
		return err
	}

	if workflow != nil {
		message := "<@" + workflow.ControllingUserID + "> is currently hosting."
		if workflow.IsControllingUser(userID) {
			message = "You are already hosting!"
		}
		return errors.New(errors.ErrWorkflowConflict).WithDetails(message)
	}

	workflow = &models.Workflow{
		ChannelID:         channelID,
		ControllingUserID: userID,
		Topic:             topic,
		Stage:             models.StageStarted,
	}
	if err := s.workflowRepo.Save(ctx, workflow); err != nil {
		return err
	}

	s.logger.Info("游戏已开始",
		zap.String("channel_id", channelID),
		zap.String("user_id", userID),
		zap.String("topic", topic),
	)
	return nil
}

// OnGameStopped 停止游戏
func (s *workflowService) OnGameStopped(ctx context.Context, channelID, userID string) error {
	if channelID == "" || userID == "" {
		return nil
	}

	workflow, err := s.workflowRepo.FindByChannel(ctx, channelID)
	if err != nil {
		return err
	}

	if workflow == nil {
		return errors.New(errors.ErrGameNotStarted)
	}
	if !workflow.IsControllingUser(userID) {
		return errors.New(errors.ErrWorkflowConflict).
			WithDetails("<@" + workflow.ControllingUserID + "> is currently hosting.")
	}

	if err := s.workflowRepo.DeleteByID(ctx, workflow.ID); err != nil {
		return err
	}

	s.logger.Info("游戏已停止",
		zap.String("channel_id", channelID),
		zap.String("user_id", userID),
	)
	return nil
}

// OnQuestionSubmitted 主持人提交问题
func (s *workflowService) OnQuestionSubmitted(ctx context.Context, channelID, userID, question string) error {
	if channelID == "" || userID == "" {
		return nil
	}

	workflow, err := s.workflowRepo.FindByChannel(ctx, channelID)
	if err != nil {
		return err
	}

	if workflow == nil {
		return errors.New(errors.ErrGameNotStarted)
	}

	isControllingUser := workflow.IsControllingUser(userID)
	if workflow.Stage == models.StageQuestionAsked {
		prefix := "<@" + workflow.ControllingUserID + "> has"
		if isControllingUser {
			prefix = "You have"
		}
		return errors.New(errors.ErrWorkflowConflict).WithDetails(prefix + " already asked a question.")
	}
	if !isControllingUser {
		return errors.New(errors.ErrWorkflowConflict).
			WithDetails("It's <@" + workflow.ControllingUserID + ">'s turn to ask a question.")
	}

	workflow.Question = question
	workflow.Stage = models.StageQuestionAsked
	return s.workflowRepo.Save(ctx, workflow)
}

// OnAnswerSubmitted 玩家提交答案
func (s *workflowService) OnAnswerSubmitted(ctx context.Context, channelID, userID, username, answerText string, createdDate time.Time) error {
	if channelID == "" || userID == "" {
		return nil
	}

	workflow, err := s.workflowRepo.FindByChannel(ctx, channelID)
	if err != nil {
		return err
	}

	if workflow == nil {
		return errors.New(errors.ErrGameNotStarted)
	}
	if workflow.IsControllingUser(userID) {
		return errors.New(errors.ErrWorkflowConflict).WithDetails("You can't answer your own question!")
	}
	if workflow.Stage != models.StageQuestionAsked {
		return errors.New(errors.ErrWorkflowConflict).
			WithDetails("A question has not yet been submitted. Please wait for <@" + workflow.ControllingUserID + "> to ask a question.")
	}

	workflow.Answers = append(workflow.Answers, models.Answer{
		UserID:      userID,
		Username:    username,
		Text:        answerText,
		CreatedDate: createdDate,
	})
	return s.workflowRepo.Save(ctx, workflow)
}

// OnIncorrectAnswerSelected 标记错误答案前的校验
// 只校验不落库：答案本身保留在列表中
func (s *workflowService) OnIncorrectAnswerSelected(ctx context.Context, channelID, userID, incorrectUserID string) error {
	if channelID == "" || userID == "" || incorrectUserID == "" {
		return nil
	}

	workflow, err := s.workflowRepo.FindByChannel(ctx, channelID)
	if err != nil {
		return err
	}

	if workflow == nil {
		return errors.New(errors.ErrGameNotStarted)
	}
	if !workflow.IsControllingUser(userID) {
		return errors.New(errors.ErrWorkflowConflict).
			WithDetails("It's <@" + workflow.ControllingUserID + ">'s turn; only he/she can identify an incorrect answer.")
	}
	if workflow.Stage != models.StageQuestionAsked {
		return errors.New(errors.ErrWorkflowConflict).
			WithDetails("A question has not yet been submitted. Please ask a question before identifying an incorrect answer.")
	}
	if !workflow.HasAnswerFrom(incorrectUserID) {
		return errors.New(errors.ErrWorkflowConflict).
			WithDetails("User <@" + incorrectUserID + "> either doesn't exist or has not answered this question yet.")
	}

	return nil
}

// OnCorrectAnswerSelected 标记正确答案前的校验
func (s *workflowService) OnCorrectAnswerSelected(ctx context.Context, channelID, userID string) error {
	if channelID == "" || userID == "" {
		return nil
	}

	workflow, err := s.workflowRepo.FindByChannel(ctx, channelID)
	if err != nil {
		return err
	}

	if workflow == nil {
		return errors.New(errors.ErrGameNotStarted)
	}
	if !workflow.IsControllingUser(userID) {
		return errors.New(errors.ErrWorkflowConflict).
			WithDetails("It's <@" + workflow.ControllingUserID + ">'s turn; only he/she can mark an answer correct.")
	}
	if workflow.Stage != models.StageQuestionAsked {
		return errors.New(errors.ErrWorkflowConflict).
			WithDetails("A question has not yet been submitted. Please ask a question before marking an answer correct.")
	}

	return nil
}

// OnTurnChanged 轮换主持人
func (s *workflowService) OnTurnChanged(ctx context.Context, channelID, userID, newControllingUserID string) error {
	if channelID == "" || userID == "" || newControllingUserID == "" {
		return nil
	}

	workflow, err := s.workflowRepo.FindByChannel(ctx, channelID)
	if err != nil {
		return err
	}

	if workflow == nil {
		return errors.New(errors.ErrGameNotStarted)
	}
	if !workflow.IsControllingUser(userID) {
		return errors.New(errors.ErrWorkflowConflict).
			WithDetails("It's <@" + workflow.ControllingUserID + ">'s turn; only he/she can cede his/her turn.")
	}

	workflow.ControllingUserID = newControllingUserID
	workflow.Question = ""
	workflow.Answers = nil
	workflow.Stage = models.StageStarted
	if err := s.workflowRepo.Save(ctx, workflow); err != nil {
		return err
	}

	s.logger.Info("回合已轮换",
		zap.String("channel_id", channelID),
		zap.String("from_user_id", userID),
		zap.String("to_user_id", newControllingUserID),
	)
	return nil
}

// GetCurrentGameState 获取当前游戏状态的只读投影
// channelID为空返回nil；频道无游戏时返回空状态对象而非错误
func (s *workflowService) GetCurrentGameState(ctx context.Context, channelID string) (*GameState, error) {
	if channelID == "" {
		return nil, nil
	}

	gameState := &GameState{}

	workflow, err := s.workflowRepo.FindByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if workflow == nil {
		return gameState, nil
	}

	gameState.ControllingUserID = workflow.ControllingUserID
	gameState.Topic = workflow.Topic

	// 问题和答案仅在已提问阶段暴露
	if workflow.Stage == models.StageQuestionAsked {
		gameState.Question = workflow.Question
		gameState.Answers = make([]GameStateAnswer, 0, len(workflow.Answers))
		for _, answer := range workflow.Answers {
			gameState.Answers = append(gameState.Answers, GameStateAnswer{
				UserID:      answer.UserID,
				Username:    answer.Username,
				Text:        answer.Text,
				CreatedDate: answer.CreatedDate,
			})
		}
	}

	return gameState, nil
}
