package service

import (
	"context"

	"github.com/wfunc/trivia-game/internal/errors"
	"github.com/wfunc/trivia-game/internal/models"
	"github.com/wfunc/trivia-game/internal/repository"
	"github.com/wfunc/trivia-game/internal/slack"
	"go.uber.org/zap"
)

// scoreService 积分账本实现
// 用户名在建档时快照，之后不随显示名变化刷新
type scoreService struct {
	scoreRepo repository.ScoreRepository
	logger    *zap.Logger
}

// NewScoreService 创建积分账本服务
func NewScoreService(scoreRepo repository.ScoreRepository, logger *zap.Logger) ScoreService {
	return &scoreService{
		scoreRepo: scoreRepo,
		logger:    logger,
	}
}

// GetAllScoresByUser 获取某频道按用户分组的全部积分
func (s *scoreService) GetAllScoresByUser(ctx context.Context, channelID string) (map[slack.User]int64, error) {
	scores, err := s.scoreRepo.FindByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}

	result := make(map[slack.User]int64, len(scores))
	for _, score := range scores {
		result[slack.User{UserID: score.UserID, Username: score.Username}] = score.Score
	}
	return result, nil
}

// CreateUserIfNotExists 用户不存在时创建零分记录
func (s *scoreService) CreateUserIfNotExists(ctx context.Context, channelID string, user slack.User) (bool, error) {
	scoreInfo, err := s.scoreRepo.FindByChannelAndUser(ctx, channelID, user.UserID)
	if err != nil {
		return false, err
	}
	if scoreInfo != nil {
		return false, nil
	}

	scoreInfo = &models.ScoreInfo{
		ChannelID: channelID,
		UserID:    user.UserID,
		Username:  user.Username,
		Score:     0,
	}
	if err := s.scoreRepo.Save(ctx, scoreInfo); err != nil {
		return false, err
	}

	s.logger.Info("玩家已建档",
		zap.String("channel_id", channelID),
		zap.String("user_id", user.UserID),
		zap.String("username", user.Username),
	)
	return true, nil
}

// DoesUserExist 判断用户在该频道是否有积分记录
func (s *scoreService) DoesUserExist(ctx context.Context, channelID, userID string) (bool, error) {
	scoreInfo, err := s.scoreRepo.FindByChannelAndUser(ctx, channelID, userID)
	if err != nil {
		return false, err
	}
	return scoreInfo != nil, nil
}

// IncrementScore 给用户加一分
func (s *scoreService) IncrementScore(ctx context.Context, channelID, userID string) error {
	scoreInfo, err := s.scoreRepo.FindByChannelAndUser(ctx, channelID, userID)
	if err != nil {
		return err
	}
	if scoreInfo == nil {
		return errors.New(errors.ErrScoreNotFound)
	}

	scoreInfo.Score++
	return s.scoreRepo.Save(ctx, scoreInfo)
}

// ResetScores 清空某频道的全部积分
func (s *scoreService) ResetScores(ctx context.Context, channelID string) error {
	if err := s.scoreRepo.DeleteByChannel(ctx, channelID); err != nil {
		return err
	}

	s.logger.Info("积分已清空", zap.String("channel_id", channelID))
	return nil
}
