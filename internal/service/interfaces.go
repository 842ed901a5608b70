package service

import (
	"context"
	"time"

	"github.com/wfunc/trivia-game/internal/slack"
)

// WorkflowService 游戏工作流引擎接口
// 负责维护每个频道的游戏状态机（未开始 / 已开始 / 已提问）
// channelID或userID为空时各方法静默返回，不视为错误
type WorkflowService interface {
	// OnGameStarted 开始游戏，topic可为空
	OnGameStarted(ctx context.Context, channelID, userID, topic string) error
	// OnGameStopped 停止游戏并删除工作流
	OnGameStopped(ctx context.Context, channelID, userID string) error
	// OnQuestionSubmitted 主持人提交问题
	OnQuestionSubmitted(ctx context.Context, channelID, userID, question string) error
	// OnAnswerSubmitted 玩家提交答案
	OnAnswerSubmitted(ctx context.Context, channelID, userID, username, answerText string, createdDate time.Time) error
	// OnIncorrectAnswerSelected 标记错误答案（仅校验，不修改状态）
	OnIncorrectAnswerSelected(ctx context.Context, channelID, userID, incorrectUserID string) error
	// OnCorrectAnswerSelected 标记正确答案前的校验（仅校验，不修改状态）
	OnCorrectAnswerSelected(ctx context.Context, channelID, userID string) error
	// OnTurnChanged 轮换主持人，清空问题和答案
	OnTurnChanged(ctx context.Context, channelID, userID, newControllingUserID string) error
	// GetCurrentGameState 获取当前游戏状态的只读投影
	GetCurrentGameState(ctx context.Context, channelID string) (*GameState, error)
}

// ScoreService 积分账本接口
type ScoreService interface {
	// GetAllScoresByUser 获取某频道按用户分组的全部积分
	GetAllScoresByUser(ctx context.Context, channelID string) (map[slack.User]int64, error)
	// CreateUserIfNotExists 用户不存在时创建零分记录，返回是否新建
	CreateUserIfNotExists(ctx context.Context, channelID string, user slack.User) (bool, error)
	// DoesUserExist 判断用户在该频道是否有积分记录
	DoesUserExist(ctx context.Context, channelID, userID string) (bool, error)
	// IncrementScore 给用户加一分，用户不存在时返回积分记录不存在错误
	IncrementScore(ctx context.Context, channelID, userID string) error
	// ResetScores 清空某频道的全部积分
	ResetScores(ctx context.Context, channelID string) error
}

// TriviaGameService 问答游戏编排服务接口
// 每个操作返回立即响应；有公开影响的操作另经响应发送器推送频道广播
type TriviaGameService interface {
	Start(ctx context.Context, req *slack.RequestDoc, topic string) (*slack.ResponseDoc, error)
	Stop(ctx context.Context, req *slack.RequestDoc) (*slack.ResponseDoc, error)
	Join(ctx context.Context, req *slack.RequestDoc) (*slack.ResponseDoc, error)
	Pass(ctx context.Context, req *slack.RequestDoc, target string) (*slack.ResponseDoc, error)
	SubmitQuestion(ctx context.Context, req *slack.RequestDoc, question string) (*slack.ResponseDoc, error)
	SubmitAnswer(ctx context.Context, req *slack.RequestDoc, answer string) (*slack.ResponseDoc, error)
	MarkAnswerIncorrect(ctx context.Context, req *slack.RequestDoc, target string) (*slack.ResponseDoc, error)
	MarkAnswerCorrect(ctx context.Context, req *slack.RequestDoc, target, answer string) (*slack.ResponseDoc, error)
	GetStatus(ctx context.Context, req *slack.RequestDoc) (*slack.ResponseDoc, error)
	GetScores(ctx context.Context, req *slack.RequestDoc) (*slack.ResponseDoc, error)
	ResetScores(ctx context.Context, req *slack.RequestDoc) (*slack.ResponseDoc, error)
}

// SlashCommandService 斜杠命令分发服务接口
type SlashCommandService interface {
	// ProcessSlashCommand 解析命令文本并分发到对应的游戏操作
	ProcessSlashCommand(ctx context.Context, req *slack.RequestDoc) (*slack.ResponseDoc, error)
}

// GameState 当前游戏状态的只读投影
// ControllingUserID为空表示该频道没有进行中的游戏
type GameState struct {
	ControllingUserID string
	Topic             string
	Question          string
	Answers           []GameStateAnswer
}

// GameStateAnswer 游戏状态中的单条答案
type GameStateAnswer struct {
	UserID      string
	Username    string
	Text        string
	CreatedDate time.Time
}
