package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wfunc/trivia-game/internal/errors"
	"github.com/wfunc/trivia-game/internal/slack"
	"go.uber.org/zap"
)

const (
	gameNotStartedFormat = "A game has not yet been started. If you'd like to start a game, try `%s start`"

	baseStatusFormat = "*Topic:* %s\n*Turn:* %s\n*Question:*%s"
	answersFormat    = "\n\n*Answers:*%s"

	noCorrectAnswerTarget = "none"
	scoresFormat          = "```Scores:\n\n%s```"

	// 答案时间按参考时区展示
	answerDateFormat = "01/02/2006 03:04:05 PM"
)

// triviaGameService 问答游戏编排服务实现
// 把工作流引擎和积分账本的结果整形为Slack响应文档；
// 有公开影响的操作额外通过响应发送器向频道广播第二条消息
type triviaGameService struct {
	scoreService    ScoreService
	workflowService WorkflowService
	sender          slack.ResponseSender
	location        *time.Location
	logger          *zap.Logger
}

// NewTriviaGameService 创建问答游戏编排服务
func NewTriviaGameService(
	scoreService ScoreService,
	workflowService WorkflowService,
	sender slack.ResponseSender,
	location *time.Location,
	logger *zap.Logger,
) TriviaGameService {
	return &triviaGameService{
		scoreService:    scoreService,
		workflowService: workflowService,
		sender:          sender,
		location:        location,
		logger:          logger,
	}
}

// Start 开始游戏
func (s *triviaGameService) Start(ctx context.Context, req *slack.RequestDoc, topic string) (*slack.ResponseDoc, error) {
	if err := s.workflowService.OnGameStarted(ctx, req.ChannelID, req.UserID, topic); err != nil {
		return s.mapGameError(err, req)
	}

	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeInChannel,
		Text:         fmt.Sprintf("OK, <@%s>, please ask a question.", req.UserID),
	}, nil
}

// Stop 停止游戏，积分保留
func (s *triviaGameService) Stop(ctx context.Context, req *slack.RequestDoc) (*slack.ResponseDoc, error) {
	if err := s.workflowService.OnGameStopped(ctx, req.ChannelID, req.UserID); err != nil {
		return s.mapGameError(err, req)
	}

	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeInChannel,
		Text: fmt.Sprintf(
			"The game has been stopped but scores have not been cleared. If you'd like to start a new game, try `%s start`.",
			req.Command,
		),
	}, nil
}

// Join 加入游戏
func (s *triviaGameService) Join(ctx context.Context, req *slack.RequestDoc) (*slack.ResponseDoc, error) {
	user := slack.User{UserID: req.UserID, Username: req.Username}

	userCreated, err := s.scoreService.CreateUserIfNotExists(ctx, req.ChannelID, user)
	if err != nil {
		return nil, err
	}

	if !userCreated {
		return &slack.ResponseDoc{
			ResponseType: slack.ResponseTypeEphemeral,
			Text:         "You're already in the game.",
		}, nil
	}

	s.sender.Send(req.ResponseURL, &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeInChannel,
		Text:         fmt.Sprintf("<@%s> has joined the game!", user.UserID),
	})

	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         "Joining game.",
	}, nil
}

// Pass 把回合让给指定玩家
func (s *triviaGameService) Pass(ctx context.Context, req *slack.RequestDoc, target string) (*slack.ResponseDoc, error) {
	userID := slack.NormalizeID(target)

	userExists, err := s.scoreService.DoesUserExist(ctx, req.ChannelID, userID)
	if err != nil {
		return nil, err
	}
	if !userExists {
		responseDoc := slack.Failure("User " + target + " does not exist. Please choose a valid user.")
		responseDoc.Attachments = []*slack.Attachment{
			slack.NewAttachment("Usage: `" + req.Command + " pass @jsmith`"),
		}
		return responseDoc, nil
	}

	if err := s.workflowService.OnTurnChanged(ctx, req.ChannelID, req.UserID, userID); err != nil {
		return s.mapGameError(err, req)
	}

	s.sender.Send(req.ResponseURL, &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeInChannel,
		Text: fmt.Sprintf(
			"<@%s> has decided to pass his/her turn to <@%s>.\n\nOK, <@%s>, it's your turn to ask a question!",
			req.UserID, userID, userID,
		),
	})

	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         "Turn passed to <@" + userID + ">.",
	}, nil
}

// SubmitQuestion 主持人提交问题
func (s *triviaGameService) SubmitQuestion(ctx context.Context, req *slack.RequestDoc, question string) (*slack.ResponseDoc, error) {
	if err := s.workflowService.OnQuestionSubmitted(ctx, req.ChannelID, req.UserID, question); err != nil {
		return s.mapGameError(err, req)
	}

	s.sender.Send(req.ResponseURL, &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeInChannel,
		Text:         fmt.Sprintf("<@%s> asked the following question:\n\n%s", req.UserID, question),
	})

	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         "Question posted.",
	}, nil
}

// SubmitAnswer 玩家提交答案，同时自动加入游戏
func (s *triviaGameService) SubmitAnswer(ctx context.Context, req *slack.RequestDoc, answer string) (*slack.ResponseDoc, error) {
	if err := s.workflowService.OnAnswerSubmitted(ctx, req.ChannelID, req.UserID, req.Username, answer, req.RequestTime); err != nil {
		return s.mapGameError(err, req)
	}

	user := slack.User{UserID: req.UserID, Username: req.Username}
	if _, err := s.scoreService.CreateUserIfNotExists(ctx, req.ChannelID, user); err != nil {
		return nil, err
	}

	// 答案按原文展示，不做Markdown渲染
	s.sender.Send(req.ResponseURL, &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeInChannel,
		Text:         fmt.Sprintf("<@%s> answers:", req.UserID),
		Attachments:  []*slack.Attachment{slack.NewPlainAttachment(answer)},
	})

	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         "Answer submitted.",
	}, nil
}

// MarkAnswerIncorrect 标记某玩家的答案错误
func (s *triviaGameService) MarkAnswerIncorrect(ctx context.Context, req *slack.RequestDoc, target string) (*slack.ResponseDoc, error) {
	userID := slack.NormalizeID(target)

	if err := s.workflowService.OnIncorrectAnswerSelected(ctx, req.ChannelID, req.UserID, userID); err != nil {
		return s.mapGameError(err, req)
	}

	s.sender.Send(req.ResponseURL, &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeInChannel,
		Text:         fmt.Sprintf("You couldn't be more wrong, <@%s>", userID),
	})

	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         "Marked answer incorrect.",
	}, nil
}

// MarkAnswerCorrect 标记正确答案并加分
// target为哨兵值none时表示无人答对，主持人保留回合重新提问
func (s *triviaGameService) MarkAnswerCorrect(ctx context.Context, req *slack.RequestDoc, target, answer string) (*slack.ResponseDoc, error) {
	if err := s.workflowService.OnCorrectAnswerSelected(ctx, req.ChannelID, req.UserID); err != nil {
		return s.mapGameError(err, req)
	}

	var text string

	if strings.EqualFold(slack.NormalizeID(target), noCorrectAnswerTarget) {
		if err := s.workflowService.OnTurnChanged(ctx, req.ChannelID, req.UserID, req.UserID); err != nil {
			return s.mapGameError(err, req)
		}

		scoreText, err := s.generateScoreText(ctx, req)
		if err != nil {
			return nil, err
		}

		text = "It looks like no one was able to answer that one!"
		if answer != "" {
			text += " The correct answer was " + answer + "."
		}
		text += "\n\n" + scoreText + fmt.Sprintf("\n\nOK, <@%s>, let's try another one!", req.UserID)
	} else {
		userID := slack.NormalizeID(target)

		if err := s.scoreService.IncrementScore(ctx, req.ChannelID, userID); err != nil {
			if errors.Is(err, errors.ErrScoreNotFound) {
				responseDoc := slack.Failure("User " + target + " does not exist. Please choose a valid user.")
				responseDoc.Attachments = []*slack.Attachment{
					slack.NewAttachment("Usage: `" + req.Command + " correct @jsmith`"),
				}
				return responseDoc, nil
			}
			return nil, err
		}

		if err := s.workflowService.OnTurnChanged(ctx, req.ChannelID, req.UserID, userID); err != nil {
			return s.mapGameError(err, req)
		}

		scoreText, err := s.generateScoreText(ctx, req)
		if err != nil {
			return nil, err
		}

		text = "<@" + userID + "> is correct"
		if answer != "" {
			text += " with " + answer
		}
		text += "!\n\n" + scoreText + fmt.Sprintf("\n\nOK, <@%s>, you're up!", userID)
	}

	s.sender.Send(req.ResponseURL, &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeInChannel,
		Text:         text,
	})

	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         "Score updated.",
	}, nil
}

// GetStatus 查看当前游戏状态
func (s *triviaGameService) GetStatus(ctx context.Context, req *slack.RequestDoc) (*slack.ResponseDoc, error) {
	gameState, err := s.workflowService.GetCurrentGameState(ctx, req.ChannelID)
	if err != nil {
		return nil, err
	}

	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         s.generateStatusText(req, gameState),
	}, nil
}

// GetScores 查看当前积分
func (s *triviaGameService) GetScores(ctx context.Context, req *slack.RequestDoc) (*slack.ResponseDoc, error) {
	scoreText, err := s.generateScoreText(ctx, req)
	if err != nil {
		return nil, err
	}

	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         scoreText,
	}, nil
}

// ResetScores 清空积分并广播空积分榜
func (s *triviaGameService) ResetScores(ctx context.Context, req *slack.RequestDoc) (*slack.ResponseDoc, error) {
	if err := s.scoreService.ResetScores(ctx, req.ChannelID); err != nil {
		return nil, err
	}

	scoreText, err := s.generateScoreText(ctx, req)
	if err != nil {
		return nil, err
	}

	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeInChannel,
		Text:         "Scores have been reset!",
		Attachments:  []*slack.Attachment{slack.NewAttachment(scoreText)},
	}, nil
}

// mapGameError 把游戏规则错误转换为仅发起者可见的失败响应
// 非规则错误原样上抛，由传输层处理
func (s *triviaGameService) mapGameError(err error, req *slack.RequestDoc) (*slack.ResponseDoc, error) {
	switch {
	case errors.Is(err, errors.ErrGameNotStarted):
		return slack.Failure(fmt.Sprintf(gameNotStartedFormat, req.Command)), nil
	case errors.Is(err, errors.ErrWorkflowConflict):
		return slack.Failure(errors.UserMessage(err)), nil
	default:
		return nil, err
	}
}

// generateStatusText 渲染游戏状态文本
func (s *triviaGameService) generateStatusText(req *slack.RequestDoc, gameState *GameState) string {
	if gameState == nil || gameState.ControllingUserID == "" {
		return fmt.Sprintf(gameNotStartedFormat, req.Command)
	}

	topic := gameState.Topic
	if topic == "" {
		topic = "None"
	}

	turn := "<@" + gameState.ControllingUserID + ">"
	if gameState.ControllingUserID == req.UserID {
		turn = "Yours"
	}

	question := " Waiting..."
	if gameState.Question != "" {
		question = "\n\n" + gameState.Question
	}

	statusText := fmt.Sprintf(baseStatusFormat, topic, turn, question)

	if gameState.Question != "" {
		answerText := " Waiting..."

		if len(gameState.Answers) > 0 {
			maxUsernameLength := 0
			for _, answer := range gameState.Answers {
				if len(answer.Username) > maxUsernameLength {
					maxUsernameLength = len(answer.Username)
				}
			}
			maxUsernameLength++

			answers := make([]GameStateAnswer, len(gameState.Answers))
			copy(answers, gameState.Answers)
			sort.SliceStable(answers, func(i, j int) bool {
				return answers[i].CreatedDate.Before(answers[j].CreatedDate)
			})

			lines := make([]string, 0, len(answers))
			for _, answer := range answers {
				lines = append(lines, fmt.Sprintf("%22s   %s   %s",
					answer.CreatedDate.In(s.location).Format(answerDateFormat),
					fmt.Sprintf("@%-*s", maxUsernameLength, answer.Username),
					answer.Text,
				))
			}
			answerText = "\n\n```" + strings.Join(lines, "\n") + "```"
		}

		statusText += fmt.Sprintf(answersFormat, answerText)
	}

	return statusText
}

// generateScoreText 渲染积分榜文本
// 排序规则：积分降序，同分按用户名升序
func (s *triviaGameService) generateScoreText(ctx context.Context, req *slack.RequestDoc) (string, error) {
	scoresByUser, err := s.scoreService.GetAllScoresByUser(ctx, req.ChannelID)
	if err != nil {
		return "", err
	}

	scoreText := "No scores yet..."

	if len(scoresByUser) > 0 {
		type userScore struct {
			user  slack.User
			score int64
		}

		maxUsernameLength := 0
		entries := make([]userScore, 0, len(scoresByUser))
		for user, score := range scoresByUser {
			if len(user.Username) > maxUsernameLength {
				maxUsernameLength = len(user.Username)
			}
			entries = append(entries, userScore{user: user, score: score})
		}
		maxUsernameLength++

		sort.Slice(entries, func(i, j int) bool {
			if entries[i].score != entries[j].score {
				return entries[i].score > entries[j].score
			}
			return entries[i].user.Username < entries[j].user.Username
		})

		lines := make([]string, 0, len(entries))
		for _, entry := range entries {
			lines = append(lines, fmt.Sprintf("@%-*s %3d", maxUsernameLength, entry.user.Username+":", entry.score))
		}
		scoreText = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(scoresFormat, scoreText), nil
}
