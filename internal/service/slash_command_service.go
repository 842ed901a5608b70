package service

import (
	"context"
	"strings"
	"time"

	"github.com/wfunc/trivia-game/internal/logger"
	"github.com/wfunc/trivia-game/internal/slack"
)

// slashCommandService 斜杠命令分发服务实现
// 解析规则：去除首尾空白后按空白切分，第一个词为操作符，其余为参数文本
type slashCommandService struct {
	triviaGameService TriviaGameService
}

// NewSlashCommandService 创建斜杠命令分发服务
func NewSlashCommandService(triviaGameService TriviaGameService) SlashCommandService {
	return &slashCommandService{
		triviaGameService: triviaGameService,
	}
}

// ProcessSlashCommand 解析命令文本并分发
func (s *slashCommandService) ProcessSlashCommand(ctx context.Context, req *slack.RequestDoc) (*slack.ResponseDoc, error) {
	// 先打点请求时间，答案时间以此为准
	req.RequestTime = time.Now().UTC()

	start := time.Now()
	commandText := strings.TrimSpace(req.Text)
	commandParts := strings.Fields(commandText)

	operator := ""
	if len(commandParts) > 0 {
		operator = commandParts[0]
		commandText = strings.TrimSpace(commandText[len(operator):])
	}

	responseDoc, err := s.dispatch(ctx, req, operator, commandText, commandParts)
	if err == nil {
		logger.LogSlashCommand(req.ChannelID, req.UserID, operator, time.Since(start))
	}
	return responseDoc, err
}

func (s *slashCommandService) dispatch(
	ctx context.Context,
	req *slack.RequestDoc,
	operator string,
	commandText string,
	commandParts []string,
) (*slack.ResponseDoc, error) {
	switch operator {
	case "start":
		return s.triviaGameService.Start(ctx, req, commandText)
	case "stop":
		return s.triviaGameService.Stop(ctx, req)
	case "join":
		return s.triviaGameService.Join(ctx, req)
	case "pass":
		if len(commandParts) < 2 {
			return passFormat(req.Command), nil
		}
		return s.triviaGameService.Pass(ctx, req, commandText)
	case "question":
		if len(commandParts) < 2 {
			return submitQuestionFormat(req.Command), nil
		}
		return s.triviaGameService.SubmitQuestion(ctx, req, commandText)
	case "answer":
		if len(commandParts) < 2 {
			return submitAnswerFormat(req.Command), nil
		}
		return s.triviaGameService.SubmitAnswer(ctx, req, commandText)
	case "incorrect":
		if len(commandParts) < 2 {
			return markAnswerIncorrectFormat(req.Command), nil
		}
		return s.triviaGameService.MarkAnswerIncorrect(ctx, req, commandText)
	case "correct":
		if len(commandParts) < 2 {
			return markAnswerCorrectFormat(req.Command), nil
		}
		target := commandParts[1]
		answer := ""
		if len(commandParts) > 2 {
			answer = strings.TrimSpace(commandText[len(target):])
		}
		return s.triviaGameService.MarkAnswerCorrect(ctx, req, target, answer)
	case "status":
		return s.triviaGameService.GetStatus(ctx, req)
	case "scores":
		return s.triviaGameService.GetScores(ctx, req)
	case "reset":
		return s.triviaGameService.ResetScores(ctx, req)
	}

	return usageFormat(req.Command), nil
}

func passFormat(command string) *slack.ResponseDoc {
	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         "To pass your turn, use `" + command + " pass <USERNAME>`.\n\nFor example, `" + command + " pass @jsmith`",
	}
}

func submitQuestionFormat(command string) *slack.ResponseDoc {
	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         "To submit a question, use `" + command + " question <QUESTION_TEXT>`.\n\nFor example, `" + command + " question In what year did WWII officially begin?`",
	}
}

func submitAnswerFormat(command string) *slack.ResponseDoc {
	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         "To submit an answer, use `" + command + " answer <ANSWER_TEXT>`.\n\nFor example, `" + command + " answer Blue skies`",
	}
}

func markAnswerIncorrectFormat(command string) *slack.ResponseDoc {
	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeEphemeral,
		Text: "To identify an answer as incorrect, use `" + command + " incorrect <USERNAME>`.\n" +
			"\nFor example, `" + command + " incorrect @jsmith`",
	}
}

func markAnswerCorrectFormat(command string) *slack.ResponseDoc {
	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeEphemeral,
		Text: "To mark an answer correct, use `" + command + " correct <USERNAME>`.\n" +
			"Optional: To include the correct answer, use `" + command + " correct <USERNAME> <CORRECT_ANSWER>`.\n\n" +
			"For example, `" + command + " correct @jsmith Chris Farley`",
	}
}

func usageFormat(command string) *slack.ResponseDoc {
	return &slack.ResponseDoc{
		ResponseType: slack.ResponseTypeEphemeral,
		Text:         "`" + command + "` usage:",
		Attachments: []*slack.Attachment{
			slack.NewAttachment("To start a new game as the host, use `" + command + " start`"),
			slack.NewAttachment("To join a game, use `" + command + " join`"),
			slack.NewAttachment("To ask a question, use `" + command + " question <QUESTION>`. This requires you to be the host."),
			slack.NewAttachment("To answer a question, use `" + command + " answer <ANSWER>`. (Note that answering a question will automatically join the game.)"),
			slack.NewAttachment(
				"To identify a correct answer, use `" + command + " correct <USERNAME> <ANSWER>`." +
					" If no correct answers were given, use `" + command + " correct none <CORRECT_ANSWER>`. This requires you to be the host.",
			),
			slack.NewAttachment("To pass your turn to someone else, use `" + command + " pass <USERNAME>`"),
			slack.NewAttachment("To view whose turn it is, the current question, and all answers provided so far, use `" + command + " status`"),
			slack.NewAttachment("To view the current scores, use `" + command + " scores`."),
			slack.NewAttachment("To reset all scores, use `" + command + " reset`."),
			slack.NewAttachment("To stop the current game, use `" + command + " stop`. This requires you to be the host."),
		},
	}
}
