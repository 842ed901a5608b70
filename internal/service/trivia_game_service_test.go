package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/wfunc/trivia-game/internal/models"
	"github.com/wfunc/trivia-game/internal/repository"
	"github.com/wfunc/trivia-game/internal/slack"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// fakeResponseSender 记录广播消息的响应发送器
type fakeResponseSender struct {
	mu   sync.Mutex
	urls []string
	docs []*slack.ResponseDoc
}

func (f *fakeResponseSender) Send(url string, doc *slack.ResponseDoc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	f.docs = append(f.docs, doc)
}

func (f *fakeResponseSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

func (f *fakeResponseSender) last() *slack.ResponseDoc {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.docs) == 0 {
		return nil
	}
	return f.docs[len(f.docs)-1]
}

// TriviaGameServiceTestSuite 问答游戏编排服务测试套件
type TriviaGameServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	scoreRepo   repository.ScoreRepository
	sender      *fakeResponseSender
	gameService TriviaGameService
}

func (suite *TriviaGameServiceTestSuite) SetupTest() {
	suite.db = newTestDB(suite.T())
	suite.sender = &fakeResponseSender{}

	log, _ := zap.NewDevelopment()
	suite.scoreRepo = repository.NewScoreRepository(suite.db)

	location, err := time.LoadLocation("America/Chicago")
	require.NoError(suite.T(), err)

	scoreService := NewScoreService(suite.scoreRepo, log)
	workflowService := NewWorkflowService(repository.NewWorkflowRepository(suite.db), log)
	suite.gameService = NewTriviaGameService(scoreService, workflowService, suite.sender, location, log)
}

func (suite *TriviaGameServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

func (suite *TriviaGameServiceTestSuite) newRequest(userID, username string) *slack.RequestDoc {
	return &slack.RequestDoc{
		ChannelID:   "channel",
		UserID:      userID,
		Username:    username,
		Command:     "/command",
		ResponseURL: "https://hooks.example.com/response",
		RequestTime: time.Now().UTC(),
	}
}

func (suite *TriviaGameServiceTestSuite) seedScore(userID, username string, score int64) {
	err := suite.scoreRepo.Save(context.Background(), &models.ScoreInfo{
		ChannelID: "channel",
		UserID:    userID,
		Username:  username,
		Score:     score,
	})
	require.NoError(suite.T(), err)
}

// TestStart 测试开始游戏
func (suite *TriviaGameServiceTestSuite) TestStart() {
	ctx := context.Background()

	responseDoc, err := suite.gameService.Start(ctx, suite.newRequest("U12345", "host"), "some topic")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeInChannel, responseDoc.ResponseType)
	assert.Equal(suite.T(), "OK, <@U12345>, please ask a question.", responseDoc.Text)

	// 重复开始
	responseDoc, err = suite.gameService.Start(ctx, suite.newRequest("U12345", "host"), "")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeEphemeral, responseDoc.ResponseType)
	assert.Equal(suite.T(), "You are already hosting!", responseDoc.Text)

	responseDoc, err = suite.gameService.Start(ctx, suite.newRequest("U6789", "joe"), "")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeEphemeral, responseDoc.ResponseType)
	assert.Equal(suite.T(), "<@U12345> is currently hosting.", responseDoc.Text)
}

// TestStop 测试停止游戏
func (suite *TriviaGameServiceTestSuite) TestStop() {
	ctx := context.Background()

	responseDoc, err := suite.gameService.Stop(ctx, suite.newRequest("U12345", "host"))
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeEphemeral, responseDoc.ResponseType)
	assert.Equal(suite.T(), "A game has not yet been started. If you'd like to start a game, try `/command start`", responseDoc.Text)

	_, err = suite.gameService.Start(ctx, suite.newRequest("U12345", "host"), "")
	assert.NoError(suite.T(), err)

	responseDoc, err = suite.gameService.Stop(ctx, suite.newRequest("U12345", "host"))
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeInChannel, responseDoc.ResponseType)
	assert.Equal(suite.T(), "The game has been stopped but scores have not been cleared. If you'd like to start a new game, try `/command start`.", responseDoc.Text)
}

// TestJoin 测试加入游戏
func (suite *TriviaGameServiceTestSuite) TestJoin() {
	ctx := context.Background()

	responseDoc, err := suite.gameService.Join(ctx, suite.newRequest("U12345", "jsmith"))
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeEphemeral, responseDoc.ResponseType)
	assert.Equal(suite.T(), "Joining game.", responseDoc.Text)

	assert.Equal(suite.T(), 1, suite.sender.count())
	broadcast := suite.sender.last()
	assert.Equal(suite.T(), slack.ResponseTypeInChannel, broadcast.ResponseType)
	assert.Equal(suite.T(), "<@U12345> has joined the game!", broadcast.Text)

	// 重复加入无广播
	responseDoc, err = suite.gameService.Join(ctx, suite.newRequest("U12345", "jsmith"))
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "You're already in the game.", responseDoc.Text)
	assert.Equal(suite.T(), 1, suite.sender.count())
}

// TestPass 测试让出回合
func (suite *TriviaGameServiceTestSuite) TestPass() {
	ctx := context.Background()

	_, err := suite.gameService.Start(ctx, suite.newRequest("U12345", "host"), "")
	assert.NoError(suite.T(), err)

	// 目标玩家未建档
	responseDoc, err := suite.gameService.Pass(ctx, suite.newRequest("U12345", "host"), "<@U6789>")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeEphemeral, responseDoc.ResponseType)
	assert.Equal(suite.T(), "User <@U6789> does not exist. Please choose a valid user.", responseDoc.Text)
	require.Len(suite.T(), responseDoc.Attachments, 1)
	assert.Equal(suite.T(), "Usage: `/command pass @jsmith`", responseDoc.Attachments[0].Text)

	suite.seedScore("U6789", "joe", 0)

	// 非主持人不能让出
	responseDoc, err = suite.gameService.Pass(ctx, suite.newRequest("U6789", "joe"), "<@U6789>")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "It's <@U12345>'s turn; only he/she can cede his/her turn.", responseDoc.Text)

	responseDoc, err = suite.gameService.Pass(ctx, suite.newRequest("U12345", "host"), "<@U6789>")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeEphemeral, responseDoc.ResponseType)
	assert.Equal(suite.T(), "Turn passed to <@U6789>.", responseDoc.Text)

	broadcast := suite.sender.last()
	assert.Equal(suite.T(), slack.ResponseTypeInChannel, broadcast.ResponseType)
	assert.Equal(suite.T(), "<@U12345> has decided to pass his/her turn to <@U6789>.\n\nOK, <@U6789>, it's your turn to ask a question!", broadcast.Text)
}

// TestSubmitQuestion 测试提交问题
func (suite *TriviaGameServiceTestSuite) TestSubmitQuestion() {
	ctx := context.Background()

	_, err := suite.gameService.Start(ctx, suite.newRequest("U12345", "host"), "")
	assert.NoError(suite.T(), err)

	responseDoc, err := suite.gameService.SubmitQuestion(ctx, suite.newRequest("U12345", "host"), "some question?")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeEphemeral, responseDoc.ResponseType)
	assert.Equal(suite.T(), "Question posted.", responseDoc.Text)

	broadcast := suite.sender.last()
	assert.Equal(suite.T(), slack.ResponseTypeInChannel, broadcast.ResponseType)
	assert.Equal(suite.T(), "<@U12345> asked the following question:\n\nsome question?", broadcast.Text)
}

// TestSubmitAnswer 测试提交答案并自动加入
func (suite *TriviaGameServiceTestSuite) TestSubmitAnswer() {
	ctx := context.Background()

	_, err := suite.gameService.Start(ctx, suite.newRequest("U12345", "host"), "")
	assert.NoError(suite.T(), err)
	_, err = suite.gameService.SubmitQuestion(ctx, suite.newRequest("U12345", "host"), "some question?")
	assert.NoError(suite.T(), err)

	responseDoc, err := suite.gameService.SubmitAnswer(ctx, suite.newRequest("U6789", "joe"), "*my answer*")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeEphemeral, responseDoc.ResponseType)
	assert.Equal(suite.T(), "Answer submitted.", responseDoc.Text)

	// 广播附件按原文展示
	broadcast := suite.sender.last()
	assert.Equal(suite.T(), slack.ResponseTypeInChannel, broadcast.ResponseType)
	assert.Equal(suite.T(), "<@U6789> answers:", broadcast.Text)
	require.Len(suite.T(), broadcast.Attachments, 1)
	assert.Equal(suite.T(), "*my answer*", broadcast.Attachments[0].Text)
	assert.Empty(suite.T(), broadcast.Attachments[0].MarkdownIn)

	// 答题即自动建档
	scores, err := suite.scoreRepo.FindByChannel(ctx, "channel")
	assert.NoError(suite.T(), err)
	require.Len(suite.T(), scores, 1)
	assert.Equal(suite.T(), "joe", scores[0].Username)
	assert.Equal(suite.T(), int64(0), scores[0].Score)
}

// TestMarkAnswerIncorrect 测试标记错误答案
func (suite *TriviaGameServiceTestSuite) TestMarkAnswerIncorrect() {
	ctx := context.Background()

	_, err := suite.gameService.Start(ctx, suite.newRequest("U12345", "host"), "")
	assert.NoError(suite.T(), err)
	_, err = suite.gameService.SubmitQuestion(ctx, suite.newRequest("U12345", "host"), "some question?")
	assert.NoError(suite.T(), err)
	_, err = suite.gameService.SubmitAnswer(ctx, suite.newRequest("U6789", "joe"), "wrong answer")
	assert.NoError(suite.T(), err)

	responseDoc, err := suite.gameService.MarkAnswerIncorrect(ctx, suite.newRequest("U12345", "host"), "<@U6789>")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeEphemeral, responseDoc.ResponseType)
	assert.Equal(suite.T(), "Marked answer incorrect.", responseDoc.Text)

	broadcast := suite.sender.last()
	assert.Equal(suite.T(), slack.ResponseTypeInChannel, broadcast.ResponseType)
	assert.Equal(suite.T(), "You couldn't be more wrong, <@U6789>", broadcast.Text)
}

// TestMarkAnswerCorrect 测试标记正确答案并加分
func (suite *TriviaGameServiceTestSuite) TestMarkAnswerCorrect() {
	ctx := context.Background()

	_, err := suite.gameService.Start(ctx, suite.newRequest("U12345", "host"), "")
	assert.NoError(suite.T(), err)
	_, err = suite.gameService.SubmitQuestion(ctx, suite.newRequest("U12345", "host"), "some question?")
	assert.NoError(suite.T(), err)
	_, err = suite.gameService.SubmitAnswer(ctx, suite.newRequest("U6789", "joe"), "some answer")
	assert.NoError(suite.T(), err)

	responseDoc, err := suite.gameService.MarkAnswerCorrect(ctx, suite.newRequest("U12345", "host"), "<@U6789>", "some answer")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeEphemeral, responseDoc.ResponseType)
	assert.Equal(suite.T(), "Score updated.", responseDoc.Text)

	broadcast := suite.sender.last()
	assert.Equal(suite.T(), slack.ResponseTypeInChannel, broadcast.ResponseType)
	assert.Equal(suite.T(),
		"<@U6789> is correct with some answer!\n\n```Scores:\n\n@joe:   1```\n\nOK, <@U6789>, you're up!",
		broadcast.Text,
	)

	// 回合轮换到答对的玩家
	statusDoc, err := suite.gameService.GetStatus(ctx, suite.newRequest("U6789", "joe"))
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "*Topic:* None\n*Turn:* Yours\n*Question:* Waiting...", statusDoc.Text)
}

// TestMarkAnswerCorrectWithoutAnswerText 测试不附带答案文本
func (suite *TriviaGameServiceTestSuite) TestMarkAnswerCorrectWithoutAnswerText() {
	ctx := context.Background()

	_, err := suite.gameService.Start(ctx, suite.newRequest("U12345", "host"), "")
	assert.NoError(suite.T(), err)
	_, err = suite.gameService.SubmitQuestion(ctx, suite.newRequest("U12345", "host"), "some question?")
	assert.NoError(suite.T(), err)
	_, err = suite.gameService.SubmitAnswer(ctx, suite.newRequest("U6789", "joe"), "some answer")
	assert.NoError(suite.T(), err)

	_, err = suite.gameService.MarkAnswerCorrect(ctx, suite.newRequest("U12345", "host"), "<@U6789>", "")
	assert.NoError(suite.T(), err)

	broadcast := suite.sender.last()
	assert.Equal(suite.T(),
		"<@U6789> is correct!\n\n```Scores:\n\n@joe:   1```\n\nOK, <@U6789>, you're up!",
		broadcast.Text,
	)
}

// TestMarkAnswerCorrectNone 测试无人答对的哨兵分支
func (suite *TriviaGameServiceTestSuite) TestMarkAnswerCorrectNone() {
	ctx := context.Background()

	_, err := suite.gameService.Start(ctx, suite.newRequest("U12345", "host"), "")
	assert.NoError(suite.T(), err)
	_, err = suite.gameService.SubmitQuestion(ctx, suite.newRequest("U12345", "host"), "some question?")
	assert.NoError(suite.T(), err)

	responseDoc, err := suite.gameService.MarkAnswerCorrect(ctx, suite.newRequest("U12345", "host"), "None", "some answer")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Score updated.", responseDoc.Text)

	broadcast := suite.sender.last()
	assert.Equal(suite.T(),
		"It looks like no one was able to answer that one! The correct answer was some answer.\n\n```Scores:\n\nNo scores yet...```\n\nOK, <@U12345>, let's try another one!",
		broadcast.Text,
	)

	// 主持人保留回合并可重新提问
	statusDoc, err := suite.gameService.GetStatus(ctx, suite.newRequest("U12345", "host"))
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "*Topic:* None\n*Turn:* Yours\n*Question:* Waiting...", statusDoc.Text)
}

// TestMarkAnswerCorrectUnknownUser 测试加分目标不存在
func (suite *TriviaGameServiceTestSuite) TestMarkAnswerCorrectUnknownUser() {
	ctx := context.Background()

	_, err := suite.gameService.Start(ctx, suite.newRequest("U12345", "host"), "")
	assert.NoError(suite.T(), err)
	_, err = suite.gameService.SubmitQuestion(ctx, suite.newRequest("U12345", "host"), "some question?")
	assert.NoError(suite.T(), err)

	responseDoc, err := suite.gameService.MarkAnswerCorrect(ctx, suite.newRequest("U12345", "host"), "<@U404>", "")
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeEphemeral, responseDoc.ResponseType)
	assert.Equal(suite.T(), "User <@U404> does not exist. Please choose a valid user.", responseDoc.Text)
	require.Len(suite.T(), responseDoc.Attachments, 1)
	assert.Equal(suite.T(), "Usage: `/command correct @jsmith`", responseDoc.Attachments[0].Text)
}

// TestGetStatus 测试状态渲染
func (suite *TriviaGameServiceTestSuite) TestGetStatus() {
	ctx := context.Background()

	// 游戏未开始
	responseDoc, err := suite.gameService.GetStatus(ctx, suite.newRequest("U12345", "host"))
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeEphemeral, responseDoc.ResponseType)
	assert.Equal(suite.T(), "A game has not yet been started. If you'd like to start a game, try `/command start`", responseDoc.Text)

	_, err = suite.gameService.Start(ctx, suite.newRequest("U12345", "host"), "some topic")
	assert.NoError(suite.T(), err)

	// 主持人视角，未提问
	responseDoc, err = suite.gameService.GetStatus(ctx, suite.newRequest("U12345", "host"))
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "*Topic:* some topic\n*Turn:* Yours\n*Question:* Waiting...", responseDoc.Text)

	// 其他玩家视角
	responseDoc, err = suite.gameService.GetStatus(ctx, suite.newRequest("U6789", "joe"))
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "*Topic:* some topic\n*Turn:* <@U12345>\n*Question:* Waiting...", responseDoc.Text)

	// 已提问，无答案
	_, err = suite.gameService.SubmitQuestion(ctx, suite.newRequest("U12345", "host"), "some question?")
	assert.NoError(suite.T(), err)

	responseDoc, err = suite.gameService.GetStatus(ctx, suite.newRequest("U12345", "host"))
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "*Topic:* some topic\n*Turn:* Yours\n*Question:*\n\nsome question?\n\n*Answers:* Waiting...", responseDoc.Text)
}

// TestGetStatusWithAnswers 测试答案按时间顺序渲染
func (suite *TriviaGameServiceTestSuite) TestGetStatusWithAnswers() {
	ctx := context.Background()

	_, err := suite.gameService.Start(ctx, suite.newRequest("U12345", "host"), "some topic")
	assert.NoError(suite.T(), err)
	_, err = suite.gameService.SubmitQuestion(ctx, suite.newRequest("U12345", "host"), "some question?")
	assert.NoError(suite.T(), err)

	// 乱序提交，渲染时按提交时间排序
	answers := []struct {
		userID    string
		username  string
		text      string
		createdAt time.Time
	}{
		{"U2222", "joe", "answer 2", time.Date(2018, 10, 9, 16, 32, 21, 0, time.UTC)},
		{"U1111", "jimbob", "answer 1", time.Date(2018, 10, 9, 16, 30, 33, 0, time.UTC)},
		{"U3333", "muchlongerusername", "answer 3", time.Date(2018, 10, 9, 16, 34, 25, 0, time.UTC)},
	}
	for _, answer := range answers {
		req := suite.newRequest(answer.userID, answer.username)
		req.RequestTime = answer.createdAt
		_, err = suite.gameService.SubmitAnswer(ctx, req, answer.text)
		assert.NoError(suite.T(), err)
	}

	responseDoc, err := suite.gameService.GetStatus(ctx, suite.newRequest("U12345", "host"))
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(),
		"*Topic:* some topic\n*Turn:* Yours\n*Question:*\n\nsome question?\n\n*Answers:*\n\n"+
			"```10/09/2018 11:30:33 AM   @jimbob                answer 1\n"+
			"10/09/2018 11:32:21 AM   @joe                   answer 2\n"+
			"10/09/2018 11:34:25 AM   @muchlongerusername    answer 3```",
		responseDoc.Text,
	)
}

// TestGetScores 测试积分榜渲染
func (suite *TriviaGameServiceTestSuite) TestGetScores() {
	ctx := context.Background()

	responseDoc, err := suite.gameService.GetScores(ctx, suite.newRequest("U12345", "host"))
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeEphemeral, responseDoc.ResponseType)
	assert.Equal(suite.T(), "```Scores:\n\nNo scores yet...```", responseDoc.Text)

	// 积分降序，同分按用户名升序
	suite.seedScore("U1", "test4", 1)
	suite.seedScore("U2", "longertest2", 103)
	suite.seedScore("U3", "unmanageablylongertest3", 12)
	suite.seedScore("U4", "test1", 1)

	responseDoc, err = suite.gameService.GetScores(ctx, suite.newRequest("U12345", "host"))
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(),
		"```Scores:\n\n@longertest2:             103\n@unmanageablylongertest3:  12\n@test1:                     1\n@test4:                     1```",
		responseDoc.Text,
	)
}

// TestResetScores 测试清空积分
func (suite *TriviaGameServiceTestSuite) TestResetScores() {
	ctx := context.Background()

	suite.seedScore("U1", "jsmith", 5)

	responseDoc, err := suite.gameService.ResetScores(ctx, suite.newRequest("U12345", "host"))
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), slack.ResponseTypeInChannel, responseDoc.ResponseType)
	assert.Equal(suite.T(), "Scores have been reset!", responseDoc.Text)
	require.Len(suite.T(), responseDoc.Attachments, 1)
	assert.Equal(suite.T(), "```Scores:\n\nNo scores yet...```", responseDoc.Attachments[0].Text)
}

func TestTriviaGameServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TriviaGameServiceTestSuite))
}
