package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/trivia-game/internal/errors"
	"github.com/wfunc/trivia-game/internal/service"
	"github.com/wfunc/trivia-game/internal/slack"
	"go.uber.org/zap"
)

// SlackHandler Slack斜杠命令处理器
type SlackHandler struct {
	slashCommandService service.SlashCommandService
	log                 *zap.Logger
}

// NewSlackHandler 创建Slack斜杠命令处理器
func NewSlackHandler(slashCommandService service.SlashCommandService, log *zap.Logger) *SlackHandler {
	return &SlackHandler{
		slashCommandService: slashCommandService,
		log:                 log,
	}
}

// SlashCommand 处理斜杠命令
// Slack以application/x-www-form-urlencoded提交，响应为JSON文档
func (h *SlackHandler) SlashCommand(c *gin.Context) {
	var req slack.RequestDoc
	if err := c.ShouldBind(&req); err != nil {
		appErr := errors.Wrap(err, errors.ErrInvalidParam)
		c.JSON(http.StatusBadRequest, errors.NewErrorResponse(appErr, c.GetString("request_id")))
		return
	}

	responseDoc, err := h.slashCommandService.ProcessSlashCommand(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("斜杠命令处理失败",
			zap.String("channel_id", req.ChannelID),
			zap.String("user_id", req.UserID),
			zap.Error(err),
		)

		appErr := errors.Wrap(err, errors.ErrUnknown)
		c.JSON(appErr.HTTPStatus(), errors.NewErrorResponse(appErr, c.GetString("request_id")))
		return
	}

	c.JSON(http.StatusOK, responseDoc)
}
