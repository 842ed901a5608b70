package slack

import (
	"fmt"
	"strings"
	"time"
)

// ResponseType Slack响应可见性类型
type ResponseType int

const (
	// ResponseTypeInChannel 频道内所有人可见
	ResponseTypeInChannel ResponseType = iota
	// ResponseTypeEphemeral 仅命令发起者可见
	ResponseTypeEphemeral
)

// MarshalJSON 实现json.Marshaler接口（Slack协议要求小写字符串）
func (t ResponseType) MarshalJSON() ([]byte, error) {
	switch t {
	case ResponseTypeInChannel:
		return []byte(`"in_channel"`), nil
	case ResponseTypeEphemeral:
		return []byte(`"ephemeral"`), nil
	default:
		return nil, fmt.Errorf("未知的响应类型: %d", t)
	}
}

// UnmarshalJSON 实现json.Unmarshaler接口
func (t *ResponseType) UnmarshalJSON(data []byte) error {
	switch strings.Trim(string(data), `"`) {
	case "in_channel":
		*t = ResponseTypeInChannel
	case "ephemeral":
		*t = ResponseTypeEphemeral
	default:
		return fmt.Errorf("未知的响应类型: %s", data)
	}
	return nil
}

// RequestDoc 斜杠命令请求文档（Slack以表单形式提交）
type RequestDoc struct {
	Token          string `form:"token"`
	TeamID         string `form:"team_id"`
	TeamDomain     string `form:"team_domain"`
	EnterpriseID   string `form:"enterprise_id"`
	EnterpriseName string `form:"enterprise_name"`
	ChannelID      string `form:"channel_id"`
	ChannelName    string `form:"channel_name"`
	UserID         string `form:"user_id"`
	Username       string `form:"user_name"`
	Command        string `form:"command"`
	Text           string `form:"text"`
	ResponseURL    string `form:"response_url"`
	TriggerID      string `form:"trigger_id"`

	// RequestTime 请求进入时间，由分发器在处理前打点
	RequestTime time.Time `form:"-"`
}

// Attachment 响应附件
type Attachment struct {
	Text string `json:"text"`
	// MarkdownIn 允许按Markdown渲染的字段列表，空切片表示按原文展示
	MarkdownIn []string `json:"mrkdwn_in"`
}

// NewAttachment 创建Markdown附件
func NewAttachment(text string) *Attachment {
	return &Attachment{
		Text:       text,
		MarkdownIn: []string{"text"},
	}
}

// NewPlainAttachment 创建按原文展示的附件
func NewPlainAttachment(text string) *Attachment {
	return &Attachment{
		Text:       text,
		MarkdownIn: []string{},
	}
}

// ResponseDoc 斜杠命令响应文档
type ResponseDoc struct {
	ResponseType ResponseType  `json:"response_type"`
	Text         string        `json:"text"`
	Attachments  []*Attachment `json:"attachments,omitempty"`
}

// Failure 创建仅发起者可见的失败响应
func Failure(text string) *ResponseDoc {
	return &ResponseDoc{
		ResponseType: ResponseTypeEphemeral,
		Text:         text,
	}
}

// User Slack用户标识（积分映射的键，按值比较）
type User struct {
	UserID   string
	Username string
}
