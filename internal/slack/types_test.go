package slack

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResponseTypeJSON 测试响应类型的JSON编解码
func TestResponseTypeJSON(t *testing.T) {
	data, err := json.Marshal(ResponseTypeInChannel)
	require.NoError(t, err)
	assert.Equal(t, `"in_channel"`, string(data))

	data, err = json.Marshal(ResponseTypeEphemeral)
	require.NoError(t, err)
	assert.Equal(t, `"ephemeral"`, string(data))

	var responseType ResponseType
	err = json.Unmarshal([]byte(`"in_channel"`), &responseType)
	require.NoError(t, err)
	assert.Equal(t, ResponseTypeInChannel, responseType)

	err = json.Unmarshal([]byte(`"bogus"`), &responseType)
	assert.Error(t, err)
}

// TestResponseDocJSON 测试响应文档的JSON结构
func TestResponseDocJSON(t *testing.T) {
	doc := &ResponseDoc{
		ResponseType: ResponseTypeEphemeral,
		Text:         "hello",
		Attachments: []*Attachment{
			NewAttachment("markdown text"),
			NewPlainAttachment("plain text"),
		},
	}

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{
			"response_type": "ephemeral",
			"text": "hello",
			"attachments": [
				{"text": "markdown text", "mrkdwn_in": ["text"]},
				{"text": "plain text", "mrkdwn_in": []}
			]
		}`,
		string(data),
	)
}

// TestResponseDocJSONOmitsEmptyAttachments 测试无附件时省略attachments字段
func TestResponseDocJSONOmitsEmptyAttachments(t *testing.T) {
	data, err := json.Marshal(Failure("oops"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"response_type": "ephemeral", "text": "oops"}`, string(data))
}
