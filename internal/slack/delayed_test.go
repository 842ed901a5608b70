package slack

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestHTTPResponseSenderSend 测试延迟响应的异步发送
func TestHTTPResponseSenderSend(t *testing.T) {
	received := make(chan []byte, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		received <- body
	}))
	defer server.Close()

	sender := NewHTTPResponseSender(5*time.Second, zap.NewNop())
	sender.Send(server.URL, &ResponseDoc{
		ResponseType: ResponseTypeInChannel,
		Text:         "broadcast",
	})

	select {
	case body := <-received:
		var doc ResponseDoc
		require.NoError(t, json.Unmarshal(body, &doc))
		assert.Equal(t, ResponseTypeInChannel, doc.ResponseType)
		assert.Equal(t, "broadcast", doc.Text)
	case <-time.After(5 * time.Second):
		t.Fatal("延迟响应未送达")
	}
}

// TestHTTPResponseSenderSendUnreachable 测试发送失败不影响调用方
func TestHTTPResponseSenderSendUnreachable(t *testing.T) {
	sender := NewHTTPResponseSender(time.Second, zap.NewNop())

	// 即发即弃：不可达地址不会panic也不会阻塞
	sender.Send("http://127.0.0.1:1/unreachable", Failure("oops"))
	time.Sleep(50 * time.Millisecond)
}
