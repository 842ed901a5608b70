package slack

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ResponseSender 延迟响应发送器（向response_url异步推送第二条消息）
// 发送为即发即弃：调用方不观察发送结果，失败仅记录日志
type ResponseSender interface {
	Send(url string, doc *ResponseDoc)
}

// HTTPResponseSender 基于HTTP的延迟响应发送器
type HTTPResponseSender struct {
	client *http.Client
	log    *zap.Logger
}

// NewHTTPResponseSender 创建延迟响应发送器
func NewHTTPResponseSender(timeout time.Duration, log *zap.Logger) *HTTPResponseSender {
	return &HTTPResponseSender{
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

// Send 异步发送响应文档
func (s *HTTPResponseSender) Send(url string, doc *ResponseDoc) {
	go func() {
		body, err := json.Marshal(doc)
		if err != nil {
			s.log.Error("延迟响应序列化失败", zap.Error(err))
			return
		}

		resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
		if err != nil {
			s.log.Error("延迟响应发送失败",
				zap.String("url", url),
				zap.Error(err),
			)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			s.log.Warn("延迟响应被拒绝",
				zap.String("url", url),
				zap.Int("status", resp.StatusCode),
			)
		}
	}()
}
