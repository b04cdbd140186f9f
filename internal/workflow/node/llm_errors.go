package node

import (
	"context"
	"errors"
	"strings"
)

// IsTransientLLMError 判断 LLM 调用错误是否可重试（超时/限流/上游故障）。
func IsTransientLLMError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"):
		return true
	case strings.Contains(msg, "timed out"):
		return true
	case strings.Contains(msg, "rate limit"):
		return true
	case strings.Contains(msg, "too many requests"):
		return true
	case strings.Contains(msg, "status code: 429"):
		return true
	case strings.Contains(msg, "status code: 5"):
		return true
	case strings.Contains(msg, "connection refused"):
		return true
	case strings.Contains(msg, "connection reset"):
		return true
	case strings.Contains(msg, "unexpected eof"):
		return true
	default:
		return false
	}
}
