package msg

import (
	std_errors "errors"
	"fmt"
)

// ClientError 可归因于玩家的校验失败
// 不致命：转换为error消息只回给肇事连接，游戏状态保持不变。
// 与结构损坏（wire.CorruptError）严格区分。
type ClientError struct {
	Reason string
}

func (e *ClientError) Error() string {
	return "client error: " + e.Reason
}

func ClientErrorf(format string, args ...interface{}) *ClientError {
	return &ClientError{Reason: fmt.Sprintf(format, args...)}
}

// AsClientError err是否为客户端错误
func AsClientError(err error) (*ClientError, bool) {
	var ce *ClientError
	if std_errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
