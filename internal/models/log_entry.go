package models

// LogEntry 定义了用于结构化日志的统一数据格式，与 JSON 日志输出的字段保持一致。
// Kafka 日志推送发送的也是这个结构。
type LogEntry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`

	// ServiceName 产生日志的程序名，例如 "collect-cli"。
	ServiceName string `json:"service_name"`

	// Component 产生日志的组件，例如 "task"、"list"、"client"。
	Component string `json:"component,omitempty"`

	// TaskID 采集任务ID，有任务上下文时填写。
	TaskID string `json:"task_id,omitempty"`

	// RequestInfo 包含了发往服务端的请求信息。
	RequestInfo *RequestInfo `json:"request_info,omitempty"`

	// Error 包含了详细的错误信息。
	Error *ErrorInfo `json:"error,omitempty"`

	// Payload 其他业务字段。
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// RequestInfo 存储了一次 HTTP 请求的上下文信息。
type RequestInfo struct {
	RequestID string `json:"request_id"`
	Method    string `json:"method"`
	Path      string `json:"path"`
}

// ErrorInfo 存储了关于错误的结构化信息。
type ErrorInfo struct {
	Message    string `json:"message"`
	Type       string `json:"type,omitempty"`        // 错误分类，例如 "transport_error", "validation_error"
	StatusCode int    `json:"status_code,omitempty"` // 相关的HTTP状态码
}

// NewErrorInfo 从 error 生成 ErrorInfo。
func NewErrorInfo(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{}
	}
	return ErrorInfo{
		Message:    err.Error(),
		Type:       ErrorType(err),
		StatusCode: StatusCode(err),
	}
}
