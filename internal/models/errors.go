package models

import (
	"errors"
	"fmt"
	"net/http"
)

// 错误类型，写入日志的 ErrorInfo.Type。
const (
	ErrorTypeValidation  = "validation_error"
	ErrorTypeTransport   = "transport_error"
	ErrorTypeApplication = "application_error"
	ErrorTypeInternal    = "internal_error"
)

// ValidationError 本地校验失败，请求不会发出。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// TransportError 网络错误或非 2xx 响应。
type TransportError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": transport error"
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError 服务端返回 success:false。
type ApplicationError struct {
	Op      string
	Message string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// UserMessage 生成给用户看的简短错误文案。传输错误和业务错误对用户表现一致。
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var aerr *ApplicationError
	if errors.As(err, &aerr) {
		if aerr.Message != "" {
			return aerr.Message
		}
		return aerr.Op + " failed"
	}
	var terr *TransportError
	if errors.As(err, &terr) {
		if terr.Message != "" {
			return terr.Message
		}
		if terr.StatusCode >= http.StatusMultipleChoices {
			return fmt.Sprintf("%s failed: %d", terr.Op, terr.StatusCode)
		}
		return terr.Op + " failed"
	}
	return err.Error()
}

// ErrorType 返回错误分类，用于日志。
func ErrorType(err error) string {
	var verr *ValidationError
	var aerr *ApplicationError
	var terr *TransportError
	switch {
	case errors.As(err, &verr):
		return ErrorTypeValidation
	case errors.As(err, &aerr):
		return ErrorTypeApplication
	case errors.As(err, &terr):
		return ErrorTypeTransport
	}
	return ErrorTypeInternal
}

// StatusCode 返回错误携带的 HTTP 状态码，没有时为 0。
func StatusCode(err error) int {
	var terr *TransportError
	if errors.As(err, &terr) {
		return terr.StatusCode
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest
	}
	return 0
}
