package models

import "encoding/json"

// Envelope 是所有接口统一的响应外壳 {success, data, message}。
// Detail 用于兼容框架层抛出的 {detail} 错误体。
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Detail  json.RawMessage `json:"detail,omitempty"`
}

// Text 返回服务端给出的错误文案，没有时返回空串。
func (e Envelope) Text() string {
	if e.Message != "" {
		return e.Message
	}
	var detail string
	if len(e.Detail) > 0 && json.Unmarshal(e.Detail, &detail) == nil {
		return detail
	}
	return ""
}

// CollectRequest 提交采集任务的请求体。
type CollectRequest struct {
	VideoURL string `json:"video_url"`
}

// CollectResponse 提交成功后返回的任务ID。
type CollectResponse struct {
	TaskID string `json:"task_id"`
}
