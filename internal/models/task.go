package models

import (
	"time"
)

// TaskStatus 定义了采集任务的几种可能状态
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusNotFound   TaskStatus = "not_found"
)

// IsTerminal 终态之后不再轮询。未知状态按非终态处理。
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusNotFound:
		return true
	}
	return false
}

// TaskStatusResult 是状态接口 data 字段的内容。
type TaskStatusResult struct {
	Status   TaskStatus      `json:"status"`
	Progress int             `json:"progress"`
	Data     *CollectionItem `json:"data,omitempty"`
}

// TaskState 是任务控制器对外暴露的快照，每次更新整体替换。
type TaskState struct {
	TaskID   string          `json:"task_id"`
	VideoURL string          `json:"video_url"`
	Status   TaskStatus      `json:"status"`
	Progress int             `json:"progress"`
	Result   *CollectionItem `json:"result,omitempty"`
	Active   bool            `json:"active"`
	Err      string          `json:"error,omitempty"`
}

// DisplayProgress 把进度限制在 0-100 之间。
func (s TaskState) DisplayProgress() int {
	switch {
	case s.Progress < 0:
		return 0
	case s.Progress > 100:
		return 100
	}
	return s.Progress
}

// TaskEventKind 任务生命周期事件类型。
type TaskEventKind string

const (
	TaskEventSubmitted  TaskEventKind = "submitted"
	TaskEventProgress   TaskEventKind = "progress"
	TaskEventTerminal   TaskEventKind = "terminal"
	TaskEventAborted    TaskEventKind = "aborted"
	TaskEventSuperseded TaskEventKind = "superseded"
)

// TaskEvent 由任务控制器发给观察者（任务日志、sqlite 记录等）。
type TaskEvent struct {
	TaskID   string        `json:"task_id"`
	VideoURL string        `json:"video_url"`
	Kind     TaskEventKind `json:"kind"`
	Status   TaskStatus    `json:"status"`
	Progress int           `json:"progress"`
	Message  string        `json:"message,omitempty"`
	At       time.Time     `json:"at"`
}
