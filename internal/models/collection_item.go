package models

import (
	"strings"
	"time"
)

// ItemStatus 采集记录的最终状态。
type ItemStatus string

const (
	ItemStatusSuccess ItemStatus = "success"
	ItemStatusFailed  ItemStatus = "failed"
)

// CollectionItem 是服务端保存的一条采集记录，客户端只读。
type CollectionItem struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Tags           []string   `json:"tags"`
	CoverURL       string     `json:"cover_url"`
	VideoURL       string     `json:"video_url"`
	Script         string     `json:"script"`
	SourcePlatform string     `json:"source_platform"`
	Status         ItemStatus `json:"status"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	CreatedAt      string     `json:"created_at"`
	UpdatedAt      string     `json:"updated_at"`
}

// Consistent 检查 error_message 当且仅当 status 为 failed 时存在。
func (i CollectionItem) Consistent() bool {
	hasError := i.ErrorMessage != nil && *i.ErrorMessage != ""
	return hasError == (i.Status == ItemStatusFailed)
}

// Failure 返回失败原因，成功记录返回空串。
func (i CollectionItem) Failure() string {
	if i.ErrorMessage == nil {
		return ""
	}
	return *i.ErrorMessage
}

// timestampLayouts 覆盖服务端可能返回的几种 ISO-8601 格式（带或不带时区）。
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp 解析服务端时间戳。
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Created 返回解析后的创建时间。
func (i CollectionItem) Created() (time.Time, bool) {
	return ParseTimestamp(i.CreatedAt)
}

// ListPage 是列表接口返回的一页数据。
type ListPage struct {
	Items []CollectionItem `json:"items"`
	Total int              `json:"total"`
}
