package models

// StatusFilter 列表的状态筛选，空串表示“全部”。
type StatusFilter string

const (
	FilterAll     StatusFilter = ""
	FilterSuccess StatusFilter = StatusFilter(ItemStatusSuccess)
	FilterFailed  StatusFilter = StatusFilter(ItemStatusFailed)
)

// ParseStatusFilter 接受 "all"、"success"、"failed" 以及空串。
func ParseStatusFilter(value string) (StatusFilter, bool) {
	switch value {
	case "", "all":
		return FilterAll, true
	case string(FilterSuccess):
		return FilterSuccess, true
	case string(FilterFailed):
		return FilterFailed, true
	}
	return FilterAll, false
}

// ListQuery 是一次列表请求的参数。
type ListQuery struct {
	Page     int
	PageSize int
	Status   StatusFilter
	Platform string
}

// ListView 是列表控制器的派生状态快照。
type ListView struct {
	Page           int              `json:"page"`
	PageSize       int              `json:"page_size"`
	StatusFilter   StatusFilter     `json:"status_filter"`
	PlatformFilter string           `json:"platform_filter,omitempty"`
	Items          []CollectionItem `json:"items"`
	Total          int              `json:"total"`
	Loading        bool             `json:"loading"`
	Err            string           `json:"error,omitempty"`
	PendingDelete  *int64           `json:"pending_delete,omitempty"`
}

// PrevDisabled 第一页时“上一页”不可用。
func (v ListView) PrevDisabled() bool {
	return v.Page <= 1
}

// NextDisabled 当前页已经覆盖到 total 时“下一页”不可用。
func (v ListView) NextDisabled() bool {
	return v.Page*v.PageSize >= v.Total
}

// Empty 表示当前页没有数据且不在加载中。
func (v ListView) Empty() bool {
	return !v.Loading && len(v.Items) == 0
}

// LastPage 返回 total 对应的最后一页，至少为 1。
func LastPage(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
