package model

import (
	"fmt"
	"math"
)

// SourceItem 表示一个弹幕来源。
// 未解析时 ID 为视频页面 URL；解析后 ID 为数字视频 id，Duration 为时长（秒），
// SegmentCount 为按分钟划分的分段数。
type SourceItem struct {
	ID           string  `json:"id"`
	SegmentCount int     `json:"segment_count"`
	Duration     float64 `json:"duration"`
	Title        string  `json:"title"`
}

// SetDuration 设置时长并同步推导分段数 floor(seconds/60)
func (s *SourceItem) SetDuration(seconds float64) {
	s.Duration = seconds
	s.SegmentCount = int(math.Floor(seconds / 60))
}

// Descriptor 返回可交给 DownloadBySourceURL 的紧凑描述 "id:<id>;length:<分段数>"
func (s SourceItem) Descriptor() string {
	return fmt.Sprintf("id:%s;length:%d", s.ID, s.SegmentCount)
}

// AccessResult 是一次搜索或分集信息调用的结果
type AccessResult struct {
	ProviderID string       `json:"provider_id"`
	Error      bool         `json:"error"`
	ErrorInfo  string       `json:"error_info,omitempty"`
	Items      []SourceItem `json:"items"`
}

// Fail 把结果标记为失败；info 为空时使用通用描述，保证 Error 与 ErrorInfo 同时成立
func (r *AccessResult) Fail(info string) {
	if info == "" {
		info = "unknown error"
	}
	r.Error = true
	r.ErrorInfo = info
}
