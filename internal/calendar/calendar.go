package calendar

import (
	"context"
	"time"
)

// EventInput 描述了要创建的日历事件。
type EventInput struct {
	Title     string    // 事件标题
	Start     time.Time // 开始时间
	End       time.Time // 结束时间
	Timezone  string    // IANA 时区名称
	Location  string    // 地点 (可为空)
	Attendees []string  // 参与者邮箱列表 (可为空)
}

// EventRef 是外部日历系统中已创建事件的引用。
type EventRef struct {
	EventID  string // 事件 ID
	HTMLLink string // 事件链接
}

// Port 定义了日历系统的调用接口。
// 日历是调度操作的门控系统：事件创建失败意味着整个预定失败。
type Port interface {
	// CreateEvent 以用户凭证创建一个日历事件。
	CreateEvent(ctx context.Context, credential string, in *EventInput) (*EventRef, error)

	// DeleteEvent 以用户凭证删除一个日历事件。
	DeleteEvent(ctx context.Context, credential string, eventID string) error
}
