package todoist

import "context"

// TaskInput 描述了要创建的提醒任务。
type TaskInput struct {
	Content     string   `json:"content"`            // 任务标题
	Description string   `json:"description"`        // 任务描述
	DueDate     string   `json:"due_date,omitempty"` // 到期日期 (YYYY-MM-DD)
	Priority    int      `json:"priority"`           // 优先级 (1-4)
	Labels      []string `json:"labels,omitempty"`   // 标签
}

// TaskRef 是外部任务系统中已创建任务的引用。
type TaskRef struct {
	TaskID string // 任务 ID
	URL    string // 任务链接
}

// Port 定义了任务提醒系统的调用接口。
// 提醒任务是尽力而为的：创建失败只记录日志，不会回滚已成功的日历预定。
type Port interface {
	// CreateTask 以用户凭证创建一个提醒任务。
	CreateTask(ctx context.Context, credential string, in *TaskInput) (*TaskRef, error)

	// DeleteTask 以用户凭证删除一个提醒任务。
	DeleteTask(ctx context.Context, credential string, taskID string) error
}
