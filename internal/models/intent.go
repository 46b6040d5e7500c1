package models

// IntentKind 定义了从消息中识别出的调度意图类型。
type IntentKind string

const (
	IntentSchedule   IntentKind = "schedule"   // 预定会议
	IntentCancel     IntentKind = "cancel"     // 取消会议
	IntentReschedule IntentKind = "reschedule" // 改期
	IntentInfo       IntentKind = "info"       // 查询会议信息
	IntentOther      IntentKind = "other"      // 无法识别 / 闲聊
)

// Intent 是从一条自然语言消息中抽取出的结构化调度意图。
// 分类器保证相对日期 ("tomorrow", "next Tuesday") 已被解析为绝对日期；
// 空字符串 / 零值表示该字段缺失。
type Intent struct {
	Kind            IntentKind `json:"intent"`                     // 意图类型
	Date            string     `json:"date,omitempty"`             // 绝对日期 (YYYY-MM-DD)
	Time            string     `json:"time,omitempty"`             // 时刻 (HH:MM)
	Timezone        string     `json:"timezone,omitempty"`         // 时区，缺失时回退到配置的默认时区
	DurationMinutes int        `json:"duration_minutes,omitempty"` // 时长 (分钟)，缺失默认 30
	MeetingType     string     `json:"meeting_type,omitempty"`     // virtual / in-person
	Location        string     `json:"location,omitempty"`         // 地点
	Participants    []string   `json:"participants,omitempty"`     // 参与者联系地址
	Title           string     `json:"title,omitempty"`            // 会议标题
	Confidence      float64    `json:"confidence"`                 // 分类置信度 [0,1]
}

// MissingScheduleFields 返回预定会议所缺失的必填字段名，
// 固定按 date、time 的顺序排列。
func (i *Intent) MissingScheduleFields() []string {
	var missing []string
	if i.Date == "" {
		missing = append(missing, "date")
	}
	if i.Time == "" {
		missing = append(missing, "time")
	}
	return missing
}

// MergeFrom 用先前未完成的意图补全当前意图中缺失的调度字段。
// 用于多轮对话：上一轮给了日期、这一轮只给了时间的场景。
func (i *Intent) MergeFrom(prev *Intent) {
	if prev == nil {
		return
	}
	if i.Date == "" {
		i.Date = prev.Date
	}
	if i.Time == "" {
		i.Time = prev.Time
	}
	if i.Timezone == "" {
		i.Timezone = prev.Timezone
	}
	if i.DurationMinutes == 0 {
		i.DurationMinutes = prev.DurationMinutes
	}
	if i.MeetingType == "" {
		i.MeetingType = prev.MeetingType
	}
	if i.Location == "" {
		i.Location = prev.Location
	}
	if len(i.Participants) == 0 {
		i.Participants = prev.Participants
	}
	if i.Title == "" {
		i.Title = prev.Title
	}
}
