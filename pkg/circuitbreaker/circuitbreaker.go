package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State 表示熔断器所处的状态。
type State int

const (
	// Closed 表示熔断器关闭，请求正常放行。
	Closed State = iota
	// Open 表示熔断器打开，请求被直接拒绝。
	Open
	// HalfOpen 表示熔断器半开，放行少量探测请求以判断下游是否恢复。
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "Closed"
	case Open:
		return "Open"
	case HalfOpen:
		return "Half-Open"
	default:
		return "Unknown"
	}
}

// ErrCircuitOpen 在熔断器处于打开状态时返回，调用方应视为下游暂不可用。
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker 包装对外部服务（如 Todoist API）的调用，
// 在下游连续失败时快速失败，避免阻塞消息处理链路。
type CircuitBreaker interface {
	// Execute 在熔断器允许的情况下执行 req 并记录结果。
	Execute(req func() (interface{}, error)) (interface{}, error)
	// State 返回当前状态。
	State() State
}

type breaker struct {
	mu sync.Mutex

	state        State
	failures     uint32 // Closed 状态下的连续失败数
	successes    uint32 // HalfOpen 状态下的连续成功数
	openedAt     time.Time
	failLimit    uint32
	successLimit uint32
	cooldown     time.Duration
}

// New 创建一个熔断器。连续失败 failureThreshold 次后打开，
// 冷却 timeout 后进入半开，半开下连续成功 successThreshold 次即关闭。
func New(failureThreshold, successThreshold uint32, timeout time.Duration) CircuitBreaker {
	return &breaker{
		state:        Closed,
		failLimit:    failureThreshold,
		successLimit: successThreshold,
		cooldown:     timeout,
	}
}

func (b *breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *breaker) Execute(req func() (interface{}, error)) (interface{}, error) {
	if !b.allow() {
		return nil, ErrCircuitOpen
	}

	res, err := req()
	b.record(err == nil)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// allow 判断当前请求是否放行，必要时完成 Open 到 HalfOpen 的迁移。
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open {
		if time.Since(b.openedAt) <= b.cooldown {
			return false
		}
		b.state = HalfOpen
		b.successes = 0
	}
	return true
}

// record 根据调用结果推进状态机。
func (b *breaker) record(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ok {
		switch b.state {
		case HalfOpen:
			b.successes++
			if b.successes >= b.successLimit {
				b.state = Closed
				b.failures = 0
				b.successes = 0
			}
		case Closed:
			b.failures = 0
		}
		return
	}

	switch b.state {
	case HalfOpen:
		b.trip()
	case Closed:
		b.failures++
		if b.failures >= b.failLimit {
			b.trip()
		}
	}
}

func (b *breaker) trip() {
	b.state = Open
	b.openedAt = time.Now()
	b.failures = 0
	b.successes = 0
}
