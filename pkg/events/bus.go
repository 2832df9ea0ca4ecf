package events

import "sync"

const (
	AssessmentPublished = "assessment.published"
	AttemptSubmitted    = "attempt.submitted"
)

// AssessmentPublishedEvent 测评发布后广播给订阅方
type AssessmentPublishedEvent struct {
	AssessmentID uint
	BatchID      uint
	Title        string
}

// AttemptSubmittedEvent 学生交卷后广播给订阅方
type AttemptSubmittedEvent struct {
	AttemptID    string
	AssessmentID uint
	UserID       uint
	Percentage   float64
}

type Handler func(interface{})

type Bus struct {
	handlers map[string][]Handler
	mu       sync.RWMutex
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
	}
}

func (b *Bus) Subscribe(event string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[event] = append(b.handlers[event], handler)
}

// Publish 异步派发，处理方失败不影响发布方
func (b *Bus) Publish(event string, data interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if handlers, found := b.handlers[event]; found {
		for _, handler := range handlers {
			go handler(data)
		}
	}
}
