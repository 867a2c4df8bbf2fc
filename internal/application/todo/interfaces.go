package todo

import "github.com/tasklet/backend/internal/domain/events"

// Publisher 领域事件发布者
// events.EventBus 满足此接口
type Publisher interface {
	Publish(event events.Event)
}

// ProvidePublisher 将事件总线作为发布者
func ProvidePublisher(bus events.EventBus) Publisher {
	return bus
}
