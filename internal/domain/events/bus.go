package events

// Handler 事件处理器
// 返回的 error 只用于日志记录，事件总线不会重试
type Handler interface {
	HandleEvent(event Event) error
}

// HandlerFunc 函数适配器
type HandlerFunc func(event Event) error

// HandleEvent 实现 Handler 接口
func (f HandlerFunc) HandleEvent(event Event) error {
	return f(event)
}

// Publisher 事件发布方（CRUD 服务在写入成功后调用）
type Publisher interface {
	// Publish 异步投递，不阻塞调用方
	Publish(event Event)
}

// Subscriber 事件订阅方（实时推送、指标统计）
type Subscriber interface {
	// Subscribe 订阅单个事件类型，返回取消订阅函数
	Subscribe(eventType EventType, handler Handler) (unsubscribe func())

	// SubscribeMultiple 订阅多个事件类型，返回的函数一次取消全部
	SubscribeMultiple(eventTypes []EventType, handler Handler) (unsubscribe func())
}

// EventBus 进程内事件总线
type EventBus interface {
	Publisher
	Subscriber

	// Close 停止接收新事件，并等待已投递事件处理完成
	Close()
}
