// Package eventbus 提供进程内的事件发布与订阅
package eventbus

import (
	"log/slog"
	"sync"

	"github.com/tasklet/backend/internal/domain/events"
	"github.com/tasklet/backend/internal/infrastructure/log"
)

// subscription 订阅记录，以序号识别以便取消
type subscription struct {
	id      uint64
	handler events.Handler
}

// eventBusImpl EventBus 的实现
// 事件由单个分发协程按发布顺序投递，同一处理器看到的事件顺序与发布顺序一致
type eventBusImpl struct {
	// handlers 按事件类型存储的订阅列表
	handlers map[events.EventType][]subscription
	// nextID 下一个订阅序号
	nextID uint64
	// mu 保护 handlers 和 closed
	mu     sync.RWMutex
	closed bool

	// queue 待分发事件，不设上限，发布方从不阻塞
	queueMu sync.Mutex
	queue   []events.Event
	notify  chan struct{}

	stopping  chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// NewEventBus 创建事件总线并启动分发协程
func NewEventBus() events.EventBus {
	b := &eventBusImpl{
		handlers: make(map[events.EventType][]subscription),
		notify:   make(chan struct{}, 1),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   log.NewModuleLogger("eventbus", "bus"),
	}
	go b.run()
	return b
}

// Subscribe 订阅特定类型的事件
func (b *eventBusImpl) Subscribe(eventType events.EventType, handler events.Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(eventType, id) })
	}
}

// SubscribeMultiple 订阅多个类型的事件
func (b *eventBusImpl) SubscribeMultiple(eventTypes []events.EventType, handler events.Handler) func() {
	unsubscribers := make([]func(), 0, len(eventTypes))

	for _, eventType := range eventTypes {
		unsubscribers = append(unsubscribers, b.Subscribe(eventType, handler))
	}

	return func() {
		for _, unsub := range unsubscribers {
			unsub()
		}
	}
}

// unsubscribe 取消订阅，已排队但未分发的事件不再投递给该处理器
func (b *eventBusImpl) unsubscribe(eventType events.EventType, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
}

// Publish 异步发布事件，没有订阅者时直接丢弃
func (b *eventBusImpl) Publish(event events.Event) {
	b.mu.RLock()
	closed := b.closed
	subscribed := len(b.handlers[event.Type()]) > 0
	b.mu.RUnlock()

	if closed || !subscribed {
		return
	}

	b.queueMu.Lock()
	b.queue = append(b.queue, event)
	b.queueMu.Unlock()

	select {
	case b.notify <- struct{}{}:
	default:
	}
}

// run 分发循环
func (b *eventBusImpl) run() {
	defer close(b.done)

	for {
		b.drain()

		select {
		case <-b.notify:
		case <-b.stopping:
			// 关闭前投递剩余事件
			b.drain()
			return
		}
	}
}

// drain 依次分发当前队列中的全部事件
func (b *eventBusImpl) drain() {
	for {
		b.queueMu.Lock()
		pending := b.queue
		b.queue = nil
		b.queueMu.Unlock()

		if len(pending) == 0 {
			return
		}
		for _, event := range pending {
			b.dispatch(event)
		}
	}
}

// dispatch 将单个事件交给当前的全部订阅者
func (b *eventBusImpl) dispatch(event events.Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[event.Type()]))
	copy(subs, b.handlers[event.Type()])
	b.mu.RUnlock()

	b.logger.Debug("Dispatching event",
		"type", event.Type(),
		"handlers_count", len(subs),
	)

	for _, s := range subs {
		b.dispatchToHandler(event, s.handler)
	}
}

// dispatchToHandler 分发事件到单个处理器
func (b *eventBusImpl) dispatchToHandler(event events.Event, handler events.Handler) {
	// 捕获 panic，防止单个处理器崩溃影响其他处理器
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Handler panicked",
				"type", event.Type(),
				"panic", r,
			)
		}
	}()

	if err := handler.HandleEvent(event); err != nil {
		b.logger.Error("Handler returned error",
			"type", event.Type(),
			"error", err,
		)
	}
}

// Close 关闭事件总线
// 停止接收新事件，等待已发布事件处理完成
func (b *eventBusImpl) Close() {
	b.closeOnce.Do(func() {
		b.mu.Lock()
		b.closed = true
		b.mu.Unlock()

		close(b.stopping)
		<-b.done

		b.logger.Info("Event bus closed")
	})
}
