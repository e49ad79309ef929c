package youku

import (
	"sync"

	"youku-danmu-go/crawler/youku/model"
	"youku-danmu-go/logger"
)

type EventKind int

const (
	EventSearchDone EventKind = iota + 1
	EventEpInfoDone
	EventDownloadDone
)

func (k EventKind) String() string {
	switch k {
	case EventSearchDone:
		return "search_done"
	case EventEpInfoDone:
		return "ep_info_done"
	case EventDownloadDone:
		return "download_done"
	default:
		return "unknown"
	}
}

// Event 是操作完成后的通知，内容与该操作返回给调用方的值相同
type Event struct {
	Kind   EventKind
	Result *model.AccessResult
	Item   *model.SourceItem
	Err    error
}

// eventBus 把完成通知分发给所有订阅者。
// 每个订阅者持有独立的带缓冲通道；缓冲满时丢弃并告警，不阻塞发布方。
type eventBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[int]chan Event)}
}

func (b *eventBus) subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (b *eventBus) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			logger.GetLogger().Warnf("订阅者 %d 的事件缓冲已满，丢弃事件 %s", id, ev.Kind)
		}
	}
}
