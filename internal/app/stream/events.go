package stream

import (
	"log"
	"sync"
	"time"
)

type EventType string

const (
	EventStatus        EventType = "status"
	EventVideoURL      EventType = "videoUrl"
	EventVideoMetadata EventType = "videoMetadata"
	EventError         EventType = "error"
)

// Метаданные видео. Длительность может приходить несколько раз из разных
// источников (проба, транскодер) — подписчик берёт последнее значение.
type VideoMetadata struct {
	Duration float64 `json:"duration"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Event — событие для наблюдателей (UI).
type Event struct {
	Type      EventType      `json:"type"`
	Status    *Status        `json:"status,omitempty"`
	URL       string         `json:"url,omitempty"`
	Metadata  *VideoMetadata `json:"metadata,omitempty"`
	Error     *ErrorInfo     `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Bus рассылает события всем подписчикам. Публикация не блокируется:
// медленный подписчик теряет события, а не тормозит сессию.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe возвращает канал событий и функцию отписки.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 64)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			log.Printf("[events] Subscriber channel is full, dropping %s event", event.Type)
		}
	}
}

func (b *Bus) PublishStatus(status Status) {
	b.Publish(Event{Type: EventStatus, Status: &status})
}

func (b *Bus) PublishVideoURL(url string) {
	b.Publish(Event{Type: EventVideoURL, URL: url})
}

func (b *Bus) PublishDuration(seconds float64) {
	b.Publish(Event{Type: EventVideoMetadata, Metadata: &VideoMetadata{Duration: seconds}})
}

func (b *Bus) PublishError(code, message string) {
	b.Publish(Event{Type: EventError, Error: &ErrorInfo{Code: code, Message: message}})
}
