package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/aware/pkg/domain"
)

// AllSignals is the stream topic receiving every completed throw.
const AllSignals = "*"

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // topic -> set of channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a listener for a topic and returns its channel and a
// cancel function that closes it.
func (sm *StreamManager) Subscribe(topic string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[topic]; !ok {
		sm.subscribers[topic] = make(map[chan<- string]struct{})
	}
	sm.subscribers[topic][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[topic]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, topic)
				}
			}
			close(ch)
		})
	}
}

// Broadcast sends msg to the listeners of topic. Slow listeners lose messages.
func (sm *StreamManager) Broadcast(topic string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[topic] {
		select {
		case ch <- msg:
		default:
			slog.Warn("SSE: Client buffer full, dropping message", "signal", topic)
		}
	}
}

// Hooks returns lifecycle hooks publishing every completed throw to the
// listeners of its signal name and to AllSignals.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnComplete: func(_ context.Context, e *domain.ThrowEvent) {
			raw, err := json.Marshal(e)
			if err != nil {
				slog.Error("SSE: encode throw event", "err", err)
				return
			}
			sm.Broadcast(e.Signal, string(raw))
			sm.Broadcast(AllSignals, string(raw))
		},
	}
}
