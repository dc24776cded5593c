// Package eventbus implements the Event Bus (C6): a per-scan, in-memory
// publish/subscribe channel with bounded history for late subscribers and a
// bounded per-subscriber delivery queue so a slow consumer can never block
// the producer.
package eventbus

import (
	"sync"
	"time"

	"github.com/openaudit/a11yscan/pkg/model"
)

const (
	DefaultHistorySize         = 500
	DefaultSubscriberQueueBound = 100
	DefaultGraceWindow         = 30 * time.Minute
)

// Subscription is a live stream of ScanEvents for one scan, starting just
// after sinceSeq. Events arrive in strictly increasing sequence order.
type Subscription struct {
	Events  <-chan model.ScanEvent
	Overrun <-chan struct{}

	bus    *Bus
	scanID string
	id     int
	events chan model.ScanEvent
	overrun chan struct{}
}

// Close unsubscribes; it is safe to call multiple times.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s.scanID, s.id)
}

type scanTopic struct {
	history     []model.ScanEvent
	nextSeq     int64
	subscribers map[int]*Subscription
	nextSubID   int
	closedAt    *time.Time
}

// Bus is the owned singleton pub/sub table, one topic per scan id.
type Bus struct {
	mu                   sync.Mutex
	topics               map[string]*scanTopic
	historySize          int
	subscriberQueueBound int
	graceWindow          time.Duration
}

// New constructs a Bus with the given bounds. Zero values fall back to the
// §5 defaults (history 500, subscriber queue 100, grace window 30m).
func New(historySize, subscriberQueueBound int, graceWindow time.Duration) *Bus {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	if subscriberQueueBound <= 0 {
		subscriberQueueBound = DefaultSubscriberQueueBound
	}
	if graceWindow <= 0 {
		graceWindow = DefaultGraceWindow
	}
	return &Bus{
		topics:               make(map[string]*scanTopic),
		historySize:          historySize,
		subscriberQueueBound: subscriberQueueBound,
		graceWindow:          graceWindow,
	}
}

func (b *Bus) topicFor(scanID string) *scanTopic {
	t, ok := b.topics[scanID]
	if !ok {
		t = &scanTopic{subscribers: make(map[int]*Subscription)}
		b.topics[scanID] = t
	}
	return t
}

// Publish assigns the next monotonic sequence number, appends to the
// bounded history, and fans out to every current subscriber without
// blocking. A subscriber whose queue is full is dropped with an Overrun
// signal rather than stalling the producer.
func (b *Bus) Publish(scanID string, eventType model.EventType, payload interface{}) model.ScanEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.topicFor(scanID)
	t.nextSeq++
	event := model.ScanEvent{
		ScanID:    scanID,
		Seq:       t.nextSeq,
		Timestamp: time.Now(),
		Type:      eventType,
		Payload:   payload,
	}

	t.history = append(t.history, event)
	if len(t.history) > b.historySize {
		t.history = t.history[len(t.history)-b.historySize:]
	}

	for _, sub := range t.subscribers {
		select {
		case sub.events <- event:
		default:
			b.dropLocked(t, sub)
		}
	}

	return event
}

// dropLocked signals Overrun and removes a subscriber. Caller holds b.mu.
func (b *Bus) dropLocked(t *scanTopic, sub *Subscription) {
	select {
	case sub.overrun <- struct{}{}:
	default:
	}
	close(sub.events)
	delete(t.subscribers, sub.id)
}

// Subscribe returns a stream starting from sinceSeq+1. History events still
// retained are delivered before any live event.
func (b *Bus) Subscribe(scanID string, sinceSeq int64) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := b.topicFor(scanID)
	t.nextSubID++
	id := t.nextSubID

	sub := &Subscription{
		bus:     b,
		scanID:  scanID,
		id:      id,
		events:  make(chan model.ScanEvent, b.subscriberQueueBound),
		overrun: make(chan struct{}, 1),
	}
	sub.Events = sub.events
	sub.Overrun = sub.overrun

	t.subscribers[id] = sub

replay:
	for _, event := range t.history {
		if event.Seq <= sinceSeq {
			continue
		}
		select {
		case sub.events <- event:
		default:
			b.dropLocked(t, sub)
			break replay
		}
	}

	return sub
}

func (b *Bus) unsubscribe(scanID string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[scanID]
	if !ok {
		return
	}
	if sub, ok := t.subscribers[id]; ok {
		close(sub.events)
		delete(t.subscribers, id)
	}
}

// Close drops all subscribers for a scan and schedules its history for
// eviction after the grace window, so a late client can still replay the
// final events.
func (b *Bus) Close(scanID string) {
	b.mu.Lock()
	t, ok := b.topics[scanID]
	if !ok {
		b.mu.Unlock()
		return
	}
	now := time.Now()
	t.closedAt = &now
	for id, sub := range t.subscribers {
		close(sub.events)
		delete(t.subscribers, id)
	}
	b.mu.Unlock()

	time.AfterFunc(b.graceWindow, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if cur, ok := b.topics[scanID]; ok && cur.closedAt != nil && !cur.closedAt.After(now) {
			delete(b.topics, scanID)
		}
	})
}
