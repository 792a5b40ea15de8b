package server

import (
	"context"
	"sync"
	"time"

	"github.com/MarcoPoloResearchLab/advocate/backend/internal/site"
)

const (
	intakeEventName        = "intake"
	intakeHeartbeatName    = "heartbeat"
	intakeHeartbeatEvery   = 25 * time.Second
	defaultIntakeBufferLen = 16
)

// IntakeDispatcher fans intake events out to every subscribed operator
// session. Slow subscribers drop events instead of blocking the publisher.
type IntakeDispatcher struct {
	mu          sync.RWMutex
	subscribers map[int64]*intakeSubscriber
	nextID      int64
	bufferSize  int
}

type intakeSubscriber struct {
	id        int64
	sessionID string
	stream    chan site.IntakeEvent
}

var _ site.IntakeNotifier = (*IntakeDispatcher)(nil)

// NewIntakeDispatcher constructs a dispatcher with no subscribers.
func NewIntakeDispatcher() *IntakeDispatcher {
	return &IntakeDispatcher{
		subscribers: make(map[int64]*intakeSubscriber),
		bufferSize:  defaultIntakeBufferLen,
	}
}

// Subscribe registers a stream for the operator session. The subscription
// ends, and the stream is closed, when ctx is done, cleanup is called or the
// session is dropped.
func (d *IntakeDispatcher) Subscribe(ctx context.Context, sessionID string) (<-chan site.IntakeEvent, func()) {
	if sessionID == "" {
		ch := make(chan site.IntakeEvent)
		close(ch)
		return ch, func() {}
	}
	subscriber := &intakeSubscriber{
		sessionID: sessionID,
		stream:    make(chan site.IntakeEvent, d.bufferSize),
	}
	d.register(subscriber)

	done := make(chan struct{})
	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			d.unregister(subscriber.id)
			close(done)
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cleanup()
		case <-done:
		}
	}()
	return subscriber.stream, cleanup
}

// PublishIntake delivers the event to every current subscriber.
func (d *IntakeDispatcher) PublishIntake(event site.IntakeEvent) {
	if event.Kind == "" {
		return
	}
	// Streams are only closed under the write lock, so sends here are safe.
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, subscriber := range d.subscribers {
		select {
		case subscriber.stream <- event:
		default:
		}
	}
}

// DropSession ends every subscription of the operator session and reports
// how many were open. Their streams are closed.
func (d *IntakeDispatcher) DropSession(sessionID string) int {
	if sessionID == "" {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	dropped := 0
	for id, subscriber := range d.subscribers {
		if subscriber.sessionID != sessionID {
			continue
		}
		delete(d.subscribers, id)
		close(subscriber.stream)
		dropped++
	}
	return dropped
}

// Subscribers reports the number of open subscriptions.
func (d *IntakeDispatcher) Subscribers() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subscribers)
}

func (d *IntakeDispatcher) register(subscriber *intakeSubscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	subscriber.id = d.nextID
	d.subscribers[subscriber.id] = subscriber
}

func (d *IntakeDispatcher) unregister(subscriberID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	subscriber, ok := d.subscribers[subscriberID]
	if !ok {
		return
	}
	delete(d.subscribers, subscriberID)
	close(subscriber.stream)
}
