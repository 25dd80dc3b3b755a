package crew

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// EventKind names a point in a task's lifecycle.
type EventKind string

const (
	EventTaskStarted  EventKind = "task_started"
	EventTaskFinished EventKind = "task_finished"
	EventTaskFailed   EventKind = "task_failed"
)

// Event reports the progress of one task. Output and Duration are only set
// for EventTaskFinished, Err only for EventTaskFailed.
type Event struct {
	Kind      EventKind
	Task      string
	Agent     string
	Index     int
	Total     int
	Timestamp time.Time
	Output    string
	Duration  time.Duration
	Err       error
}

// Step renders the task position as "[n/total]" counting from one.
func (e Event) Step() string {
	return fmt.Sprintf("[%d/%d]", e.Index+1, e.Total)
}

func (e Event) with(kind EventKind) Event {
	e.Kind = kind
	e.Timestamp = time.Now()
	return e
}

// Observer is notified from the goroutine running Kickoff, so OnEvent must
// return quickly.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc lets a function act as an Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// Observers notifies each non-nil observer in turn.
func Observers(obs ...Observer) Observer {
	return ObserverFunc(func(e Event) {
		for _, o := range obs {
			if o != nil {
				o.OnEvent(e)
			}
		}
	})
}

// Feed is an Observer that copies every event onto subscriber channels.
// Delivery never blocks: a subscriber whose buffer is full misses the event
// and the miss is counted.
type Feed struct {
	mu      sync.Mutex
	nextID  int
	subs    map[int]chan Event
	dropped atomic.Uint64
}

func NewFeed() *Feed {
	return &Feed{subs: map[int]chan Event{}}
}

// Subscribe registers a channel holding up to buffer pending events. The
// returned stop func closes the channel; calling it again is a no-op.
func (f *Feed) Subscribe(buffer int) (<-chan Event, func()) {
	ch := make(chan Event, buffer)

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	f.mu.Unlock()

	stop := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(ch)
		}
	}

	return ch, stop
}

func (f *Feed) OnEvent(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		select {
		case ch <- e:
		default:
			f.dropped.Add(1)
		}
	}
}

// Dropped is the number of deliveries skipped because a subscriber was full.
func (f *Feed) Dropped() uint64 {
	return f.dropped.Load()
}
