// Package activity implements the in-process activity bus (agent
// activity fan-out with bounded history) and the per-run silence
// detector that watches for stalled runs.
package activity

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind names the category of activity being reported.
type Kind string

const (
	KindLLMCall     Kind = "llm_call"
	KindToolCall    Kind = "tool_call"
	KindMessageSent Kind = "message_sent"
	KindMessageRecv Kind = "message_received"
	KindStateChange Kind = "state_change"
)

// Event is a single published activity record.
type Event struct {
	ID            string
	AgentID       string
	ParentAgentID string
	Kind          Kind
	Timestamp     time.Time
	Detail        map[string]any
}

// subscriber holds one listener's bounded mailbox and hierarchy
// metadata.
type subscriber struct {
	id            string
	agentID       string
	parentAgentID string
	ch            chan Event
}

// Bus is an in-process fan-out publisher: every Publish is appended to a
// bounded ring-buffer history and offered to every live subscriber's
// queue. A full subscriber queue drops the newest event for that
// subscriber rather than blocking the publisher or evicting older
// history.
type Bus struct {
	mu          sync.Mutex
	historyCap  int
	history     []Event
	subscribers map[string]*subscriber
}

// NewBus returns a Bus retaining at most historyCap recent events.
func NewBus(historyCap int) *Bus {
	if historyCap <= 0 {
		historyCap = 1000
	}
	return &Bus{historyCap: historyCap, subscribers: make(map[string]*subscriber)}
}

// Subscription is a live subscriber's handle: Events yields the bounded
// mailbox channel, and Unsubscribe detaches it from the bus.
type Subscription struct {
	Events <-chan Event
	bus    *Bus
	id     string
}

// Unsubscribe removes this subscription from the bus and closes its
// channel. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	if sub, ok := s.bus.subscribers[s.id]; ok {
		close(sub.ch)
		delete(s.bus.subscribers, s.id)
	}
}

// Subscribe registers a new subscriber identified by agentID (with an
// optional parentAgentID for hierarchy rollup) and a mailbox of the
// given buffer size.
func (b *Bus) Subscribe(agentID, parentAgentID string, bufferSize int) *Subscription {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	sub := &subscriber{
		id:            uuid.NewString(),
		agentID:       agentID,
		parentAgentID: parentAgentID,
		ch:            make(chan Event, bufferSize),
	}
	b.mu.Lock()
	b.subscribers[sub.id] = sub
	b.mu.Unlock()
	return &Subscription{Events: sub.ch, bus: b, id: sub.id}
}

// Publish appends e to history and offers it to every subscriber's
// mailbox, dropping it for any subscriber whose mailbox is full.
func (b *Bus) Publish(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.history = append(b.history, e)
	if len(b.history) > b.historyCap {
		b.history = b.history[len(b.history)-b.historyCap:]
	}

	for _, sub := range b.subscribers {
		select {
		case sub.ch <- e:
		default:
			// Mailbox full: drop-newest backpressure policy. The event
			// is still in history; only live delivery is lost.
		}
	}
}

// Recent returns up to n of the most recently published events, oldest
// first. n <= 0 returns the full retained history.
func (b *Bus) Recent(n int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n <= 0 || n >= len(b.history) {
		return append([]Event(nil), b.history...)
	}
	return append([]Event(nil), b.history[len(b.history)-n:]...)
}

// HierarchyNode is one agent's position in the rolled-up subscriber
// hierarchy view.
type HierarchyNode struct {
	AgentID  string
	ParentID string
	Children []string
}

// HierarchyView reconstructs the agent hierarchy from currently
// subscribed agents' recorded parent links.
func (b *Bus) HierarchyView() map[string]*HierarchyNode {
	b.mu.Lock()
	defer b.mu.Unlock()

	nodes := make(map[string]*HierarchyNode)
	ensure := func(id string) *HierarchyNode {
		if n, ok := nodes[id]; ok {
			return n
		}
		n := &HierarchyNode{AgentID: id}
		nodes[id] = n
		return n
	}

	for _, sub := range b.subscribers {
		if sub.agentID == "" {
			continue
		}
		node := ensure(sub.agentID)
		node.ParentID = sub.parentAgentID
		if sub.parentAgentID != "" {
			parent := ensure(sub.parentAgentID)
			parent.Children = append(parent.Children, sub.agentID)
		}
	}
	return nodes
}
