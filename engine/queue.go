package engine

import "container/heap"

// queueItem pairs an event with the monotonic sequence number assigned at
// insert time. The sequence breaks ties between equal timestamps, so two
// pushes never compare equal and pop order is a deterministic total order.
type queueItem struct {
	event Event
	seq   uint64
}

type eventHeap []queueItem

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.event.Timestamp() != b.event.Timestamp() {
		return a.event.Timestamp() < b.event.Timestamp()
	}
	return a.seq < b.seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(queueItem))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// EventQueue delivers events in non-decreasing timestamp order with a
// first-pushed-first-popped tie-break at equal timestamps. It is a delivery
// mechanism, not a decision-maker: it never inspects or mutates a stored
// event.
type EventQueue struct {
	heap eventHeap
	seq  uint64
}

// NewEventQueue creates an empty event queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{heap: make(eventHeap, 0)}
}

// Push schedules an event, assigning it the next insertion sequence.
func (q *EventQueue) Push(event Event) {
	q.seq++
	heap.Push(&q.heap, queueItem{event: event, seq: q.seq})
}

// Pop removes and returns the earliest event, or nil when the queue is empty.
func (q *EventQueue) Pop() Event {
	if len(q.heap) == 0 {
		return nil
	}
	return heap.Pop(&q.heap).(queueItem).event
}

// Peek returns the earliest event without removing it, or nil.
func (q *EventQueue) Peek() Event {
	if len(q.heap) == 0 {
		return nil
	}
	return q.heap[0].event
}

// Len returns the number of queued events.
func (q *EventQueue) Len() int {
	return len(q.heap)
}
