package reactor

import (
	"container/heap"
	"time"
)

// timer is a pending deadline for an armed event.
type timer struct {
	when  time.Time
	seq   uint64
	id    EventID
	index int
}

// timerHeap is a min-heap of timers, ordered by deadline, then by the order
// they were inserted.
type timerHeap []*timer

// Implement heap.Interface for timerHeap
func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].seq < h[j].seq
	}
	return h[i].when.Before(h[j].when)
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	x.index = -1
	*h = old[:n-1]
	return x
}

// timerQueue holds at most one deadline per event.
type timerQueue struct {
	byID    map[EventID]*timer
	heap    timerHeap
	nextSeq uint64
}

func newTimerQueue() *timerQueue {
	return &timerQueue{
		byID: make(map[EventID]*timer),
		heap: make(timerHeap, 0),
	}
}

// insert schedules id at deadline, replacing any deadline it already has.
func (q *timerQueue) insert(id EventID, deadline time.Time) {
	q.remove(id)
	q.nextSeq++
	t := &timer{
		when: deadline,
		seq:  q.nextSeq,
		id:   id,
	}
	q.byID[id] = t
	heap.Push(&q.heap, t)
}

// remove unschedules id, reporting whether it was present.
func (q *timerQueue) remove(id EventID) bool {
	t, ok := q.byID[id]
	if !ok {
		return false
	}
	delete(q.byID, id)
	heap.Remove(&q.heap, t.index)
	return true
}

// peekEarliest returns the earliest deadline, if any.
func (q *timerQueue) peekEarliest() (time.Time, bool) {
	if len(q.heap) == 0 {
		return time.Time{}, false
	}
	return q.heap[0].when, true
}

// seq returns the sequence number of the most recently inserted timer.
func (q *timerQueue) seq() uint64 {
	return q.nextSeq
}

// popDueBy removes and returns the earliest id with a deadline at or before
// now, that was inserted no later than seq. Repeated calls yield due ids in
// deadline order, excluding timers inserted after seq was read.
func (q *timerQueue) popDueBy(now time.Time, seq uint64) (EventID, bool) {
	if len(q.heap) == 0 || q.heap[0].when.After(now) {
		return 0, false
	}
	index := 0
	if q.heap[0].seq > seq {
		// only possible if a timer was inserted with a deadline equal to now
		index = -1
		for i, t := range q.heap {
			if t.seq <= seq && !t.when.After(now) && (index < 0 || q.heap.Less(i, index)) {
				index = i
			}
		}
		if index < 0 {
			return 0, false
		}
	}
	t := heap.Remove(&q.heap, index).(*timer)
	delete(q.byID, t.id)
	return t.id, true
}

func (q *timerQueue) len() int {
	return len(q.heap)
}

func (q *timerQueue) reset() {
	clear(q.byID)
	clear(q.heap)
	q.heap = q.heap[:0]
}
