// Package schedule provides a polled event queue keyed by match time.
//
// Nothing in this package starts a goroutine or reads the wall clock. The
// owner decides what "now" is and calls RunDue once per tick, so a paused
// match (whose clock does not advance) freezes every pending event.
package schedule

import "container/heap"

// ID identifies a scheduled event. Zero is never issued.
type ID uint64

// Action runs when its event comes due. at is the time the event was
// scheduled for, not the (possibly later) time RunDue was called with.
type Action func(at Time)

// Time is a match-relative timestamp in milliseconds.
type Time = int64

type event struct {
	id     ID
	at     Time
	seq    uint64
	owner  string
	action Action
	index  int
}

type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].at != h[j].at {
		return h[i].at < h[j].at
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	ev := x.(*event)
	ev.index = len(*h)
	*h = append(*h, ev)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	ev.index = -1
	*h = old[:n-1]
	return ev
}

// Queue orders events by due time, then by insertion order.
// It is not safe for concurrent use; each match owns its queues.
type Queue struct {
	events eventHeap
	byID   map[ID]*event
	nextID ID
	seq    uint64
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{byID: make(map[ID]*event)}
}

// Schedule registers action to run once RunDue is called with now >= at.
func (q *Queue) Schedule(at Time, owner string, action Action) ID {
	q.nextID++
	q.seq++
	ev := &event{
		id:     q.nextID,
		at:     at,
		seq:    q.seq,
		owner:  owner,
		action: action,
	}
	heap.Push(&q.events, ev)
	q.byID[ev.id] = ev
	return ev.id
}

// Cancel removes a pending event. Returns false if it already ran or was cancelled.
func (q *Queue) Cancel(id ID) bool {
	ev, ok := q.byID[id]
	if !ok {
		return false
	}
	heap.Remove(&q.events, ev.index)
	delete(q.byID, id)
	return true
}

// CancelOwner removes every pending event registered under owner.
func (q *Queue) CancelOwner(owner string) int {
	var ids []ID
	for id, ev := range q.byID {
		if ev.owner == owner {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		q.Cancel(id)
	}
	return len(ids)
}

// RunDue runs all events due at or before now and returns how many ran.
// Events scheduled by a running action are picked up in the same call if
// they are already due.
func (q *Queue) RunDue(now Time) int {
	ran := 0
	for len(q.events) > 0 && q.events[0].at <= now {
		ev := heap.Pop(&q.events).(*event)
		delete(q.byID, ev.id)
		ev.action(ev.at)
		ran++
	}
	return ran
}

// Next reports the due time of the earliest pending event.
func (q *Queue) Next() (Time, bool) {
	if len(q.events) == 0 {
		return 0, false
	}
	return q.events[0].at, true
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	return len(q.events)
}

// Pending returns the number of pending events registered under owner.
func (q *Queue) Pending(owner string) int {
	n := 0
	for _, ev := range q.byID {
		if ev.owner == owner {
			n++
		}
	}
	return n
}
