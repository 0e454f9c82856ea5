package ctcp

import "sync"

// registry is the process-wide intrusive doubly-linked list of live
// connections that Tick iterates. Modeled directly on the state_list
// pattern: each Connection carries its own next/prev links instead of
// living in a separate slice or map, so insert and remove are O(1) and
// need no lookup.
type registry struct {
	mu   sync.Mutex
	head *Connection
}

var defaultRegistry = &registry{}

func (r *registry) insert(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c.reg = r
	c.next = r.head
	c.prev = nil
	if r.head != nil {
		r.head.prev = c
	}
	r.head = c
}

func (r *registry) remove(c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.prev != nil {
		c.prev.next = c.next
	} else if r.head == c {
		r.head = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	}
	c.next, c.prev = nil, nil
}

// tick drives the retransmission timer on every live connection. The
// next link for each connection is snapshotted before ticking it, so a
// connection that destroys itself mid-tick (retransmit exhaustion, a
// transport failure during retransmit) does not break iteration of the
// connections after it.
func (r *registry) tick(nowMs int64) {
	r.mu.Lock()
	cur := r.head
	r.mu.Unlock()

	for cur != nil {
		r.mu.Lock()
		next := cur.next
		r.mu.Unlock()

		cur.tick(nowMs)
		cur = next
	}
}

// Tick is the periodic scheduling entry point, invoked by the environment
// at the configured tick granularity. It iterates every live connection
// in the default registry and drives its retransmission timer.
func Tick(clock Clock) {
	defaultRegistry.tick(clock.NowMs())
}
