package ctcp

import "testing"

func TestRegistryInsertAndRemove(t *testing.T) {
	r := &registry{}
	a := &Connection{}
	b := &Connection{}
	c := &Connection{}

	r.insert(a)
	r.insert(b)
	r.insert(c)

	if r.head != c {
		t.Fatalf("head = %p, want most recently inserted (%p)", r.head, c)
	}

	r.remove(b)
	if b.next != nil || b.prev != nil {
		t.Errorf("removed connection still has links: next=%v prev=%v", b.next, b.prev)
	}
	if c.next != a {
		t.Errorf("c.next = %v, want a (b spliced out)", c.next)
	}
	if a.prev != c {
		t.Errorf("a.prev = %v, want c (b spliced out)", a.prev)
	}
}

func TestRegistryRemoveHead(t *testing.T) {
	r := &registry{}
	a := &Connection{}
	b := &Connection{}
	r.insert(a)
	r.insert(b)

	r.remove(b) // b is head
	if r.head != a {
		t.Errorf("head after removing head = %v, want a", r.head)
	}
	if a.prev != nil {
		t.Errorf("a.prev = %v, want nil", a.prev)
	}
}

func TestRegistryTickSurvivesSelfDestructionMidIteration(t *testing.T) {
	r := &registry{}

	makeConn := func(ticks int64) (*Connection, *fakeTransport) {
		transport := &fakeTransport{}
		c := &Connection{
			transport:      transport,
			unacked:        newUnackedQueue(),
			reassembly:     newReassemblyBuffer(),
			rtTimeoutMs:    1,
			maxRetransmits: 1,
		}
		c.unacked.pushBack(&Segment{Seqno: 1, Payload: []byte("x")})
		return c, transport
	}

	a, _ := makeConn(1)
	b, _ := makeConn(1)
	cc, _ := makeConn(1)
	r.insert(a)
	r.insert(b)
	r.insert(cc)

	// a, b, and cc each have xmitCount already at their cap, so the first
	// tick destroys all three; b self-destructing mid-iteration must not
	// break the walk to the connections after it in the list.
	a.xmitCount, b.xmitCount, cc.xmitCount = 1, 1, 1

	r.tick(100)

	if !a.destroyed || !b.destroyed || !cc.destroyed {
		t.Errorf("destroyed: a=%t b=%t cc=%t, want all true", a.destroyed, b.destroyed, cc.destroyed)
	}
}
