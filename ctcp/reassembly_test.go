package ctcp

import "testing"

func TestReassemblyInsertUniqueOrdersBySeqno(t *testing.T) {
	r := newReassemblyBuffer()
	r.insertUnique(&Segment{Seqno: 11, Payload: []byte("bbbbbbbbbb")}, 1)
	r.insertUnique(&Segment{Seqno: 1, Payload: []byte("aaaaaaaaaa")}, 1)

	if len(r.segs) != 2 {
		t.Fatalf("len = %d, want 2", len(r.segs))
	}
	if r.segs[0].Seqno != 1 || r.segs[1].Seqno != 11 {
		t.Errorf("order = [%d, %d], want [1, 11]", r.segs[0].Seqno, r.segs[1].Seqno)
	}
}

func TestReassemblyInsertUniqueDiscardsDuplicateSeqno(t *testing.T) {
	r := newReassemblyBuffer()
	r.insertUnique(&Segment{Seqno: 1, Payload: []byte("hello")}, 1)
	r.insertUnique(&Segment{Seqno: 1, Payload: []byte("hello")}, 1)

	if len(r.segs) != 1 {
		t.Errorf("len = %d, want 1 (duplicate seqno should be discarded)", len(r.segs))
	}
}

func TestReassemblyInsertUniqueDiscardsBehindRecvBase(t *testing.T) {
	r := newReassemblyBuffer()
	r.insertUnique(&Segment{Seqno: 1, Payload: []byte("hello")}, 6)

	if len(r.segs) != 0 {
		t.Errorf("len = %d, want 0 (segment fully behind recvBase should be discarded)", len(r.segs))
	}
}

func TestReassemblyFrontAndPopFront(t *testing.T) {
	r := newReassemblyBuffer()
	if got := r.front(); got != nil {
		t.Fatalf("front() on empty buffer = %+v, want nil", got)
	}

	a := &Segment{Seqno: 1, Payload: []byte("aaaaa")}
	b := &Segment{Seqno: 6, Payload: []byte("bbbbb")}
	r.insertUnique(a, 1)
	r.insertUnique(b, 1)

	if got := r.front(); got != a {
		t.Errorf("front() = %+v, want %+v", got, a)
	}
	if got := r.popFront(); got != a {
		t.Errorf("popFront() = %+v, want %+v", got, a)
	}
	if got := r.front(); got != b {
		t.Errorf("front() after pop = %+v, want %+v", got, b)
	}
}

func TestReassemblyHandlesFinSegment(t *testing.T) {
	r := newReassemblyBuffer()
	r.insertUnique(&Segment{Seqno: 6, Flags: FlagFIN}, 1)

	if got := r.front(); got == nil || got.segLen() != 1 {
		t.Fatalf("fin segment not admitted correctly: %+v", got)
	}
}
