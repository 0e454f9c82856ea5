package ctcp

// reassemblyBuffer holds inbound data/FIN segments with seqno >= recvBase,
// sorted ascending by seqno, at most one entry per seqno. It exists so the
// receiver can admit segments in whatever order they arrive on the wire
// and still hand them to the sink strictly in order.
type reassemblyBuffer struct {
	segs []*Segment
}

func newReassemblyBuffer() *reassemblyBuffer {
	return &reassemblyBuffer{}
}

// insertUnique admits seg if it is not already covered by recvBase and no
// segment with the same seqno is already buffered. Segments that fail
// either check are released immediately since nothing else will hold them.
func (r *reassemblyBuffer) insertUnique(seg *Segment, recvBase uint32) {
	if seqGreaterOrEqual(recvBase, seqAdd(seg.Seqno, seg.segLen())) {
		seg.Release()
		return
	}

	i := 0
	for i < len(r.segs) && seqLess(r.segs[i].Seqno, seg.Seqno) {
		i++
	}
	if i < len(r.segs) && r.segs[i].Seqno == seg.Seqno {
		seg.Release()
		return
	}

	r.segs = append(r.segs, nil)
	copy(r.segs[i+1:], r.segs[i:])
	r.segs[i] = seg
}

// front returns the first buffered segment, or nil if the buffer is empty.
// output() uses this to decide, one segment at a time, whether the sink has
// room before committing to a pop — draining the whole contiguous prefix
// eagerly would ignore a sink that can't accept the second segment yet.
func (r *reassemblyBuffer) front() *Segment {
	if len(r.segs) == 0 {
		return nil
	}
	return r.segs[0]
}

// popFront removes and returns the first buffered segment. Callers are
// expected to have already checked, via front(), that it is the segment
// they want to consume.
func (r *reassemblyBuffer) popFront() *Segment {
	if len(r.segs) == 0 {
		return nil
	}
	s := r.segs[0]
	r.segs[0] = nil
	r.segs = r.segs[1:]
	return s
}
