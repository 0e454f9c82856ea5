package ctcp

import (
	"fmt"

	rp "github.com/Clouded-Sabre/ringpool/lib"
)

// segPool backs every segment payload handed to Send, Receive, or the
// reassembly buffer: a segment never keeps its own make([]byte, ...), it
// borrows a chunk from segPool and returns it once nothing references it
// anymore (drained to the sink, dropped as malformed, or evicted on ack).
var segPool *rp.RingPool

var emptyPayload = make([]byte, MaxSegDataSize)

// initPool lazily creates the ring pool backing outbound/inbound segment
// payloads. Called lazily by borrowPayload on first use; re-invoking with a
// different size has no effect on an already-initialized pool, matching
// the one-pool-per-process convention of the ring pool library.
func initPool(size int) {
	if segPool != nil {
		return
	}
	segPool = rp.NewRingPool("ctcp: ", size, newPayload, MaxSegDataSize)
}

// payload is a single reusable byte-slice slot, the ring pool's unit of
// lending. It is what a Segment's Payload actually points into.
type payload struct {
	bytes  []byte
	length int
}

func newPayload(params ...interface{}) rp.DataInterface {
	return &payload{
		bytes: make([]byte, MaxSegDataSize),
	}
}

func (p *payload) SetContent(s string) {
	p.bytes = []byte(s)
	p.length = len(s)
}

func (p *payload) Reset() {
	copy(p.bytes, emptyPayload)
	p.length = 0
}

func (p *payload) PrintContent() {
	fmt.Println("payload:", string(p.bytes[:p.length]))
}

func (p *payload) Copy(src []byte) error {
	if len(src) > len(p.bytes) {
		return fmt.Errorf("ctcp: payload copy: source (%d bytes) exceeds segment capacity (%d bytes)", len(src), len(p.bytes))
	}
	copy(p.bytes, src)
	p.length = len(src)
	return nil
}

func (p *payload) GetSlice() []byte {
	return p.bytes[:p.length]
}

// borrowPayload copies data into a pool-owned buffer and returns the slice
// view plus the chunk that owns it, so the caller can return it later.
func borrowPayload(data []byte) ([]byte, *rp.Element) {
	if segPool == nil {
		initPool(defaultPoolSize)
	}
	if len(data) == 0 {
		return nil, nil
	}
	elem := segPool.GetElement()
	pl := elem.Data.(*payload)
	if err := pl.Copy(data); err != nil {
		segPool.ReturnElement(elem)
		return nil, nil
	}
	return pl.GetSlice(), elem
}

const defaultPoolSize = 4096
