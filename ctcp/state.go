package ctcp

import (
	"log"

	"github.com/go-ctcp/ctcp/config"
)

// Connection is the per-peer state of a cTCP stream: sequence counters,
// window sizes, the unacked and reassembly queues, the retransmission
// timer, and FIN teardown bookkeeping. All four entry points below
// (Read, Receive, Output, and the registry's Tick) run to completion
// without suspension and are never re-entered concurrently for the same
// Connection; a host that runs connections on multiple goroutines must
// keep each Connection confined to one goroutine.
type Connection struct {
	transport Transport
	source    Source
	sink      Sink
	clock     Clock

	nextSeqno uint32
	sendBase  uint32
	sendWindow uint32 // bytes
	recvWindow uint32 // bytes
	recvBase  uint32

	unacked    *unackedQueue
	reassembly *reassemblyBuffer

	rtTimeoutMs    int64
	maxRetransmits int
	lastXmitMs     int64
	xmitCount      int

	sentFin      bool
	sentFinSeqno uint32
	recvFin      bool
	eofDelivered bool

	destroyed bool
	lastErr   error

	// registry links; see registry.go
	reg        *registry
	next, prev *Connection
}

// Init creates a Connection bound to transport/source/sink, registers it
// with the default registry, and sets initial sequence numbers to 1. cfg
// is validated by the caller (config.LoadConfig / config.Validate); Init
// trusts it.
func Init(transport Transport, source Source, sink Sink, clock Clock, cfg *config.Config) *Connection {
	c := &Connection{
		transport:      transport,
		source:         source,
		sink:           sink,
		clock:          clock,
		nextSeqno:      1,
		sendBase:       1,
		recvBase:       1,
		sendWindow:     uint32(cfg.SendWindow * MaxSegDataSize),
		recvWindow:     uint32(cfg.RecvWindow * MaxSegDataSize),
		unacked:        newUnackedQueue(),
		reassembly:     newReassemblyBuffer(),
		rtTimeoutMs:    int64(cfg.RtTimeoutMs),
		maxRetransmits: cfg.MaxRetransmits,
	}
	defaultRegistry.insert(c)
	return c
}

// Destroy releases the connection: removes it from the registry and
// frees every segment still owned by the unacked queue. The environment
// must never call Destroy twice on the same Connection.
func (c *Connection) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	if c.reg != nil {
		c.reg.remove(c)
	}
	c.unacked.forEach(func(s *Segment) { s.Release() })
	c.unacked = newUnackedQueue()
}

// LastErr returns the error that caused destruction, if any. It is never
// surfaced to the application through a return value elsewhere; this is
// purely a diagnostic hook for the host.
func (c *Connection) LastErr() error {
	return c.lastErr
}

func (c *Connection) fail(err error) {
	c.lastErr = err
	log.Printf("ctcp: connection %s -> %s: %v", c.stateLabel(), stateClosed, err)
	c.Destroy()
}

// stateLabel reports the connection's diagnostic lifecycle label, derived
// from the FIN bookkeeping fields rather than stored directly (see the
// state constants in flags.go).
func (c *Connection) stateLabel() string {
	switch {
	case c.destroyed:
		return stateClosed
	case !c.sentFin:
		return stateOpen
	case !seqGreater(c.sendBase, c.sentFinSeqno):
		return stateFinSent
	default:
		return stateFinAckd
	}
}

// Read is called when the application source may have produced more
// bytes. It segments and transmits while the send window has room.
func (c *Connection) Read() {
	if c.destroyed {
		return
	}

	buf := make([]byte, MaxSegDataSize)
	for c.nextSeqno-c.sendBase < c.sendWindow {
		n := c.source.Input(buf)
		if n == 0 {
			return
		}
		if n < 0 {
			c.sendSegmentAndEnqueue(&Segment{
				Seqno:  c.nextSeqno,
				Ackno:  c.recvBase,
				Flags:  FlagFIN | FlagACK,
				Window: uint16(c.recvWindow),
			})
			c.sentFin = true
			c.sentFinSeqno = c.nextSeqno
			c.nextSeqno = seqIncrement(c.nextSeqno)
			return
		}

		payload, elem := borrowPayload(buf[:n])
		seg := &Segment{
			Seqno:   c.nextSeqno,
			Ackno:   c.recvBase,
			Flags:   FlagACK,
			Window:  uint16(c.recvWindow),
			Payload: payload,
		}
		seg.chunk = elem
		c.sendSegmentAndEnqueue(seg)
		c.nextSeqno = seqAdd(c.nextSeqno, uint32(n))
	}
}

// sendSegmentAndEnqueue transmits seg and appends it to the unacked
// queue, restarting the retransmit timer if it is now the oldest
// unacked segment.
func (c *Connection) sendSegmentAndEnqueue(seg *Segment) {
	wasEmpty := c.unacked.empty()
	if !c.transmit(seg) {
		return
	}
	c.unacked.pushBack(seg)
	if wasEmpty {
		c.lastXmitMs = c.clock.NowMs()
		c.xmitCount = 0
	}
}

// transmit encodes seg and hands it to the transport. A negative or
// erroring send destroys the connection per the transport-failure
// policy; it returns false in that case so the caller does not also
// enqueue the now-orphaned segment.
func (c *Connection) transmit(seg *Segment) bool {
	buf := make([]byte, HeaderLen+len(seg.Payload))
	n, err := encode(seg, buf)
	if err != nil {
		c.fail(err)
		return false
	}
	if written, sendErr := c.transport.Send(buf[:n]); sendErr != nil || written < 0 {
		c.fail(ErrTransportFailed)
		return false
	}
	return true
}

// Receive is invoked by the demultiplexer for each inbound datagram
// addressed to this connection.
func (c *Connection) Receive(data []byte) {
	if c.destroyed {
		return
	}

	seg, err := decode(data)
	if err != nil {
		return // malformed: silent drop, no ACK
	}

	if seg.IsACK() && seqGreater(seg.Ackno, c.sendBase) {
		c.sendBase = seg.Ackno
		c.unacked.dropAcked(seg.Ackno)
		c.xmitCount = 0
		c.lastXmitMs = c.clock.NowMs()
	}

	// Capture this before insertUnique, which may release seg immediately
	// (duplicate or strictly-behind-recvBase) and zero its Payload.
	carriesData := len(seg.Payload) > 0 || seg.IsFIN()

	if carriesData {
		c.reassembly.insertUnique(seg, c.recvBase)
		c.Output()
		if c.destroyed {
			return
		}
		// A pure ACK is never itself retransmitted, so it bypasses the
		// unacked queue entirely; only data/FIN segments go there. Sent
		// even for a duplicate, so a lossy ACK path still recovers.
		c.transmit(&Segment{
			Ackno:  c.recvBase,
			Flags:  FlagACK,
			Window: uint16(c.recvWindow),
		})
	} else {
		seg.Release()
	}

	if c.sentFin && seqGreater(c.sendBase, c.sentFinSeqno) && c.recvFin && c.eofDelivered {
		c.Destroy()
	}
}

// Output is called when the application sink may have drained. It drains
// the reassembly buffer's contiguous prefix starting at recvBase, one
// segment at a time, stopping as soon as the sink reports insufficient
// capacity for the head segment.
func (c *Connection) Output() {
	if c.destroyed {
		return
	}

	for {
		head := c.reassembly.front()
		if head == nil || head.Seqno != c.recvBase {
			return
		}

		if head.IsFIN() {
			if c.sink.Output(nil) < 0 {
				c.fail(ErrSinkClosed)
				return
			}
			c.recvFin = true
			c.eofDelivered = true
			c.recvBase = seqIncrement(c.recvBase)
			c.reassembly.popFront()
			head.Release()
			return
		}

		if c.sink.BufSpace() < len(head.Payload) {
			return
		}

		if c.sink.Output(head.Payload) < 0 {
			c.fail(ErrSinkClosed)
			return
		}
		c.recvBase = seqAdd(c.recvBase, uint32(len(head.Payload)))
		c.reassembly.popFront()
		head.Release()
	}
}

// tick is invoked by the registry, once per live connection, on every
// Tick(). It detects a timeout on the oldest unacked segment, retransmits
// that segment alone (not Go-Back-N), and escalates to destruction after
// maxRetransmits attempts.
func (c *Connection) tick(nowMs int64) {
	if c.destroyed || c.unacked.empty() {
		return
	}

	if nowMs-c.lastXmitMs < c.rtTimeoutMs {
		return
	}

	if c.xmitCount >= c.maxRetransmits {
		c.fail(ErrRetransmitExhausted)
		return
	}

	oldest := c.unacked.front()
	c.transmit(oldest)
	c.lastXmitMs = nowMs
	c.xmitCount++
}
