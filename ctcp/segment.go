package ctcp

import (
	"encoding/binary"
	"fmt"

	rp "github.com/Clouded-Sabre/ringpool/lib"
)

// Segment is one cTCP wire unit: a fixed 18-byte header plus up to
// MaxSegDataSize bytes of payload. Payload, when non-nil, points into a
// chunk borrowed from segPool; Release returns that chunk once the
// segment is no longer referenced by a connection's unacked queue or
// reassembly buffer.
type Segment struct {
	Seqno   uint32
	Ackno   uint32
	Flags   uint32
	Window  uint16
	Cksum   uint16
	Payload []byte

	chunk *rp.Element
}

// Release returns the segment's backing buffer to segPool. Safe to call
// on a segment whose Payload was never pool-backed (empty payload, or a
// segment built without borrowPayload).
func (s *Segment) Release() {
	if s.chunk == nil {
		return
	}
	segPool.ReturnElement(s.chunk)
	s.chunk = nil
	s.Payload = nil
}

// IsFIN reports whether the FIN flag is set.
func (s *Segment) IsFIN() bool {
	return s.Flags&FlagFIN != 0
}

// IsACK reports whether the ACK flag is set.
func (s *Segment) IsACK() bool {
	return s.Flags&FlagACK != 0
}

// segLen is the number of sequence-number slots this segment occupies:
// the payload length, or 1 for a bare FIN, matching the convention that
// FIN consumes a sequence number the way a data byte does.
func (s *Segment) segLen() uint32 {
	if n := len(s.Payload); n > 0 {
		return uint32(n)
	}
	if s.IsFIN() {
		return 1
	}
	return 0
}

// ErrMalformed is returned by decode when a received datagram is too
// short, carries a length field inconsistent with the data available, or
// fails its checksum.
var ErrMalformed = fmt.Errorf("ctcp: malformed segment")

// encode writes s into buf, which must be at least HeaderLen+len(s.Payload)
// bytes, and returns the number of bytes written. The checksum field is
// computed last, over the fully-assembled segment.
func encode(s *Segment, buf []byte) (int, error) {
	total := HeaderLen + len(s.Payload)
	if len(buf) < total {
		return 0, fmt.Errorf("ctcp: encode buffer (%d bytes) too small for segment (%d bytes)", len(buf), total)
	}

	binary.BigEndian.PutUint32(buf[0:4], s.Seqno)
	binary.BigEndian.PutUint32(buf[4:8], s.Ackno)
	binary.BigEndian.PutUint16(buf[8:10], uint16(total))
	binary.BigEndian.PutUint32(buf[10:14], s.Flags)
	binary.BigEndian.PutUint16(buf[14:16], s.Window)
	binary.BigEndian.PutUint16(buf[16:18], 0)
	copy(buf[HeaderLen:total], s.Payload)

	cksum := checksum(buf[:total])
	binary.BigEndian.PutUint16(buf[16:18], cksum)

	return total, nil
}

// decode parses a received datagram into a Segment. Any payload bytes are
// copied into a pool-owned buffer, so the caller's data slice may be
// reused or discarded immediately after decode returns.
func decode(data []byte) (*Segment, error) {
	if len(data) < HeaderLen {
		return nil, ErrMalformed
	}

	total := int(binary.BigEndian.Uint16(data[8:10]))
	if total < HeaderLen || total > len(data) {
		return nil, ErrMalformed
	}
	if checksum(data[:total]) != 0 {
		return nil, ErrMalformed
	}

	s := &Segment{
		Seqno:  binary.BigEndian.Uint32(data[0:4]),
		Ackno:  binary.BigEndian.Uint32(data[4:8]),
		Flags:  binary.BigEndian.Uint32(data[10:14]),
		Window: binary.BigEndian.Uint16(data[14:16]),
		Cksum:  binary.BigEndian.Uint16(data[16:18]),
	}

	if total > HeaderLen {
		payload, elem := borrowPayload(data[HeaderLen:total])
		s.Payload = payload
		s.chunk = elem
	}

	return s, nil
}

// checksum computes the one's-complement sum of buf as 16-bit big-endian
// words, folding carries back in, then returns its one's complement. A
// segment's checksum field is included in this sum, so a correctly
// checksummed segment sums to zero.
func checksum(buf []byte) uint16 {
	var sum uint32

	for i := 0; i+1 < len(buf); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(buf[i : i+2]))
	}
	if len(buf)%2 != 0 {
		sum += uint32(buf[len(buf)-1]) << 8
	}

	for sum>>16 != 0 {
		sum = (sum >> 16) + (sum & 0xffff)
	}

	return ^uint16(sum)
}
