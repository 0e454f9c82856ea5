package ctcp

// MaxSegDataSize is the largest number of payload bytes carried by a single
// segment. It is the unit the send/receive windows are expressed in.
const MaxSegDataSize = 1440

// HeaderLen is the fixed size, in bytes, of a segment header on the wire.
const HeaderLen = 18

// Flag bits within the 32-bit flags field: FIN is bit 0 (0x01) and ACK is
// bit 4 (0x10), matching the legacy encoding: a peer that only understands
// ACK/FIN must see the same bit values we do.
const (
	FlagFIN uint32 = 0x01
	FlagACK uint32 = 0x10
)

// Connection lifecycle states, used for logging/diagnostics only (see
// Connection.stateLabel). The teardown decision in receive() is driven
// directly by sentFin/recvFin/eofDelivered rather than by this label.
const (
	stateOpen    = "OPEN"
	stateFinSent = "FIN_SENT"
	stateFinAckd = "FIN_ACKED"
	stateClosed  = "CLOSED"
)
