package ctcp

import "fmt"

// ErrTransportFailed is recorded when Transport.Send returns a negative
// byte count or a non-nil error. It destroys the connection; it is never
// returned to a caller of Read/Receive/Output/Tick, which report no error
// (failures manifest as stream truncation followed by end-of-stream, per
// the sink).
var ErrTransportFailed = fmt.Errorf("ctcp: transport send failed")

// ErrSinkClosed is recorded when Sink.Output returns a negative value.
var ErrSinkClosed = fmt.Errorf("ctcp: application sink closed")

// ErrRetransmitExhausted is recorded when the oldest unacked segment has
// been retransmitted max_retransmits times without an ACK.
var ErrRetransmitExhausted = fmt.Errorf("ctcp: retransmission attempts exhausted")
