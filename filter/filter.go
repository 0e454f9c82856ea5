// Package filter suppresses the kernel-generated ICMP
// protocol-unreachable traffic that raw-IP transports like netdrv
// otherwise trigger: cTCP frames ride directly on IP under a protocol
// number the host kernel doesn't recognize, so by default the kernel
// answers every inbound frame with an ICMP protocol-unreachable back to
// the sender, telling the peer's kernel (wrongly) that nothing is
// listening and potentially causing it to abandon the path. Filtering
// drops those replies before they leave the host.
package filter

// Filter manages the firewall rules that suppress those ICMP replies for
// a given peer address and protocol number. AddPeerFiltering is
// idempotent: calling it twice for the same peer is a no-op.
type Filter interface {
	AddPeerFiltering(peerAddr string, protocolID uint8) error
	RemovePeerFiltering(peerAddr string, protocolID uint8) error
	FinishFiltering() error
}
