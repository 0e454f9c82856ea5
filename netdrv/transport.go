package netdrv

import (
	"fmt"
	"net"

	rs "github.com/Clouded-Sabre/rawsocket/lib"

	"github.com/go-ctcp/ctcp/ctcp"
	"github.com/go-ctcp/ctcp/filter"
)

// cTCP's own IP protocol number. Picked from the unassigned range so the
// host kernel's TCP/UDP/ICMP stacks never claim packets carrying it.
const ProtocolID = 253

// RawTransport implements ctcp.Transport over a raw IPv4 socket pinned to
// one peer. It is the concrete collaborator the core spec leaves
// unspecified: Send hands a cTCP segment to the kernel wrapped in an IP
// envelope addressed to the peer.
//
// RawTransport keeps a reference to the caller's rawsocket RSCore but does
// not use it: the raw socket itself is opened with net.ListenIP in DialRaw,
// read and written as a *net.IPConn, and closed by Close. Creating and
// closing the RSCore is done by the caller.
type RawTransport struct {
	core    *rs.RSCore
	conn    *net.IPConn
	peer    *net.IPAddr
	localIP net.IP
	filter  filter.Filter
}

// DialRaw opens a raw IP socket for exchanging cTCP segments with peerIP
// and installs a filtering rule so this host's kernel-issued ICMP
// protocol-unreachable replies to the peer are dropped before they leave.
func DialRaw(core *rs.RSCore, localIP string, peerIP string, f filter.Filter) (*RawTransport, error) {
	local, err := net.ResolveIPAddr("ip4:"+fmt.Sprint(ProtocolID), localIP)
	if err != nil {
		return nil, fmt.Errorf("netdrv: resolve local addr: %w", err)
	}
	peer, err := net.ResolveIPAddr("ip4:"+fmt.Sprint(ProtocolID), peerIP)
	if err != nil {
		return nil, fmt.Errorf("netdrv: resolve peer addr: %w", err)
	}

	conn, err := net.ListenIP("ip4:"+fmt.Sprint(ProtocolID), local)
	if err != nil {
		return nil, fmt.Errorf("netdrv: listen raw ip: %w", err)
	}

	if f != nil {
		if err := f.AddPeerFiltering(peer.IP.String(), ProtocolID); err != nil {
			conn.Close()
			return nil, fmt.Errorf("netdrv: add peer filtering: %w", err)
		}
	}

	return &RawTransport{
		core:    core,
		conn:    conn,
		peer:    peer,
		localIP: local.IP,
		filter:  f,
	}, nil
}

// PeerIP returns the peer address this transport was dialed to.
func (t *RawTransport) PeerIP() net.IP {
	return t.peer.IP
}

// Send implements ctcp.Transport: it writes buf, a fully-encoded cTCP
// segment, to the peer's raw IP socket.
func (t *RawTransport) Send(buf []byte) (int, error) {
	n, err := t.conn.WriteTo(buf, t.peer)
	if err != nil {
		return -1, fmt.Errorf("netdrv: send: %w", err)
	}
	return n, nil
}

// ReadLoop blocks reading raw datagrams off the socket and dispatches
// each through d. It returns when the socket is closed. Callers run this
// in its own goroutine; the cTCP core itself is never re-entered
// concurrently because Dispatch only calls Receive on the one connection
// matching the datagram's source address, and each Connection's
// Read/Receive/Output/tick are only ever invoked serially by the
// environment driving it.
func (t *RawTransport) ReadLoop(d *Demux) error {
	buf := make([]byte, 64*1024)
	for {
		n, _, err := t.conn.ReadFrom(buf)
		if err != nil {
			return fmt.Errorf("netdrv: read loop: %w", err)
		}
		if n == 0 {
			continue
		}
		if err := d.Dispatch(buf[:n]); err != nil {
			continue
		}
	}
}

// Close releases the underlying raw socket and any filtering rule it
// installed.
func (t *RawTransport) Close() error {
	if t.filter != nil {
		_ = t.filter.RemovePeerFiltering(t.peer.IP.String(), ProtocolID)
	}
	return t.conn.Close()
}

var _ ctcp.Transport = (*RawTransport)(nil)
