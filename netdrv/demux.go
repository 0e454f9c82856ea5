package netdrv

import (
	"fmt"
	"net"
	"sync"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/go-ctcp/ctcp/ctcp"
)

// Demux is the framing/demultiplexing driver the core spec names as an
// external collaborator: it takes each datagram read off a raw IP socket
// (by RawTransport.ReadLoop), strips the IP envelope with gopacket, and routes the cTCP
// payload to the Connection registered for that peer. One Demux serves
// every connection sharing a local raw socket.
type Demux struct {
	mu    sync.RWMutex
	peers map[string]*ctcp.Connection
	slots *slotPool
}

// NewDemux creates an empty demultiplexer with a bounded slot space for
// connection bookkeeping.
func NewDemux() *Demux {
	return &Demux{
		peers: make(map[string]*ctcp.Connection),
		slots: newSlotPool(1, 65535),
	}
}

// Register binds peerIP to conn so future datagrams from that address are
// routed to it. Returns the allocated bookkeeping slot, which Unregister
// needs back.
func (d *Demux) Register(peerIP net.IP, conn *ctcp.Connection) (int, error) {
	slot, err := d.slots.allocate()
	if err != nil {
		return 0, err
	}

	d.mu.Lock()
	d.peers[peerIP.String()] = conn
	d.mu.Unlock()

	return slot, nil
}

// Unregister removes peerIP's connection and reclaims its slot.
func (d *Demux) Unregister(peerIP net.IP, slot int) {
	d.mu.Lock()
	delete(d.peers, peerIP.String())
	d.mu.Unlock()

	_ = d.slots.release(slot)
}

// Dispatch decodes an IPv4 envelope from a raw-socket read and hands the
// payload to the registered connection's Receive. Datagrams from
// unregistered peers are dropped with a nil error; a datagram without a
// decodable IPv4 layer is dropped and reported as an error. The core's own
// decode handles malformed cTCP payloads.
func (d *Demux) Dispatch(raw []byte) error {
	packet := gopacket.NewPacket(raw, layers.LayerTypeIPv4, gopacket.NoCopy)
	ipLayer := packet.Layer(layers.LayerTypeIPv4)
	if ipLayer == nil {
		return fmt.Errorf("netdrv: dispatch: no IPv4 layer in datagram")
	}
	ip, ok := ipLayer.(*layers.IPv4)
	if !ok {
		return fmt.Errorf("netdrv: dispatch: IPv4 layer assertion failed")
	}

	d.mu.RLock()
	conn, found := d.peers[ip.SrcIP.String()]
	d.mu.RUnlock()
	if !found {
		return nil
	}

	conn.Receive(ip.Payload)
	return nil
}
