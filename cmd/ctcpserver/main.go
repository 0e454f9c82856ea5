// Command ctcpserver accepts a cTCP stream from one known peer over a raw
// IP socket and writes it to stdout, the server-side counterpart to
// ctcpclient. Like ctcpclient it exists to exercise the netdrv wiring,
// not as part of the protocol core.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/go-ctcp/ctcp/config"
	"github.com/go-ctcp/ctcp/ctcp"
	"github.com/go-ctcp/ctcp/filter"
	"github.com/go-ctcp/ctcp/netdrv"

	rs "github.com/Clouded-Sabre/rawsocket/lib"
)

func main() {
	var (
		localIP    string
		peerIP     string
		configPath string
	)
	flag.StringVar(&localIP, "listenIP", "127.0.0.1", "local IP address to bind")
	flag.StringVar(&peerIP, "peer", "127.0.0.4", "expected peer IP address")
	flag.StringVar(&configPath, "config", "config.yaml", "tuning config path")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Println("using default config:", err)
		cfg = config.DefaultConfig()
	}

	rsCore, err := rs.NewRSCore(rs.NewDefaultRsConfig())
	if err != nil {
		log.Fatal("failed to create rawsocket core:", err)
	}
	defer rsCore.Close()

	f, err := filter.NewFilter("ctcp_anchor")
	if err != nil {
		log.Fatal("failed to create filter:", err)
	}

	transport, err := netdrv.DialRaw(&rsCore, localIP, peerIP, f)
	if err != nil {
		log.Fatal("failed to bind:", err)
	}
	defer transport.Close()

	source := netdrv.NewReaderSource(os.Stdin)
	sink := netdrv.NewWriterSink(os.Stdout)
	conn := ctcp.Init(transport, source, sink, netdrv.SystemClock{}, cfg)

	demux := netdrv.NewDemux()
	// A single known peer is registered up front; a real accept loop that
	// creates a Connection on first contact from an unregistered address
	// would hang off Demux.Dispatch finding no match, which is left as an
	// extension point rather than built here.
	slot, err := demux.Register(transport.PeerIP(), conn)
	if err != nil {
		log.Fatal("failed to register peer:", err)
	}
	defer demux.Unregister(transport.PeerIP(), slot)

	go func() {
		if err := transport.ReadLoop(demux); err != nil {
			log.Println("read loop stopped:", err)
		}
	}()

	ticker := time.NewTicker(time.Duration(cfg.TimerMs) * time.Millisecond)
	defer ticker.Stop()

	clock := netdrv.SystemClock{}
	for range ticker.C {
		conn.Output()
		ctcp.Tick(clock)
	}
}
