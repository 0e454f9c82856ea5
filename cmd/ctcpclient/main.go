// Command ctcpclient dials a cTCP peer over a raw IP socket and streams a
// file to it, demonstrating the netdrv/ctcp wiring end to end. It is not
// part of the protocol core; it is the kind of ancillary demo the
// teacher's own test/testclient plays.
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
		peerAddr   string
		sourceIP   string
		filePath   string
		configPath string
	)
	flag.StringVar(&peerAddr, "peer", "127.0.0.1", "peer IP address")
	flag.StringVar(&sourceIP, "sourceIP", "127.0.0.4", "local source IP address")
	flag.StringVar(&filePath, "file", "book.txt", "file to send")
	flag.StringVar(&configPath, "config", "config.yaml", "tuning config path")
	flag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Println("using default config:", err)
		cfg = config.DefaultConfig()
	}

	file, err := os.Open(filePath)
	if err != nil {
		log.Fatal(err)
	}
	defer file.Close()

	rsCore, err := rs.NewRSCore(rs.NewDefaultRsConfig())
	if err != nil {
		log.Fatal("failed to create rawsocket core:", err)
	}
	defer rsCore.Close()

	f, err := filter.NewFilter("ctcp_anchor")
	if err != nil {
		log.Fatal("failed to create filter:", err)
	}

	transport, err := netdrv.DialRaw(&rsCore, sourceIP, peerAddr, f)
	if err != nil {
		log.Fatal("failed to dial:", err)
	}
	defer transport.Close()

	source := netdrv.NewReaderSource(file)
	sink := netdrv.NewWriterSink(os.Stdout)
	conn := ctcp.Init(transport, source, sink, netdrv.SystemClock{}, cfg)

	demux := netdrv.NewDemux()
	slot, err := demux.Register(transport.PeerIP(), conn)
	if err != nil {
		log.Fatal("failed to register with demux:", err)
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
		conn.Read()
		conn.Output()
		ctcp.Tick(clock)
	}
}
