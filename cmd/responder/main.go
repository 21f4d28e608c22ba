package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/hodgesds/responder"
)

var (
	cfg      = responder.DefaultConfig()
	engine   string
	logLevel string
)

func init() {
	flag.StringVar(&cfg.Address, "addr", cfg.Address, "address to bind")
	flag.IntVar(&cfg.Port, "port", cfg.Port, "TCP port")
	flag.IntVar(&cfg.Backlog, "backlog", cfg.Backlog, "listen backlog")
	flag.IntVar(&cfg.ReadSize, "read-size", cfg.ReadSize, "max bytes read from a connection")
	flag.BoolVar(&cfg.ReuseAddr, "reuse-addr", cfg.ReuseAddr, "set SO_REUSEADDR on the listening socket")
	flag.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "read timeout per connection, 0 waits forever")
	flag.StringVar(&engine, "engine", string(cfg.Engine), "connection I/O engine: syscall or iouring")
	flag.UintVar(&cfg.RingEntries, "ring-entries", cfg.RingEntries, "io_uring entries for the iouring engine")
	flag.StringVar(&logLevel, "log-level", "info", "log level")
}

func main() {
	flag.Parse()
	cfg.Engine = responder.EngineKind(engine)

	log := logrus.New()
	log.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		log.Fatal(err)
	}
	log.SetLevel(level)

	s, err := responder.New(cfg, responder.WithLogger(log))
	if err != nil {
		log.Fatal(err)
	}
	if err := s.Serve(); err != nil {
		s.Close()
		log.Fatal(err)
	}
}
