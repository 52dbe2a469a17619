// Package mcast sends timestamped UDP multicast test traffic from a chosen
// source address, for exercising EVPN multicast forwarding between lab
// clients.
package mcast

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"golang.org/x/net/ipv4"
)

type Config struct {
	Group    string
	Port     int
	Source   string
	TTL      int
	Count    int
	Interval time.Duration
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.TTL == 0 {
		// High enough to traverse the fabric.
		c.TTL = 64
	}
	if c.Count == 0 {
		c.Count = 30
	}
	if c.Interval == 0 {
		c.Interval = time.Second
	}
}

func (c Config) validate() error {
	ip := net.ParseIP(c.Group)
	if ip == nil || !ip.IsMulticast() {
		return fmt.Errorf("mcast: %q is not a multicast group address", c.Group)
	}
	if c.Source != "" && net.ParseIP(c.Source) == nil {
		return fmt.Errorf("mcast: invalid source address %q", c.Source)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("mcast: invalid port %d", c.Port)
	}
	if c.Count < 0 {
		return errors.New("mcast: count must be >= 0")
	}
	return nil
}

type Sender struct {
	logger *slog.Logger
	cfg    Config
}

func NewSender(cfg Config, logger *slog.Logger) (*Sender, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Sender{logger: logger, cfg: cfg}, nil
}

// Run sends cfg.Count packets, one per interval, and returns early on ctx
// cancellation.
func (s *Sender) Run(ctx context.Context) error {
	laddr := net.JoinHostPort(s.cfg.Source, "0")
	conn, err := net.ListenPacket("udp4", laddr)
	if err != nil {
		return fmt.Errorf("mcast: bind %s: %w", laddr, err)
	}
	defer func() { _ = conn.Close() }()

	p := ipv4.NewPacketConn(conn)
	if err := p.SetMulticastTTL(s.cfg.TTL); err != nil {
		return fmt.Errorf("mcast: set ttl %d: %w", s.cfg.TTL, err)
	}

	dst := &net.UDPAddr{IP: net.ParseIP(s.cfg.Group), Port: s.cfg.Port}
	s.logger.Info("sending multicast",
		"source", s.cfg.Source, "group", s.cfg.Group, "port", s.cfg.Port,
		"ttl", s.cfg.TTL, "count", s.cfg.Count)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for i := 0; i < s.cfg.Count; i++ {
		payload := Payload(i, s.cfg.Source, time.Now())
		if _, err := conn.WriteTo(payload, dst); err != nil {
			return fmt.Errorf("mcast: send packet %d: %w", i, err)
		}
		s.logger.Info("sent", "seq", i, "bytes", len(payload))

		if i == s.cfg.Count-1 {
			break
		}
		select {
		case <-ctx.Done():
			s.logger.Info("multicast send stopped", "sent", i+1)
			return nil
		case <-ticker.C:
		}
	}
	return nil
}

// Payload formats one test packet: sequence number, source, and send time,
// so a receiver-side capture shows ordering and loss at a glance.
func Payload(seq int, source string, at time.Time) []byte {
	return fmt.Appendf(nil, "packet %03d from %s at %s", seq, source, at.Format("15:04:05"))
}
