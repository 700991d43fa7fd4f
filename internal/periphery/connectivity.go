package periphery

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-ping/ping"
)

// Connectivity pings a host and publishes whether it answered.
type Connectivity struct {
	Host     string
	Interval time.Duration
	probe    func(host string) (time.Duration, error)
}

func NewConnectivity(host string, interval time.Duration) *Connectivity {
	return &Connectivity{Host: host, Interval: interval, probe: pingICMP}
}

// Run probes until ctx is done, logging only state changes.
func (c *Connectivity) Run(ctx context.Context, out *Shared) error {
	t := time.NewTicker(c.Interval)
	defer t.Stop()
	known, last := false, false
	for {
		online := c.Check()
		if !known || online != last {
			log.Printf("[periphery] %s reachable: %v", c.Host, online)
		}
		known, last = true, online
		out.SetOnline(online)
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// Check runs one probe.
func (c *Connectivity) Check() bool {
	_, err := c.probe(c.Host)
	return err == nil
}

// pingICMP sends one echo request. Raw ICMP needs root or CAP_NET_RAW.
func pingICMP(host string) (time.Duration, error) {
	pinger, err := ping.NewPinger(host)
	if err != nil {
		return 0, err
	}
	pinger.SetPrivileged(true)
	pinger.Count = 1
	pinger.Timeout = 2 * time.Second

	if err := pinger.Run(); err != nil {
		return 0, err
	}
	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, fmt.Errorf("no reply from %s", host)
	}
	return stats.AvgRtt, nil
}
