package periphery

import (
	"context"
	"os"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemStats is the host part of GET /api/stats.
type SystemStats struct {
	Hostname   string  `json:"hostname"`
	Uptime     uint64  `json:"uptime"`
	MemoryUsed float64 `json:"memoryUsed"` // percent
}

// ReadSystemStats collects what it can; failing probes leave zeros.
func ReadSystemStats(ctx context.Context) SystemStats {
	var st SystemStats
	st.Hostname, _ = os.Hostname()
	if up, err := host.UptimeWithContext(ctx); err == nil {
		st.Uptime = up
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		st.MemoryUsed = vm.UsedPercent
	}
	return st
}
