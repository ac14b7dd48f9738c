package eventsink

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/process"
)

// ResourceGauge periodically reports the engine process's CPU and memory
// usage into the metrics sink — ambient, not domain-specific (spec
// §11.12), grounded on the teacher's declared-but-unwired
// github.com/shirou/gopsutil/v3 dependency.
type ResourceGauge struct {
	cpuPercent prometheus.Gauge
	memBytes   prometheus.Gauge
	proc       *process.Process
}

// NewResourceGauge registers its collectors and targets the current
// process.
func NewResourceGauge(registerer prometheus.Registerer) (*ResourceGauge, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}

	g := &ResourceGauge{
		cpuPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oxy_engine_process_cpu_percent",
			Help: "Engine process CPU usage percentage.",
		}),
		memBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oxy_engine_process_memory_bytes",
			Help: "Engine process resident memory in bytes.",
		}),
		proc: proc,
	}

	if registerer != nil {
		registerer.MustRegister(g.cpuPercent, g.memBytes)
	}
	return g, nil
}

// Sample reads current CPU/memory usage and updates the gauges.
func (g *ResourceGauge) Sample() error {
	percent, err := g.proc.PercentWithContext(context.Background(), 0)
	if err != nil {
		return err
	}
	g.cpuPercent.Set(percent)

	memInfo, err := g.proc.MemoryInfoWithContext(context.Background())
	if err != nil {
		return err
	}
	g.memBytes.Set(float64(memInfo.RSS))
	return nil
}

// Run samples on the given interval until ctx is cancelled.
func (g *ResourceGauge) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = g.Sample()
		}
	}
}
