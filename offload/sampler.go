package offload

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Sampler provides the system metrics feed consumed by the offload
// decision. The OS source sits behind this interface so tests can
// substitute fixed readings.
type Sampler interface {
	Sample(ctx context.Context) (cpuPercent, memoryPercent float64, err error)
}

// SystemSampler reads CPU and virtual memory utilization from the OS.
type SystemSampler struct{}

// NewSystemSampler creates an OS-backed sampler.
func NewSystemSampler() *SystemSampler {
	return &SystemSampler{}
}

// Sample returns instantaneous CPU and memory utilization percentages.
func (s *SystemSampler) Sample(ctx context.Context) (float64, float64, error) {
	cpuPercents, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sample cpu: %w", err)
	}
	cpuPercent := 0.0
	if len(cpuPercents) > 0 {
		cpuPercent = cpuPercents[0]
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sample memory: %w", err)
	}

	return cpuPercent, vm.UsedPercent, nil
}
