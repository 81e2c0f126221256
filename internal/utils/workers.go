package utils

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// DefaultWorkers returns the number of logical CPUs, falling back to GOMAXPROCS
// when the host cannot be inspected.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return n
}

// ResolveWorkers returns configured when positive, otherwise DefaultWorkers().
func ResolveWorkers(configured int) int {
	if configured > 0 {
		return configured
	}
	return DefaultWorkers()
}
