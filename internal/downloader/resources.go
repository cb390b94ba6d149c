package downloader

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// ResourceMonitor supplies free-memory and free-disk fractions for
// queue optimization.
type ResourceMonitor interface {
	FreeMemoryFraction() (float64, error)
	FreeDiskFraction() (float64, error)
}

// CapacityRule maps a resource floor to a concurrency cap. A rule
// matches when both free fractions are at or above its floors.
type CapacityRule struct {
	MinFreeMemory float64
	MinFreeDisk   float64
	Concurrent    int
}

// CapacityPolicy is an ordered rule table; the first matching rule wins.
type CapacityPolicy []CapacityRule

// DefaultCapacityPolicy raises the cap when both resources are
// comfortably free and lowers it under pressure. Tunable, not business
// logic.
var DefaultCapacityPolicy = CapacityPolicy{
	{MinFreeMemory: 0.5, MinFreeDisk: 0.3, Concurrent: 5},
	{MinFreeMemory: 0.2, MinFreeDisk: 0.1, Concurrent: 3},
	{Concurrent: 2},
}

// Concurrency returns the cap for the given free fractions.
func (p CapacityPolicy) Concurrency(freeMem, freeDisk float64) int {
	for _, rule := range p {
		if freeMem >= rule.MinFreeMemory && freeDisk >= rule.MinFreeDisk {
			return rule.Concurrent
		}
	}
	return 1
}

// HostMonitor reads memory from /proc/meminfo and disk from statfs on
// the given path.
type HostMonitor struct {
	Path string
}

// NewHostMonitor builds a monitor sampling the given mount path.
func NewHostMonitor(path string) *HostMonitor {
	if path == "" {
		path = "/"
	}
	return &HostMonitor{Path: path}
}

// FreeMemoryFraction returns MemAvailable / MemTotal.
func (h *HostMonitor) FreeMemoryFraction() (float64, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var totalKB, availKB int64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		value, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			totalKB = value
		case "MemAvailable:":
			availKB = value
		}
		if totalKB > 0 && availKB > 0 {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	if totalKB <= 0 {
		return 0, fmt.Errorf("meminfo: MemTotal missing")
	}
	return float64(availKB) / float64(totalKB), nil
}

// FreeDiskFraction returns free/total blocks of the monitored path.
func (h *HostMonitor) FreeDiskFraction() (float64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(h.Path, &stat); err != nil {
		return 0, err
	}
	if stat.Blocks == 0 {
		return 0, fmt.Errorf("statfs: zero total blocks")
	}
	return float64(stat.Bavail) / float64(stat.Blocks), nil
}
