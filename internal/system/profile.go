package system

import (
	"runtime"
	"syscall"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"
)

const (
	// maxCacheBudget caps the render cache regardless of available memory.
	maxCacheBudget = 1 << 30
	// cacheShare is the fraction of available memory the cache may claim.
	cacheShare = 0.25
	// fallbackAvailable is assumed when the host cannot be queried.
	fallbackAvailable = 2 << 30
)

// Profile summarizes the host resources that size the worker pool and the
// render cache.
type Profile struct {
	CPUs         int
	TotalMemory  uint64
	AvailMemory  uint64
	CacheBudget  uint64 // bytes
	FromFallback bool
}

// Detect queries the host through gopsutil. Failures fall back to
// runtime.NumCPU and a fixed memory estimate.
func Detect() Profile {
	p := Profile{}

	if n, err := cpu.Counts(true); err == nil && n > 0 {
		p.CPUs = n
	} else {
		p.CPUs = runtime.NumCPU()
		p.FromFallback = true
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		p.TotalMemory = vm.Total
		p.AvailMemory = vm.Available
	} else {
		logrus.WithError(err).Debug("memory stats unavailable, using fallback")
		p.TotalMemory = fallbackAvailable
		p.AvailMemory = fallbackAvailable
		p.FromFallback = true
	}

	p.CacheBudget = CacheBudget(p.AvailMemory)
	return p
}

// CacheBudget returns min(1 GiB, 25% of available).
func CacheBudget(available uint64) uint64 {
	budget := uint64(float64(available) * cacheShare)
	if budget > maxCacheBudget {
		budget = maxCacheBudget
	}
	return budget
}

// CacheEntries converts a byte budget into a frame count for a canvas of the
// given size. At least one entry is always allowed.
func CacheEntries(budget uint64, width, height int) int {
	per := uint64(width) * uint64(height) * 4 * 4
	if per == 0 {
		return 1
	}
	n := int(budget / per)
	if n < 1 {
		return 1
	}
	return n
}

// InitResourceLimits raises the open-file limit so many image and PDF sources
// can stay open during a long render.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logrus.WithError(err).Warn("could not read open file limit")
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		logrus.WithError(err).Warn("could not raise open file limit")
		return
	}
	logrus.WithField("limit", rLimit.Cur).Debug("open file limit raised")
}
