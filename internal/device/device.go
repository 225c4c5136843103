// Package device probes host memory and decides whether the machine can
// hold the model. The verdict is recomputed per initialization attempt;
// nothing here is cached.
package device

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	defaultMeminfoPath  = "/proc/meminfo"
	defaultPressurePath = "/proc/pressure/memory"

	// Share of stalled time (avg10, percent) above which the host is
	// considered under memory pressure.
	pressureThreshold = 10.0
)

// MemoryStat holds probed host memory numbers in MB. Zero values mean the
// probe could not read them.
type MemoryStat struct {
	TotalMB     int
	AvailableMB int
}

// Verdict is the capability decision for one initialization attempt.
type Verdict struct {
	// Capable is false only when total memory is known and below the floor.
	Capable bool
	// Warning is set when the device is below the recommended threshold. It
	// always names the measured value.
	Warning string
	// Stat carries the probed numbers for reporting.
	Stat MemoryStat
}

// Checker applies configured thresholds to probed host memory.
//
// An unreadable probe (non-Linux hosts, restricted /proc) yields an unknown
// total, which is treated as capable: the check exists to stop obviously
// undersized devices, not to block hosts we cannot measure.
type Checker struct {
	MinMB         int
	RecommendedMB int

	meminfoPath  string
	pressurePath string
}

// New returns a Checker reading the standard Linux interfaces.
func New(minMB, recommendedMB int) *Checker {
	return &Checker{
		MinMB:         minMB,
		RecommendedMB: recommendedMB,
		meminfoPath:   defaultMeminfoPath,
		pressurePath:  defaultPressurePath,
	}
}

// Check probes memory and returns the capability verdict.
func (c *Checker) Check() Verdict {
	stat, err := readMeminfo(c.meminfoPath)
	if err != nil || stat.TotalMB <= 0 {
		return Verdict{Capable: true}
	}
	v := Verdict{Stat: stat}
	switch {
	case stat.TotalMB < c.MinMB:
		v.Capable = false
		v.Warning = fmt.Sprintf("device reports %d MB RAM, below the %d MB minimum for on-device inference", stat.TotalMB, c.MinMB)
	case stat.TotalMB < c.RecommendedMB:
		v.Capable = true
		v.Warning = fmt.Sprintf("device reports %d MB RAM, below the recommended %d MB; generation may be slow", stat.TotalMB, c.RecommendedMB)
	default:
		v.Capable = true
	}
	return v
}

// Memory returns the current probed numbers without applying thresholds.
func (c *Checker) Memory() MemoryStat {
	stat, err := readMeminfo(c.meminfoPath)
	if err != nil {
		return MemoryStat{}
	}
	return stat
}

// LowMemory reports whether the host's own pressure interface currently
// signals memory pressure. Independent of the capability verdict.
func (c *Checker) LowMemory() bool {
	avg10, err := readPressure(c.pressurePath)
	if err != nil {
		return false
	}
	return avg10 >= pressureThreshold
}

// readMeminfo parses MemTotal and MemAvailable (kB) out of a
// /proc/meminfo-format file.
func readMeminfo(path string) (MemoryStat, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return MemoryStat{}, err
	}
	var stat MemoryStat
	for _, line := range strings.Split(string(b), "\n") {
		var target *int
		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			target = &stat.TotalMB
		case strings.HasPrefix(line, "MemAvailable:"):
			target = &stat.AvailableMB
		default:
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		*target = int(kb / 1024)
	}
	if stat.TotalMB == 0 {
		return stat, fmt.Errorf("no MemTotal in %s", path)
	}
	return stat, nil
}

// readPressure parses the "some avg10" percentage out of a
// /proc/pressure/memory-format file.
func readPressure(path string) (float64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(string(b), "\n") {
		if !strings.HasPrefix(line, "some ") {
			continue
		}
		for _, field := range strings.Fields(line) {
			if !strings.HasPrefix(field, "avg10=") {
				continue
			}
			return strconv.ParseFloat(strings.TrimPrefix(field, "avg10="), 64)
		}
	}
	return 0, fmt.Errorf("no some/avg10 line in %s", path)
}
