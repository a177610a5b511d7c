package system

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Info is a point-in-time resource summary. Fields the platform cannot report are left
// at their zero value with the matching Has flag false.
type Info struct {
	CPUs int

	HasLoad bool
	Load1   float64

	HasMemory     bool
	MemoryPercent float64

	HasBattery     bool
	BatteryPercent int
	Charging       bool
}

func (i Info) String() string {
	var parts []string
	if i.HasBattery {
		state := "not charging"
		if i.Charging {
			state = "charging"
		}
		parts = append(parts, fmt.Sprintf("Battery is at %d%% and %s", i.BatteryPercent, state))
	}
	if i.HasMemory {
		parts = append(parts, fmt.Sprintf("Memory usage is at %.1f%%", i.MemoryPercent))
	}
	if i.HasLoad {
		parts = append(parts, fmt.Sprintf("CPU load is %.2f across %d cores", i.Load1, i.CPUs))
	} else {
		parts = append(parts, fmt.Sprintf("This machine has %d CPU cores", i.CPUs))
	}
	return strings.Join(parts, ". ")
}

func (c *Controller) Info(ctx context.Context) (Info, error) {
	info := Info{CPUs: runtime.NumCPU()}
	if err := ctx.Err(); err != nil {
		return info, err
	}
	if c.goos != "linux" {
		return info, nil
	}

	if data, err := c.readFile("/proc/loadavg"); err == nil {
		if fields := strings.Fields(string(data)); len(fields) > 0 {
			if v, err := strconv.ParseFloat(fields[0], 64); err == nil {
				info.HasLoad, info.Load1 = true, v
			}
		}
	}
	if data, err := c.readFile("/proc/meminfo"); err == nil {
		if pct, ok := memoryPercent(data); ok {
			info.HasMemory, info.MemoryPercent = true, pct
		}
	}
	if data, err := c.readFile("/sys/class/power_supply/BAT0/capacity"); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(string(data))); err == nil {
			info.HasBattery, info.BatteryPercent = true, v
			if status, err := c.readFile("/sys/class/power_supply/BAT0/status"); err == nil {
				s := strings.TrimSpace(string(status))
				info.Charging = s == "Charging" || s == "Full"
			}
		}
	}
	return info, nil
}

func memoryPercent(meminfo []byte) (float64, bool) {
	var total, available float64
	scanner := bufio.NewScanner(bytes.NewReader(meminfo))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total = v
		case "MemAvailable:":
			available = v
		}
	}
	if total <= 0 {
		return 0, false
	}
	return (total - available) / total * 100, true
}
